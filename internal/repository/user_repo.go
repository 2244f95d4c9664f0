package repository

import (
	"context"
	"errors"
	"fmt"

	"auth_gateway/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrDuplicateEmail       = errors.New("email already used")
	ErrDuplicatePartnerCode = errors.New("partner code already used")
	ErrNotFound             = errors.New("user not found")
)

const (
	uniqueViolationCode       = "23505"
	emailConstraintName       = "users_email_key"
	partnerCodeConstraintName = "users_partner_code_key"
)

// DBTX is the subset of *pgxpool.Pool the repository needs
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// UserRepository defines operations for user data.
// Lookups return (nil, nil) when no live user matches.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id int) (*model.User, error)
	FindByPartnerCode(ctx context.Context, code string) (*model.User, error)
	FindAll(ctx context.Context) ([]model.User, error)
	UpdateFields(ctx context.Context, id int, fields model.UserFieldsUpdate) error
	RecordLogin(ctx context.Context, id int, restaurantRef *string) error
	SetRefreshToken(ctx context.Context, id int, token string) error
	ToggleBlocked(ctx context.Context, id int) (bool, error)
	SoftDelete(ctx context.Context, id int) error
}

type userRepository struct {
	db DBTX
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db DBTX) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, first_name, last_name, email, password, role, partner_code, partner_id,
	restaurant, refresh_token, is_blocked, last_login, created_at, updated_at`

func scanUser(row pgx.Row) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(&user.ID, &user.FirstName, &user.LastName, &user.Email, &user.PasswordHash,
		&user.Role, &user.PartnerCode, &user.PartnerID, &user.RestaurantRef, &user.RefreshToken,
		&user.IsBlocked, &user.LastLogin, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// constraintError maps unique violations to sentinel errors, nil for anything else
func constraintError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		switch pgErr.ConstraintName {
		case emailConstraintName:
			return ErrDuplicateEmail
		case partnerCodeConstraintName:
			return ErrDuplicatePartnerCode
		}
	}
	return nil
}

// Create inserts a new user into the database
func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	sql := `INSERT INTO users (first_name, last_name, email, password, role, partner_code, partner_id)
            VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, sql, user.FirstName, user.LastName, user.Email, user.PasswordHash,
		user.Role, user.PartnerCode, user.PartnerID).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if cerr := constraintError(err); cerr != nil {
			return cerr
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepository) findOne(ctx context.Context, where string, arg any) (*model.User, error) {
	sql := `SELECT ` + userColumns + ` FROM users WHERE ` + where + ` AND deleted_at IS NULL`
	user, err := scanUser(r.db.QueryRow(ctx, sql, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found is not an error for lookups, service layer handles it
		}
		return nil, err
	}
	return user, nil
}

// FindByEmail retrieves a user by email
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := r.findOne(ctx, "email = $1", email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return user, nil
}

// FindByID retrieves a user by their ID
func (r *userRepository) FindByID(ctx context.Context, id int) (*model.User, error) {
	user, err := r.findOne(ctx, "id = $1", id)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return user, nil
}

// FindByPartnerCode retrieves the user owning a partner code
func (r *userRepository) FindByPartnerCode(ctx context.Context, code string) (*model.User, error) {
	user, err := r.findOne(ctx, "partner_code = $1", code)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by partner code: %w", err)
	}
	return user, nil
}

// FindAll lists every live user ordered by id
func (r *userRepository) FindAll(ctx context.Context) ([]model.User, error) {
	sql := `SELECT ` + userColumns + ` FROM users WHERE deleted_at IS NULL ORDER BY id`
	rows, err := r.db.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}

// UpdateFields changes the non-nil profile fields of a user
func (r *userRepository) UpdateFields(ctx context.Context, id int, fields model.UserFieldsUpdate) error {
	if fields.IsEmpty() {
		return nil
	}
	sql := `UPDATE users SET
				first_name = COALESCE($1, first_name),
				last_name = COALESCE($2, last_name),
				email = COALESCE($3, email),
				password = COALESCE($4, password)
			WHERE id = $5 AND deleted_at IS NULL`
	tag, err := r.db.Exec(ctx, sql, fields.FirstName, fields.LastName, fields.Email, fields.PasswordHash, id)
	if err != nil {
		if cerr := constraintError(err); cerr != nil {
			return cerr
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordLogin stamps last_login and, when known, the restaurant reference
func (r *userRepository) RecordLogin(ctx context.Context, id int, restaurantRef *string) error {
	sql := `UPDATE users SET last_login = NOW(), restaurant = COALESCE($1, restaurant)
			WHERE id = $2 AND deleted_at IS NULL`
	tag, err := r.db.Exec(ctx, sql, restaurantRef, id)
	if err != nil {
		return fmt.Errorf("failed to record login: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetRefreshToken replaces the stored refresh token; the previous value stops being accepted
func (r *userRepository) SetRefreshToken(ctx context.Context, id int, token string) error {
	sql := `UPDATE users SET refresh_token = $1 WHERE id = $2 AND deleted_at IS NULL`
	tag, err := r.db.Exec(ctx, sql, token, id)
	if err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ToggleBlocked flips is_blocked in a single statement and returns the new state
func (r *userRepository) ToggleBlocked(ctx context.Context, id int) (bool, error) {
	sql := `UPDATE users SET is_blocked = NOT is_blocked
			WHERE id = $1 AND deleted_at IS NULL RETURNING is_blocked`
	var blocked bool
	if err := r.db.QueryRow(ctx, sql, id).Scan(&blocked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("failed to toggle blocked state: %w", err)
	}
	return blocked, nil
}

// SoftDelete marks a user deleted and unlinks every user it referred
func (r *userRepository) SoftDelete(ctx context.Context, id int) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // No-op after commit

	tag, err := tx.Exec(ctx, `UPDATE users SET deleted_at = NOW(), refresh_token = NULL
			WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	if _, err := tx.Exec(ctx, `UPDATE users SET partner_id = NULL WHERE partner_id = $1`, id); err != nil {
		return fmt.Errorf("failed to unlink referred users: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit delete: %w", err)
	}
	return nil
}
