package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"auth_gateway/internal/model"
	"auth_gateway/internal/repository"
	"auth_gateway/internal/utils"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrForbidden        = errors.New("you do not have permission to perform this action")
	ErrWrongPassword    = errors.New("current password is incorrect")
	ErrNothingToUpdate  = errors.New("nothing to update")
	ErrPasswordRequired = errors.New("current password is required to change the password")
)

// AccountService manages the lifecycle of existing accounts
type AccountService interface {
	GetUser(ctx context.Context, id int) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, caller model.AuthenticatedIdentity, req model.UpdateUserRequest) error
	// ToggleSuspend flips the blocked state and returns the resulting value
	ToggleSuspend(ctx context.Context, userID int) (bool, error)
	Delete(ctx context.Context, userID int) error
}

type accountService struct {
	userRepo   repository.UserRepository
	policy     RolePolicy
	bcryptCost int
}

// NewAccountService creates a new AccountService
func NewAccountService(userRepo repository.UserRepository, policy RolePolicy, bcryptCost int) AccountService {
	return &accountService{userRepo: userRepo, policy: policy, bcryptCost: bcryptCost}
}

func (s *accountService) GetUser(ctx context.Context, id int) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error finding user by ID: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *accountService) ListUsers(ctx context.Context) ([]model.User, error) {
	users, err := s.userRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []model.User{}
	}
	return users, nil
}

// Update changes profile fields of the caller, or of another account when the caller
// is privileged. A password change always needs the account's current password.
func (s *accountService) Update(ctx context.Context, caller model.AuthenticatedIdentity, req model.UpdateUserRequest) error {
	targetID := caller.UserID
	if req.UserID != nil && *req.UserID != caller.UserID {
		if !s.policy.IsPrivileged(caller.Role) {
			return ErrForbidden
		}
		targetID = *req.UserID
	}

	target, err := s.GetUser(ctx, targetID)
	if err != nil {
		return err
	}

	var fields model.UserFieldsUpdate
	if req.FirstName != nil {
		name := strings.TrimSpace(*req.FirstName)
		fields.FirstName = &name
	}
	if req.LastName != nil {
		name := strings.TrimSpace(*req.LastName)
		fields.LastName = &name
	}
	if req.Email != nil && *req.Email != target.Email {
		existing, err := s.userRepo.FindByEmail(ctx, *req.Email)
		if err != nil {
			return fmt.Errorf("failed to check existing user: %w", err)
		}
		if existing != nil && existing.ID != target.ID {
			return ErrEmailAlreadyUsed
		}
		fields.Email = req.Email
	}
	if req.NewPassword != nil {
		if req.CurrentPassword == nil {
			return ErrPasswordRequired
		}
		if !utils.CheckPasswordHash(*req.CurrentPassword, target.PasswordHash) {
			return ErrWrongPassword
		}
		hash, err := utils.HashPasswordWithCost(*req.NewPassword, s.bcryptCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		fields.PasswordHash = &hash
	}

	if fields.IsEmpty() {
		return ErrNothingToUpdate
	}

	if err := s.userRepo.UpdateFields(ctx, target.ID, fields); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			return ErrEmailAlreadyUsed
		case errors.Is(err, repository.ErrNotFound):
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	log.Printf("INFO: user %d updated by user %d", target.ID, caller.UserID)
	return nil
}

func (s *accountService) ToggleSuspend(ctx context.Context, userID int) (bool, error) {
	blocked, err := s.userRepo.ToggleBlocked(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, ErrUserNotFound
		}
		return false, err
	}
	log.Printf("INFO: user %d blocked=%t", userID, blocked)
	return blocked, nil
}

// Delete is irreversible; users referred by the deleted account lose their partner link
func (s *accountService) Delete(ctx context.Context, userID int) error {
	if err := s.userRepo.SoftDelete(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	log.Printf("INFO: user %d deleted", userID)
	return nil
}
