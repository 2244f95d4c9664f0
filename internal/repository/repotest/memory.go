// Package repotest provides an in-memory UserRepository for tests.
package repotest

import (
	"context"
	"sort"
	"sync"
	"time"

	"auth_gateway/internal/model"
	"auth_gateway/internal/repository"
)

// MemoryUserRepository mirrors the database constraints of the users table:
// live emails are unique, partner codes are unique across all rows.
type MemoryUserRepository struct {
	mu     sync.Mutex
	nextID int
	users  map[int]*model.User

	// CreateErr, when set, is returned by the next Create call and then cleared
	CreateErr error
}

var _ repository.UserRepository = (*MemoryUserRepository)(nil)

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{nextID: 1, users: make(map[int]*model.User)}
}

func clone(u *model.User) *model.User {
	c := *u
	return &c
}

func (m *MemoryUserRepository) live(id int) (*model.User, bool) {
	u, ok := m.users[id]
	if !ok || u.DeletedAt != nil {
		return nil, false
	}
	return u, true
}

func (m *MemoryUserRepository) Create(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.CreateErr; err != nil {
		m.CreateErr = nil
		return err
	}
	for _, u := range m.users {
		if u.DeletedAt == nil && u.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
		if u.PartnerCode == user.PartnerCode {
			return repository.ErrDuplicatePartnerCode
		}
	}

	now := time.Now()
	user.ID = m.nextID
	user.CreatedAt = now
	user.UpdatedAt = now
	m.nextID++
	m.users[user.ID] = clone(user)
	return nil
}

func (m *MemoryUserRepository) find(match func(*model.User) bool) *model.User {
	for _, u := range m.users {
		if u.DeletedAt == nil && match(u) {
			return clone(u)
		}
	}
	return nil
}

func (m *MemoryUserRepository) FindByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.find(func(u *model.User) bool { return u.Email == email }), nil
}

func (m *MemoryUserRepository) FindByID(_ context.Context, id int) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.live(id); ok {
		return clone(u), nil
	}
	return nil, nil
}

func (m *MemoryUserRepository) FindByPartnerCode(_ context.Context, code string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.find(func(u *model.User) bool { return u.PartnerCode == code }), nil
}

func (m *MemoryUserRepository) FindAll(_ context.Context) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var users []model.User
	for _, u := range m.users {
		if u.DeletedAt == nil {
			users = append(users, *u)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (m *MemoryUserRepository) UpdateFields(_ context.Context, id int, fields model.UserFieldsUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.live(id)
	if !ok {
		return repository.ErrNotFound
	}
	if fields.Email != nil {
		for _, other := range m.users {
			if other.ID != id && other.DeletedAt == nil && other.Email == *fields.Email {
				return repository.ErrDuplicateEmail
			}
		}
		u.Email = *fields.Email
	}
	if fields.FirstName != nil {
		u.FirstName = *fields.FirstName
	}
	if fields.LastName != nil {
		u.LastName = *fields.LastName
	}
	if fields.PasswordHash != nil {
		u.PasswordHash = *fields.PasswordHash
	}
	u.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryUserRepository) RecordLogin(_ context.Context, id int, restaurantRef *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.live(id)
	if !ok {
		return repository.ErrNotFound
	}
	now := time.Now()
	u.LastLogin = &now
	if restaurantRef != nil {
		ref := *restaurantRef
		u.RestaurantRef = &ref
	}
	return nil
}

func (m *MemoryUserRepository) SetRefreshToken(_ context.Context, id int, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.live(id)
	if !ok {
		return repository.ErrNotFound
	}
	u.RefreshToken = &token
	return nil
}

func (m *MemoryUserRepository) ToggleBlocked(_ context.Context, id int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.live(id)
	if !ok {
		return false, repository.ErrNotFound
	}
	u.IsBlocked = !u.IsBlocked
	return u.IsBlocked, nil
}

func (m *MemoryUserRepository) SoftDelete(_ context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.live(id)
	if !ok {
		return repository.ErrNotFound
	}
	now := time.Now()
	u.DeletedAt = &now
	u.RefreshToken = nil
	for _, other := range m.users {
		if other.PartnerID != nil && *other.PartnerID == id {
			other.PartnerID = nil
		}
	}
	return nil
}

// Raw returns the stored record including soft-deleted ones
func (m *MemoryUserRepository) Raw(id int) *model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		return clone(u)
	}
	return nil
}
