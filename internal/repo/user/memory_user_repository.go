package user

import (
	"context"
	"sync"
	"time"

	"github.com/mkrupp/todo-auth/internal/domain"
)

// MemoryUserRepository implements Repository with an owned, lock-guarded map.
// It is meant for tests and local runs; data does not survive a restart.
type MemoryUserRepository struct {
	mu         sync.RWMutex
	byID       map[string]*domain.User
	byUsername map[string]*domain.User
}

var _ Repository = (*MemoryUserRepository)(nil)

// NewMemoryUserRepository creates an empty MemoryUserRepository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		byID:       make(map[string]*domain.User),
		byUsername: make(map[string]*domain.User),
	}
}

// Insert implements Repository.Insert. The uniqueness check and the write
// happen under one lock.
func (r *MemoryUserRepository) Insert(_ context.Context, username, passwordHash string) (*domain.User, error) {
	id, err := newUserID()
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byUsername[username]; exists {
		return nil, domain.ErrUserAlreadyExists
	}

	user := &domain.User{
		ID:           id,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().Unix(),
	}

	r.byID[user.ID] = user
	r.byUsername[user.Username] = user

	u := *user

	return &u, nil
}

// FindByUsername implements Repository.FindByUsername.
func (r *MemoryUserRepository) FindByUsername(_ context.Context, username string) (*domain.User, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return clone(r.byUsername[username])
}

// FindByID implements Repository.FindByID.
func (r *MemoryUserRepository) FindByID(_ context.Context, id string) (*domain.User, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return clone(r.byID[id])
}

// Len returns the number of stored users.
func (r *MemoryUserRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.byID)
}

// Close implements Repository.Close.
func (r *MemoryUserRepository) Close() error {
	return nil
}

func clone(user *domain.User) (*domain.User, bool, error) {
	if user == nil {
		return nil, false, nil
	}

	u := *user

	return &u, true, nil
}
