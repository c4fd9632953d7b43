package memory

import (
	"context"
	"sync"
)

type user struct {
	authorized  bool
	displayName string
}

// UserRepo keeps bot users in memory
type UserRepo struct {
	mu    sync.RWMutex
	users map[int64]*user
}

// NewUserRepo creates a new user repository
func NewUserRepo() *UserRepo {
	return &UserRepo{users: make(map[int64]*user)}
}

// IsAuthorized checks if user is authorized
func (r *UserRepo) IsAuthorized(_ context.Context, userID int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[userID]
	return ok && u.authorized, nil
}

// AuthorizeUser marks user as authorized
func (r *UserRepo) AuthorizeUser(_ context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok {
		u = &user{}
		r.users[userID] = u
	}
	u.authorized = true
	return nil
}

// EnsureUserExists creates user if not exists and refreshes the display name
func (r *UserRepo) EnsureUserExists(_ context.Context, userID int64, displayName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok {
		u = &user{}
		r.users[userID] = u
	}
	if displayName != "" {
		u.displayName = displayName
	}
	return nil
}

// DisplayName returns the stored display name, empty when unknown
func (r *UserRepo) DisplayName(_ context.Context, userID int64) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if u, ok := r.users[userID]; ok {
		return u.displayName, nil
	}
	return "", nil
}
