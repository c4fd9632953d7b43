package service

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"

	"keydesk/internal/repository"
)

// AuthService gates the bot behind the shared team password
type AuthService struct {
	userRepo    repository.UserRepository
	botPassword string
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo repository.UserRepository, botPassword string) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		botPassword: botPassword,
	}
}

// CheckPassword verifies if provided password matches
func (s *AuthService) CheckPassword(password string) bool {
	return subtle.ConstantTimeCompare([]byte(strings.TrimSpace(password)), []byte(s.botPassword)) == 1
}

// Login authorizes the user when password matches. A wrong password is not an error.
func (s *AuthService) Login(ctx context.Context, userID int64, password string) (bool, error) {
	if !s.CheckPassword(password) {
		return false, nil
	}
	if err := s.userRepo.AuthorizeUser(ctx, userID); err != nil {
		return false, fmt.Errorf("failed to authorize user: %w", err)
	}
	return true, nil
}

// IsAuthorized checks if user is authorized
func (s *AuthService) IsAuthorized(ctx context.Context, userID int64) (bool, error) {
	return s.userRepo.IsAuthorized(ctx, userID)
}

// AuthorizeUser authorizes a user
func (s *AuthService) AuthorizeUser(ctx context.Context, userID int64) error {
	return s.userRepo.AuthorizeUser(ctx, userID)
}

// EnsureUserExists creates user record if doesn't exist and refreshes the display name
func (s *AuthService) EnsureUserExists(ctx context.Context, userID int64, displayName string) error {
	return s.userRepo.EnsureUserExists(ctx, userID, displayName)
}

// Requester returns the name recorded on key requests created by the user.
// fallback is used when no name is stored; the lookup error is still returned.
func (s *AuthService) Requester(ctx context.Context, userID int64, fallback string) (string, error) {
	name, err := s.userRepo.DisplayName(ctx, userID)
	if err != nil {
		return fallback, fmt.Errorf("failed to load requester: %w", err)
	}
	if name == "" {
		return fallback, nil
	}
	return name, nil
}
