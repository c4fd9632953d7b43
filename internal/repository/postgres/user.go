package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// UserRepo implements repository.UserRepository over the users table
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo creates a new user repository
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

// IsAuthorized reports whether the requester passed the password check.
// Unknown users are not authorized.
func (r *UserRepo) IsAuthorized(ctx context.Context, userID int64) (bool, error) {
	var authorized bool
	err := r.db.QueryRowContext(ctx,
		`SELECT authorized FROM users WHERE user_id = $1`, userID,
	).Scan(&authorized)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("failed to check user %d: %w", userID, err)
	}
	return authorized, nil
}

// AuthorizeUser marks the requester as authorized, creating the row if needed
func (r *UserRepo) AuthorizeUser(ctx context.Context, userID int64) error {
	query := `
		INSERT INTO users (user_id, authorized)
		VALUES ($1, TRUE)
		ON CONFLICT (user_id)
		DO UPDATE SET authorized = TRUE
	`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to authorize user %d: %w", userID, err)
	}
	return nil
}

// EnsureUserExists registers a requester and refreshes a non-empty display name
func (r *UserRepo) EnsureUserExists(ctx context.Context, userID int64, displayName string) error {
	query := `
		INSERT INTO users (user_id, authorized, display_name)
		VALUES ($1, FALSE, $2)
		ON CONFLICT (user_id)
		DO UPDATE SET display_name = COALESCE(NULLIF(EXCLUDED.display_name, ''), users.display_name)
	`
	if _, err := r.db.ExecContext(ctx, query, userID, displayName); err != nil {
		return fmt.Errorf("failed to register user %d: %w", userID, err)
	}
	return nil
}

// DisplayName returns the name recorded as requester on new keys, empty when unknown
func (r *UserRepo) DisplayName(ctx context.Context, userID int64) (string, error) {
	var name string
	err := r.db.QueryRowContext(ctx,
		`SELECT display_name FROM users WHERE user_id = $1`, userID,
	).Scan(&name)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return "", nil
	case err != nil:
		return "", fmt.Errorf("failed to load user %d: %w", userID, err)
	}
	return name, nil
}
