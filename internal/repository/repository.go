package repository

import (
	"context"

	"keydesk/internal/domain"
)

// UserRepository defines user data operations
type UserRepository interface {
	IsAuthorized(ctx context.Context, userID int64) (bool, error)
	AuthorizeUser(ctx context.Context, userID int64) error
	// EnsureUserExists records the user and refreshes the display name used as requester
	EnsureUserExists(ctx context.Context, userID int64, displayName string) error
	DisplayName(ctx context.Context, userID int64) (string, error)
}

// KeyRepository defines translation key request operations
type KeyRepository interface {
	// CreateKey stores a new request. It fails with a *domain.DuplicateKeyError
	// when the project already holds the key (case-insensitive).
	CreateKey(ctx context.Context, k *domain.KeyRequest) error
	FindKey(ctx context.Context, project domain.Project, key string) (*domain.KeyRequest, error)
	GetKeys(ctx context.Context, ids []string) ([]domain.KeyRequest, error)
	ListKeys(ctx context.Context, status domain.KeyStatus) ([]domain.KeyRequest, error)
}

// ProofreadingRepository defines proofreading batch operations
type ProofreadingRepository interface {
	// CommitBatch marks every key in r.KeyIDs as sent and stores r in one step.
	// Nothing changes when any key is no longer in progress.
	CommitBatch(ctx context.Context, r *domain.ProofreadingRequest) error
	GetRequest(ctx context.Context, id string) (*domain.ProofreadingRequest, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*domain.ProofreadingRequest, error)
	ListRequests(ctx context.Context) ([]domain.ProofreadingRequest, error)
	SetCompletion(ctx context.Context, id string, lang domain.Language, done bool) error
}
