package testutil

import (
	"time"

	"keydesk/internal/domain"

	"go.uber.org/zap"
)

// NewTestLogger creates a no-op logger for tests
func NewTestLogger() *zap.Logger {
	return zap.NewNop()
}

// NewTestUser creates a test user
func NewTestUser(userID int64, authorized bool) *domain.User {
	return &domain.User{
		UserID:     userID,
		Authorized: authorized,
		CreatedAt:  time.Now(),
	}
}

// NewTestKey creates an in-progress key request in the default project
func NewTestKey(id, key string) domain.KeyRequest {
	return domain.KeyRequest{
		ID:          id,
		Key:         key,
		EnglishText: "Text for " + key,
		Project:     domain.ProjectWeb,
		CreatedAt:   time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
		Requester:   "Sarah Johnson",
		Status:      domain.StatusInProgress,
	}
}

// NewTestBatch creates a proofreading request with the given languages marked done
func NewTestBatch(id string, createdAt time.Time, keys []string, done ...domain.Language) domain.ProofreadingRequest {
	completion := domain.NewCompletionStatus()
	for _, lang := range done {
		completion[lang] = true
	}
	keyIDs := make([]string, len(keys))
	for i, k := range keys {
		keyIDs[i] = "id-" + k
	}
	return domain.ProofreadingRequest{
		ID:         id,
		CreatedAt:  createdAt,
		KeyIDs:     keyIDs,
		Keys:       keys,
		Channel:    "#translations",
		Completion: completion,
	}
}
