package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"keydesk/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedKey(t *testing.T, s *Store, id string, project domain.Project, key string, createdAt time.Time) {
	t.Helper()
	err := s.CreateKey(context.Background(), &domain.KeyRequest{
		ID:          id,
		Key:         key,
		EnglishText: "text " + key,
		Project:     project,
		CreatedAt:   createdAt,
		Status:      domain.StatusInProgress,
	})
	require.NoError(t, err)
}

func TestStore_CreateKey_Duplicate(t *testing.T) {
	s := NewStore()
	now := time.Now()
	seedKey(t, s, "1", domain.ProjectWeb, "X", now)

	err := s.CreateKey(context.Background(), &domain.KeyRequest{ID: "2", Key: "x", Project: domain.ProjectWeb})

	var dup *domain.DuplicateKeyError
	assert.True(t, errors.As(err, &dup))
	assert.Equal(t, domain.ProjectWeb, dup.Project)

	// same key in another project is fine
	seedKey(t, s, "3", domain.ProjectMobile, "X", now)

	keys, err := s.ListKeys(context.Background(), "")
	assert.NoError(t, err)
	assert.Len(t, keys, 2)
}

func TestStore_FindKey(t *testing.T) {
	s := NewStore()
	seedKey(t, s, "1", domain.ProjectBackend, "LIST_SMART_SEARCH_TITLE", time.Now())

	found, err := s.FindKey(context.Background(), domain.ProjectBackend, "list_smart_search_title")
	assert.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "1", found.ID)

	missing, err := s.FindKey(context.Background(), domain.ProjectWeb, "LIST_SMART_SEARCH_TITLE")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestStore_GetKeys(t *testing.T) {
	s := NewStore()
	now := time.Now()
	seedKey(t, s, "a", domain.ProjectWeb, "A", now)
	seedKey(t, s, "b", domain.ProjectWeb, "B", now)
	seedKey(t, s, "c", domain.ProjectWeb, "C", now)

	keys, err := s.GetKeys(context.Background(), []string{"c", "a"})
	assert.NoError(t, err)
	require.Len(t, keys, 2)
	assert.Equal(t, "a", keys[0].ID)
	assert.Equal(t, "c", keys[1].ID)

	_, err = s.GetKeys(context.Background(), []string{"a", "zzz"})
	assert.ErrorIs(t, err, domain.ErrKeyNotFound)
}

func TestStore_ListKeys_NewestFirst(t *testing.T) {
	s := NewStore()
	base := time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC)
	seedKey(t, s, "old", domain.ProjectWeb, "OLD", base)
	seedKey(t, s, "new", domain.ProjectWeb, "NEW", base.AddDate(0, 0, 4))
	seedKey(t, s, "mid", domain.ProjectWeb, "MID", base.AddDate(0, 0, 2))

	keys, err := s.ListKeys(context.Background(), domain.StatusInProgress)
	assert.NoError(t, err)
	require.Len(t, keys, 3)
	assert.Equal(t, "new", keys[0].ID)
	assert.Equal(t, "mid", keys[1].ID)
	assert.Equal(t, "old", keys[2].ID)

	sent, err := s.ListKeys(context.Background(), domain.StatusSent)
	assert.NoError(t, err)
	assert.Empty(t, sent)
}

func TestStore_CommitBatch(t *testing.T) {
	s := NewStore()
	now := time.Now()
	for _, id := range []string{"1", "2", "3", "4", "5"} {
		seedKey(t, s, id, domain.ProjectWeb, "KEY_"+id, now)
	}

	batch := &domain.ProofreadingRequest{
		ID:             "b1",
		CreatedAt:      now,
		KeyIDs:         []string{"2", "4"},
		Keys:           []string{"KEY_2", "KEY_4"},
		IdempotencyKey: "idem-1",
		Completion:     domain.NewCompletionStatus(),
	}
	require.NoError(t, s.CommitBatch(context.Background(), batch))

	sent, _ := s.ListKeys(context.Background(), domain.StatusSent)
	inProgress, _ := s.ListKeys(context.Background(), domain.StatusInProgress)
	assert.Len(t, sent, 2)
	assert.Len(t, inProgress, 3)

	stored, err := s.FindByIdempotencyKey(context.Background(), "idem-1")
	assert.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "b1", stored.ID)

	// keys already sent cannot be batched again, and nothing changes
	again := &domain.ProofreadingRequest{ID: "b2", KeyIDs: []string{"1", "2"}, Completion: domain.NewCompletionStatus()}
	err = s.CommitBatch(context.Background(), again)
	assert.ErrorIs(t, err, domain.ErrNotInProgress)

	inProgress, _ = s.ListKeys(context.Background(), domain.StatusInProgress)
	assert.Len(t, inProgress, 3)
	requests, _ := s.ListRequests(context.Background())
	assert.Len(t, requests, 1)

	err = s.CommitBatch(context.Background(), &domain.ProofreadingRequest{ID: "b3"})
	assert.ErrorIs(t, err, domain.ErrEmptySelection)
}

func TestStore_SetCompletion(t *testing.T) {
	s := NewStore()
	now := time.Now()
	seedKey(t, s, "1", domain.ProjectWeb, "KEY", now)
	require.NoError(t, s.CommitBatch(context.Background(), &domain.ProofreadingRequest{
		ID: "b1", KeyIDs: []string{"1"}, Keys: []string{"KEY"},
	}))

	require.NoError(t, s.SetCompletion(context.Background(), "b1", domain.LangDE, true))

	r, err := s.GetRequest(context.Background(), "b1")
	require.NoError(t, err)
	assert.True(t, r.Completion[domain.LangDE])
	assert.Len(t, r.Completion, len(domain.ProofreadingLanguages))

	// returned copies are detached from the store
	r.Completion[domain.LangES] = true
	again, _ := s.GetRequest(context.Background(), "b1")
	assert.False(t, again.Completion[domain.LangES])

	assert.ErrorIs(t, s.SetCompletion(context.Background(), "b1", domain.LangSV, true), domain.ErrUnknownLanguage)
	assert.ErrorIs(t, s.SetCompletion(context.Background(), "nope", domain.LangDE, true), domain.ErrRequestNotFound)

	_, err = s.GetRequest(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrRequestNotFound)
}

func TestUserRepo(t *testing.T) {
	r := NewUserRepo()
	ctx := context.Background()

	authorized, err := r.IsAuthorized(ctx, 1)
	assert.NoError(t, err)
	assert.False(t, authorized)

	assert.NoError(t, r.EnsureUserExists(ctx, 1, "Sarah Johnson"))
	assert.NoError(t, r.AuthorizeUser(ctx, 1))
	assert.NoError(t, r.EnsureUserExists(ctx, 1, ""))

	authorized, err = r.IsAuthorized(ctx, 1)
	assert.NoError(t, err)
	assert.True(t, authorized)

	name, err := r.DisplayName(ctx, 1)
	assert.NoError(t, err)
	assert.Equal(t, "Sarah Johnson", name)

	name, err = r.DisplayName(ctx, 2)
	assert.NoError(t, err)
	assert.Empty(t, name)
}
