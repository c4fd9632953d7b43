package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"keydesk/internal/domain"
)

// Store keeps key requests and proofreading batches in process memory.
// It implements repository.KeyRepository and repository.ProofreadingRepository.
type Store struct {
	mu       sync.RWMutex
	keys     []domain.KeyRequest
	requests []domain.ProofreadingRequest
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{}
}

// CreateKey stores a new key request
func (s *Store) CreateKey(_ context.Context, k *domain.KeyRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.keys {
		if existing.Collides(k.Project, k.Key) {
			return &domain.DuplicateKeyError{Project: k.Project, Key: k.Key}
		}
		if existing.ID == k.ID {
			return fmt.Errorf("%w: duplicate id %q", domain.ErrInvalidInput, k.ID)
		}
	}

	s.keys = append(s.keys, copyKey(*k))
	return nil
}

// FindKey returns the request occupying project/key, or nil
func (s *Store) FindKey(_ context.Context, project domain.Project, key string) (*domain.KeyRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, existing := range s.keys {
		if existing.Collides(project, key) {
			k := copyKey(existing)
			return &k, nil
		}
	}
	return nil, nil
}

// GetKeys returns the requests with the given ids in creation order
func (s *Store) GetKeys(_ context.Context, ids []string) ([]domain.KeyRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	out := make([]domain.KeyRequest, 0, len(wanted))
	for _, k := range s.keys {
		if wanted[k.ID] {
			out = append(out, copyKey(k))
			delete(wanted, k.ID)
		}
	}

	for id := range wanted {
		return nil, fmt.Errorf("%w: %s", domain.ErrKeyNotFound, id)
	}
	return out, nil
}

// ListKeys returns requests with the given status, newest first.
// An empty status lists every request.
func (s *Store) ListKeys(_ context.Context, status domain.KeyStatus) ([]domain.KeyRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.KeyRequest
	for i := len(s.keys) - 1; i >= 0; i-- {
		if status == "" || s.keys[i].Status == status {
			out = append(out, copyKey(s.keys[i]))
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// CommitBatch marks the batch keys as sent and stores the batch
func (s *Store) CommitBatch(_ context.Context, r *domain.ProofreadingRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(r.KeyIDs) == 0 {
		return domain.ErrEmptySelection
	}

	index := make(map[string]int, len(s.keys))
	for i, k := range s.keys {
		index[k.ID] = i
	}

	for _, id := range r.KeyIDs {
		i, ok := index[id]
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrKeyNotFound, id)
		}
		if s.keys[i].Status != domain.StatusInProgress {
			return fmt.Errorf("%w: %s", domain.ErrNotInProgress, s.keys[i].Key)
		}
	}

	for _, existing := range s.requests {
		if existing.ID == r.ID {
			return fmt.Errorf("%w: duplicate batch id %q", domain.ErrInvalidInput, r.ID)
		}
		if r.IdempotencyKey != "" && existing.IdempotencyKey == r.IdempotencyKey {
			return fmt.Errorf("%w: idempotency key reused", domain.ErrInvalidInput)
		}
	}

	for _, id := range r.KeyIDs {
		s.keys[index[id]].Status = domain.StatusSent
	}
	s.requests = append(s.requests, copyRequest(*r))
	return nil
}

// GetRequest returns a batch by id
func (s *Store) GetRequest(_ context.Context, id string) (*domain.ProofreadingRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.requests {
		if r.ID == id {
			out := copyRequest(r)
			return &out, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrRequestNotFound, id)
}

// FindByIdempotencyKey returns the batch sent under key, or nil
func (s *Store) FindByIdempotencyKey(_ context.Context, key string) (*domain.ProofreadingRequest, error) {
	if key == "" {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.requests {
		if r.IdempotencyKey == key {
			out := copyRequest(r)
			return &out, nil
		}
	}
	return nil, nil
}

// ListRequests returns every batch in send order
func (s *Store) ListRequests(_ context.Context) ([]domain.ProofreadingRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.ProofreadingRequest, 0, len(s.requests))
	for _, r := range s.requests {
		out = append(out, copyRequest(r))
	}
	return out, nil
}

// SetCompletion flips the completion flag of one language on a batch
func (s *Store) SetCompletion(_ context.Context, id string, lang domain.Language, done bool) error {
	if !lang.IsProofread() {
		return fmt.Errorf("%w: %s", domain.ErrUnknownLanguage, lang)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.requests {
		if s.requests[i].ID == id {
			s.requests[i].Completion[lang] = done
			return nil
		}
	}
	return fmt.Errorf("%w: %s", domain.ErrRequestNotFound, id)
}

func copyKey(k domain.KeyRequest) domain.KeyRequest {
	k.Drafts = k.Drafts.Clone()
	return k
}

func copyRequest(r domain.ProofreadingRequest) domain.ProofreadingRequest {
	r.KeyIDs = append([]string(nil), r.KeyIDs...)
	r.Keys = append([]string(nil), r.Keys...)

	completion := domain.NewCompletionStatus()
	for lang, done := range r.Completion {
		if lang.IsProofread() {
			completion[lang] = done
		}
	}
	r.Completion = completion
	return r
}
