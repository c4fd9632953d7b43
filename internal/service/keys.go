package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"keydesk/internal/domain"
	"keydesk/internal/notify"
	"keydesk/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BatchConfig describes where proofreading batches are posted
type BatchConfig struct {
	Channel string
	Editor  EditorLink
}

// NewKeyRequest is the submitted create-key form
type NewKeyRequest struct {
	Project     domain.Project
	Key         string
	EnglishText string
	Requester   string
	Drafts      domain.Draft
}

// KeyService handles translation key requests and batch sends
type KeyService struct {
	keys    repository.KeyRepository
	batches repository.ProofreadingRepository
	gateway notify.Gateway
	cfg     BatchConfig
	logger  *zap.Logger

	// sendMu serializes batch sends so a key can only leave in_progress once
	sendMu sync.Mutex
	now    func() time.Time
	newID  func() string
}

// NewKeyService creates a new key service
func NewKeyService(
	keys repository.KeyRepository,
	batches repository.ProofreadingRepository,
	gateway notify.Gateway,
	cfg BatchConfig,
	logger *zap.Logger,
) *KeyService {
	return &KeyService{
		keys:    keys,
		batches: batches,
		gateway: gateway,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// CreateKeyRequest validates the form and stores a new in-progress request
func (s *KeyService) CreateKeyRequest(ctx context.Context, req NewKeyRequest) (*domain.KeyRequest, error) {
	key := strings.TrimSpace(req.Key)
	text := strings.TrimSpace(req.EnglishText)
	if key == "" || text == "" {
		return nil, fmt.Errorf("%w: key and english text cannot be empty", domain.ErrInvalidInput)
	}

	project, err := domain.ParseProject(string(req.Project))
	if err != nil {
		return nil, err
	}

	if err := s.CheckKey(ctx, project, key); err != nil {
		return nil, err
	}

	k := &domain.KeyRequest{
		ID:          s.newID(),
		Key:         key,
		EnglishText: text,
		Project:     project,
		CreatedAt:   s.now(),
		Requester:   strings.TrimSpace(req.Requester),
		Status:      domain.StatusInProgress,
		Drafts:      req.Drafts.Clone(),
	}

	if err := s.keys.CreateKey(ctx, k); err != nil {
		return nil, err
	}

	s.logger.Info("Key request created",
		zap.String("id", k.ID),
		zap.String("key", k.Key),
		zap.String("project", string(k.Project)))

	return k, nil
}

// CheckKey reports a duplicate key in the project. Empty input passes.
func (s *KeyService) CheckKey(ctx context.Context, project domain.Project, key string) error {
	key = strings.TrimSpace(key)
	if project == "" || key == "" {
		return nil
	}

	existing, err := s.keys.FindKey(ctx, project, key)
	if err != nil {
		return fmt.Errorf("failed to check key: %w", err)
	}
	if existing != nil {
		return &domain.DuplicateKeyError{Project: project, Key: existing.Key}
	}
	return nil
}

// ListByStatus returns requests with the given status, newest first.
// An empty status lists every request.
func (s *KeyService) ListByStatus(ctx context.Context, status domain.KeyStatus) ([]domain.KeyRequest, error) {
	return s.keys.ListKeys(ctx, status)
}

// ListPage returns one page of requests with the given status and the page count
func (s *KeyService) ListPage(ctx context.Context, status domain.KeyStatus, page int) ([]domain.KeyRequest, int, error) {
	const pageSize = 7

	if page < 1 {
		page = 1
	}

	all, err := s.keys.ListKeys(ctx, status)
	if err != nil {
		return nil, 0, err
	}

	totalPages := (len(all) + pageSize - 1) / pageSize
	if totalPages == 0 {
		totalPages = 1
	}

	start := (page - 1) * pageSize
	if start >= len(all) {
		return []domain.KeyRequest{}, totalPages, nil
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}

	return all[start:end], totalPages, nil
}

// SelectForBatch resolves a selection to in-progress requests in store order
func (s *KeyService) SelectForBatch(ctx context.Context, ids []string) ([]domain.KeyRequest, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return nil, domain.ErrEmptySelection
	}

	keys, err := s.keys.GetKeys(ctx, ids)
	if err != nil {
		return nil, err
	}

	for _, k := range keys {
		if k.Status != domain.StatusInProgress {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotInProgress, k.Key)
		}
	}
	return keys, nil
}

// PreviewBatch returns the message SendBatch would post for the selection
func (s *KeyService) PreviewBatch(ctx context.Context, ids []string) (string, error) {
	keys, err := s.SelectForBatch(ctx, ids)
	if err != nil {
		return "", err
	}
	return ComposeBatchMessage(keys, s.cfg.Editor), nil
}

// SendBatch posts the selection for proofreading and records the batch.
// The store is only changed after the gateway accepted the message.
// A repeated idempotency key returns the batch stored for it.
func (s *KeyService) SendBatch(ctx context.Context, idempotencyKey string, ids []string) (*domain.ProofreadingRequest, error) {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	if idempotencyKey != "" {
		existing, err := s.batches.FindByIdempotencyKey(ctx, idempotencyKey)
		if err != nil {
			return nil, fmt.Errorf("failed to look up batch: %w", err)
		}
		if existing != nil {
			s.logger.Info("Batch send replayed",
				zap.String("batch_id", existing.ID),
				zap.String("idempotency_key", idempotencyKey))
			return existing, nil
		}
	}

	keys, err := s.SelectForBatch(ctx, ids)
	if err != nil {
		return nil, err
	}

	delivery, err := s.gateway.Notify(ctx, notify.Message{
		Channel: s.cfg.Channel,
		Text:    ComposeBatchMessage(keys, s.cfg.Editor),
	})
	if err != nil {
		s.logger.Error("Failed to post batch",
			zap.Int("keys", len(keys)),
			zap.Bool("retryable", notify.IsRetryable(err)),
			zap.Error(err))
		return nil, fmt.Errorf("failed to send batch: %w", err)
	}

	batch := &domain.ProofreadingRequest{
		ID:             s.newID(),
		CreatedAt:      s.now(),
		KeyIDs:         make([]string, 0, len(keys)),
		Keys:           make([]string, 0, len(keys)),
		Channel:        s.cfg.Channel,
		MessageRef:     delivery.Ref,
		IdempotencyKey: idempotencyKey,
		Completion:     domain.NewCompletionStatus(),
	}
	for _, k := range keys {
		batch.KeyIDs = append(batch.KeyIDs, k.ID)
		batch.Keys = append(batch.Keys, k.Key)
	}

	if err := s.batches.CommitBatch(ctx, batch); err != nil {
		s.logger.Error("Batch posted but not recorded",
			zap.String("batch_id", batch.ID),
			zap.String("message_ref", batch.MessageRef),
			zap.Error(err))
		return nil, fmt.Errorf("failed to record batch: %w", err)
	}

	s.logger.Info("Batch sent",
		zap.String("batch_id", batch.ID),
		zap.Strings("keys", batch.Keys))

	return batch, nil
}

// uniqueIDs drops blanks and repeats, keeping first occurrence order
func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
