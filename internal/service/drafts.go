package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"keydesk/internal/domain"
	"keydesk/internal/translate"

	"go.uber.org/zap"
)

// DraftService generates machine drafts for a chat's create-key form.
// Each session keeps a snapshot of its latest English text; results for
// any other text are stale and dropped.
type DraftService struct {
	generator translate.Generator
	timeout   time.Duration
	logger    *zap.Logger

	mu       sync.Mutex
	sessions map[int64]*draftSession
}

type draftSession struct {
	text   string
	cancel context.CancelFunc
}

// NewDraftService creates a new draft service. A zero timeout disables it.
func NewDraftService(generator translate.Generator, timeout time.Duration, logger *zap.Logger) *DraftService {
	return &DraftService{
		generator: generator,
		timeout:   timeout,
		logger:    logger,
		sessions:  make(map[int64]*draftSession),
	}
}

// Observe records the form's current English text for a session.
// A pending generation for a different text is cancelled.
func (s *DraftService) Observe(sessionID int64, text string) {
	text = strings.TrimSpace(text)

	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.sessions[sessionID]; ok {
		if prev.text == text {
			return
		}
		if prev.cancel != nil {
			prev.cancel()
		}
	}
	s.sessions[sessionID] = &draftSession{text: text}
}

// Forget drops the session snapshot and cancels any pending generation
func (s *DraftService) Forget(sessionID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.sessions[sessionID]; ok {
		if prev.cancel != nil {
			prev.cancel()
		}
		delete(s.sessions, sessionID)
	}
}

// GenerateDrafts drafts every draft language for text.
// It returns domain.ErrStaleDraft when the session moved on to another text
// before the result arrived, and a *domain.PartialDraftError when some
// languages are missing from the result.
func (s *DraftService) GenerateDrafts(ctx context.Context, sessionID int64, text string) (domain.Draft, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: english text cannot be empty", domain.ErrInvalidInput)
	}

	callCtx, cancel := s.start(ctx, sessionID, text)
	defer cancel()

	started := time.Now()
	draft, err := s.generator.Generate(callCtx, text)

	if !s.current(sessionID, text) {
		s.logger.Debug("Discarding stale drafts", zap.Int64("session", sessionID))
		return nil, domain.ErrStaleDraft
	}

	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			s.logger.Warn("Draft generation timed out",
				zap.Int64("session", sessionID),
				zap.Duration("timeout", s.timeout))
			return nil, fmt.Errorf("draft generation timed out: %w", err)
		}
		s.logger.Error("Draft generation failed", zap.Int64("session", sessionID), zap.Error(err))
		return nil, fmt.Errorf("draft generation failed: %w", err)
	}

	missing := draft.Missing()
	if len(missing) == len(domain.DraftLanguages) {
		return nil, fmt.Errorf("draft generation failed: no drafts returned")
	}

	s.logger.Info("Drafts generated",
		zap.Int64("session", sessionID),
		zap.Int("languages", len(domain.DraftLanguages)-len(missing)),
		zap.Duration("took", time.Since(started)))

	if len(missing) > 0 {
		return draft, &domain.PartialDraftError{Draft: draft, Missing: missing}
	}
	return draft, nil
}

// start registers text as the session snapshot and derives the call context
func (s *DraftService) start(ctx context.Context, sessionID int64, text string) (context.Context, context.CancelFunc) {
	var (
		callCtx context.Context
		cancel  context.CancelFunc
	)
	if s.timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, s.timeout)
	} else {
		callCtx, cancel = context.WithCancel(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.sessions[sessionID]; ok && prev.text != text && prev.cancel != nil {
		prev.cancel()
	}
	s.sessions[sessionID] = &draftSession{text: text, cancel: cancel}

	return callCtx, cancel
}

// current reports whether text is still the session snapshot
func (s *DraftService) current(sessionID int64, text string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	return ok && session.text == text
}
