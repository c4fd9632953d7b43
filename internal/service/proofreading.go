package service

import (
	"context"
	"fmt"

	"keydesk/internal/domain"
	"keydesk/internal/notify"
	"keydesk/internal/repository"

	"go.uber.org/zap"
)

// ProofreadingService tracks sent batches and reminds translators
type ProofreadingService struct {
	batches  repository.ProofreadingRepository
	gateway  notify.Gateway
	channel  string
	mentions map[domain.Language]string
	logger   *zap.Logger
}

// NewProofreadingService creates a new proofreading service.
// A nil mentions table falls back to domain.DefaultTeamMentions.
func NewProofreadingService(
	batches repository.ProofreadingRepository,
	gateway notify.Gateway,
	channel string,
	mentions map[domain.Language]string,
	logger *zap.Logger,
) *ProofreadingService {
	if mentions == nil {
		mentions = domain.DefaultTeamMentions
	}
	return &ProofreadingService{
		batches:  batches,
		gateway:  gateway,
		channel:  channel,
		mentions: mentions,
		logger:   logger,
	}
}

// Filter returns the batches matching mode, most recent first
func (s *ProofreadingService) Filter(ctx context.Context, mode domain.FilterMode) ([]domain.ProofreadingRequest, error) {
	all, err := s.batches.ListRequests(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list batches: %w", err)
	}
	return domain.FilterRequests(all, mode), nil
}

// Get returns a single batch
func (s *ProofreadingService) Get(ctx context.Context, id string) (*domain.ProofreadingRequest, error) {
	return s.batches.GetRequest(ctx, id)
}

// PreviewReminder returns the reminder text for a batch
func (s *ProofreadingService) PreviewReminder(ctx context.Context, id string) (string, error) {
	r, err := s.reminderTarget(ctx, id)
	if err != nil {
		return "", err
	}
	return ComposeReminder(*r, s.mentions), nil
}

// SendReminder posts a reminder for the languages still pending on a batch
func (s *ProofreadingService) SendReminder(ctx context.Context, id string) (notify.Delivery, error) {
	r, err := s.reminderTarget(ctx, id)
	if err != nil {
		return notify.Delivery{}, err
	}

	channel := r.Channel
	if channel == "" {
		channel = s.channel
	}

	delivery, err := s.gateway.Notify(ctx, notify.Message{
		Channel: channel,
		Text:    ComposeReminder(*r, s.mentions),
	})
	if err != nil {
		s.logger.Error("Failed to send reminder",
			zap.String("batch_id", id),
			zap.Bool("retryable", notify.IsRetryable(err)),
			zap.Error(err))
		return notify.Delivery{}, fmt.Errorf("failed to send reminder: %w", err)
	}

	s.logger.Info("Reminder sent",
		zap.String("batch_id", id),
		zap.Int("pending", len(r.PendingLanguages())))

	return delivery, nil
}

// MarkLanguage records a proofreading result for one language of a batch
func (s *ProofreadingService) MarkLanguage(ctx context.Context, id string, lang domain.Language, done bool) error {
	if !lang.IsProofread() {
		return fmt.Errorf("%w: %s is not proofread", domain.ErrUnknownLanguage, lang)
	}

	if err := s.batches.SetCompletion(ctx, id, lang, done); err != nil {
		return err
	}

	s.logger.Info("Proofreading status updated",
		zap.String("batch_id", id),
		zap.String("language", string(lang)),
		zap.Bool("done", done))
	return nil
}

func (s *ProofreadingService) reminderTarget(ctx context.Context, id string) (*domain.ProofreadingRequest, error) {
	r, err := s.batches.GetRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.IsComplete() {
		return nil, domain.ErrAlreadyComplete
	}
	return r, nil
}
