package service

import (
	"context"
	"fmt"
	"time"

	"keydesk/internal/domain"
	"keydesk/internal/notify"
	"keydesk/internal/repository"

	"go.uber.org/zap"
)

// Summary counts key requests and proofreading batches
type Summary struct {
	InProgressKeys    int
	SentKeys          int
	CompleteBatches   int
	IncompleteBatches int
	// AverageCompletion is the mean completion rate over all batches
	AverageCompletion int
}

// StatsService handles statistics and the daily digest
type StatsService struct {
	keys    repository.KeyRepository
	batches repository.ProofreadingRepository
	gateway notify.Gateway
	channel string
	logger  *zap.Logger
	now     func() time.Time
}

// NewStatsService creates a new stats service
func NewStatsService(
	keys repository.KeyRepository,
	batches repository.ProofreadingRepository,
	gateway notify.Gateway,
	channel string,
	logger *zap.Logger,
) *StatsService {
	return &StatsService{
		keys:    keys,
		batches: batches,
		gateway: gateway,
		channel: channel,
		logger:  logger,
		now:     time.Now,
	}
}

// Summary returns the current counts
func (s *StatsService) Summary(ctx context.Context) (Summary, error) {
	var sum Summary

	keys, err := s.keys.ListKeys(ctx, "")
	if err != nil {
		return Summary{}, fmt.Errorf("failed to list keys: %w", err)
	}
	for _, k := range keys {
		switch k.Status {
		case domain.StatusInProgress:
			sum.InProgressKeys++
		case domain.StatusSent:
			sum.SentKeys++
		}
	}

	batches, err := s.batches.ListRequests(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to list batches: %w", err)
	}
	total := 0
	for _, b := range batches {
		if b.IsComplete() {
			sum.CompleteBatches++
		} else {
			sum.IncompleteBatches++
		}
		total += b.CompletionRate()
	}
	if len(batches) > 0 {
		sum.AverageCompletion = (total + len(batches)/2) / len(batches)
	}

	return sum, nil
}

// FormatSummary renders a summary as a chat message
func FormatSummary(sum Summary) string {
	return fmt.Sprintf("📊 **Translation status**\n\n"+
		"🕐 Keys in progress: %d\n"+
		"📤 Keys sent: %d\n"+
		"✅ Complete batches: %d\n"+
		"⏳ Incomplete batches: %d\n"+
		"📈 Average completion: %d%%",
		sum.InProgressKeys, sum.SentKeys, sum.CompleteBatches, sum.IncompleteBatches, sum.AverageCompletion)
}

// Digest posts the summary to the translations channel.
// Nothing is posted when there is no open work.
func (s *StatsService) Digest(ctx context.Context) error {
	s.logger.Info("Starting daily digest")

	sum, err := s.Summary(ctx)
	if err != nil {
		s.logger.Error("Failed to build digest", zap.Error(err))
		return err
	}

	if sum.InProgressKeys == 0 && sum.IncompleteBatches == 0 {
		s.logger.Info("Digest skipped, nothing pending")
		return nil
	}

	text := fmt.Sprintf("🗓 Digest for %s\n\n%s", domain.DateString(s.now()), FormatSummary(sum))
	if _, err := s.gateway.Notify(ctx, notify.Message{Channel: s.channel, Text: text}); err != nil {
		s.logger.Error("Failed to post digest", zap.Error(err))
		return fmt.Errorf("failed to post digest: %w", err)
	}

	s.logger.Info("Digest posted successfully")
	return nil
}
