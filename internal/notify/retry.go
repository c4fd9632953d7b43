package notify

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// Retrying retries transient delivery failures of the wrapped gateway
// with exponential backoff.
type Retrying struct {
	next       Gateway
	maxRetries uint64
	base       time.Duration
	maxDelay   time.Duration
	logger     *zap.Logger
}

// NewRetrying wraps next. maxRetries counts attempts after the first one.
func NewRetrying(next Gateway, maxRetries uint64, base time.Duration, logger *zap.Logger) *Retrying {
	return &Retrying{
		next:       next,
		maxRetries: maxRetries,
		base:       base,
		maxDelay:   30 * time.Second,
		logger:     logger,
	}
}

// Notify delivers msg, retrying while the failure is retryable
func (r *Retrying) Notify(ctx context.Context, msg Message) (Delivery, error) {
	backoff := retry.NewExponential(r.base)
	backoff = retry.WithCappedDuration(r.maxDelay, backoff)
	backoff = retry.WithMaxRetries(r.maxRetries, backoff)

	var delivery Delivery
	attempt := 0

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		d, err := r.next.Notify(ctx, msg)
		if err == nil {
			delivery = d
			return nil
		}

		if IsRetryable(err) {
			r.logger.Warn("Notification delivery failed, retrying",
				zap.String("channel", msg.Channel),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		r.logger.Error("Notification delivery failed",
			zap.String("channel", msg.Channel),
			zap.Int("attempts", attempt),
			zap.Error(err),
		)
		return Delivery{}, err
	}

	return delivery, nil
}
