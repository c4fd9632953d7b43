package notify

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Log writes messages to the logger instead of a chat platform.
// It stands in for a real gateway in local runs.
type Log struct {
	logger *zap.Logger
}

// NewLog creates a logging gateway
func NewLog(logger *zap.Logger) *Log {
	return &Log{logger: logger}
}

// Notify logs msg and returns a generated reference
func (l *Log) Notify(_ context.Context, msg Message) (Delivery, error) {
	ref := uuid.NewString()
	l.logger.Info("Notification",
		zap.String("channel", msg.Channel),
		zap.String("ref", ref),
		zap.String("text", msg.Text),
	)
	return Delivery{Ref: ref}, nil
}
