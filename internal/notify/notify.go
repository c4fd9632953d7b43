// Package notify delivers composed messages to a chat channel.
package notify

import (
	"context"
	"errors"
	"fmt"
)

// Message is a composed text payload for a channel
type Message struct {
	Channel string
	Text    string
}

// Delivery describes an accepted message
type Delivery struct {
	// Ref identifies the posted message on the chat platform, when it returns one
	Ref string
}

// Gateway sends messages to a chat platform
type Gateway interface {
	Notify(ctx context.Context, msg Message) (Delivery, error)
}

// DeliveryError is returned when a gateway could not deliver a message
type DeliveryError struct {
	Gateway   string
	Status    int
	Retryable bool
	Err       error
}

func (e *DeliveryError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: delivery failed with status %d: %v", e.Gateway, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: delivery failed: %v", e.Gateway, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err is a delivery failure worth retrying
func IsRetryable(err error) bool {
	var de *DeliveryError
	if errors.As(err, &de) {
		return de.Retryable
	}
	return false
}

// retryableStatus reports whether an HTTP status is transient
func retryableStatus(status int) bool {
	return status == 429 || status >= 500
}
