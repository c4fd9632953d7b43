package notify

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Slack posts messages to a Slack incoming webhook
type Slack struct {
	webhookURL string
	http       *resty.Client
}

// NewSlack creates a Slack webhook gateway
func NewSlack(webhookURL string, timeout time.Duration) *Slack {
	return &Slack{
		webhookURL: webhookURL,
		http:       resty.New().SetTimeout(timeout),
	}
}

type slackPayload struct {
	Channel string `json:"channel,omitempty"`
	Text    string `json:"text"`
	Mrkdwn  bool   `json:"mrkdwn"`
}

// Notify posts msg to the webhook. Slack answers "ok" on success.
func (s *Slack) Notify(ctx context.Context, msg Message) (Delivery, error) {
	resp, err := s.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(slackPayload{Channel: msg.Channel, Text: msg.Text, Mrkdwn: true}).
		Post(s.webhookURL)
	if err != nil {
		return Delivery{}, &DeliveryError{Gateway: "slack", Retryable: ctx.Err() == nil, Err: err}
	}

	if resp.IsError() {
		return Delivery{}, &DeliveryError{
			Gateway:   "slack",
			Status:    resp.StatusCode(),
			Retryable: retryableStatus(resp.StatusCode()),
			Err:       errors.New(strings.TrimSpace(resp.String())),
		}
	}

	return Delivery{Ref: strings.TrimSpace(resp.String())}, nil
}
