package notify

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	tele "gopkg.in/telebot.v3"
)

// Sender is the part of *tele.Bot used to post messages
type Sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// Telegram posts messages to a Telegram chat or channel through the bot
type Telegram struct {
	sender Sender
}

// NewTelegram creates a Telegram gateway
func NewTelegram(sender Sender) *Telegram {
	return &Telegram{sender: sender}
}

// Notify sends msg to the chat whose numeric id is msg.Channel
func (t *Telegram) Notify(ctx context.Context, msg Message) (Delivery, error) {
	chatID, err := strconv.ParseInt(msg.Channel, 10, 64)
	if err != nil {
		return Delivery{}, &DeliveryError{
			Gateway: "telegram",
			Err:     fmt.Errorf("channel %q is not a chat id", msg.Channel),
		}
	}

	if err := ctx.Err(); err != nil {
		return Delivery{}, &DeliveryError{Gateway: "telegram", Err: err}
	}

	sent, err := t.sender.Send(tele.ChatID(chatID), msg.Text, &tele.SendOptions{DisableWebPagePreview: true})
	if err != nil {
		return Delivery{}, &DeliveryError{
			Gateway:   "telegram",
			Retryable: !isPermanentTelegramError(err),
			Err:       err,
		}
	}

	if sent == nil {
		return Delivery{}, nil
	}
	return Delivery{Ref: strconv.Itoa(sent.ID)}, nil
}

// 400 Bad Request and 403 Forbidden will fail again on retry
func isPermanentTelegramError(err error) bool {
	var apiErr *tele.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == 400 || apiErr.Code == 403
	}
	return false
}
