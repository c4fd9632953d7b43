package middleware

import (
	"context"
	"strings"

	"keydesk/internal/service"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

const (
	errorText    = "Something went wrong. Please try again later."
	passwordText = "👋 Hi! This bot is for the translations team. Please enter the password:"
)

// DisplayName returns the name a Telegram user is recorded under as requester
func DisplayName(u *tele.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		name = u.Username
	}
	return name
}

// AuthMiddleware creates authentication middleware.
// Unauthorized users may only run /start or send plain text, which is
// treated as a password attempt by the text handler.
func AuthMiddleware(authService *service.AuthService, logger *zap.Logger) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			if sender == nil {
				return nil
			}
			userID := sender.ID
			ctx := context.Background()

			// Ensure user exists
			if err := authService.EnsureUserExists(ctx, userID, DisplayName(sender)); err != nil {
				logger.Error("Failed to ensure user exists in middleware", zap.Error(err))
				return c.Send(errorText)
			}

			// Check authorization
			authorized, err := authService.IsAuthorized(ctx, userID)
			if err != nil {
				logger.Error("Failed to check authorization in middleware", zap.Error(err))
				return c.Send(errorText)
			}

			if authorized || c.Text() == "/start" {
				return next(c)
			}

			if c.Callback() != nil {
				return c.Respond(&tele.CallbackResponse{Text: passwordText, ShowAlert: true})
			}
			if c.Message() != nil && c.Text() != "" && !strings.HasPrefix(c.Text(), "/") {
				return next(c)
			}
			return c.Send(passwordText)
		}
	}
}
