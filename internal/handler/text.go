package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"keydesk/internal/domain"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// handleText handles all text messages based on state
func (h *Handler) handleText(c tele.Context) error {
	userID := c.Sender().ID
	text := strings.TrimSpace(c.Text())

	// Ignore commands (starting with /)
	if strings.HasPrefix(text, "/") {
		return nil
	}

	// Check authorization first
	authorized, err := h.authService.IsAuthorized(context.Background(), userID)
	if err != nil {
		h.logger.Error("Failed to check authorization", zap.Error(err))
		return c.Send(errorText)
	}

	// If not authorized, check password
	if !authorized {
		ok, err := h.authService.Login(context.Background(), userID, text)
		if err != nil {
			h.logger.Error("Failed to authorize user", zap.Error(err))
			return c.Send(errorText)
		}
		if !ok {
			return c.Send("❌ Wrong password")
		}

		h.logger.Info("User authorized", zap.Int64("user_id", userID))
		h.ResetState(userID)
		return c.Send("✅ Access granted!\n\n"+mainMenuText, mainMenuMarkup())
	}

	// User is authorized, handle based on state
	state := h.GetState(userID)

	switch state.State {
	case domain.StateWaitingKey:
		return h.handleKeyName(c, state, text)

	case domain.StateWaitingText, domain.StateReviewingDraft:
		return h.handleEnglishText(c, text)

	case domain.StateWaitingProject:
		return c.Send("Please choose a project with the buttons above.", cancelMarkup())

	default:
		return c.Send(mainMenuText, mainMenuMarkup())
	}
}

// handleKeyName validates the key name and asks for the English text
func (h *Handler) handleKeyName(c tele.Context, state *domain.StateData, key string) error {
	userID := c.Sender().ID

	ctx, cancel := requestContext()
	defer cancel()

	if err := h.keyService.CheckKey(ctx, state.Project, key); err != nil {
		var dup *domain.DuplicateKeyError
		if errors.As(err, &dup) {
			return c.Send(fmt.Sprintf("❌ %s\n\nSend another key name:", dup.Error()), cancelMarkup())
		}
		h.logger.Error("Failed to check key", zap.Error(err), zap.Int64("user_id", userID))
		return c.Send(errorText)
	}

	h.UpdateState(userID, func(s *domain.StateData) {
		s.State = domain.StateWaitingText
		s.Key = key
	})

	return c.Send(fmt.Sprintf("🔑 Key: %s\n\nNow send the English text:", key), cancelMarkup())
}

// handleEnglishText stores the English text and shows the review step.
// Drafts for a previous text are discarded.
func (h *Handler) handleEnglishText(c tele.Context, text string) error {
	userID := c.Sender().ID

	state := h.UpdateState(userID, func(s *domain.StateData) {
		if s.EnglishText != text {
			s.Drafts = nil
		}
		s.State = domain.StateReviewingDraft
		s.EnglishText = text
	})
	h.draftService.Observe(userID, text)

	if h.opts.AutoTranslate && state.Drafts == nil {
		return h.generateDrafts(c, state)
	}
	return c.Send(reviewText(state), reviewMarkup())
}
