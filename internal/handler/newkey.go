package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"keydesk/internal/domain"
	"keydesk/internal/middleware"
	"keydesk/internal/service"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// handleNewKey starts the create-key form with the project choice
func (h *Handler) handleNewKey(c tele.Context) error {
	userID := c.Sender().ID

	h.ResetState(userID)
	h.SetState(userID, &domain.StateData{
		State:   domain.StateWaitingProject,
		Project: h.opts.DefaultProject,
	})

	markup := &tele.ReplyMarkup{}
	rows := []tele.Row{}
	for i, p := range domain.Projects {
		label := string(p)
		if p == h.opts.DefaultProject {
			label = "⭐ " + label
		}
		rows = append(rows, markup.Row(markup.Data(label, prefixProject+strconv.Itoa(i))))
	}
	rows = append(rows, markup.Row(btnCancel))
	markup.Inline(rows...)

	return h.show(c, "➕ New translation key\n\nChoose a project:", markup)
}

// handleProjectChoice stores the chosen project and asks for the key name
func (h *Handler) handleProjectChoice(c tele.Context, data string) error {
	userID := c.Sender().ID

	i, err := strconv.Atoi(strings.TrimPrefix(data, prefixProject))
	if err != nil || i < 0 || i >= len(domain.Projects) {
		return c.Respond(&tele.CallbackResponse{Text: "Unknown project"})
	}
	project := domain.Projects[i]

	h.UpdateState(userID, func(s *domain.StateData) {
		s.State = domain.StateWaitingKey
		s.Project = project
	})

	return h.show(c, fmt.Sprintf("📁 Project: %s\n\nSend the translation key name:", project), cancelMarkup())
}

// handleGenerateDrafts handles the generate button on the review step
func (h *Handler) handleGenerateDrafts(c tele.Context) error {
	state := h.GetState(c.Sender().ID)
	if state.State != domain.StateReviewingDraft || state.EnglishText == "" {
		return c.Respond(&tele.CallbackResponse{Text: "Nothing to translate yet"})
	}
	if c.Callback() != nil {
		_ = c.Respond(&tele.CallbackResponse{Text: "⏳ Generating drafts..."})
	}
	return h.generateDrafts(c, state)
}

// generateDrafts requests drafts for the state's English text and shows them.
// Results for a text the user already replaced are dropped.
func (h *Handler) generateDrafts(c tele.Context, state *domain.StateData) error {
	userID := c.Sender().ID
	text := state.EnglishText

	draft, err := h.draftService.GenerateDrafts(context.Background(), userID, text)

	var partial *domain.PartialDraftError
	switch {
	case errors.Is(err, domain.ErrStaleDraft):
		h.logger.Debug("Drafts arrived for an old text", zap.Int64("user_id", userID))
		return nil
	case errors.As(err, &partial):
		draft = partial.Draft
	case err != nil:
		h.logger.Error("Failed to generate drafts", zap.Error(err), zap.Int64("user_id", userID))
		current := h.GetState(userID)
		return c.Send("⚠️ Could not generate drafts. You can try again or create the key without them.\n\n"+reviewText(current), reviewMarkup())
	}

	applied := false
	current := h.UpdateState(userID, func(s *domain.StateData) {
		if s.State == domain.StateReviewingDraft && s.EnglishText == text {
			s.Drafts = draft
			applied = true
		}
	})
	if !applied {
		return nil
	}

	reply := reviewText(current)
	if partial != nil {
		reply = fmt.Sprintf("⚠️ %s\n\n%s", partial.Error(), reply)
	}
	return c.Send(reply, reviewMarkup())
}

// handleSubmitKey creates the key request from the form
func (h *Handler) handleSubmitKey(c tele.Context) error {
	userID := c.Sender().ID
	unlock := h.lockUser(userID)
	defer unlock()

	state := h.GetState(userID)
	if state.State != domain.StateReviewingDraft {
		return c.Respond(&tele.CallbackResponse{Text: "The form is not complete"})
	}

	ctx, cancel := requestContext()
	defer cancel()

	requester, err := h.authService.Requester(ctx, userID, middleware.DisplayName(c.Sender()))
	if err != nil {
		h.logger.Warn("Using sender name as requester", zap.Int64("user_id", userID), zap.Error(err))
	}

	k, err := h.keyService.CreateKeyRequest(ctx, service.NewKeyRequest{
		Project:     state.Project,
		Key:         state.Key,
		EnglishText: state.EnglishText,
		Requester:   requester,
		Drafts:      state.Drafts,
	})
	if err != nil {
		var dup *domain.DuplicateKeyError
		if errors.As(err, &dup) {
			h.UpdateState(userID, func(s *domain.StateData) {
				s.State = domain.StateWaitingKey
			})
			return h.show(c, fmt.Sprintf("❌ %s\n\nSend another key name:", dup.Error()), cancelMarkup())
		}
		if errors.Is(err, domain.ErrInvalidInput) || errors.Is(err, domain.ErrUnknownProject) {
			return alert(c, "❌ "+err.Error())
		}
		h.logger.Error("Failed to create key request", zap.Error(err), zap.Int64("user_id", userID))
		return alert(c, errorText)
	}

	h.ResetState(userID)
	return h.show(c, fmt.Sprintf("✅ Key %s created in %s.\n\n%s", k.Key, k.Project, mainMenuText), mainMenuMarkup())
}

// reviewText renders the filled form with its drafts
func reviewText(s *domain.StateData) string {
	var b strings.Builder
	b.WriteString("📝 New translation key\n\n")
	fmt.Fprintf(&b, "📁 Project: %s\n", s.Project)
	fmt.Fprintf(&b, "🔑 Key: %s\n", s.Key)
	fmt.Fprintf(&b, "🇬🇧 English: %s\n\n", s.EnglishText)

	if len(s.Drafts) == 0 {
		b.WriteString("🌍 No drafts yet.")
		return b.String()
	}

	b.WriteString("🌍 Drafts:")
	for _, lang := range domain.DraftLanguages {
		text, ok := s.Drafts[lang]
		if !ok {
			continue
		}
		flag, ok := lang.Flag()
		if !ok {
			flag = "🏳️"
		}
		fmt.Fprintf(&b, "\n%s %s: %s", flag, lang.Code(), text)
	}
	return b.String()
}

func reviewMarkup() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.Inline(
		markup.Row(btnGenerate),
		markup.Row(btnSubmit),
		markup.Row(btnCancel),
	)
	return markup
}
