package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"keydesk/internal/domain"
	"keydesk/internal/notify"
	"keydesk/internal/service"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// maxListedBatches caps the batch buttons on the progress screen
const maxListedBatches = 10

var filterLabels = map[domain.FilterMode]string{
	domain.FilterAll:        "All",
	domain.FilterComplete:   "Complete",
	domain.FilterIncomplete: "Incomplete",
}

// handleProgress shows proofreading batches with the chat's filter
func (h *Handler) handleProgress(c tele.Context) error {
	state := h.UpdateState(c.Sender().ID, func(s *domain.StateData) {
		if s.Filter == "" {
			s.Filter = domain.FilterAll
		}
	})
	return h.renderProgress(c, state.Filter)
}

// handleFilter switches the progress filter
func (h *Handler) handleFilter(c tele.Context, data string) error {
	mode, err := domain.ParseFilterMode(strings.TrimPrefix(data, prefixFilter))
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Unknown filter"})
	}

	h.UpdateState(c.Sender().ID, func(s *domain.StateData) {
		s.Filter = mode
	})
	return h.renderProgress(c, mode)
}

func (h *Handler) renderProgress(c tele.Context, mode domain.FilterMode) error {
	ctx, cancel := requestContext()
	defer cancel()

	batches, err := h.proofService.Filter(ctx, mode)
	if err != nil {
		h.logger.Error("Failed to list batches", zap.Error(err))
		return alert(c, errorText)
	}

	now := time.Now()
	var b strings.Builder
	fmt.Fprintf(&b, "📊 Proofreading progress (%s)\n", mode)
	if len(batches) == 0 {
		b.WriteString("\nNo batches here yet.")
	}

	markup := &tele.ReplyMarkup{}
	rows := []tele.Row{}
	for i, r := range batches {
		fmt.Fprintf(&b, "\n📦 %s · %d key(s) · %d%%\n%s\n", domain.DisplayDate(r.CreatedAt, now), len(r.Keys), r.CompletionRate(), service.FormatCompletion(r))
		if i < maxListedBatches {
			rows = append(rows, markup.Row(markup.Data(batchLabel(r), prefixBatch+r.ID)))
		}
	}

	filterRow := tele.Row{}
	for _, m := range []domain.FilterMode{domain.FilterAll, domain.FilterComplete, domain.FilterIncomplete} {
		label := filterLabels[m]
		if m == mode {
			label = "• " + label
		}
		filterRow = append(filterRow, markup.Data(label, prefixFilter+string(m)))
	}
	rows = append(rows, filterRow, markup.Row(btnMainMenu))
	markup.Inline(rows...)

	return h.show(c, b.String(), markup)
}

// handleBatch shows one batch with per-language toggles
func (h *Handler) handleBatch(c tele.Context, data string) error {
	return h.renderBatch(c, strings.TrimPrefix(data, prefixBatch))
}

func (h *Handler) renderBatch(c tele.Context, id string) error {
	ctx, cancel := requestContext()
	defer cancel()

	text, markup, err := h.batchView(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrRequestNotFound) {
			return alert(c, "This batch no longer exists.")
		}
		h.logger.Error("Failed to load batch", zap.Error(err), zap.String("batch_id", id))
		return alert(c, errorText)
	}
	return h.show(c, text, markup)
}

// batchView renders one batch with its language toggles and reminder button
func (h *Handler) batchView(ctx context.Context, id string) (string, *tele.ReplyMarkup, error) {
	r, err := h.proofService.Get(ctx, id)
	if err != nil {
		return "", nil, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📦 Batch from %s\n\n", r.CreatedAt.Format("2 Jan 2006 15:04"))
	b.WriteString("📋 Keys:")
	for _, k := range r.Keys {
		fmt.Fprintf(&b, "\n▪️ %s", k)
	}
	fmt.Fprintf(&b, "\n\n✅ %d%% complete\n%s", r.CompletionRate(), service.FormatCompletion(*r))

	markup := &tele.ReplyMarkup{}
	langRow := tele.Row{}
	rows := []tele.Row{}
	for i, lang := range domain.ProofreadingLanguages {
		flag, _ := lang.Flag()
		mark := "⏳"
		if r.Completion[lang] {
			mark = "✅"
		}
		langRow = append(langRow, markup.Data(flag+" "+mark, prefixMark+string(lang)+"_"+r.ID))
		if i%3 == 2 {
			rows = append(rows, langRow)
			langRow = tele.Row{}
		}
	}
	if len(langRow) > 0 {
		rows = append(rows, langRow)
	}
	if !r.IsComplete() {
		rows = append(rows, markup.Row(markup.Data("🔔 Send reminder", prefixRemind+r.ID)))
	}
	rows = append(rows, markup.Row(btnProgress), markup.Row(btnMainMenu))
	markup.Inline(rows...)

	return b.String(), markup, nil
}

// handleRemind shows the reminder that would be posted for a batch
func (h *Handler) handleRemind(c tele.Context, data string) error {
	id := strings.TrimPrefix(data, prefixRemind)

	ctx, cancel := requestContext()
	defer cancel()

	text, err := h.proofService.PreviewReminder(ctx, id)
	if err != nil {
		return h.reminderError(c, err, id)
	}

	markup := &tele.ReplyMarkup{}
	markup.Inline(
		markup.Row(
			markup.Data("📤 Send", prefixRemindSend+id),
			markup.Data("⬅️ Back", prefixBatch+id),
		),
	)
	return h.show(c, "👀 Reminder preview:\n\n"+text, markup)
}

// handleRemindSend posts the previewed reminder to the channel
func (h *Handler) handleRemindSend(c tele.Context, data string) error {
	id := strings.TrimPrefix(data, prefixRemindSend)

	ctx, cancel := requestContext()
	defer cancel()

	if _, err := h.proofService.SendReminder(ctx, id); err != nil {
		return h.reminderError(c, err, id)
	}

	// back to the batch; the popup is the only callback answer
	if text, markup, err := h.batchView(ctx, id); err == nil {
		if err := c.Edit(text, markup); err != nil {
			h.logger.Warn("Failed to show batch after reminder", zap.Error(err), zap.String("batch_id", id))
		}
	}
	return c.Respond(&tele.CallbackResponse{Text: "🔔 Reminder sent"})
}

func (h *Handler) reminderError(c tele.Context, err error, id string) error {
	var de *notify.DeliveryError
	switch {
	case errors.Is(err, domain.ErrAlreadyComplete):
		return alert(c, "🎉 All languages are done, no reminder needed.")
	case errors.Is(err, domain.ErrRequestNotFound):
		return alert(c, "This batch no longer exists.")
	case errors.As(err, &de):
		return alert(c, "⚠️ Could not post the reminder. Please try again.")
	}
	h.logger.Error("Failed to send reminder", zap.Error(err), zap.String("batch_id", id))
	return alert(c, errorText)
}

// handleMark flips the proofreading status of one language of a batch
func (h *Handler) handleMark(c tele.Context, data string) error {
	rest := strings.TrimPrefix(data, prefixMark)
	code, id, ok := strings.Cut(rest, "_")
	if !ok {
		return c.Respond(&tele.CallbackResponse{Text: "Invalid button"})
	}
	lang, err := domain.ParseLanguage(code)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Unknown language"})
	}

	ctx, cancel := requestContext()
	defer cancel()

	r, err := h.proofService.Get(ctx, id)
	if err != nil {
		return alert(c, "This batch no longer exists.")
	}
	if err := h.proofService.MarkLanguage(ctx, id, lang, !r.Completion[lang]); err != nil {
		h.logger.Error("Failed to update proofreading status", zap.Error(err), zap.String("batch_id", id))
		return alert(c, errorText)
	}

	return h.renderBatch(c, id)
}

// batchLabel names a batch button by its first key
func batchLabel(r domain.ProofreadingRequest) string {
	label := "📦"
	if len(r.Keys) > 0 {
		label += " " + r.Keys[0]
	}
	if len(r.Keys) > 1 {
		label += fmt.Sprintf(" (+%d)", len(r.Keys)-1)
	}
	return fmt.Sprintf("%s · %d%%", label, r.CompletionRate())
}

// handleStats shows the current counts
func (h *Handler) handleStats(c tele.Context) error {
	ctx, cancel := requestContext()
	defer cancel()

	sum, err := h.statsService.Summary(ctx)
	if err != nil {
		h.logger.Error("Failed to build stats", zap.Error(err))
		return alert(c, errorText)
	}

	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(btnMainMenu))
	return h.show(c, service.FormatSummary(sum), markup)
}
