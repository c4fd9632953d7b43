package handler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"keydesk/internal/domain"
	"keydesk/internal/notify"

	"github.com/google/uuid"
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// handleKeys shows the first page of keys in progress
func (h *Handler) handleKeys(c tele.Context) error {
	userID := c.Sender().ID

	h.draftService.Forget(userID)
	h.UpdateState(userID, func(s *domain.StateData) {
		if s.State != domain.StateSelectingKeys {
			*s = domain.StateData{State: domain.StateSelectingKeys, Selected: make(map[string]bool)}
		}
		s.Page = 1
	})
	return h.renderKeys(c)
}

// handleKeysPage handles page navigation of the key list
func (h *Handler) handleKeysPage(c tele.Context, data string) error {
	page, err := parsePage(data, prefixPage)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Invalid page"})
	}

	h.UpdateState(c.Sender().ID, func(s *domain.StateData) {
		s.State = domain.StateSelectingKeys
		s.Page = page
	})
	return h.renderKeys(c)
}

// handleToggleKey adds or removes a key from the selection
func (h *Handler) handleToggleKey(c tele.Context, data string) error {
	id := strings.TrimPrefix(data, prefixSelect)

	h.UpdateState(c.Sender().ID, func(s *domain.StateData) {
		s.State = domain.StateSelectingKeys
		if s.Selected == nil {
			s.Selected = make(map[string]bool)
		}
		if s.Selected[id] {
			delete(s.Selected, id)
		} else {
			s.Selected[id] = true
		}
		s.BatchToken = ""
	})
	return h.renderKeys(c)
}

// handleSelectAll selects every key in progress
func (h *Handler) handleSelectAll(c tele.Context) error {
	ctx, cancel := requestContext()
	defer cancel()

	keys, err := h.keyService.ListByStatus(ctx, domain.StatusInProgress)
	if err != nil {
		h.logger.Error("Failed to list keys", zap.Error(err))
		return alert(c, errorText)
	}

	h.UpdateState(c.Sender().ID, func(s *domain.StateData) {
		s.State = domain.StateSelectingKeys
		s.Selected = make(map[string]bool, len(keys))
		for _, k := range keys {
			s.Selected[k.ID] = true
		}
		s.BatchToken = ""
	})
	return h.renderKeys(c)
}

// renderKeys shows the current page of keys in progress with selection marks
func (h *Handler) renderKeys(c tele.Context) error {
	state := h.GetState(c.Sender().ID)

	ctx, cancel := requestContext()
	defer cancel()

	keys, totalPages, err := h.keyService.ListPage(ctx, domain.StatusInProgress, state.Page)
	if err != nil {
		h.logger.Error("Failed to list keys", zap.Error(err))
		return alert(c, errorText)
	}

	markup := &tele.ReplyMarkup{}
	if len(keys) == 0 && state.Page <= 1 {
		markup.Inline(markup.Row(btnNewKey, btnSentKeys), markup.Row(btnMainMenu))
		return h.show(c, "📋 No keys in progress.", markup)
	}

	now := time.Now()
	var b strings.Builder
	fmt.Fprintf(&b, "📋 Keys in progress (selected: %d)\n", len(state.SelectedIDs()))

	rows := []tele.Row{}
	for _, k := range keys {
		fmt.Fprintf(&b, "\n▪️ %s\n    %s · %s · %s", k.Key, k.Project, k.Requester, domain.DisplayDate(k.CreatedAt, now))

		mark := "⬜"
		if state.Selected[k.ID] {
			mark = "✅"
		}
		rows = append(rows, markup.Row(markup.Data(mark+" "+k.Key, prefixSelect+k.ID)))
	}

	if navRow := pageNav(markup, prefixPage, state.Page, totalPages); len(navRow) > 0 {
		rows = append(rows, navRow)
	}

	rows = append(rows,
		markup.Row(btnSelectAll, btnPreview),
		markup.Row(btnSend),
		markup.Row(btnSentKeys, btnMainMenu),
	)
	markup.Inline(rows...)

	return h.show(c, b.String(), markup)
}

// handlePreviewBatch shows the message that would be posted for the selection
func (h *Handler) handlePreviewBatch(c tele.Context) error {
	state := h.GetState(c.Sender().ID)

	ctx, cancel := requestContext()
	defer cancel()

	text, err := h.keyService.PreviewBatch(ctx, state.SelectedIDs())
	if err != nil {
		return h.batchError(c, err)
	}

	markup := &tele.ReplyMarkup{}
	markup.Inline(
		markup.Row(btnSend),
		markup.Row(btnKeys),
	)
	return h.show(c, "👀 Preview:\n\n"+text, markup)
}

// handleSendBatch posts the selection for proofreading.
// The chat keeps its batch token after a send until the list is opened again,
// so a repeated press replays the stored batch instead of posting twice.
func (h *Handler) handleSendBatch(c tele.Context) error {
	userID := c.Sender().ID
	unlock := h.lockUser(userID)
	defer unlock()

	state := h.UpdateState(userID, func(s *domain.StateData) {
		if s.BatchToken == "" {
			s.BatchToken = uuid.NewString()
		}
	})

	ctx, cancel := requestContext()
	defer cancel()

	batch, err := h.keyService.SendBatch(ctx, state.BatchToken, state.SelectedIDs())
	if err != nil {
		return h.batchError(c, err)
	}

	h.UpdateState(userID, func(s *domain.StateData) {
		*s = domain.StateData{State: domain.StateIdle, Selected: s.Selected, BatchToken: s.BatchToken}
	})

	h.logger.Info("Batch sent from chat",
		zap.Int64("user_id", userID),
		zap.String("batch_id", batch.ID),
		zap.Int("keys", len(batch.Keys)))

	return h.show(c, fmt.Sprintf("📤 Sent %d key(s) for proofreading to %s.\n\n%s", len(batch.Keys), batch.Channel, mainMenuText), mainMenuMarkup())
}

// batchError turns selection and delivery failures into replies
func (h *Handler) batchError(c tele.Context, err error) error {
	var de *notify.DeliveryError
	switch {
	case errors.Is(err, domain.ErrEmptySelection):
		return alert(c, "Select at least one key first.")
	case errors.Is(err, domain.ErrNotInProgress), errors.Is(err, domain.ErrKeyNotFound):
		h.UpdateState(c.Sender().ID, func(s *domain.StateData) {
			s.Selected = make(map[string]bool)
			s.BatchToken = ""
		})
		return alert(c, "Some selected keys were already sent. The selection was cleared, open the list again.")
	case errors.As(err, &de):
		if de.Retryable {
			return alert(c, "⚠️ The chat service is not responding. Nothing was sent, please try again.")
		}
		return alert(c, "⚠️ The message was rejected by the chat service. Nothing was sent.")
	}

	h.logger.Error("Batch action failed", zap.Error(err), zap.Int64("user_id", c.Sender().ID))
	return alert(c, errorText)
}

// handleSentKeys shows the first page of keys already sent for proofreading
func (h *Handler) handleSentKeys(c tele.Context) error {
	return h.renderSent(c, 1)
}

// handleSentPage handles page navigation of the sent list
func (h *Handler) handleSentPage(c tele.Context, data string) error {
	page, err := parsePage(data, prefixSentPage)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Invalid page"})
	}
	return h.renderSent(c, page)
}

func (h *Handler) renderSent(c tele.Context, page int) error {
	ctx, cancel := requestContext()
	defer cancel()

	keys, totalPages, err := h.keyService.ListPage(ctx, domain.StatusSent, page)
	if err != nil {
		h.logger.Error("Failed to list sent keys", zap.Error(err))
		return alert(c, errorText)
	}

	markup := &tele.ReplyMarkup{}
	if len(keys) == 0 && page <= 1 {
		markup.Inline(markup.Row(btnKeys), markup.Row(btnMainMenu))
		return h.show(c, "📤 No keys sent yet.", markup)
	}

	now := time.Now()
	var b strings.Builder
	fmt.Fprintf(&b, "📤 Sent for proofreading (page %d/%d)\n", page, totalPages)
	for _, k := range keys {
		fmt.Fprintf(&b, "\n▪️ %s\n    %s · %s · %s", k.Key, k.Project, k.Requester, domain.DisplayDate(k.CreatedAt, now))
	}

	rows := []tele.Row{}
	if navRow := pageNav(markup, prefixSentPage, page, totalPages); len(navRow) > 0 {
		rows = append(rows, navRow)
	}
	rows = append(rows, markup.Row(btnKeys), markup.Row(btnMainMenu))
	markup.Inline(rows...)

	return h.show(c, b.String(), markup)
}

// parsePage reads the page number of a navigation button, at least 1
func parsePage(data, prefix string) (int, error) {
	page, err := strconv.Atoi(strings.TrimPrefix(data, prefix))
	if err != nil {
		return 0, err
	}
	if page < 1 {
		page = 1
	}
	return page, nil
}

// pageNav returns the previous/next buttons for a paged list
func pageNav(markup *tele.ReplyMarkup, prefix string, page, totalPages int) tele.Row {
	navRow := tele.Row{}
	if totalPages <= 1 {
		return navRow
	}
	if page > 1 {
		navRow = append(navRow, markup.Data("⬅️", fmt.Sprintf("%s%d", prefix, page-1)))
	}
	if page < totalPages {
		navRow = append(navRow, markup.Data("➡️", fmt.Sprintf("%s%d", prefix, page+1)))
	}
	return navRow
}
