package handler

import (
	"strings"
	"unicode"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// cleanCallbackData removes all non-printable characters from callback data
func cleanCallbackData(data string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) {
			return r
		}
		return -1
	}, strings.TrimSpace(data))
}

// handleEditError handles errors from c.Edit() - if message is not modified, just acknowledge callback
// Otherwise, acknowledge callback and return error so caller can send new message
func (h *Handler) handleEditError(err error, c tele.Context, userID int64) error {
	if err == nil {
		return nil
	}

	// If message is not modified, it means it was already edited by another callback
	// Just acknowledge and return nil - don't send new message
	if strings.Contains(err.Error(), "message is not modified") {
		h.logger.Debug("Message already modified by another callback, acknowledging",
			zap.Int64("user_id", userID),
			zap.String("callback_id", c.Callback().ID),
		)
		_ = c.Respond()
		return nil
	}

	h.logger.Warn("Failed to edit message, sending new",
		zap.Error(err),
		zap.Int64("user_id", userID),
		zap.String("callback_id", c.Callback().ID),
	)
	// Always acknowledge callback before sending new message
	if ackErr := c.Respond(); ackErr != nil {
		h.logger.Warn("Failed to acknowledge callback", zap.Error(ackErr))
	}
	return err
}

// handleCallback handles ALL callback queries
func (h *Handler) handleCallback(c tele.Context) error {
	callback := c.Callback()
	if callback == nil {
		h.logger.Warn("handleCallback: callback is nil")
		return nil
	}

	// Clean data from all non-printable characters
	data := cleanCallbackData(callback.Data)
	h.logger.Debug("handleCallback: Processing callback",
		zap.String("data", data),
		zap.String("id", callback.ID),
		zap.String("unique", callback.Unique),
		zap.Int64("user_id", c.Sender().ID),
	)

	// Static buttons arrive here when their Unique did not come through
	name := callback.Unique
	if name == "" {
		name = data
	}
	switch name {
	case btnNewKey.Unique:
		return h.handleNewKey(c)
	case btnKeys.Unique:
		return h.handleKeys(c)
	case btnSentKeys.Unique:
		return h.handleSentKeys(c)
	case btnProgress.Unique:
		return h.handleProgress(c)
	case btnStats.Unique:
		return h.handleStats(c)
	case btnCancel.Unique:
		return h.handleCancel(c)
	case btnMainMenu.Unique:
		return h.handleStart(c)
	case btnGenerate.Unique:
		return h.handleGenerateDrafts(c)
	case btnSubmit.Unique:
		return h.handleSubmitKey(c)
	case btnSelectAll.Unique:
		return h.handleSelectAll(c)
	case btnPreview.Unique:
		return h.handlePreviewBatch(c)
	case btnSend.Unique:
		return h.handleSendBatch(c)
	}

	// Handle by Data prefix (dynamic buttons)
	switch {
	case strings.HasPrefix(data, prefixProject):
		return h.handleProjectChoice(c, data)
	case strings.HasPrefix(data, prefixSelect):
		return h.handleToggleKey(c, data)
	case strings.HasPrefix(data, prefixPage):
		return h.handleKeysPage(c, data)
	case strings.HasPrefix(data, prefixSentPage):
		return h.handleSentPage(c, data)
	case strings.HasPrefix(data, prefixFilter):
		return h.handleFilter(c, data)
	case strings.HasPrefix(data, prefixBatch):
		return h.handleBatch(c, data)
	case strings.HasPrefix(data, prefixRemind):
		return h.handleRemind(c, data)
	case strings.HasPrefix(data, prefixRemindSend):
		return h.handleRemindSend(c, data)
	case strings.HasPrefix(data, prefixMark):
		return h.handleMark(c, data)
	}

	// If it's not handled, acknowledge it anyway
	h.logger.Warn("Unhandled callback in handleCallback",
		zap.String("data", data),
		zap.String("unique", callback.Unique),
	)
	return c.Respond()
}
