package handler

import (
	"context"
	"sync"
	"time"

	"keydesk/internal/domain"
	"keydesk/internal/service"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// requestTimeout bounds store and gateway calls made for one update
const requestTimeout = 2 * time.Minute

// Options holds the user-facing settings of the bot
type Options struct {
	DefaultProject domain.Project
	// AutoTranslate generates drafts as soon as the English text is entered
	AutoTranslate bool
}

// Handler manages all bot interactions
type Handler struct {
	bot          *tele.Bot
	authService  *service.AuthService
	keyService   *service.KeyService
	draftService *service.DraftService
	proofService *service.ProofreadingService
	statsService *service.StatsService
	opts         Options
	logger       *zap.Logger

	// User states (in-memory state machine)
	states   map[int64]*domain.StateData
	stateMux sync.RWMutex

	// Per-user locks for actions that must not run twice at once
	callbackLocks map[int64]*sync.Mutex
	callbackMux   sync.Mutex
}

// NewHandler creates a new handler instance
func NewHandler(
	bot *tele.Bot,
	authService *service.AuthService,
	keyService *service.KeyService,
	draftService *service.DraftService,
	proofService *service.ProofreadingService,
	statsService *service.StatsService,
	opts Options,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		bot:           bot,
		authService:   authService,
		keyService:    keyService,
		draftService:  draftService,
		proofService:  proofService,
		statsService:  statsService,
		opts:          opts,
		logger:        logger,
		states:        make(map[int64]*domain.StateData),
		callbackLocks: make(map[int64]*sync.Mutex),
	}
}

// RegisterHandlers registers all bot handlers
func (h *Handler) RegisterHandlers() {
	// Commands
	h.bot.Handle("/start", h.handleStart)
	h.bot.Handle("/new", h.handleNewKey)
	h.bot.Handle("/keys", h.handleKeys)
	h.bot.Handle("/sent", h.handleSentKeys)
	h.bot.Handle("/progress", h.handleProgress)
	h.bot.Handle("/stats", h.handleStats)
	h.bot.Handle("/cancel", h.handleCancel)

	// Text messages
	h.bot.Handle(tele.OnText, h.handleText)

	// Callback queries (inline buttons)
	h.bot.Handle(&btnNewKey, h.handleNewKey)
	h.bot.Handle(&btnKeys, h.handleKeys)
	h.bot.Handle(&btnSentKeys, h.handleSentKeys)
	h.bot.Handle(&btnProgress, h.handleProgress)
	h.bot.Handle(&btnStats, h.handleStats)
	h.bot.Handle(&btnCancel, h.handleCancel)
	h.bot.Handle(&btnMainMenu, h.handleStart)
	h.bot.Handle(&btnGenerate, h.handleGenerateDrafts)
	h.bot.Handle(&btnSubmit, h.handleSubmitKey)
	h.bot.Handle(&btnSelectAll, h.handleSelectAll)
	h.bot.Handle(&btnPreview, h.handlePreviewBatch)
	h.bot.Handle(&btnSend, h.handleSendBatch)

	// Generic callback handler for dynamic data
	h.bot.Handle(tele.OnCallback, h.handleCallback)
}

// GetState returns a copy of user's current state
func (h *Handler) GetState(userID int64) *domain.StateData {
	h.stateMux.RLock()
	defer h.stateMux.RUnlock()

	state, exists := h.states[userID]
	if !exists {
		return &domain.StateData{State: domain.StateIdle}
	}
	return copyState(state)
}

// SetState sets user's state
func (h *Handler) SetState(userID int64, state *domain.StateData) {
	h.stateMux.Lock()
	defer h.stateMux.Unlock()
	h.states[userID] = copyState(state)
}

// UpdateState applies fn to user's state atomically and returns the result
func (h *Handler) UpdateState(userID int64, fn func(s *domain.StateData)) *domain.StateData {
	h.stateMux.Lock()
	defer h.stateMux.Unlock()

	state, exists := h.states[userID]
	if !exists {
		state = &domain.StateData{State: domain.StateIdle}
		h.states[userID] = state
	}
	fn(state)
	return copyState(state)
}

// ResetState resets user to idle state and drops any draft snapshot
func (h *Handler) ResetState(userID int64) {
	h.draftService.Forget(userID)
	h.SetState(userID, &domain.StateData{State: domain.StateIdle})
}

func copyState(s *domain.StateData) *domain.StateData {
	out := *s
	out.Drafts = s.Drafts.Clone()
	if s.Selected != nil {
		out.Selected = make(map[string]bool, len(s.Selected))
		for id, ok := range s.Selected {
			out.Selected[id] = ok
		}
	}
	return &out
}

// lockUser serializes actions of one user and returns the unlock func
func (h *Handler) lockUser(userID int64) func() {
	h.callbackMux.Lock()
	lock, exists := h.callbackLocks[userID]
	if !exists {
		lock = &sync.Mutex{}
		h.callbackLocks[userID] = lock
	}
	h.callbackMux.Unlock()

	lock.Lock()
	return lock.Unlock
}

func requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}

// Inline keyboard buttons
var (
	btnNewKey = tele.Btn{
		Unique: "new_key",
		Text:   "➕ New key",
	}
	btnKeys = tele.Btn{
		Unique: "keys",
		Text:   "📋 Keys in progress",
	}
	btnSentKeys = tele.Btn{
		Unique: "sent_keys",
		Text:   "📤 Sent",
	}
	btnProgress = tele.Btn{
		Unique: "progress",
		Text:   "📊 Proofreading progress",
	}
	btnStats = tele.Btn{
		Unique: "stats",
		Text:   "📈 Stats",
	}
	btnCancel = tele.Btn{
		Unique: "cancel",
		Text:   "❌ Cancel",
	}
	btnMainMenu = tele.Btn{
		Unique: "main_menu",
		Text:   "🏠 Main menu",
	}
	btnGenerate = tele.Btn{
		Unique: "generate",
		Text:   "🤖 Generate drafts",
	}
	btnSubmit = tele.Btn{
		Unique: "submit_key",
		Text:   "✅ Create key",
	}
	btnSelectAll = tele.Btn{
		Unique: "select_all",
		Text:   "☑️ Select all",
	}
	btnPreview = tele.Btn{
		Unique: "preview_batch",
		Text:   "👀 Preview",
	}
	btnSend = tele.Btn{
		Unique: "send_batch",
		Text:   "📤 Send for proofreading",
	}
)

// Prefixes of dynamic callback data
const (
	prefixProject    = "proj_"
	prefixSelect     = "sel_"
	prefixPage       = "kpage_"
	prefixSentPage   = "spage_"
	prefixFilter     = "flt_"
	prefixBatch      = "bat_"
	prefixRemind     = "rem_"
	prefixRemindSend = "remok_"
	prefixMark       = "mk_"
)

// mainMenuMarkup returns the main menu keyboard
func mainMenuMarkup() *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	menu.Inline(
		menu.Row(btnNewKey),
		menu.Row(btnKeys),
		menu.Row(btnProgress, btnStats),
	)
	return menu
}

func cancelMarkup() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(btnCancel))
	return markup
}

const (
	mainMenuText = "🏠 Main menu\n\nChoose an action:"
	errorText    = "Something went wrong. Please try again later."
)
