package domain

import "time"

// User represents a bot user
type User struct {
	UserID     int64
	Authorized bool
	CreatedAt  time.Time
}

// UserState represents user's current interaction state
type UserState string

const (
	StateIdle            UserState = "idle"
	StateWaitingProject  UserState = "waiting_project"
	StateWaitingKey      UserState = "waiting_key"
	StateWaitingText     UserState = "waiting_text"
	StateReviewingDraft  UserState = "reviewing_draft"
	StateSelectingKeys   UserState = "selecting_keys"
	StateWaitingPassword UserState = "waiting_password"
)

// StateData holds the per-chat form and selection state.
// It never lives in the request store.
type StateData struct {
	State       UserState
	Project     Project
	Key         string
	EnglishText string
	Drafts      Draft
	Selected    map[string]bool
	// BatchToken is the idempotency key of the batch being sent from this chat
	BatchToken string
	Page       int
	Filter     FilterMode
	MessageID  int // For editing messages
}

// SelectedIDs returns the selected key request ids
func (s *StateData) SelectedIDs() []string {
	ids := make([]string, 0, len(s.Selected))
	for id, ok := range s.Selected {
		if ok {
			ids = append(ids, id)
		}
	}
	return ids
}
