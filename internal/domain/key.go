package domain

import (
	"fmt"
	"strings"
	"time"
)

// KeyStatus is the lifecycle state of a translation key request.
// The only transition is in_progress -> sent, made by a batch send.
type KeyStatus string

const (
	StatusInProgress KeyStatus = "in_progress"
	StatusSent       KeyStatus = "sent"
)

// ParseKeyStatus validates a stored status value
func ParseKeyStatus(s string) (KeyStatus, error) {
	switch KeyStatus(s) {
	case StatusInProgress, StatusSent:
		return KeyStatus(s), nil
	}
	return "", fmt.Errorf("%w: unknown key status %q", ErrInvalidInput, s)
}

// KeyRequest represents a requested translation key
type KeyRequest struct {
	ID          string
	Key         string
	EnglishText string
	Project     Project
	CreatedAt   time.Time
	Requester   string
	Status      KeyStatus
	Drafts      Draft
}

// NormalizeKey returns the form used for duplicate detection
func NormalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// Collides reports whether the request occupies the given project and key
func (k KeyRequest) Collides(project Project, key string) bool {
	return k.Project == project && NormalizeKey(k.Key) == NormalizeKey(key)
}
