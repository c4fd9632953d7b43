package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrDuplicateKey    = errors.New("translation key already exists")
	ErrEmptySelection  = errors.New("no translation keys selected")
	ErrNotInProgress   = errors.New("translation key is not in progress")
	ErrKeyNotFound     = errors.New("translation key not found")
	ErrRequestNotFound = errors.New("proofreading request not found")
	ErrStaleDraft      = errors.New("draft result is stale")
	ErrUnknownProject  = errors.New("unknown project")
	ErrUnknownLanguage = errors.New("unknown language")
	ErrAlreadyComplete = errors.New("proofreading request is already complete")
)

// DuplicateKeyError reports a (project, key) collision
type DuplicateKeyError struct {
	Project Project
	Key     string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("this key already exists in the %s project", e.Project)
}

func (e *DuplicateKeyError) Unwrap() error {
	return ErrDuplicateKey
}

// PartialDraftError is returned when the generator did not cover every draft language.
// Draft holds what was produced.
type PartialDraftError struct {
	Draft   Draft
	Missing []Language
}

func (e *PartialDraftError) Error() string {
	codes := make([]string, 0, len(e.Missing))
	for _, lang := range e.Missing {
		codes = append(codes, lang.Code())
	}
	return "drafts missing for " + strings.Join(codes, ", ")
}
