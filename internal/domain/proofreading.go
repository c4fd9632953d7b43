package domain

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// CompletionStatus holds the per-language "proofreading done" flags of a batch
type CompletionStatus map[Language]bool

// NewCompletionStatus returns flags for every proofreading language, all pending
func NewCompletionStatus() CompletionStatus {
	status := make(CompletionStatus, len(ProofreadingLanguages))
	for _, lang := range ProofreadingLanguages {
		status[lang] = false
	}
	return status
}

// ProofreadingRequest is a batch of translation keys sent for human review
type ProofreadingRequest struct {
	ID             string
	CreatedAt      time.Time
	KeyIDs         []string
	Keys           []string
	Channel        string
	MessageRef     string
	IdempotencyKey string
	Completion     CompletionStatus
}

// CompletedCount returns the number of proofreading languages marked done
func (r ProofreadingRequest) CompletedCount() int {
	count := 0
	for _, lang := range ProofreadingLanguages {
		if r.Completion[lang] {
			count++
		}
	}
	return count
}

// CompletionRate returns round(100 * done / total) over the proofreading languages
func (r ProofreadingRequest) CompletionRate() int {
	total := len(ProofreadingLanguages)
	return int(math.Round(100 * float64(r.CompletedCount()) / float64(total)))
}

// IsComplete reports whether every proofreading language is done
func (r ProofreadingRequest) IsComplete() bool {
	return r.CompletedCount() == len(ProofreadingLanguages)
}

// PendingLanguages returns the languages not yet done, in fixed order
func (r ProofreadingRequest) PendingLanguages() []Language {
	var pending []Language
	for _, lang := range ProofreadingLanguages {
		if !r.Completion[lang] {
			pending = append(pending, lang)
		}
	}
	return pending
}

// FilterMode selects proofreading requests by completion
type FilterMode string

const (
	FilterAll        FilterMode = "all"
	FilterComplete   FilterMode = "complete"
	FilterIncomplete FilterMode = "incomplete"
)

// ParseFilterMode validates a filter mode; empty means all
func ParseFilterMode(s string) (FilterMode, error) {
	switch FilterMode(s) {
	case "":
		return FilterAll, nil
	case FilterAll, FilterComplete, FilterIncomplete:
		return FilterMode(s), nil
	}
	return "", fmt.Errorf("%w: unknown filter %q", ErrInvalidInput, s)
}

// FilterRequests returns the requests matching mode, most recent first.
// The input slice is not modified.
func FilterRequests(all []ProofreadingRequest, mode FilterMode) []ProofreadingRequest {
	out := make([]ProofreadingRequest, 0, len(all))
	for _, r := range all {
		switch mode {
		case FilterComplete:
			if !r.IsComplete() {
				continue
			}
		case FilterIncomplete:
			if r.IsComplete() {
				continue
			}
		}
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})

	return out
}
