// Package translate produces machine drafts of a source text.
package translate

import (
	"context"
	"fmt"
	"time"

	"keydesk/internal/domain"
)

// Generator turns an English source text into drafts for the draft languages
type Generator interface {
	Generate(ctx context.Context, sourceText string) (domain.Draft, error)
}

// Stub returns "[XX] text" drafts after a fixed delay.
// It is deterministic, so repeated calls with the same text agree.
type Stub struct {
	latency time.Duration
}

// NewStub creates a stub generator with the given simulated latency
func NewStub(latency time.Duration) *Stub {
	return &Stub{latency: latency}
}

// Generate waits for the simulated latency, then drafts every language
func (s *Stub) Generate(ctx context.Context, sourceText string) (domain.Draft, error) {
	if s.latency > 0 {
		timer := time.NewTimer(s.latency)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	draft := make(domain.Draft, len(domain.DraftLanguages))
	for _, lang := range domain.DraftLanguages {
		draft[lang] = fmt.Sprintf("[%s] %s", lang.Code(), sourceText)
	}
	return draft, nil
}
