// Package llm provides the text-generation collaborators the pipeline
// calls into, behind a provider-neutral interface.
package llm

import (
	"context"
	"errors"
	"sync"
)

// Generator is the opaque text-generation call the pipeline depends on.
// Implementations must honor context cancellation and deadlines.
type Generator interface {
	// Generate produces text for the prompt using the named model.
	Generate(ctx context.Context, prompt, model string) (string, error)
}

// ErrProvider wraps upstream provider failures so callers can treat any
// provider error as one retryable class.
var ErrProvider = errors.New("generation provider error")

// TokenTracker tracks token usage across generation calls.
type TokenTracker struct {
	mu        sync.Mutex
	inputTok  int64
	outputTok int64
	calls     int
}

// NewTokenTracker creates a new token tracker.
func NewTokenTracker() *TokenTracker {
	return &TokenTracker{}
}

// Add records token usage from one call.
func (t *TokenTracker) Add(input, output int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inputTok += input
	t.outputTok += output
	t.calls++
}

// Totals returns cumulative input tokens, output tokens, and call count.
func (t *TokenTracker) Totals() (int64, int64, int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inputTok, t.outputTok, t.calls
}
