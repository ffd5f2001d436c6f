package recode

import (
	"context"
	"time"
)

// Provider is a strategy pattern interface for LLM backends. A Provider is
// bound to its credentials and generation parameters at construction time, so
// Generate only carries the prompt.
type Provider interface {
	// Name returns the provider identifier (e.g. "gemini", "openai").
	Name() string
	// Generate sends a single text prompt and returns the completion text.
	Generate(ctx context.Context, prompt string) (string, error)
}

// Observer receives gateway outcomes. Implementations must be safe for
// concurrent use.
type Observer interface {
	// ObserveAttempt is called after every dispatch to the provider.
	ObserveAttempt(provider string, d time.Duration, err error)
	// ObserveRewrite is called once per call with the terminal outcome.
	ObserveRewrite(provider string, attempts int, err error)
}
