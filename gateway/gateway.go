// Package gateway rewrites source code through a single bound [recode.Provider].
//
// A Gateway is bound to one provider for its lifetime. Each call builds one
// rewrite prompt, dispatches it, and retries the whole dispatch on failure
// until the retry budget is spent. The attempt counter lives in the call, so
// a Gateway is safe for concurrent use.
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fwojciec/recode"
	"github.com/fwojciec/recode/backend"
	"github.com/google/uuid"
)

// DefaultMaxRetries is the retry budget used when WithMaxRetries is not set.
const DefaultMaxRetries = 3

// Gateway dispatches rewrite requests to a provider with bounded retry.
type Gateway struct {
	provider   recode.Provider
	maxRetries int
	retryDelay time.Duration
	logger     *slog.Logger
	observer   recode.Observer
}

// Option configures a [Gateway].
type Option func(*Gateway)

// WithMaxRetries sets the number of additional attempts after the first
// failure. Negative values are treated as zero.
func WithMaxRetries(n int) Option {
	return func(g *Gateway) { g.maxRetries = max(n, 0) }
}

// WithRetryDelay sets a fixed pause between attempts. Zero (the default)
// retries immediately.
func WithRetryDelay(d time.Duration) Option {
	return func(g *Gateway) { g.retryDelay = max(d, 0) }
}

// WithLogger sets the structured logger. Default discards all records.
func WithLogger(l *slog.Logger) Option {
	return func(g *Gateway) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithObserver sets an observer notified of every attempt and call outcome.
func WithObserver(o recode.Observer) Option {
	return func(g *Gateway) {
		if o != nil {
			g.observer = o
		}
	}
}

// New creates a Gateway bound to provider.
func New(provider recode.Provider, opts ...Option) *Gateway {
	g := &Gateway{
		provider:   provider,
		maxRetries: DefaultMaxRetries,
		logger:     slog.New(slog.DiscardHandler),
		observer:   nopObserver{},
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Create constructs the named provider and binds a new Gateway to it. It
// performs no network I/O; an unknown name, unusable credential or invalid
// configuration fails with [recode.ErrInvalidConfiguration].
func Create(ctx context.Context, name recode.ProviderName, apiKey string, cfg recode.ProviderConfig, opts ...Option) (*Gateway, error) {
	p, err := backend.New(ctx, name, apiKey, cfg)
	if err != nil {
		return nil, err
	}
	return New(p, opts...), nil
}

// Provider returns the bound provider.
func (g *Gateway) Provider() recode.Provider { return g.provider }

// MaxRetries returns the configured retry budget.
func (g *Gateway) MaxRetries() int { return g.maxRetries }

// ProcessText rewrites code according to instruction and returns the
// provider's text unmodified.
func (g *Gateway) ProcessText(ctx context.Context, instruction, code string) (string, error) {
	res, err := g.Rewrite(ctx, recode.RewriteRequest{Instruction: instruction, Code: code})
	if err != nil {
		return "", err
	}
	return res.Code, nil
}

// Rewrite runs one rewrite call. The returned Result carries the attempt
// count even when err is non-nil. Errors wrap [recode.ErrCallerContract]
// (nothing dispatched) or [recode.ErrBackend] (every attempt failed or ctx
// was cancelled).
func (g *Gateway) Rewrite(ctx context.Context, req recode.RewriteRequest) (recode.Result, error) {
	var res recode.Result
	if err := req.Validate(); err != nil {
		return res, err
	}

	name := g.provider.Name()
	log := g.logger.With("request_id", uuid.NewString(), "provider", name)
	prompt := req.Prompt()
	start := time.Now()

	var lastErr error
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		if attempt > 0 {
			log.Warn("retrying request", "retry", attempt, "max_retries", g.maxRetries, "error", lastErr)
			if err := g.pause(ctx); err != nil {
				lastErr = err
				break
			}
		}
		if err := ctx.Err(); err != nil {
			lastErr = err
			break
		}

		res.Attempts++
		t0 := time.Now()
		text, err := g.provider.Generate(ctx, prompt)
		g.observer.ObserveAttempt(name, time.Since(t0), err)
		if err == nil {
			res.Code = text
			log.Info("request processed",
				"attempts", res.Attempts,
				"duration_ms", time.Since(start).Milliseconds(),
			)
			g.observer.ObserveRewrite(name, res.Attempts, nil)
			return res, nil
		}
		lastErr = err
		log.Error("attempt failed", "attempt", res.Attempts, "error", err)
	}

	err := fmt.Errorf("%w after %d attempt(s): %w", recode.ErrBackend, res.Attempts, lastErr)
	log.Error("request failed",
		"attempts", res.Attempts,
		"duration_ms", time.Since(start).Milliseconds(),
		"error", lastErr,
	)
	g.observer.ObserveRewrite(name, res.Attempts, err)
	return res, err
}

func (g *Gateway) pause(ctx context.Context) error {
	if g.retryDelay == 0 {
		return nil
	}
	t := time.NewTimer(g.retryDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type nopObserver struct{}

func (nopObserver) ObserveAttempt(string, time.Duration, error) {}
func (nopObserver) ObserveRewrite(string, int, error)           {}
