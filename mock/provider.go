// Package mock provides test doubles for recode interfaces using function fields.
package mock

import (
	"context"
	"time"

	"github.com/fwojciec/recode"
)

// Interface compliance checks.
var (
	_ recode.Provider = (*Provider)(nil)
	_ recode.Observer = (*Observer)(nil)
)

// Provider is a test double for recode.Provider.
// Set GenerateFn before calling Generate. NameFn is nil-safe and returns "mock".
type Provider struct {
	NameFn     func() string
	GenerateFn func(ctx context.Context, prompt string) (string, error)
}

// Name delegates to NameFn.
func (p *Provider) Name() string {
	if p.NameFn == nil {
		return "mock"
	}
	return p.NameFn()
}

// Generate delegates to GenerateFn.
func (p *Provider) Generate(ctx context.Context, prompt string) (string, error) {
	return p.GenerateFn(ctx, prompt)
}

// Observer is a test double for recode.Observer. Nil function fields are no-ops.
type Observer struct {
	ObserveAttemptFn func(provider string, d time.Duration, err error)
	ObserveRewriteFn func(provider string, attempts int, err error)
}

// ObserveAttempt delegates to ObserveAttemptFn.
func (o *Observer) ObserveAttempt(provider string, d time.Duration, err error) {
	if o.ObserveAttemptFn != nil {
		o.ObserveAttemptFn(provider, d, err)
	}
}

// ObserveRewrite delegates to ObserveRewriteFn.
func (o *Observer) ObserveRewrite(provider string, attempts int, err error) {
	if o.ObserveRewriteFn != nil {
		o.ObserveRewriteFn(provider, attempts, err)
	}
}
