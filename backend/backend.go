// Package backend constructs a [recode.Provider] from a provider name.
//
// The set of names is closed: adding a provider means adding a case here and
// a package implementing [recode.Provider].
package backend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/fwojciec/recode"
	"github.com/fwojciec/recode/gemini"
	"github.com/fwojciec/recode/openai"
)

// New validates the credential and configuration and returns the adapter for
// name. No network round-trip is made.
func New(ctx context.Context, name recode.ProviderName, apiKey string, cfg recode.ProviderConfig) (recode.Provider, error) {
	if !name.Valid() {
		return nil, fmt.Errorf("unknown provider %q: must be one of %v: %w", name, recode.Providers(), recode.ErrInvalidConfiguration)
	}
	if err := recode.ValidateAPIKey(apiKey); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	hc := &http.Client{Timeout: cfg.Timeout}
	switch name {
	case recode.ProviderGemini:
		c, err := gemini.New(ctx, apiKey, cfg, gemini.WithHTTPClient(hc))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", recode.ErrInvalidConfiguration, err)
		}
		return c, nil
	default:
		return openai.New(apiKey, cfg, openai.WithHTTPClient(hc)), nil
	}
}
