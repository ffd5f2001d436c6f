package main

import (
	"fmt"

	"github.com/fwojciec/recode"
)

// resolveProvider selects the provider name and API key. All env var values
// are passed in as parameters; env is only read in main().
//
// Selection order: -provider flag, then the config file, then auto-detection
// from whichever single key is present in the environment.
func resolveProvider(providerFlag, configProvider, apiKeyFlag, geminiEnvKey, openaiEnvKey string) (recode.ProviderName, string, error) {
	provider := providerFlag
	if provider == "" {
		provider = configProvider
	}

	if provider == "" {
		hasGemini := geminiEnvKey != ""
		hasOpenAI := openaiEnvKey != ""
		switch {
		case hasGemini && hasOpenAI:
			return "", "", fmt.Errorf("multiple API keys found (GEMINI_API_KEY, OPENAI_API_KEY): use -provider flag to select")
		case hasGemini:
			provider = string(recode.ProviderGemini)
		case hasOpenAI:
			provider = string(recode.ProviderOpenAI)
		default:
			return "", "", fmt.Errorf("no API key found: set GEMINI_API_KEY or OPENAI_API_KEY (or use -provider and -api-key flags)")
		}
	}

	// Explicit flag overrides env var.
	key := apiKeyFlag
	switch name := recode.ProviderName(provider); name {
	case recode.ProviderGemini:
		if key == "" {
			key = geminiEnvKey
		}
		if key == "" {
			return "", "", fmt.Errorf("GEMINI_API_KEY not set (use -api-key flag or environment variable)")
		}
		return name, key, nil
	case recode.ProviderOpenAI:
		if key == "" {
			key = openaiEnvKey
		}
		if key == "" {
			return "", "", fmt.Errorf("OPENAI_API_KEY not set (use -api-key flag or environment variable)")
		}
		return name, key, nil
	default:
		return "", "", fmt.Errorf("unknown provider %q: must be one of %v: %w", provider, recode.Providers(), recode.ErrInvalidConfiguration)
	}
}
