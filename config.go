package recode

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// ProviderName identifies a supported backend.
type ProviderName string

const (
	ProviderGemini ProviderName = "gemini"
	ProviderOpenAI ProviderName = "openai"
)

// Providers lists the supported provider names.
func Providers() []ProviderName {
	return []ProviderName{ProviderGemini, ProviderOpenAI}
}

// Valid reports whether n names a supported provider.
func (n ProviderName) Valid() bool {
	switch n {
	case ProviderGemini, ProviderOpenAI:
		return true
	}
	return false
}

// HarmCategory names a content-safety category. Values match the Gemini API.
type HarmCategory string

const (
	HarmHarassment       HarmCategory = "HARM_CATEGORY_HARASSMENT"
	HarmHateSpeech       HarmCategory = "HARM_CATEGORY_HATE_SPEECH"
	HarmSexuallyExplicit HarmCategory = "HARM_CATEGORY_SEXUALLY_EXPLICIT"
	HarmDangerousContent HarmCategory = "HARM_CATEGORY_DANGEROUS_CONTENT"
)

// HarmThreshold is the blocking threshold for a HarmCategory.
type HarmThreshold string

const (
	BlockNone           HarmThreshold = "BLOCK_NONE"
	BlockOnlyHigh       HarmThreshold = "BLOCK_ONLY_HIGH"
	BlockMediumAndAbove HarmThreshold = "BLOCK_MEDIUM_AND_ABOVE"
	BlockLowAndAbove    HarmThreshold = "BLOCK_LOW_AND_ABOVE"
)

// SafetySetting pairs a category with its threshold.
type SafetySetting struct {
	Category  HarmCategory
	Threshold HarmThreshold
}

// ProviderConfig carries generation parameters for one provider. Nil pointer
// fields and zero values mean "use the provider default". Providers ignore
// fields their API has no equivalent for.
type ProviderConfig struct {
	Model            string
	Timeout          time.Duration // 0 = no client-side timeout
	Temperature      *float64
	TopP             *float64
	TopK             *int
	MaxTokens        int
	FrequencyPenalty *float64
	PresencePenalty  *float64
	Safety           []SafetySetting
}

// Validate checks parameter ranges.
func (c ProviderConfig) Validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative, got %s: %w", c.Timeout, ErrInvalidConfiguration)
	}
	if c.Temperature != nil && (*c.Temperature < 0 || *c.Temperature > 2) {
		return fmt.Errorf("temperature must be in [0, 2], got %g: %w", *c.Temperature, ErrInvalidConfiguration)
	}
	if c.TopP != nil && (*c.TopP < 0 || *c.TopP > 1) {
		return fmt.Errorf("top_p must be in [0, 1], got %g: %w", *c.TopP, ErrInvalidConfiguration)
	}
	if c.TopK != nil && *c.TopK < 0 {
		return fmt.Errorf("top_k must be non-negative, got %d: %w", *c.TopK, ErrInvalidConfiguration)
	}
	if c.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must be non-negative, got %d: %w", c.MaxTokens, ErrInvalidConfiguration)
	}
	if err := validatePenalty("frequency_penalty", c.FrequencyPenalty); err != nil {
		return err
	}
	if err := validatePenalty("presence_penalty", c.PresencePenalty); err != nil {
		return err
	}
	seen := make(map[HarmCategory]bool, len(c.Safety))
	for _, s := range c.Safety {
		switch s.Category {
		case HarmHarassment, HarmHateSpeech, HarmSexuallyExplicit, HarmDangerousContent:
		default:
			return fmt.Errorf("unknown safety category %q: %w", s.Category, ErrInvalidConfiguration)
		}
		switch s.Threshold {
		case BlockNone, BlockOnlyHigh, BlockMediumAndAbove, BlockLowAndAbove:
		default:
			return fmt.Errorf("unknown safety threshold %q for %s: %w", s.Threshold, s.Category, ErrInvalidConfiguration)
		}
		if seen[s.Category] {
			return fmt.Errorf("duplicate safety category %s: %w", s.Category, ErrInvalidConfiguration)
		}
		seen[s.Category] = true
	}
	return nil
}

func validatePenalty(name string, p *float64) error {
	if p != nil && (*p < -2 || *p > 2) {
		return fmt.Errorf("%s must be in [-2, 2], got %g: %w", name, *p, ErrInvalidConfiguration)
	}
	return nil
}

// ValidateAPIKey checks that an API key is present and contains no whitespace.
func ValidateAPIKey(key string) error {
	if key == "" {
		return fmt.Errorf("API key is empty: %w", ErrInvalidConfiguration)
	}
	if strings.ContainsFunc(key, unicode.IsSpace) {
		return fmt.Errorf("API key contains whitespace: %w", ErrInvalidConfiguration)
	}
	return nil
}

// Config is the application configuration. API keys are not part of it; they
// come from the environment or flags.
type Config struct {
	Provider   ProviderName // empty = auto-detect from available keys
	MaxRetries int
	RetryDelay time.Duration
	OutputDir  string
	LogFile    string
	Logging    bool
	Gemini     ProviderConfig
	OpenAI     ProviderConfig
}

// ProviderConfig returns the generation parameters for the named provider.
func (c Config) ProviderConfig(name ProviderName) (ProviderConfig, error) {
	switch name {
	case ProviderGemini:
		return c.Gemini, nil
	case ProviderOpenAI:
		return c.OpenAI, nil
	default:
		return ProviderConfig{}, fmt.Errorf("unknown provider %q: %w", name, ErrInvalidConfiguration)
	}
}

// Validate checks the whole configuration.
func (c Config) Validate() error {
	if c.Provider != "" && !c.Provider.Valid() {
		return fmt.Errorf("unknown provider %q: %w", c.Provider, ErrInvalidConfiguration)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be non-negative, got %d: %w", c.MaxRetries, ErrInvalidConfiguration)
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("retry_delay must be non-negative, got %s: %w", c.RetryDelay, ErrInvalidConfiguration)
	}
	if err := c.Gemini.Validate(); err != nil {
		return fmt.Errorf("gemini: %w", err)
	}
	if err := c.OpenAI.Validate(); err != nil {
		return fmt.Errorf("openai: %w", err)
	}
	return nil
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return Config{
		MaxRetries: 3,
		OutputDir:  "output",
		LogFile:    "logs/recode.log",
		Logging:    true,
		Gemini: ProviderConfig{
			Model:       "gemini-2.5-flash",
			Timeout:     30 * time.Second,
			Temperature: ptr(0.9),
			TopP:        ptr(1.0),
			TopK:        ptr(1),
			MaxTokens:   2048,
			Safety: []SafetySetting{
				{Category: HarmHarassment, Threshold: BlockMediumAndAbove},
				{Category: HarmHateSpeech, Threshold: BlockMediumAndAbove},
				{Category: HarmSexuallyExplicit, Threshold: BlockMediumAndAbove},
				{Category: HarmDangerousContent, Threshold: BlockMediumAndAbove},
			},
		},
		OpenAI: ProviderConfig{
			Model:            "gpt-4o-mini",
			Timeout:          30 * time.Second,
			Temperature:      ptr(0.7),
			TopP:             ptr(1.0),
			MaxTokens:        2048,
			FrequencyPenalty: ptr(0.0),
			PresencePenalty:  ptr(0.0),
		},
	}
}

func ptr[T any](v T) *T { return &v }
