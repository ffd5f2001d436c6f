// Package yaml loads recode configuration files.
//
// A file overlays [recode.DefaultConfig]: keys that are absent keep their
// default value. A provider's safety list, when present, replaces the default
// list entirely. Unknown keys are rejected.
package yaml

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fwojciec/recode"
	"gopkg.in/yaml.v3"
)

// fileConfig is the on-disk representation of a recode.Config.
type fileConfig struct {
	Provider   string       `yaml:"provider"`
	MaxRetries *int         `yaml:"max_retries"`
	RetryDelay string       `yaml:"retry_delay"`
	OutputDir  string       `yaml:"output_dir"`
	LogFile    string       `yaml:"log_file"`
	Logging    *bool        `yaml:"logging"`
	Gemini     *providerDTO `yaml:"gemini"`
	OpenAI     *providerDTO `yaml:"openai"`
}

type providerDTO struct {
	Model            string      `yaml:"model"`
	Timeout          string      `yaml:"timeout"`
	Temperature      *float64    `yaml:"temperature"`
	TopP             *float64    `yaml:"top_p"`
	TopK             *int        `yaml:"top_k"`
	MaxTokens        *int        `yaml:"max_tokens"`
	FrequencyPenalty *float64    `yaml:"frequency_penalty"`
	PresencePenalty  *float64    `yaml:"presence_penalty"`
	Safety           []safetyDTO `yaml:"safety"`
}

type safetyDTO struct {
	Category  string `yaml:"category"`
	Threshold string `yaml:"threshold"`
}

// Load reads and parses the configuration file at path. A missing file
// returns an error wrapping os.ErrNotExist.
func Load(path string) (recode.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return recode.Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return recode.Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML data over the default configuration and validates the
// result.
func Parse(data []byte) (recode.Config, error) {
	var fc fileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return recode.Config{}, fmt.Errorf("parse config: %w: %w", recode.ErrInvalidConfiguration, err)
	}

	cfg := recode.DefaultConfig()
	if err := fc.apply(&cfg); err != nil {
		return recode.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return recode.Config{}, err
	}
	return cfg, nil
}

func (fc fileConfig) apply(cfg *recode.Config) error {
	if fc.Provider != "" {
		cfg.Provider = recode.ProviderName(fc.Provider)
	}
	if fc.MaxRetries != nil {
		cfg.MaxRetries = *fc.MaxRetries
	}
	if fc.RetryDelay != "" {
		d, err := parseDuration("retry_delay", fc.RetryDelay)
		if err != nil {
			return err
		}
		cfg.RetryDelay = d
	}
	if fc.OutputDir != "" {
		cfg.OutputDir = fc.OutputDir
	}
	if fc.LogFile != "" {
		cfg.LogFile = fc.LogFile
	}
	if fc.Logging != nil {
		cfg.Logging = *fc.Logging
	}
	if fc.Gemini != nil {
		if err := fc.Gemini.apply(&cfg.Gemini); err != nil {
			return fmt.Errorf("gemini: %w", err)
		}
	}
	if fc.OpenAI != nil {
		if err := fc.OpenAI.apply(&cfg.OpenAI); err != nil {
			return fmt.Errorf("openai: %w", err)
		}
	}
	return nil
}

func (p providerDTO) apply(pc *recode.ProviderConfig) error {
	if p.Model != "" {
		pc.Model = p.Model
	}
	if p.Timeout != "" {
		d, err := parseDuration("timeout", p.Timeout)
		if err != nil {
			return err
		}
		pc.Timeout = d
	}
	if p.Temperature != nil {
		pc.Temperature = p.Temperature
	}
	if p.TopP != nil {
		pc.TopP = p.TopP
	}
	if p.TopK != nil {
		pc.TopK = p.TopK
	}
	if p.MaxTokens != nil {
		pc.MaxTokens = *p.MaxTokens
	}
	if p.FrequencyPenalty != nil {
		pc.FrequencyPenalty = p.FrequencyPenalty
	}
	if p.PresencePenalty != nil {
		pc.PresencePenalty = p.PresencePenalty
	}
	if p.Safety != nil {
		pc.Safety = make([]recode.SafetySetting, len(p.Safety))
		for i, s := range p.Safety {
			pc.Safety[i] = recode.SafetySetting{
				Category:  recode.HarmCategory(s.Category),
				Threshold: recode.HarmThreshold(s.Threshold),
			}
		}
	}
	return nil
}

func parseDuration(field, s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w: %w", field, recode.ErrInvalidConfiguration, err)
	}
	return d, nil
}
