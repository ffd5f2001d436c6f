// Package gemini implements [recode.Provider] for the Google Gemini API.
//
// It wraps the google.golang.org/genai SDK. Each Generate call is a single
// non-streaming GenerateContent request carrying the configured sampling
// parameters and content-safety thresholds.
package gemini

const (
	name             = "gemini"
	defaultModel     = "gemini-2.5-flash"
	defaultMaxTokens = 2048
)
