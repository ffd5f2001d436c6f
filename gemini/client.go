package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/fwojciec/recode"
	"google.golang.org/genai"
)

// Interface compliance check.
var _ recode.Provider = (*Client)(nil)

// generator is the subset of *genai.Models used by Client.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client implements [recode.Provider] for the Google Gemini API.
type Client struct {
	models generator
	model  string
	config *genai.GenerateContentConfig
}

type options struct {
	httpClient *http.Client
	baseURL    string
}

// Option configures a [Client].
type Option func(*options)

// WithHTTPClient sets the HTTP client used by the SDK. Its Timeout bounds
// every request.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// WithBaseURL overrides the API base URL. Useful for testing with httptest.
func WithBaseURL(url string) Option {
	return func(o *options) { o.baseURL = url }
}

// New creates a Gemini [Client] bound to apiKey and cfg. It performs no
// network I/O.
func New(ctx context.Context, apiKey string, cfg recode.ProviderConfig, opts ...Option) (*Client, error) {
	if err := recode.ValidateAPIKey(apiKey); err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	cc := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: o.httpClient,
	}
	if o.baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: o.baseURL}
	}
	gc, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	return newClient(gc.Models, cfg), nil
}

func newClient(models generator, cfg recode.ProviderConfig) *Client {
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	return &Client{
		models: models,
		model:  model,
		config: BuildConfig(cfg),
	}
}

// Name implements [recode.Provider].
func (c *Client) Name() string { return name }

// Generate sends prompt as a single user turn and returns the response text.
// Blocked prompts, safety-stopped candidates, empty responses and output cut
// off at the token limit are errors.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.models.GenerateContent(ctx, c.model, genai.Text(prompt), c.config)
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}
	if err := checkResponse(resp); err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}
	return resp.Text(), nil
}

func checkResponse(resp *genai.GenerateContentResponse) error {
	if resp == nil {
		return errors.New("empty response")
	}
	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" {
		if fb.BlockReasonMessage != "" {
			return fmt.Errorf("prompt blocked: %s: %s", fb.BlockReason, fb.BlockReasonMessage)
		}
		return fmt.Errorf("prompt blocked: %s", fb.BlockReason)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return errors.New("response has no candidates")
	}
	cand := resp.Candidates[0]
	switch cand.FinishReason {
	case genai.FinishReasonSafety, genai.FinishReasonProhibitedContent, genai.FinishReasonBlocklist:
		return fmt.Errorf("response blocked: %s", cand.FinishReason)
	}
	if cand.Content == nil || len(cand.Content.Parts) == 0 {
		return fmt.Errorf("response has no content (finish reason %q)", cand.FinishReason)
	}
	if cand.FinishReason == genai.FinishReasonMaxTokens {
		return fmt.Errorf("response truncated: %s", cand.FinishReason)
	}
	return nil
}

// BuildConfig converts recode generation parameters to a genai config.
// Exported for testing.
func BuildConfig(cfg recode.ProviderConfig) *genai.GenerateContentConfig {
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}
	gc := &genai.GenerateContentConfig{
		MaxOutputTokens:  int32(maxTokens),
		Temperature:      float32Ptr(cfg.Temperature),
		TopP:             float32Ptr(cfg.TopP),
		FrequencyPenalty: float32Ptr(cfg.FrequencyPenalty),
		PresencePenalty:  float32Ptr(cfg.PresencePenalty),
	}
	if cfg.TopK != nil {
		k := float32(*cfg.TopK)
		gc.TopK = &k
	}
	for _, s := range cfg.Safety {
		gc.SafetySettings = append(gc.SafetySettings, &genai.SafetySetting{
			Category:  genai.HarmCategory(s.Category),
			Threshold: genai.HarmBlockThreshold(s.Threshold),
		})
	}
	return gc
}

func float32Ptr(v *float64) *float32 {
	if v == nil {
		return nil
	}
	f := float32(*v)
	return &f
}
