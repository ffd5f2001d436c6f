package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/fwojciec/recode"
)

// Interface compliance check.
var _ recode.Provider = (*Client)(nil)

// Client implements [recode.Provider] for the OpenAI Chat Completions API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	cfg        recode.ProviderConfig
}

// Option configures a [Client].
type Option func(*Client)

// WithBaseURL sets the API base URL. Useful for testing with httptest.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(url, "/") }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a new OpenAI [Client] bound to apiKey and cfg.
func New(apiKey string, cfg recode.ProviderConfig, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: http.DefaultClient,
		cfg:        cfg,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Name implements [recode.Provider].
func (c *Client) Name() string { return name }

// Generate sends prompt as the user turn and returns the assistant's reply.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(c.buildRequest(prompt))
	if err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+completionsPath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", parseHTTPError(resp)
	}

	var apiResp apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return "", fmt.Errorf("openai: decode response: %w", err)
	}
	text, err := extractText(apiResp)
	if err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}
	return text, nil
}

func (c *Client) buildRequest(prompt string) apiRequest {
	model := c.cfg.Model
	if model == "" {
		model = defaultModel
	}
	maxTokens := c.cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}
	return apiRequest{
		Model: model,
		Messages: []apiMessage{
			{Role: "system", Content: recode.SystemInstruction},
			{Role: "user", Content: prompt},
		},
		MaxTokens:        maxTokens,
		Temperature:      c.cfg.Temperature,
		TopP:             c.cfg.TopP,
		FrequencyPenalty: c.cfg.FrequencyPenalty,
		PresencePenalty:  c.cfg.PresencePenalty,
	}
}

func extractText(resp apiResponse) (string, error) {
	if len(resp.Choices) == 0 {
		return "", errors.New("response has no choices")
	}
	msg := resp.Choices[0].Message
	if msg.Refusal != nil && *msg.Refusal != "" {
		return "", fmt.Errorf("request refused: %s", *msg.Refusal)
	}
	if resp.Choices[0].FinishReason == "content_filter" {
		return "", errors.New("response blocked by content filter")
	}
	if msg.Content == nil {
		return "", errors.New("response message has no content")
	}
	if resp.Choices[0].FinishReason == "length" {
		return "", errors.New("response truncated at max_tokens")
	}
	return *msg.Content, nil
}

func parseHTTPError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("openai: HTTP %d (failed to read body: %w)", resp.StatusCode, err)
	}
	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err != nil || apiErr.Error.Message == "" {
		return fmt.Errorf("openai: HTTP %d: %s", resp.StatusCode, string(body))
	}
	return fmt.Errorf("openai: HTTP %d: %s: %s", resp.StatusCode, apiErr.Error.Type, apiErr.Error.Message)
}
