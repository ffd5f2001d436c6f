package gemini

import (
	"context"

	"github.com/fwojciec/recode"
	"google.golang.org/genai"
)

// GenerateFunc adapts a function to the SDK's GenerateContent call.
type GenerateFunc func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)

func (f GenerateFunc) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return f(ctx, model, contents, config)
}

// NewWithGenerateFunc creates a Client whose SDK calls are served by fn.
func NewWithGenerateFunc(fn GenerateFunc, cfg recode.ProviderConfig) *Client {
	return newClient(fn, cfg)
}
