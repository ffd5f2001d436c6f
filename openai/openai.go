// Package openai implements [recode.Provider] for the OpenAI Chat Completions API.
//
// Each Generate call sends the fixed code-assistant system instruction plus a
// single user turn and returns the first choice's message content.
package openai

const (
	name             = "openai"
	defaultBaseURL   = "https://api.openai.com"
	defaultModel     = "gpt-4o-mini"
	defaultMaxTokens = 2048
	completionsPath  = "/v1/chat/completions"
)

// apiRequest is the JSON body sent to the Chat Completions API.
type apiRequest struct {
	Model            string       `json:"model"`
	Messages         []apiMessage `json:"messages"`
	MaxTokens        int          `json:"max_tokens,omitempty"`
	Temperature      *float64     `json:"temperature,omitempty"`
	TopP             *float64     `json:"top_p,omitempty"`
	FrequencyPenalty *float64     `json:"frequency_penalty,omitempty"`
	PresencePenalty  *float64     `json:"presence_penalty,omitempty"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiResponse struct {
	ID      string      `json:"id"`
	Model   string      `json:"model"`
	Choices []apiChoice `json:"choices"`
}

type apiChoice struct {
	Index   int `json:"index"`
	Message struct {
		Role    string  `json:"role"`
		Content *string `json:"content"`
		Refusal *string `json:"refusal"`
	} `json:"message"`
	FinishReason string `json:"finish_reason"`
}

// apiErrorResponse is the JSON body returned on non-200 HTTP responses.
type apiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	} `json:"error"`
}
