// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"net/http"

	"github.com/pdiddy/review-engine/pkg/types"
)

// openAIAPIURL is the chat completions endpoint. Package-level var for test substitution.
var openAIAPIURL = "https://api.openai.com/v1/chat/completions"

// OpenAI calls the OpenAI chat completions API.
type OpenAI struct {
	base
}

// NewOpenAI returns an OpenAI provider. client may be nil.
func NewOpenAI(cfg types.ProviderConfig, client *http.Client) *OpenAI {
	return &OpenAI{base: newBase(cfg, DefaultOpenAIModel, client)}
}

func (p *OpenAI) Name() string  { return "openai" }
func (p *OpenAI) Label() string { return "OpenAI GPT" }

func (p *OpenAI) Models() []string {
	return []string{"gpt-5.2", "gpt-5.2-pro", "gpt-5-mini", "gpt-5-nano", "gpt-4o"}
}

type openAIRequest struct {
	Model               string              `json:"model"`
	Messages            []openAIMessage     `json:"messages"`
	Temperature         float64             `json:"temperature"`
	MaxCompletionTokens int                 `json:"max_completion_tokens"`
	ResponseFormat      *openAIResponseType `json:"response_format,omitempty"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponseType struct {
	Type string `json:"type"`
}

type openAIResponse struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     *int `json:"prompt_tokens"`
		CompletionTokens *int `json:"completion_tokens"`
		TotalTokens      *int `json:"total_tokens"`
	} `json:"usage"`
}

// Call sends prompt as the user message.
func (p *OpenAI) Call(ctx context.Context, prompt string, opts Options) (Result, error) {
	if !p.Available() {
		return Result{}, &ConfigurationError{Provider: p.Name(), Reason: "has no API key configured"}
	}
	opts = opts.withDefaults(p.defaultModel)

	req := openAIRequest{
		Model: opts.Model,
		Messages: []openAIMessage{
			{Role: "system", Content: opts.SystemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature:         *opts.Temperature,
		MaxCompletionTokens: opts.MaxTokens,
	}
	if opts.JSONMode {
		req.ResponseFormat = &openAIResponseType{Type: "json_object"}
	}

	var resp openAIResponse
	err := p.postJSON(ctx, p.Name(), openAIAPIURL, map[string]string{
		"Authorization": "Bearer " + p.apiKey,
	}, req, &resp)
	if err != nil {
		return Result{}, err
	}

	res := Result{Model: opts.Model, Provider: p.Name()}
	if len(resp.Choices) > 0 {
		res.Content = resp.Choices[0].Message.Content
	}
	if resp.Usage != nil {
		res.Usage = types.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}
	return res, nil
}

// TestConnection sends a minimal prompt and reports whether it succeeded.
func (p *OpenAI) TestConnection(ctx context.Context) ConnectionStatus {
	return testConnection(ctx, p)
}
