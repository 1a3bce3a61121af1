// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"net/http"
	"strings"

	"github.com/pdiddy/review-engine/pkg/types"
)

// anthropicAPIURL is the Claude Messages API endpoint. Package-level var for test substitution.
var anthropicAPIURL = "https://api.anthropic.com/v1/messages"

const anthropicVersion = "2023-06-01"

// Anthropic calls the Claude Messages API. It has no JSON output switch, so
// Options.JSONMode is ignored and the prompt alone asks for JSON.
type Anthropic struct {
	base
}

// NewAnthropic returns an Anthropic provider. client may be nil.
func NewAnthropic(cfg types.ProviderConfig, client *http.Client) *Anthropic {
	return &Anthropic{base: newBase(cfg, DefaultAnthropicModel, client)}
}

func (p *Anthropic) Name() string  { return "anthropic" }
func (p *Anthropic) Label() string { return "Anthropic Claude" }

func (p *Anthropic) Models() []string {
	return []string{"claude-opus-4-6", "claude-sonnet-4-5-20250929", "claude-haiku-4-5-20251001"}
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage *struct {
		InputTokens  *int `json:"input_tokens"`
		OutputTokens *int `json:"output_tokens"`
	} `json:"usage"`
}

// Call sends prompt as the single user message.
func (p *Anthropic) Call(ctx context.Context, prompt string, opts Options) (Result, error) {
	if !p.Available() {
		return Result{}, &ConfigurationError{Provider: p.Name(), Reason: "has no API key configured"}
	}
	opts = opts.withDefaults(p.defaultModel)

	req := anthropicRequest{
		Model:       opts.Model,
		MaxTokens:   opts.MaxTokens,
		Temperature: *opts.Temperature,
		System:      opts.SystemPrompt,
		Messages:    []anthropicMessage{{Role: "user", Content: prompt}},
	}

	var resp anthropicResponse
	err := p.postJSON(ctx, p.Name(), anthropicAPIURL, map[string]string{
		"x-api-key":         p.apiKey,
		"anthropic-version": anthropicVersion,
	}, req, &resp)
	if err != nil {
		return Result{}, err
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	res := Result{Content: text.String(), Model: opts.Model, Provider: p.Name()}
	if resp.Usage != nil {
		res.Usage.PromptTokens = resp.Usage.InputTokens
		res.Usage.CompletionTokens = resp.Usage.OutputTokens
		if resp.Usage.InputTokens != nil && resp.Usage.OutputTokens != nil {
			res.Usage.TotalTokens = intp(*resp.Usage.InputTokens + *resp.Usage.OutputTokens)
		}
	}
	return res, nil
}

// TestConnection sends a minimal prompt and reports whether it succeeded.
func (p *Anthropic) TestConnection(ctx context.Context) ConnectionStatus {
	return testConnection(ctx, p)
}
