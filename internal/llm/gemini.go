// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/review-engine/pkg/types"
)

// geminiAPIBase is the Generative Language API models endpoint.
// Package-level var for test substitution.
var geminiAPIBase = "https://generativelanguage.googleapis.com/v1beta/models"

// Gemini calls the Google Gemini generateContent API.
type Gemini struct {
	base
}

// NewGemini returns a Gemini provider. client may be nil.
func NewGemini(cfg types.ProviderConfig, client *http.Client) *Gemini {
	return &Gemini{base: newBase(cfg, DefaultGeminiModel, client)}
}

func (p *Gemini) Name() string  { return "gemini" }
func (p *Gemini) Label() string { return "Google Gemini" }

func (p *Gemini) Models() []string {
	return []string{"gemini-3-pro-preview", "gemini-3-flash-preview"}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature      float64 `json:"temperature"`
	MaxOutputTokens  int     `json:"maxOutputTokens"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
}

type geminiRequest struct {
	Contents          []geminiContent        `json:"contents"`
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	UsageMetadata *struct {
		PromptTokenCount     *int `json:"promptTokenCount"`
		CandidatesTokenCount *int `json:"candidatesTokenCount"`
		TotalTokenCount      *int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

// Call sends prompt as the single user turn.
func (p *Gemini) Call(ctx context.Context, prompt string, opts Options) (Result, error) {
	if !p.Available() {
		return Result{}, &ConfigurationError{Provider: p.Name(), Reason: "has no API key configured"}
	}
	opts = opts.withDefaults(p.defaultModel)

	req := geminiRequest{
		Contents:          []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: opts.SystemPrompt}}},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     *opts.Temperature,
			MaxOutputTokens: opts.MaxTokens,
		},
	}
	if opts.JSONMode {
		req.GenerationConfig.ResponseMimeType = "application/json"
	}

	endpoint := geminiAPIBase + "/" + url.PathEscape(opts.Model) + ":generateContent"

	var resp geminiResponse
	err := p.postJSON(ctx, p.Name(), endpoint, map[string]string{
		"x-goog-api-key": p.apiKey,
	}, req, &resp)
	if err != nil {
		return Result{}, err
	}

	var text strings.Builder
	if len(resp.Candidates) > 0 {
		for _, part := range resp.Candidates[0].Content.Parts {
			text.WriteString(part.Text)
		}
	}

	res := Result{Content: text.String(), Model: opts.Model, Provider: p.Name()}
	if m := resp.UsageMetadata; m != nil {
		res.Usage = types.Usage{
			PromptTokens:     m.PromptTokenCount,
			CompletionTokens: m.CandidatesTokenCount,
			TotalTokens:      m.TotalTokenCount,
		}
	}
	return res, nil
}

// TestConnection sends a minimal prompt and reports whether it succeeded.
func (p *Gemini) TestConnection(ctx context.Context) ConnectionStatus {
	return testConnection(ctx, p)
}
