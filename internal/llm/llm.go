// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm gives the screening pipeline a single call interface over
// several hosted language-model APIs.
package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pdiddy/review-engine/pkg/types"
)

const (
	// DefaultTemperature is used when a call leaves Temperature nil.
	DefaultTemperature = 0.1

	// DefaultMaxTokens is used when a call leaves MaxTokens zero.
	DefaultMaxTokens = 2000

	// DefaultSystemPrompt is used when a call leaves SystemPrompt empty.
	DefaultSystemPrompt = "You are a scientific article screening assistant."

	// DefaultTimeout bounds one provider call.
	DefaultTimeout = 120 * time.Second

	// Models used when the provider configuration names none.
	DefaultOpenAIModel    = "gpt-4o"
	DefaultAnthropicModel = "claude-sonnet-4-5-20250929"
	DefaultGeminiModel    = "gemini-3-flash-preview"

	connectionTestPrompt = `Reply with "OK" if you can read this.`
)

// Options configures one provider call. Zero values select the defaults above
// and the provider's default model.
type Options struct {
	Model        string
	Temperature  *float64
	MaxTokens    int
	SystemPrompt string

	// JSONMode asks the provider to constrain output to a JSON object.
	// Providers without such a switch ignore it.
	JSONMode bool
}

// Temp returns a pointer to t, for Options.Temperature.
func Temp(t float64) *float64 { return &t }

func (o Options) withDefaults(defaultModel string) Options {
	if o.Model == "" {
		o.Model = defaultModel
	}
	if o.Temperature == nil {
		o.Temperature = Temp(DefaultTemperature)
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = DefaultMaxTokens
	}
	if o.SystemPrompt == "" {
		o.SystemPrompt = DefaultSystemPrompt
	}
	return o
}

// Result is the text a provider returned plus accounting.
type Result struct {
	Content  string
	Model    string
	Provider string
	Usage    types.Usage
}

// ConnectionStatus is the outcome of a provider connectivity check.
type ConnectionStatus struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Provider is one hosted model API.
type Provider interface {
	Name() string
	Label() string
	Models() []string
	DefaultModel() string
	Available() bool
	Call(ctx context.Context, prompt string, opts Options) (Result, error)
	TestConnection(ctx context.Context) ConnectionStatus
}

// ConfigurationError reports a provider that cannot be used as configured,
// for example because it has no API key or is not registered.
type ConfigurationError struct {
	Provider string
	Reason   string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("provider %q %s", e.Provider, e.Reason)
}

// ProviderError reports a failed call: transport failure, timeout, non-200
// status, or an undecodable response. StatusCode is set only for non-200
// responses.
type ProviderError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s API returned %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s API call failed: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// base holds what every HTTP-backed provider shares.
type base struct {
	apiKey       string
	defaultModel string
	timeout      time.Duration
	client       *http.Client
}

func newBase(cfg types.ProviderConfig, fallbackModel string, client *http.Client) base {
	b := base{
		apiKey:       cfg.APIKey,
		defaultModel: cfg.DefaultModel,
		timeout:      cfg.Timeout,
		client:       client,
	}
	if b.defaultModel == "" {
		b.defaultModel = fallbackModel
	}
	if b.timeout <= 0 {
		b.timeout = DefaultTimeout
	}
	if b.client == nil {
		b.client = http.DefaultClient
	}
	return b
}

func (b base) Available() bool      { return b.apiKey != "" }
func (b base) DefaultModel() string { return b.defaultModel }

// testConnection issues a tiny call through p and reports the outcome.
func testConnection(ctx context.Context, p Provider) ConnectionStatus {
	res, err := p.Call(ctx, connectionTestPrompt, Options{MaxTokens: 10})
	if err != nil {
		return ConnectionStatus{Success: false, Message: err.Error()}
	}
	return ConnectionStatus{Success: true, Message: res.Content}
}

func intp(n int) *int { return &n }
