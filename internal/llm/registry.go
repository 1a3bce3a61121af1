// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"net/http"

	"github.com/pdiddy/review-engine/pkg/types"
)

// Registry looks providers up by name. It is built once at startup and
// read-only afterwards.
type Registry struct {
	order     []string
	providers map[string]Provider
}

// NewRegistry returns a registry holding providers in the given order.
// A later provider with a duplicate name replaces the earlier one.
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		if _, ok := r.providers[p.Name()]; !ok {
			r.order = append(r.order, p.Name())
		}
		r.providers[p.Name()] = p
	}
	return r
}

// NewRegistryFromConfig builds the standard OpenAI, Anthropic and Gemini
// providers. client may be nil.
func NewRegistryFromConfig(cfg types.LLMConfig, client *http.Client) *Registry {
	return NewRegistry(
		NewOpenAI(cfg.OpenAI, client),
		NewAnthropic(cfg.Anthropic, client),
		NewGemini(cfg.Gemini, client),
	)
}

// Get returns the named provider, or a *ConfigurationError if none is registered.
func (r *Registry) Get(name string) (Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, &ConfigurationError{Provider: name, Reason: "not found"}
	}
	return p, nil
}

// ProviderInfo describes a registered provider.
type ProviderInfo struct {
	Name         string   `json:"name"`
	Label        string   `json:"label"`
	Available    bool     `json:"available"`
	Models       []string `json:"models"`
	DefaultModel string   `json:"defaultModel"`
}

// Providers lists every registered provider, available or not.
func (r *Registry) Providers() []ProviderInfo {
	infos := make([]ProviderInfo, 0, len(r.order))
	for _, name := range r.order {
		p := r.providers[name]
		infos = append(infos, ProviderInfo{
			Name:         name,
			Label:        p.Label(),
			Available:    p.Available(),
			Models:       p.Models(),
			DefaultModel: p.DefaultModel(),
		})
	}
	return infos
}

// ModelInfo describes one selectable model.
type ModelInfo struct {
	ID        string `json:"id"`
	Provider  string `json:"provider"`
	IsDefault bool   `json:"isDefault"`
}

// Models lists the models of available providers only.
func (r *Registry) Models() []ModelInfo {
	var models []ModelInfo
	for _, name := range r.order {
		p := r.providers[name]
		if !p.Available() {
			continue
		}
		for _, m := range p.Models() {
			models = append(models, ModelInfo{ID: m, Provider: name, IsDefault: m == p.DefaultModel()})
		}
	}
	return models
}
