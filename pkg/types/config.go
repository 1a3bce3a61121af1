package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "review-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// SearchConfig holds settings for the search sources.
type SearchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// MaxResults is the maximum number of records requested per source (default 100).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`

	// Sources lists the enabled source names in query order.
	Sources []string `json:"sources" yaml:"sources" mapstructure:"sources"`

	// PubMedAPIKey raises the E-utilities rate limit. Optional.
	PubMedAPIKey string `json:"pubmed_api_key,omitempty" yaml:"pubmed_api_key,omitempty" mapstructure:"pubmed_api_key"`

	// SemanticScholarAPIKey is an optional API key for higher rate limits.
	SemanticScholarAPIKey string `json:"semantic_scholar_api_key,omitempty" yaml:"semantic_scholar_api_key,omitempty" mapstructure:"semantic_scholar_api_key"`

	// OpenAlexEmail is sent as mailto for OpenAlex polite pool access.
	OpenAlexEmail string `json:"openalex_email,omitempty" yaml:"openalex_email,omitempty" mapstructure:"openalex_email"`
}

// ProviderConfig holds the credentials and defaults for one LLM provider.
type ProviderConfig struct {
	// APIKey is the authentication key. A provider without a key is unavailable.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// DefaultModel is used when a call does not name a model.
	DefaultModel string `json:"default_model" yaml:"default_model" mapstructure:"default_model"`

	// Timeout bounds a single call (default 120s).
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// LLMConfig holds the settings for every supported provider.
type LLMConfig struct {
	OpenAI    ProviderConfig `json:"openai" yaml:"openai" mapstructure:"openai"`
	Anthropic ProviderConfig `json:"anthropic" yaml:"anthropic" mapstructure:"anthropic"`
	Gemini    ProviderConfig `json:"gemini" yaml:"gemini" mapstructure:"gemini"`
}

// ScreeningConfig holds the call parameters used for article screening.
type ScreeningConfig struct {
	// Temperature is the sampling temperature (default 0.1).
	Temperature float64 `json:"temperature" yaml:"temperature" mapstructure:"temperature"`

	// MaxTokens caps the completion length (default 1500).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens" mapstructure:"max_tokens"`

	// SystemPrompt is sent as the system message on every screening call.
	SystemPrompt string `json:"system_prompt" yaml:"system_prompt" mapstructure:"system_prompt"`

	// ItemTimeout bounds the screening of one article in a batch (default 2m).
	ItemTimeout time.Duration `json:"item_timeout" yaml:"item_timeout" mapstructure:"item_timeout"`
}

// StoreConfig holds persistence settings.
type StoreConfig struct {
	// Path is the SQLite database file (default "data/review.db").
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// ServerConfig holds settings for the HTTP surface.
type ServerConfig struct {
	// Addr is the listen address (default ":8080").
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`

	// Mode is the gin mode: debug, release, or test.
	Mode string `json:"mode" yaml:"mode" mapstructure:"mode"`

	// AllowOrigins lists the browser origins allowed by CORS. Empty disables CORS.
	AllowOrigins []string `json:"allow_origins" yaml:"allow_origins" mapstructure:"allow_origins"`
}

// LogConfig selects the logger flavour.
type LogConfig struct {
	// Mode is "development" (console) or "production" (JSON).
	Mode string `json:"mode" yaml:"mode" mapstructure:"mode"`

	// Level is the minimum enabled level (debug, info, warn, error).
	Level string `json:"level" yaml:"level" mapstructure:"level"`
}

// Config groups every component configuration.
type Config struct {
	Log       LogConfig       `json:"log" yaml:"log" mapstructure:"log"`
	Store     StoreConfig     `json:"store" yaml:"store" mapstructure:"store"`
	Server    ServerConfig    `json:"server" yaml:"server" mapstructure:"server"`
	Search    SearchConfig    `json:"search" yaml:"search" mapstructure:"search"`
	LLM       LLMConfig       `json:"llm" yaml:"llm" mapstructure:"llm"`
	Screening ScreeningConfig `json:"screening" yaml:"screening" mapstructure:"screening"`
}
