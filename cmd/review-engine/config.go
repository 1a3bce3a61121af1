// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/review-engine/internal/llm"
	"github.com/pdiddy/review-engine/internal/screen"
	"github.com/pdiddy/review-engine/internal/search"
	"github.com/pdiddy/review-engine/internal/secrets"
	"github.com/pdiddy/review-engine/pkg/types"
)

const defaultUserAgent = "review-engine/0.1"

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("review-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "review-engine"))
		}
	}

	configureViper(viper.GetViper())

	readConfig(viper.GetViper(), os.Stderr)
}

// readConfig reads the configured file into v. A missing default file is
// silent; any other failure is reported on w and defaults stay in effect.
func readConfig(v *viper.Viper, w io.Writer) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			fmt.Fprintln(w, "warning: reading config:", err)
		}
	}
}

// configureViper registers defaults and environment bindings on v. Every
// key has a default so that AutomaticEnv can override it.
func configureViper(v *viper.Viper) {
	v.SetEnvPrefix("REVIEW_ENGINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("log.mode", "development")
	v.SetDefault("log.level", "info")
	v.SetDefault("store.path", filepath.Join("data", "review.db"))
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.allow_origins", []string{})

	v.SetDefault("search.timeout", 60*time.Second)
	v.SetDefault("search.user_agent", defaultUserAgent)
	v.SetDefault("search.max_results", search.DefaultMaxResults)
	v.SetDefault("search.sources", []string{})
	v.SetDefault("search.pubmed_api_key", "")
	v.SetDefault("search.semantic_scholar_api_key", "")
	v.SetDefault("search.openalex_email", "")

	for _, p := range []struct{ name, model string }{
		{"openai", llm.DefaultOpenAIModel},
		{"anthropic", llm.DefaultAnthropicModel},
		{"gemini", llm.DefaultGeminiModel},
	} {
		v.SetDefault("llm."+p.name+".api_key", "")
		v.SetDefault("llm."+p.name+".default_model", p.model)
		v.SetDefault("llm."+p.name+".timeout", llm.DefaultTimeout)
	}

	v.SetDefault("screening.temperature", screen.ScreeningTemperature)
	v.SetDefault("screening.max_tokens", screen.ScreeningMaxTokens)
	v.SetDefault("screening.system_prompt", screen.ScreeningSystemPrompt)
	v.SetDefault("screening.item_timeout", screen.DefaultItemTimeout)

	// Conventional variable names from .env files.
	v.BindEnv("llm.openai.api_key", "REVIEW_ENGINE_LLM_OPENAI_API_KEY", "OPENAI_API_KEY")
	v.BindEnv("llm.anthropic.api_key", "REVIEW_ENGINE_LLM_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY")
	v.BindEnv("llm.gemini.api_key", "REVIEW_ENGINE_LLM_GEMINI_API_KEY", "GEMINI_API_KEY")
	v.BindEnv("search.pubmed_api_key", "REVIEW_ENGINE_SEARCH_PUBMED_API_KEY", "PUBMED_API_KEY")
}

// loadConfig unmarshals v into a Config and fills credentials that config
// and environment left empty from s.
func loadConfig(v *viper.Viper, s secrets.Set) (types.Config, error) {
	var c types.Config
	if err := v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("decoding config: %w", err)
	}

	fill := func(dst *string, key string) {
		if *dst == "" {
			*dst = s.Get(key, "")
		}
	}
	fill(&c.LLM.OpenAI.APIKey, secrets.OpenAIAPIKey)
	fill(&c.LLM.Anthropic.APIKey, secrets.AnthropicAPIKey)
	fill(&c.LLM.Gemini.APIKey, secrets.GeminiAPIKey)
	fill(&c.Search.PubMedAPIKey, secrets.PubMedAPIKey)
	fill(&c.Search.SemanticScholarAPIKey, secrets.SemanticScholarAPIKey)
	fill(&c.Search.OpenAlexEmail, secrets.OpenAlexEmail)
	return c, nil
}
