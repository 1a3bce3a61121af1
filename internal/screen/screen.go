// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package screen screens article titles and abstracts against PICO criteria
// with a language model, one article at a time or as a streamed batch over a
// project's pending backlog.
package screen

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/review-engine/internal/llm"
	"github.com/pdiddy/review-engine/pkg/types"
)

// Call parameters used for every screening request.
const (
	ScreeningTemperature  = 0.1
	ScreeningMaxTokens    = 1500
	ScreeningSystemPrompt = "You are a systematic review screening expert. Always respond with valid JSON only."
)

// Recorder receives screening outcomes. A nil Recorder is allowed.
type Recorder interface {
	ObserveScreening(provider string, decision types.Decision, usage types.Usage, elapsed time.Duration)
	ObserveScreeningError(provider string)
}

// Request names one article, the criteria to screen it against, and the
// provider and model to use. An empty Model selects the provider default.
type Request struct {
	Article  types.ArticleInput
	Criteria types.PICOCriteria
	Provider string
	Model    string
}

// Screener runs single-article screenings through a provider registry.
type Screener struct {
	registry *llm.Registry
	cfg      types.ScreeningConfig
	logger   *zap.Logger
	metrics  Recorder
}

// NewScreener returns a Screener. Zero fields of cfg fall back to the
// screening defaults; metrics may be nil.
func NewScreener(registry *llm.Registry, cfg types.ScreeningConfig, logger *zap.Logger, metrics Recorder) *Screener {
	if cfg.Temperature <= 0 {
		cfg.Temperature = ScreeningTemperature
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = ScreeningMaxTokens
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = ScreeningSystemPrompt
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Screener{registry: registry, cfg: cfg, logger: logger, metrics: metrics}
}

// PreviewPrompt renders the prompt ScreenArticle would send, without
// calling any provider.
func (s *Screener) PreviewPrompt(article types.ArticleInput, pico types.PICOCriteria) (string, error) {
	return BuildPrompt(article, pico)
}

// ScreenArticle screens one article. It returns a *llm.ConfigurationError
// when the provider is unknown or has no credentials, and a
// *llm.ProviderError when the call fails. A reply that cannot be parsed is
// not an error; the verdict is marked ParseDegraded instead.
func (s *Screener) ScreenArticle(ctx context.Context, req Request) (types.Verdict, error) {
	provider, err := s.registry.Get(req.Provider)
	if err != nil {
		return types.Verdict{}, err
	}
	if !provider.Available() {
		return types.Verdict{}, &llm.ConfigurationError{Provider: provider.Name(), Reason: "has no API key configured"}
	}

	prompt, err := BuildPrompt(req.Article, req.Criteria)
	if err != nil {
		return types.Verdict{}, fmt.Errorf("building prompt: %w", err)
	}

	log := s.logger.With(zap.String("provider", provider.Name()), zap.String("article", req.Article.ID))
	start := time.Now()
	res, err := provider.Call(ctx, prompt, llm.Options{
		Model:        req.Model,
		Temperature:  llm.Temp(s.cfg.Temperature),
		MaxTokens:    s.cfg.MaxTokens,
		SystemPrompt: s.cfg.SystemPrompt,
		JSONMode:     true,
	})
	if err != nil {
		if s.metrics != nil {
			s.metrics.ObserveScreeningError(provider.Name())
		}
		log.Warn("screening call failed", zap.Error(err))
		return types.Verdict{}, err
	}

	v := ParseVerdict(res.Content,
		NormalizeCriteria(req.Criteria.Inclusion),
		NormalizeCriteria(req.Criteria.Exclusion))
	v.Provider = res.Provider
	v.Model = res.Model
	v.Usage = res.Usage
	v.Prompt = prompt
	v.RawResponse = res.Content

	if v.ParseDegraded {
		log.Warn("screening reply was not JSON, used text fallback", zap.String("model", res.Model))
	}
	if s.metrics != nil {
		s.metrics.ObserveScreening(provider.Name(), v.Decision, v.Usage, time.Since(start))
	}
	log.Debug("screened article", zap.String("decision", string(v.Decision)), zap.Duration("elapsed", time.Since(start)))
	return v, nil
}
