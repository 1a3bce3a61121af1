// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics exposes Prometheus counters for ingestion and screening.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pdiddy/review-engine/pkg/types"
)

const namespace = "review_engine"

// Metrics holds the collectors registered by New.
type Metrics struct {
	screenings     *prometheus.CounterVec
	screeningErrs  *prometheus.CounterVec
	tokens         *prometheus.CounterVec
	screeningTime  *prometheus.HistogramVec
	ingestedRecord *prometheus.CounterVec
}

// New creates the collectors and registers them on reg. Registering twice
// on the same registry panics, as with prometheus.MustRegister.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		screenings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "screenings_total",
			Help:      "Articles screened, by provider and decision.",
		}, []string{"provider", "decision"}),
		screeningErrs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "screening_errors_total",
			Help:      "Screening calls that failed, by provider.",
		}, []string{"provider"}),
		tokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_total",
			Help:      "Tokens reported by providers, by kind (prompt, completion).",
		}, []string{"provider", "kind"}),
		screeningTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "screening_duration_seconds",
			Help:      "Wall time of one screening call.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		}, []string{"provider"}),
		ingestedRecord: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingested_records_total",
			Help:      "Search records ingested into projects, by source and outcome.",
		}, []string{"source", "outcome"}),
	}
	reg.MustRegister(m.screenings, m.screeningErrs, m.tokens, m.screeningTime, m.ingestedRecord)
	return m
}

// ObserveScreening records one successful screening call.
func (m *Metrics) ObserveScreening(provider string, decision types.Decision, usage types.Usage, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.screenings.WithLabelValues(provider, string(decision)).Inc()
	m.screeningTime.WithLabelValues(provider).Observe(elapsed.Seconds())
	if usage.PromptTokens != nil {
		m.tokens.WithLabelValues(provider, "prompt").Add(float64(*usage.PromptTokens))
	}
	if usage.CompletionTokens != nil {
		m.tokens.WithLabelValues(provider, "completion").Add(float64(*usage.CompletionTokens))
	}
}

// ObserveScreeningError records a failed screening call.
func (m *Metrics) ObserveScreeningError(provider string) {
	if m == nil {
		return
	}
	m.screeningErrs.WithLabelValues(provider).Inc()
}

// RecordIngested records the outcome of ingesting one search record.
func (m *Metrics) RecordIngested(source, outcome string) {
	if m == nil {
		return
	}
	m.ingestedRecord.WithLabelValues(source, outcome).Inc()
}
