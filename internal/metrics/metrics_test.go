// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/review-engine/internal/catalog"
	"github.com/pdiddy/review-engine/internal/screen"
	"github.com/pdiddy/review-engine/pkg/types"
)

var (
	_ catalog.Recorder = (*Metrics)(nil)
	_ screen.Recorder  = (*Metrics)(nil)
)

func intPtr(n int) *int { return &n }

func TestObserveScreening(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveScreening("openai", types.DecisionInclude, types.Usage{PromptTokens: intPtr(100), CompletionTokens: intPtr(20)}, 2*time.Second)
	m.ObserveScreening("openai", types.DecisionInclude, types.Usage{}, time.Second)
	m.ObserveScreening("gemini", types.DecisionMaybe, types.Usage{PromptTokens: intPtr(7)}, time.Second)
	m.ObserveScreeningError("anthropic")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.screenings.WithLabelValues("openai", "include")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.screenings.WithLabelValues("gemini", "maybe")))
	assert.Equal(t, 100.0, testutil.ToFloat64(m.tokens.WithLabelValues("openai", "prompt")))
	assert.Equal(t, 20.0, testutil.ToFloat64(m.tokens.WithLabelValues("openai", "completion")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.tokens.WithLabelValues("gemini", "prompt")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.screeningErrs.WithLabelValues("anthropic")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.screeningTime))
}

func TestRecordIngested(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RecordIngested("pubmed", catalog.OutcomeSaved)
	m.RecordIngested("pubmed", catalog.OutcomeSaved)
	m.RecordIngested("openalex", catalog.OutcomeDuplicate)

	expected := `
# HELP review_engine_ingested_records_total Search records ingested into projects, by source and outcome.
# TYPE review_engine_ingested_records_total counter
review_engine_ingested_records_total{outcome="duplicate",source="openalex"} 1
review_engine_ingested_records_total{outcome="saved",source="pubmed"} 2
`
	err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "review_engine_ingested_records_total")
	assert.NoError(t, err)
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveScreening("openai", types.DecisionExclude, types.Usage{}, time.Second)
		m.ObserveScreeningError("openai")
		m.RecordIngested("pubmed", catalog.OutcomeFailed)
	})
}
