// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/pdiddy/review-engine/internal/store"
	"github.com/pdiddy/review-engine/pkg/types"
)

func newTestStore(t *testing.T) *store.SQLite {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "review.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newProject(t *testing.T, s *store.SQLite) string {
	t.Helper()
	p := &types.Project{Name: "test"}
	require.NoError(t, s.CreateProject(context.Background(), p))
	return p.ID
}

// failingStore wraps a real store and fails CreateWork for one title.
type failingStore struct {
	*store.SQLite
	failTitle string
}

func (f *failingStore) CreateWork(ctx context.Context, w *types.CanonicalWork) error {
	if w.Title == f.failTitle {
		return errors.New("disk full")
	}
	return f.SQLite.CreateWork(ctx, w)
}

type countingRecorder struct {
	counts map[string]int
}

func (c *countingRecorder) RecordIngested(source, outcome string) {
	c.counts[source+"/"+outcome]++
}

func TestResolveOrCreateWorkSameDOIDifferentTitles(t *testing.T) {
	s := newTestStore(t)
	r := NewResolver(s, zaptest.NewLogger(t), nil)
	ctx := context.Background()

	first, err := r.ResolveOrCreateWork(ctx, types.RawRecord{Title: "Statins and cognition", DOI: "10.1/abc"})
	require.NoError(t, err)
	second, err := r.ResolveOrCreateWork(ctx, types.RawRecord{Title: "Statin use and cognitive decline", DOI: "10.1/abc"})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Statins and cognition", second.Title)
}

func TestResolveOrCreateWorkLookupOrder(t *testing.T) {
	s := newTestStore(t)
	r := NewResolver(s, zaptest.NewLogger(t), nil)
	ctx := context.Background()

	byTitle, err := r.ResolveOrCreateWork(ctx, types.RawRecord{Title: "Title one", DOI: "10.1/one"})
	require.NoError(t, err)
	byDOI, err := r.ResolveOrCreateWork(ctx, types.RawRecord{Title: "Title two", DOI: "10.1/two", PMID: "22"})
	require.NoError(t, err)
	require.NotEqual(t, byTitle.ID, byDOI.ID)

	tests := []struct {
		name string
		rec  types.RawRecord
		want string
	}{
		{"fingerprint wins over doi", types.RawRecord{Title: "TITLE ONE!", DOI: "10.1/two"}, byTitle.ID},
		{"doi used when title is new", types.RawRecord{Title: "Another wording", DOI: "10.1/two"}, byDOI.ID},
		{"pmid used when title and doi miss", types.RawRecord{Title: "Third wording", PMID: "22"}, byDOI.ID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.ResolveOrCreateWork(ctx, tt.rec)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.ID)
		})
	}
}

func TestResolveOrCreateWorkMergesSourceIDs(t *testing.T) {
	s := newTestStore(t)
	r := NewResolver(s, zaptest.NewLogger(t), nil)
	ctx := context.Background()

	w, err := r.ResolveOrCreateWork(ctx, types.RawRecord{
		Title: "Shared work", PMID: "7", SourceIDs: map[string]string{"pubmed": "7"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, w.Fingerprint)
	assert.Equal(t, "shared work", w.TitleNormalized)

	again, err := r.ResolveOrCreateWork(ctx, types.RawRecord{
		Title: "Shared work", SourceIDs: map[string]string{"openalex": "W1", "pubmed": "other"},
	})
	require.NoError(t, err)
	assert.Equal(t, w.ID, again.ID)
	assert.Equal(t, map[string]string{"pubmed": "7", "openalex": "W1"}, again.SourceIDs)
}

func TestLinkToProjectTwice(t *testing.T) {
	s := newTestStore(t)
	r := NewResolver(s, zaptest.NewLogger(t), nil)
	ctx := context.Background()
	projectID := newProject(t, s)

	search := &types.Search{ProjectID: projectID, Database: "pubmed"}
	require.NoError(t, s.CreateSearch(ctx, search))

	rec := types.RawRecord{Title: "A trial", Abstract: "from pubmed", Source: "pubmed", PMID: "1"}
	w, err := r.ResolveOrCreateWork(ctx, rec)
	require.NoError(t, err)

	meta := SourceMeta{SearchID: search.ID, Source: "pubmed"}
	res, err := r.LinkToProject(ctx, projectID, w, rec, meta)
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, types.StatusPending, res.Article.ScreeningStatus)
	assert.Equal(t, "from pubmed", res.Article.Abstract)

	other := rec
	other.Abstract = ""
	res, err = r.LinkToProject(ctx, projectID, w, other, meta)
	require.NoError(t, err)
	assert.False(t, res.Created)

	articles, err := s.ListProjectArticles(ctx, projectID, "")
	require.NoError(t, err)
	assert.Len(t, articles, 1)

	// The audit link is written for both calls.
	n, err := s.CountSearchResults(ctx, search.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestLinkToProjectCopiesRecordFields(t *testing.T) {
	s := newTestStore(t)
	r := NewResolver(s, zaptest.NewLogger(t), nil)
	ctx := context.Background()
	projectA := newProject(t, s)
	projectB := newProject(t, s)

	withAbstract := types.RawRecord{Title: "Cross project work", Abstract: "full text", Source: "pubmed"}
	w, err := r.ResolveOrCreateWork(ctx, withAbstract)
	require.NoError(t, err)
	_, err = r.LinkToProject(ctx, projectA, w, withAbstract, SourceMeta{})
	require.NoError(t, err)

	noAbstract := types.RawRecord{Title: "Cross project work", Source: "openalex"}
	w2, err := r.ResolveOrCreateWork(ctx, noAbstract)
	require.NoError(t, err)
	require.Equal(t, w.ID, w2.ID)
	res, err := r.LinkToProject(ctx, projectB, w2, noAbstract, SourceMeta{})
	require.NoError(t, err)

	assert.True(t, res.Created)
	assert.Empty(t, res.Article.Abstract)
	assert.Equal(t, "openalex", res.Article.Source)
}

func TestIngest(t *testing.T) {
	s := newTestStore(t)
	rec := &countingRecorder{counts: map[string]int{}}
	r := NewResolver(s, zaptest.NewLogger(t), rec)
	ctx := context.Background()
	projectID := newProject(t, s)

	records := []types.RawRecord{
		{Title: "Exercise and depression", DOI: "10.2/ex"},
		{Title: "Exercise and Depression.", DOI: "10.2/ex-other"},
		{Title: "Diet and sleep", PMID: "44"},
	}
	summary, err := r.Ingest(ctx, projectID, "pubmed", "exercise", records)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Saved)
	assert.Equal(t, 1, summary.Duplicates)
	assert.Zero(t, summary.Failed)
	assert.Equal(t, 3, summary.Total())
	assert.Equal(t, 2, rec.counts["pubmed/saved"])
	assert.Equal(t, 1, rec.counts["pubmed/duplicate"])

	n, err := s.CountSearchResults(ctx, summary.SearchID)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	// Re-ingesting from another database adds nothing new.
	again, err := r.Ingest(ctx, projectID, "openalex", "exercise", records[:1])
	require.NoError(t, err)
	assert.Zero(t, again.Saved)
	assert.Equal(t, 1, again.Duplicates)
}

func TestIngestContinuesPastFailures(t *testing.T) {
	s := newTestStore(t)
	fs := &failingStore{SQLite: s, failTitle: "Broken record"}
	r := NewResolver(fs, zaptest.NewLogger(t), nil)
	projectID := newProject(t, s)

	summary, err := r.Ingest(context.Background(), projectID, "pubmed", "q", []types.RawRecord{
		{Title: "Good record one"},
		{Title: "Broken record"},
		{Title: "Good record two"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Saved)
	assert.Equal(t, 1, summary.Failed)
}

func TestIngestMissingProject(t *testing.T) {
	s := newTestStore(t)
	r := NewResolver(s, zaptest.NewLogger(t), nil)

	_, err := r.Ingest(context.Background(), "nope", "pubmed", "q", []types.RawRecord{{Title: "x"}})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestAddManual(t *testing.T) {
	s := newTestStore(t)
	r := NewResolver(s, zaptest.NewLogger(t), nil)
	ctx := context.Background()
	projectID := newProject(t, s)

	a, err := r.AddManual(ctx, projectID, types.RawRecord{Title: "Hand entered", Year: 2020})
	require.NoError(t, err)
	assert.Empty(t, a.WorkID)
	assert.Equal(t, SourceManual, a.Source)
	assert.Equal(t, types.StatusPending, a.ScreeningStatus)

	_, err = r.AddManual(ctx, projectID, types.RawRecord{Title: "  "})
	assert.Error(t, err)
}

func TestAddUploaded(t *testing.T) {
	s := newTestStore(t)
	r := NewResolver(s, zaptest.NewLogger(t), nil)
	ctx := context.Background()
	projectID := newProject(t, s)

	_, err := r.AddManual(ctx, projectID, types.RawRecord{Title: "Already here", DOI: "10.9/here"})
	require.NoError(t, err)

	summary, err := r.AddUploaded(ctx, projectID, []types.RawRecord{
		{Title: "Different title", DOI: "10.9/HERE"},
		{Title: "already here!"},
		{Title: "Fresh one"},
		{Title: "Fresh One"},
		{Title: ""},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Added)
	assert.Equal(t, 3, summary.Duplicates)
	assert.Equal(t, 1, summary.Failed)

	articles, err := s.ListProjectArticles(ctx, projectID, "")
	require.NoError(t, err)
	assert.Len(t, articles, 2)
	assert.Equal(t, SourceUpload, articles[1].Source)
}
