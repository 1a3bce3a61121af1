// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search queries bibliographic databases and returns the raw
// records the catalog resolves. Sources are looked up by name through a
// Registry and queried concurrently by Run.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/review-engine/internal/dedup"
	"github.com/pdiddy/review-engine/pkg/types"
)

// DefaultMaxResults is the per-source record limit when neither the query
// nor the configuration sets one.
const DefaultMaxResults = 100

// Source searches one bibliographic database.
type Source interface {
	Name() string
	Label() string
	Available() bool
	Search(ctx context.Context, query Query, cfg types.SearchConfig) ([]types.RawRecord, error)
}

// Query holds the search parameters. Zero years leave the range open.
type Query struct {
	Text             string
	YearFrom         int
	YearTo           int
	MaxResults       int
	PublicationTypes []string
}

// IsEmpty reports whether the query has no search terms.
func (q Query) IsEmpty() bool {
	return strings.TrimSpace(q.Text) == ""
}

// limit returns the record limit for one source request, capped at ceiling
// when ceiling is positive.
func (q Query) limit(cfg types.SearchConfig, ceiling int) int {
	n := q.MaxResults
	if n <= 0 {
		n = cfg.MaxResults
	}
	if n <= 0 {
		n = DefaultMaxResults
	}
	if ceiling > 0 && n > ceiling {
		n = ceiling
	}
	return n
}

// Registry holds the configured sources in a fixed order.
type Registry struct {
	order   []string
	sources map[string]Source
}

// NewRegistry returns a registry holding sources in the given order.
func NewRegistry(sources ...Source) *Registry {
	r := &Registry{sources: make(map[string]Source, len(sources))}
	for _, s := range sources {
		if _, ok := r.sources[s.Name()]; !ok {
			r.order = append(r.order, s.Name())
		}
		r.sources[s.Name()] = s
	}
	return r
}

// NewRegistryFromConfig builds the PubMed, OpenAlex and Semantic Scholar
// sources. client may be nil.
func NewRegistryFromConfig(cfg types.SearchConfig, client *http.Client) *Registry {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return NewRegistry(
		&PubMedSource{Client: client, APIKey: cfg.PubMedAPIKey},
		&OpenAlexSource{Client: client, Email: cfg.OpenAlexEmail},
		&SemanticScholarSource{Client: client, APIKey: cfg.SemanticScholarAPIKey},
	)
}

// Get returns the named source.
func (r *Registry) Get(name string) (Source, error) {
	s, ok := r.sources[name]
	if !ok {
		return nil, fmt.Errorf("unknown search source %q (known: %s)", name, strings.Join(r.order, ", "))
	}
	return s, nil
}

// Select resolves names to sources in registry order. An empty list selects
// every available source. Naming an unavailable source is an error.
func (r *Registry) Select(names []string) ([]Source, error) {
	if len(names) == 0 {
		var out []Source
		for _, n := range r.order {
			if s := r.sources[n]; s.Available() {
				out = append(out, s)
			}
		}
		return out, nil
	}

	want := make(map[string]bool, len(names))
	for _, n := range names {
		s, err := r.Get(strings.TrimSpace(n))
		if err != nil {
			return nil, err
		}
		if !s.Available() {
			return nil, fmt.Errorf("search source %q is not configured", s.Name())
		}
		want[s.Name()] = true
	}
	var out []Source
	for _, n := range r.order {
		if want[n] {
			out = append(out, r.sources[n])
		}
	}
	return out, nil
}

// SourceInfo describes a registered source.
type SourceInfo struct {
	Name      string `json:"name"`
	Label     string `json:"label"`
	Available bool   `json:"available"`
}

// Sources lists every registered source.
func (r *Registry) Sources() []SourceInfo {
	infos := make([]SourceInfo, 0, len(r.order))
	for _, n := range r.order {
		s := r.sources[n]
		infos = append(infos, SourceInfo{Name: n, Label: s.Label(), Available: s.Available()})
	}
	return infos
}

// SourceResult is what one source returned.
type SourceResult struct {
	Source  string            `json:"source" yaml:"source"`
	Records []types.RawRecord `json:"records" yaml:"records"`
	Error   string            `json:"error,omitempty" yaml:"error,omitempty"`
}

// Output holds the per-source results and their cross-source deduplication.
type Output struct {
	Results      []SourceResult
	Merged       []types.RawRecord
	Duplicates   int
	SourceErrors []string
}

// Run queries every source concurrently. A failing source is reported in
// SourceErrors and does not fail the run. Results keep the order of
// sources; Merged is their deduplicated concatenation.
func Run(ctx context.Context, query Query, sources []Source, cfg types.SearchConfig, logger *zap.Logger) (Output, error) {
	if query.IsEmpty() {
		return Output{}, fmt.Errorf("query is empty: provide search terms")
	}
	if len(sources) == 0 {
		return Output{}, fmt.Errorf("no search sources configured")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	results := make([]SourceResult, len(sources))
	var g errgroup.Group
	for i, s := range sources {
		i, s := i, s
		g.Go(func() error {
			records, err := s.Search(ctx, query, cfg)
			results[i] = SourceResult{Source: s.Name(), Records: records}
			if err != nil {
				results[i].Error = err.Error()
				logger.Warn("search source failed", zap.String("source", s.Name()), zap.Error(err))
				return nil
			}
			logger.Info("search source returned", zap.String("source", s.Name()), zap.Int("records", len(records)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Output{}, err
	}

	out := Output{Results: results}
	var all []types.RawRecord
	for _, r := range results {
		if r.Error != "" {
			out.SourceErrors = append(out.SourceErrors, r.Source+": "+r.Error)
			continue
		}
		all = append(all, r.Records...)
	}
	d := dedup.Deduplicate(all)
	out.Merged = d.Unique
	out.Duplicates = d.DuplicateCount
	return out, nil
}

// FormatTable writes the merged records as a human-readable table to w.
func FormatTable(out Output, w io.Writer) {
	for _, r := range out.Results {
		if r.Error != "" {
			fmt.Fprintf(w, "%-18s error: %s\n", r.Source, r.Error)
			continue
		}
		fmt.Fprintf(w, "%-18s %d records\n", r.Source, len(r.Records))
	}
	fmt.Fprintln(w)

	if len(out.Merged) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-60s  %-20s  %-4s  %-16s  %s\n",
		"#", "Title", "Authors", "Year", "Source", "DOI/PMID")
	fmt.Fprintln(w, strings.Repeat("-", 130))

	for i, r := range out.Merged {
		year := ""
		if r.Year > 0 {
			year = fmt.Sprintf("%d", r.Year)
		}
		id := r.DOI
		if id == "" {
			id = r.PMID
		}
		fmt.Fprintf(w, "%-4d  %-60s  %-20s  %-4s  %-16s  %s\n",
			i+1, truncate(r.Title, 60), formatAuthors(r.Authors), year, r.Source, id)
	}

	fmt.Fprintf(w, "\n%d results", len(out.Merged))
	if out.Duplicates > 0 {
		fmt.Fprintf(w, " (%d duplicates removed)", out.Duplicates)
	}
	fmt.Fprintln(w)
}

// FormatJSON writes the merged records as indented JSON to w.
func FormatJSON(out Output, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out.Merged)
}

func formatAuthors(authors []string) string {
	switch len(authors) {
	case 0:
		return ""
	case 1:
		return truncate(authors[0], 20)
	default:
		return truncate(authors[0], 14) + " et al."
	}
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
