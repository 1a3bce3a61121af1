// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/review-engine/internal/httputil"
	"github.com/pdiddy/review-engine/pkg/types"
)

// semanticAPIBase is the Semantic Scholar paper search endpoint. Declared
// as a var so tests can substitute an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1/paper/search"

const (
	semanticFields = "title,abstract,authors,externalIds,year,venue,journal,publicationTypes,url"

	// semanticMaxLimit is the largest page the search endpoint serves.
	semanticMaxLimit = 100
)

// SemanticScholarSource queries the Semantic Scholar API.
type SemanticScholarSource struct {
	Client *http.Client
	APIKey string
}

// Name returns the source identifier.
func (s *SemanticScholarSource) Name() string { return "semantic_scholar" }

// Label returns the display name.
func (s *SemanticScholarSource) Label() string { return "Semantic Scholar" }

// Available reports true; the API key only raises rate limits.
func (s *SemanticScholarSource) Available() bool { return true }

// Search queries the Semantic Scholar API and returns one record per paper.
func (s *SemanticScholarSource) Search(ctx context.Context, query Query, cfg types.SearchConfig) ([]types.RawRecord, error) {
	if query.IsEmpty() {
		return nil, fmt.Errorf("empty Semantic Scholar query")
	}

	params := url.Values{
		"query":  {query.Text},
		"limit":  {fmt.Sprintf("%d", query.limit(cfg, semanticMaxLimit))},
		"fields": {semanticFields},
	}
	if yr := buildYearRange(query.YearFrom, query.YearTo); yr != "" {
		params.Set("year", yr)
	}
	if len(query.PublicationTypes) > 0 {
		params.Set("publicationTypes", strings.Join(query.PublicationTypes, ","))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, semanticAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)
	if s.APIKey != "" {
		req.Header.Set("x-api-key", s.APIKey)
	}

	resp, err := httputil.DoWithRetry(ctx, s.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("Semantic Scholar API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Semantic Scholar API returned HTTP %d", resp.StatusCode)
	}

	var sr semanticResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("parsing Semantic Scholar response: %w", err)
	}

	records := make([]types.RawRecord, 0, len(sr.Data))
	for _, paper := range sr.Data {
		r := types.RawRecord{
			Title:           paper.Title,
			Abstract:        paper.Abstract,
			Year:            paper.Year,
			DOI:             paper.ExternalIDs.DOI,
			PMID:            paper.ExternalIDs.PubMed,
			Journal:         paper.Venue,
			PublicationType: strings.Join(paper.PublicationTypes, "; "),
			URL:             paper.URL,
			Source:          s.Name(),
		}
		if paper.Journal != nil {
			if paper.Journal.Name != "" {
				r.Journal = paper.Journal.Name
			}
			r.Volume = strings.TrimSpace(paper.Journal.Volume)
			r.Pages = strings.TrimSpace(paper.Journal.Pages)
		}
		if paper.PaperID != "" {
			r.SourceIDs = map[string]string{s.Name(): paper.PaperID}
		}
		for _, a := range paper.Authors {
			if a.Name != "" {
				r.Authors = append(r.Authors, a.Name)
			}
		}
		records = append(records, r)
	}
	return records, nil
}

// buildYearRange returns a Semantic Scholar year filter string (e.g. "2020-2023").
func buildYearRange(from, to int) string {
	switch {
	case from > 0 && to > 0:
		return fmt.Sprintf("%d-%d", from, to)
	case from > 0:
		return fmt.Sprintf("%d-", from)
	case to > 0:
		return fmt.Sprintf("-%d", to)
	default:
		return ""
	}
}

// Semantic Scholar API JSON structures.
type semanticResponse struct {
	Total  int             `json:"total"`
	Offset int             `json:"offset"`
	Data   []semanticPaper `json:"data"`
}

type semanticPaper struct {
	PaperID          string              `json:"paperId"`
	Title            string              `json:"title"`
	Abstract         string              `json:"abstract"`
	Year             int                 `json:"year"`
	Venue            string              `json:"venue"`
	URL              string              `json:"url"`
	PublicationTypes []string            `json:"publicationTypes"`
	Journal          *semanticJournal    `json:"journal"`
	Authors          []semanticAuthor    `json:"authors"`
	ExternalIDs      semanticExternalIDs `json:"externalIds"`
}

type semanticJournal struct {
	Name   string `json:"name"`
	Volume string `json:"volume"`
	Pages  string `json:"pages"`
}

type semanticAuthor struct {
	AuthorID string `json:"authorId"`
	Name     string `json:"name"`
}

type semanticExternalIDs struct {
	DOI      string `json:"DOI"`
	PubMed   string `json:"PubMed"`
	ArXiv    string `json:"ArXiv"`
	CorpusID int    `json:"CorpusId"`
}
