// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/pdiddy/review-engine/internal/httputil"
	"github.com/pdiddy/review-engine/pkg/types"
)

// openAlexSearchBase is the OpenAlex Works search endpoint. Declared as a
// var so tests can substitute an httptest server.
var openAlexSearchBase = "https://api.openalex.org/works"

// openAlexMaxPerPage is the largest page OpenAlex serves.
const openAlexMaxPerPage = 200

// OpenAlexSource queries the OpenAlex API.
type OpenAlexSource struct {
	Client *http.Client
	// Email is sent as mailto parameter for polite pool access.
	Email string
}

// Name returns the source identifier.
func (s *OpenAlexSource) Name() string { return "openalex" }

// Label returns the display name.
func (s *OpenAlexSource) Label() string { return "OpenAlex" }

// Available reports true; OpenAlex needs no credentials.
func (s *OpenAlexSource) Available() bool { return true }

// Search queries the OpenAlex API and returns one record per work.
func (s *OpenAlexSource) Search(ctx context.Context, query Query, cfg types.SearchConfig) ([]types.RawRecord, error) {
	if query.IsEmpty() {
		return nil, fmt.Errorf("empty OpenAlex query")
	}

	params := url.Values{
		"search":   {query.Text},
		"per_page": {fmt.Sprintf("%d", query.limit(cfg, openAlexMaxPerPage))},
		"page":     {"1"},
	}

	var filters []string
	if query.YearFrom > 0 {
		filters = append(filters, fmt.Sprintf("from_publication_date:%d-01-01", query.YearFrom))
	}
	if query.YearTo > 0 {
		filters = append(filters, fmt.Sprintf("to_publication_date:%d-12-31", query.YearTo))
	}
	if len(filters) > 0 {
		params.Set("filter", strings.Join(filters, ","))
	}
	if s.Email != "" {
		params.Set("mailto", s.Email)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, openAlexSearchBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, s.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("OpenAlex API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OpenAlex API returned HTTP %d", resp.StatusCode)
	}

	var oar openAlexResponse
	if err := json.NewDecoder(resp.Body).Decode(&oar); err != nil {
		return nil, fmt.Errorf("parsing OpenAlex response: %w", err)
	}

	records := make([]types.RawRecord, 0, len(oar.Results))
	for _, work := range oar.Results {
		r := types.RawRecord{
			Title:           work.Title,
			Abstract:        reconstructAbstract(work.AbstractInvertedIndex),
			Year:            work.PublicationYear,
			DOI:             strings.TrimPrefix(work.DOI, "https://doi.org/"),
			PMID:            strings.TrimPrefix(work.IDs.PMID, "https://pubmed.ncbi.nlm.nih.gov/"),
			PublicationType: work.Type,
			Language:        work.Language,
			Source:          s.Name(),
		}
		if work.ID != "" {
			r.SourceIDs = map[string]string{s.Name(): strings.TrimPrefix(work.ID, "https://openalex.org/")}
		}
		for _, authorship := range work.Authorships {
			if authorship.Author.DisplayName != "" {
				r.Authors = append(r.Authors, authorship.Author.DisplayName)
			}
		}
		for _, kw := range work.Keywords {
			if kw.DisplayName != "" {
				r.Keywords = append(r.Keywords, kw.DisplayName)
			}
		}
		if src := work.PrimaryLocation.Source; src != nil {
			r.Journal = src.DisplayName
			r.ISSN = src.ISSNL
		}
		r.URL = work.PrimaryLocation.LandingPageURL
		if r.URL == "" {
			r.URL = work.DOI
		}
		r.Volume = work.Biblio.Volume
		r.Issue = work.Biblio.Issue
		r.Pages = pageRange(work.Biblio.FirstPage, work.Biblio.LastPage)

		records = append(records, r)
	}
	return records, nil
}

func pageRange(first, last string) string {
	switch {
	case first == "":
		return ""
	case last == "" || last == first:
		return first
	default:
		return first + "-" + last
	}
}

// reconstructAbstract converts OpenAlex's abstract_inverted_index back to
// plain text. The inverted index maps each word to a list of positions
// where that word appears.
func reconstructAbstract(invertedIndex map[string][]int) string {
	if len(invertedIndex) == 0 {
		return ""
	}

	type posWord struct {
		pos  int
		word string
	}
	var pairs []posWord
	for word, positions := range invertedIndex {
		for _, pos := range positions {
			pairs = append(pairs, posWord{pos: pos, word: word})
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].pos < pairs[j].pos
	})

	words := make([]string, len(pairs))
	for i, p := range pairs {
		words[i] = p.word
	}
	return strings.Join(words, " ")
}

// OpenAlex API JSON structures.
type openAlexResponse struct {
	Meta    openAlexMeta   `json:"meta"`
	Results []openAlexWork `json:"results"`
}

type openAlexMeta struct {
	Count   int `json:"count"`
	PerPage int `json:"per_page"`
	Page    int `json:"page"`
}

type openAlexWork struct {
	ID                    string               `json:"id"`
	Title                 string               `json:"title"`
	DOI                   string               `json:"doi"`
	PublicationYear       int                  `json:"publication_year"`
	Type                  string               `json:"type"`
	Language              string               `json:"language"`
	IDs                   openAlexIDs          `json:"ids"`
	Authorships           []openAlexAuthorship `json:"authorships"`
	AbstractInvertedIndex map[string][]int     `json:"abstract_inverted_index"`
	PrimaryLocation       openAlexLocation     `json:"primary_location"`
	Biblio                openAlexBiblio       `json:"biblio"`
	Keywords              []openAlexKeyword    `json:"keywords"`
}

type openAlexIDs struct {
	PMID string `json:"pmid"`
}

type openAlexAuthorship struct {
	Author openAlexAuthor `json:"author"`
}

type openAlexAuthor struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type openAlexLocation struct {
	LandingPageURL string         `json:"landing_page_url"`
	Source         *openAlexVenue `json:"source"`
}

type openAlexVenue struct {
	DisplayName string `json:"display_name"`
	ISSNL       string `json:"issn_l"`
}

type openAlexBiblio struct {
	Volume    string `json:"volume"`
	Issue     string `json:"issue"`
	FirstPage string `json:"first_page"`
	LastPage  string `json:"last_page"`
}

type openAlexKeyword struct {
	DisplayName string `json:"display_name"`
}
