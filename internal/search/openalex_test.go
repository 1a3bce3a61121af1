// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

// --- reconstructAbstract ---

func TestReconstructAbstract(t *testing.T) {
	tests := []struct {
		name  string
		index map[string][]int
		want  string
	}{
		{"nil map", nil, ""},
		{"single word", map[string][]int{"hello": {0}}, "hello"},
		{
			name: "multi-word ordered",
			index: map[string][]int{
				"We": {0}, "propose": {1}, "a": {2}, "new": {3}, "method": {4},
			},
			want: "We propose a new method",
		},
		{
			name: "repeated word",
			index: map[string][]int{
				"the": {0, 4}, "cat": {1}, "sat": {2}, "on": {3}, "mat": {5},
			},
			want: "the cat sat on the mat",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := reconstructAbstract(tt.index); got != tt.want {
				t.Errorf("reconstructAbstract() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPageRange(t *testing.T) {
	tests := []struct{ first, last, want string }{
		{"", "", ""},
		{"12", "", "12"},
		{"12", "12", "12"},
		{"12", "19", "12-19"},
	}
	for _, tt := range tests {
		if got := pageRange(tt.first, tt.last); got != tt.want {
			t.Errorf("pageRange(%q, %q) = %q, want %q", tt.first, tt.last, got, tt.want)
		}
	}
}

// --- OpenAlexSource.Search with httptest ---

const sampleOpenAlexResponse = `{
  "meta": {"count": 2, "per_page": 25, "page": 1},
  "results": [
    {
      "id": "https://openalex.org/W2741809807",
      "title": "Statin therapy and all-cause mortality in adults over 75",
      "doi": "https://doi.org/10.1001/jama.2020.1234",
      "publication_year": 2020,
      "type": "article",
      "language": "en",
      "ids": {"pmid": "https://pubmed.ncbi.nlm.nih.gov/32012345"},
      "authorships": [
        {"author": {"id": "https://openalex.org/A1", "display_name": "Maria Rossi"}},
        {"author": {"id": "https://openalex.org/A2", "display_name": "John Chen"}}
      ],
      "abstract_inverted_index": {"Statins": [0], "reduce": [1], "mortality": [2]},
      "primary_location": {
        "landing_page_url": "https://jamanetwork.com/journals/jama/fullarticle/1",
        "source": {"display_name": "JAMA", "issn_l": "0098-7484"}
      },
      "biblio": {"volume": "323", "issue": "4", "first_page": "310", "last_page": "318"},
      "keywords": [{"display_name": "Statin"}, {"display_name": "Elderly"}]
    },
    {
      "id": "https://openalex.org/W2",
      "title": "Preprint without venue",
      "doi": "https://doi.org/10.5555/pre.1",
      "publication_year": 2023,
      "type": "preprint",
      "authorships": [],
      "abstract_inverted_index": null,
      "primary_location": {"landing_page_url": "", "source": null},
      "biblio": {}
    }
  ]
}`

func openAlexTestServer(t *testing.T, status int, body string, check func(*http.Request)) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	old := openAlexSearchBase
	openAlexSearchBase = ts.URL
	t.Cleanup(func() {
		openAlexSearchBase = old
		ts.Close()
	})
	return ts
}

func TestOpenAlexSearchMapsRecords(t *testing.T) {
	ts := openAlexTestServer(t, http.StatusOK, sampleOpenAlexResponse, nil)

	src := &OpenAlexSource{Client: ts.Client()}
	records, err := src.Search(context.Background(), Query{Text: "statins mortality"}, testCfg())
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}

	r := records[0]
	if r.DOI != "10.1001/jama.2020.1234" {
		t.Errorf("DOI = %q", r.DOI)
	}
	if r.PMID != "32012345" {
		t.Errorf("PMID = %q", r.PMID)
	}
	if r.SourceIDs["openalex"] != "W2741809807" {
		t.Errorf("SourceIDs = %v", r.SourceIDs)
	}
	if r.Abstract != "Statins reduce mortality" {
		t.Errorf("Abstract = %q", r.Abstract)
	}
	if strings.Join(r.Authors, "|") != "Maria Rossi|John Chen" {
		t.Errorf("Authors = %v", r.Authors)
	}
	if r.Journal != "JAMA" || r.ISSN != "0098-7484" {
		t.Errorf("Journal/ISSN = %q/%q", r.Journal, r.ISSN)
	}
	if r.Volume != "323" || r.Issue != "4" || r.Pages != "310-318" {
		t.Errorf("biblio = %q %q %q", r.Volume, r.Issue, r.Pages)
	}
	if r.Year != 2020 || r.Language != "en" || r.PublicationType != "article" {
		t.Errorf("year/lang/type = %d %q %q", r.Year, r.Language, r.PublicationType)
	}
	if len(r.Keywords) != 2 || r.Source != "openalex" {
		t.Errorf("keywords/source = %v %q", r.Keywords, r.Source)
	}

	// Missing landing page falls back to the DOI URL.
	if records[1].URL != "https://doi.org/10.5555/pre.1" {
		t.Errorf("fallback URL = %q", records[1].URL)
	}
	if records[1].Journal != "" || records[1].Abstract != "" {
		t.Errorf("record without venue = %+v", records[1])
	}
}

func TestOpenAlexSearchParams(t *testing.T) {
	ts := openAlexTestServer(t, http.StatusOK, `{"results": []}`, func(r *http.Request) {
		q := r.URL.Query()
		if q.Get("search") != "statins" {
			t.Errorf("search = %q", q.Get("search"))
		}
		if q.Get("per_page") != "200" {
			t.Errorf("per_page should be capped at 200, got %q", q.Get("per_page"))
		}
		if q.Get("filter") != "from_publication_date:2015-01-01,to_publication_date:2020-12-31" {
			t.Errorf("filter = %q", q.Get("filter"))
		}
		if q.Get("mailto") != "me@example.com" {
			t.Errorf("mailto = %q", q.Get("mailto"))
		}
		if r.Header.Get("User-Agent") != "test/0.1" {
			t.Errorf("User-Agent = %q", r.Header.Get("User-Agent"))
		}
	})

	src := &OpenAlexSource{Client: ts.Client(), Email: "me@example.com"}
	q := Query{Text: "statins", YearFrom: 2015, YearTo: 2020, MaxResults: 1000}
	records, err := src.Search(context.Background(), q, testCfg())
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected no records, got %d", len(records))
	}
}

func TestOpenAlexSearchHTTPError(t *testing.T) {
	ts := openAlexTestServer(t, http.StatusInternalServerError, `{"error": "boom"}`, nil)

	src := &OpenAlexSource{Client: ts.Client()}
	_, err := src.Search(context.Background(), Query{Text: "x"}, testCfg())
	if err == nil || !strings.Contains(err.Error(), "HTTP 500") {
		t.Errorf("expected HTTP 500 error, got %v", err)
	}
}

func TestOpenAlexSearchRetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(sampleOpenAlexResponse))
	}))
	defer ts.Close()
	old := openAlexSearchBase
	openAlexSearchBase = ts.URL
	defer func() { openAlexSearchBase = old }()

	src := &OpenAlexSource{Client: ts.Client()}
	records, err := src.Search(context.Background(), Query{Text: "x"}, testCfg())
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(records) != 2 || calls.Load() != 2 {
		t.Errorf("records=%d calls=%d", len(records), calls.Load())
	}
}

func TestOpenAlexSearchEmptyQuery(t *testing.T) {
	src := &OpenAlexSource{Client: http.DefaultClient}
	if _, err := src.Search(context.Background(), Query{}, testCfg()); err == nil {
		t.Error("expected error for empty query")
	}
}

func TestOpenAlexSearchMalformedJSON(t *testing.T) {
	ts := openAlexTestServer(t, http.StatusOK, `{not json`, nil)

	src := &OpenAlexSource{Client: ts.Client()}
	if _, err := src.Search(context.Background(), Query{Text: "x"}, testCfg()); err == nil {
		t.Error("expected parse error")
	}
}
