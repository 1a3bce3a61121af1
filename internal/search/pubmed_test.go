// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestBuildPubMedTerm(t *testing.T) {
	tests := []struct {
		name  string
		query Query
		want  string
	}{
		{"text only", Query{Text: " statins "}, "statins"},
		{"both years", Query{Text: "statins", YearFrom: 2015, YearTo: 2020}, "statins AND 2015:2020[dp]"},
		{"open start", Query{Text: "statins", YearTo: 2020}, "statins AND 1900:2020[dp]"},
		{"open end", Query{Text: "statins", YearFrom: 2015}, "statins AND 2015:2026[dp]"},
		{
			"publication types",
			Query{Text: "statins", PublicationTypes: []string{"Randomized Controlled Trial", "Meta-Analysis"}},
			`statins AND ("Randomized Controlled Trial"[pt] OR "Meta-Analysis"[pt])`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buildPubMedTerm(tt.query, 2026); got != tt.want {
				t.Errorf("buildPubMedTerm() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPubYear(t *testing.T) {
	tests := []struct {
		year, medline string
		want          int
	}{
		{"2019", "", 2019},
		{"", "1998 Dec-1999 Jan", 1998},
		{"", "Spring", 0},
		{"", "", 0},
	}
	for _, tt := range tests {
		if got := pubYear(tt.year, tt.medline); got != tt.want {
			t.Errorf("pubYear(%q, %q) = %d, want %d", tt.year, tt.medline, got, tt.want)
		}
	}
}

const sampleESearch = `{"header": {}, "esearchresult": {"count": "2", "retmax": "2", "idlist": ["31000001", "31000002"]}}`

const sampleEFetch = `<?xml version="1.0" ?>
<!DOCTYPE PubmedArticleSet PUBLIC "-//NLM//DTD PubMedArticle, 1st January 2024//EN" "https://dtd.nlm.nih.gov/ncbi/pubmed/out/pubmed_240101.dtd">
<PubmedArticleSet>
  <PubmedArticle>
    <MedlineCitation Status="MEDLINE" Owner="NLM">
      <PMID Version="1">31000001</PMID>
      <Article PubModel="Print">
        <Journal>
          <ISSN IssnType="Electronic">1234-5678</ISSN>
          <JournalIssue CitedMedium="Internet">
            <Volume>12</Volume>
            <Issue>3</Issue>
            <PubDate><Year>2019</Year><Month>Mar</Month></PubDate>
          </JournalIssue>
          <Title>Journal of Cardiology</Title>
          <ISOAbbreviation>J Cardiol</ISOAbbreviation>
        </Journal>
        <ArticleTitle>Effect of <i>statins</i> on mortality &amp; morbidity.</ArticleTitle>
        <Pagination><MedlinePgn>100-110</MedlinePgn></Pagination>
        <ELocationID EIdType="pii" ValidYN="Y">S0000-0000(19)00001-1</ELocationID>
        <ELocationID EIdType="doi" ValidYN="Y">10.1000/jcard.2019.001</ELocationID>
        <Abstract>
          <AbstractText Label="BACKGROUND" NlmCategory="BACKGROUND">Statins are widely used.</AbstractText>
          <AbstractText Label="RESULTS" NlmCategory="RESULTS">Mortality fell by 10<sup>%</sup>.</AbstractText>
        </Abstract>
        <AuthorList CompleteYN="Y">
          <Author ValidYN="Y"><LastName>Smith</LastName><ForeName>Jane</ForeName><Initials>J</Initials></Author>
          <Author ValidYN="Y"><CollectiveName>Heart Study Group</CollectiveName></Author>
        </AuthorList>
        <Language>eng</Language>
        <PublicationTypeList>
          <PublicationType UI="D016428">Journal Article</PublicationType>
          <PublicationType UI="D016449">Randomized Controlled Trial</PublicationType>
        </PublicationTypeList>
      </Article>
      <MeshHeadingList>
        <MeshHeading><DescriptorName UI="D000368" MajorTopicYN="N">Aged</DescriptorName></MeshHeading>
        <MeshHeading><DescriptorName UI="D019161" MajorTopicYN="Y">Hydroxymethylglutaryl-CoA Reductase Inhibitors</DescriptorName></MeshHeading>
      </MeshHeadingList>
    </MedlineCitation>
    <PubmedData>
      <ArticleIdList>
        <ArticleId IdType="pubmed">31000001</ArticleId>
      </ArticleIdList>
    </PubmedData>
  </PubmedArticle>
  <PubmedArticle>
    <MedlineCitation Status="MEDLINE" Owner="NLM">
      <PMID Version="1">31000002</PMID>
      <Article PubModel="Print">
        <Journal>
          <JournalIssue CitedMedium="Print">
            <PubDate><MedlineDate>1998 Dec-1999 Jan</MedlineDate></PubDate>
          </JournalIssue>
          <ISOAbbreviation>Geriatr Nurs</ISOAbbreviation>
        </Journal>
        <ArticleTitle>Falls in care homes.</ArticleTitle>
        <Abstract>
          <AbstractText>A single unlabelled section.</AbstractText>
        </Abstract>
        <Language>eng</Language>
      </Article>
    </MedlineCitation>
    <PubmedData>
      <ArticleIdList>
        <ArticleId IdType="pubmed">31000002</ArticleId>
        <ArticleId IdType="doi">10.2000/gn.1999.7</ArticleId>
      </ArticleIdList>
    </PubmedData>
  </PubmedArticle>
</PubmedArticleSet>`

// pubmedTestServer serves ESearch and EFetch from one httptest server.
func pubmedTestServer(t *testing.T, esearch, efetch string, check func(*http.Request)) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		switch r.URL.Path {
		case "/esearch.fcgi":
			w.Write([]byte(esearch))
		case "/efetch.fcgi":
			w.Header().Set("Content-Type", "text/xml")
			w.Write([]byte(efetch))
		default:
			http.NotFound(w, r)
		}
	}))
	old := pubmedAPIBase
	pubmedAPIBase = ts.URL
	t.Cleanup(func() {
		pubmedAPIBase = old
		ts.Close()
	})
	return ts
}

func TestPubMedSearchMapsRecords(t *testing.T) {
	ts := pubmedTestServer(t, sampleESearch, sampleEFetch, nil)

	src := &PubMedSource{Client: ts.Client()}
	records, err := src.Search(context.Background(), Query{Text: "statins"}, testCfg())
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}

	r := records[0]
	if r.Title != "Effect of statins on mortality & morbidity." {
		t.Errorf("Title = %q", r.Title)
	}
	if r.Abstract != "BACKGROUND: Statins are widely used. RESULTS: Mortality fell by 10%." {
		t.Errorf("Abstract = %q", r.Abstract)
	}
	if r.DOI != "10.1000/jcard.2019.001" {
		t.Errorf("DOI = %q", r.DOI)
	}
	if strings.Join(r.Authors, "|") != "Smith Jane|Heart Study Group" {
		t.Errorf("Authors = %v", r.Authors)
	}
	if r.Journal != "Journal of Cardiology" || r.ISSN != "1234-5678" {
		t.Errorf("Journal/ISSN = %q/%q", r.Journal, r.ISSN)
	}
	if r.Year != 2019 || r.Volume != "12" || r.Issue != "3" || r.Pages != "100-110" {
		t.Errorf("year/vol/issue/pages = %d %q %q %q", r.Year, r.Volume, r.Issue, r.Pages)
	}
	if r.PublicationType != "Journal Article; Randomized Controlled Trial" {
		t.Errorf("PublicationType = %q", r.PublicationType)
	}
	if len(r.Keywords) != 2 || r.Language != "eng" {
		t.Errorf("keywords/lang = %v %q", r.Keywords, r.Language)
	}
	if r.URL != "https://pubmed.ncbi.nlm.nih.gov/31000001/" || r.SourceIDs["pubmed"] != "31000001" {
		t.Errorf("URL/SourceIDs = %q %v", r.URL, r.SourceIDs)
	}

	r2 := records[1]
	if r2.Abstract != "A single unlabelled section." {
		t.Errorf("single-section abstract = %q", r2.Abstract)
	}
	if r2.Year != 1998 {
		t.Errorf("MedlineDate year = %d", r2.Year)
	}
	if r2.Journal != "Geriatr Nurs" {
		t.Errorf("ISO abbreviation fallback = %q", r2.Journal)
	}
	if r2.DOI != "10.2000/gn.1999.7" {
		t.Errorf("ArticleIdList DOI fallback = %q", r2.DOI)
	}
}

func TestPubMedSearchParams(t *testing.T) {
	ts := pubmedTestServer(t, sampleESearch, sampleEFetch, func(r *http.Request) {
		q := r.URL.Query()
		if q.Get("api_key") != "pm-key" {
			t.Errorf("%s api_key = %q", r.URL.Path, q.Get("api_key"))
		}
		switch r.URL.Path {
		case "/esearch.fcgi":
			if q.Get("term") != "statins AND 2015:2020[dp]" {
				t.Errorf("term = %q", q.Get("term"))
			}
			if q.Get("retmax") != "25" || q.Get("retmode") != "json" {
				t.Errorf("retmax/retmode = %q/%q", q.Get("retmax"), q.Get("retmode"))
			}
		case "/efetch.fcgi":
			if q.Get("id") != "31000001,31000002" || q.Get("retmode") != "xml" {
				t.Errorf("id/retmode = %q/%q", q.Get("id"), q.Get("retmode"))
			}
		}
	})

	src := &PubMedSource{Client: ts.Client(), APIKey: "pm-key"}
	q := Query{Text: "statins", YearFrom: 2015, YearTo: 2020, MaxResults: 25}
	if _, err := src.Search(context.Background(), q, testCfg()); err != nil {
		t.Fatalf("Search: %v", err)
	}
}

func TestPubMedSearchNoHits(t *testing.T) {
	fetched := false
	ts := pubmedTestServer(t, `{"esearchresult": {"count": "0", "idlist": []}}`, sampleEFetch, func(r *http.Request) {
		if r.URL.Path == "/efetch.fcgi" {
			fetched = true
		}
	})

	src := &PubMedSource{Client: ts.Client()}
	records, err := src.Search(context.Background(), Query{Text: "nothing"}, testCfg())
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(records) != 0 || fetched {
		t.Errorf("records=%d fetched=%v", len(records), fetched)
	}
}

func TestPubMedSearchHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()
	old := pubmedAPIBase
	pubmedAPIBase = ts.URL
	defer func() { pubmedAPIBase = old }()

	src := &PubMedSource{Client: ts.Client()}
	_, err := src.Search(context.Background(), Query{Text: "x"}, testCfg())
	if err == nil || !strings.Contains(err.Error(), "ESearch") || !strings.Contains(err.Error(), "HTTP 502") {
		t.Errorf("expected ESearch HTTP 502 error, got %v", err)
	}
}

func TestPubMedSearchMalformedXML(t *testing.T) {
	ts := pubmedTestServer(t, sampleESearch, `<PubmedArticleSet><PubmedArticle>`, nil)

	src := &PubMedSource{Client: ts.Client()}
	if _, err := src.Search(context.Background(), Query{Text: "x"}, testCfg()); err == nil {
		t.Error("expected EFetch parse error")
	}
}
