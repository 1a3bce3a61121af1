// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/review-engine/internal/httputil"
	"github.com/pdiddy/review-engine/pkg/types"
)

// pubmedAPIBase is the NCBI E-utilities root. Declared as a var so tests
// can substitute an httptest server.
var pubmedAPIBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

const (
	pubmedMaxRetmax = 10000
	pubmedEarliest  = 1900
)

var xmlTag = regexp.MustCompile(`<[^>]+>`)

// PubMedSource queries PubMed through ESearch and EFetch.
type PubMedSource struct {
	Client *http.Client
	// APIKey raises the E-utilities rate limit. Optional.
	APIKey string
}

// Name returns the source identifier.
func (s *PubMedSource) Name() string { return "pubmed" }

// Label returns the display name.
func (s *PubMedSource) Label() string { return "PubMed" }

// Available reports true; PubMed works without an API key.
func (s *PubMedSource) Available() bool { return true }

// Search runs an ESearch for matching PMIDs and fetches their records.
func (s *PubMedSource) Search(ctx context.Context, query Query, cfg types.SearchConfig) ([]types.RawRecord, error) {
	if query.IsEmpty() {
		return nil, fmt.Errorf("empty PubMed query")
	}

	ids, err := s.searchIDs(ctx, query, cfg)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	params := url.Values{
		"db":      {"pubmed"},
		"id":      {strings.Join(ids, ",")},
		"retmode": {"xml"},
		"rettype": {"abstract"},
	}
	var set pubmedArticleSet
	if err := s.get(ctx, "efetch.fcgi", params, cfg, func(resp *http.Response) error {
		return xml.NewDecoder(resp.Body).Decode(&set)
	}); err != nil {
		return nil, fmt.Errorf("PubMed EFetch: %w", err)
	}

	records := make([]types.RawRecord, 0, len(set.Articles))
	for i := range set.Articles {
		records = append(records, set.Articles[i].record())
	}
	return records, nil
}

// searchIDs returns the PMIDs matching query, best match first.
func (s *PubMedSource) searchIDs(ctx context.Context, query Query, cfg types.SearchConfig) ([]string, error) {
	params := url.Values{
		"db":      {"pubmed"},
		"term":    {buildPubMedTerm(query, time.Now().Year())},
		"retmax":  {strconv.Itoa(query.limit(cfg, pubmedMaxRetmax))},
		"retmode": {"json"},
	}
	var er esearchResponse
	if err := s.get(ctx, "esearch.fcgi", params, cfg, func(resp *http.Response) error {
		return json.NewDecoder(resp.Body).Decode(&er)
	}); err != nil {
		return nil, fmt.Errorf("PubMed ESearch: %w", err)
	}
	return er.Result.IDList, nil
}

func (s *PubMedSource) get(ctx context.Context, endpoint string, params url.Values, cfg types.SearchConfig, decode func(*http.Response) error) error {
	if s.APIKey != "" {
		params.Set("api_key", s.APIKey)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pubmedAPIBase+"/"+endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, s.Client, req, 0)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	if err := decode(resp); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}

// buildPubMedTerm appends the publication-date and publication-type
// filters to the query text. An open year range is closed with 1900 or
// currentYear.
func buildPubMedTerm(q Query, currentYear int) string {
	term := strings.TrimSpace(q.Text)
	if q.YearFrom > 0 || q.YearTo > 0 {
		from, to := q.YearFrom, q.YearTo
		if from <= 0 {
			from = pubmedEarliest
		}
		if to <= 0 {
			to = currentYear
		}
		term += fmt.Sprintf(" AND %d:%d[dp]", from, to)
	}
	if len(q.PublicationTypes) > 0 {
		pts := make([]string, len(q.PublicationTypes))
		for i, pt := range q.PublicationTypes {
			pts[i] = fmt.Sprintf("%q[pt]", pt)
		}
		term += " AND (" + strings.Join(pts, " OR ") + ")"
	}
	return term
}

// E-utilities structures.
type esearchResponse struct {
	Result struct {
		Count  string   `json:"count"`
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

type pubmedArticleSet struct {
	XMLName  xml.Name        `xml:"PubmedArticleSet"`
	Articles []pubmedArticle `xml:"PubmedArticle"`
}

type pubmedArticle struct {
	Citation struct {
		PMID    string `xml:"PMID"`
		Article struct {
			Title    markup          `xml:"ArticleTitle"`
			Abstract []abstractText  `xml:"Abstract>AbstractText"`
			Authors  []pubmedAuthor  `xml:"AuthorList>Author"`
			Journal  pubmedJournal   `xml:"Journal"`
			Pages    string          `xml:"Pagination>MedlinePgn"`
			ELocIDs  []pubmedTypedID `xml:"ELocationID"`
			Language []string        `xml:"Language"`
			PubTypes []string        `xml:"PublicationTypeList>PublicationType"`
		} `xml:"Article"`
		MeshHeadings []string `xml:"MeshHeadingList>MeshHeading>DescriptorName"`
	} `xml:"MedlineCitation"`
	Data struct {
		ArticleIDs []pubmedArticleID `xml:"ArticleIdList>ArticleId"`
	} `xml:"PubmedData"`
}

// markup captures an element whose text may carry inline tags such as
// <i> or <sup>.
type markup struct {
	Inner string `xml:",innerxml"`
}

func (m markup) text() string {
	return strings.Join(strings.Fields(html.UnescapeString(xmlTag.ReplaceAllString(m.Inner, ""))), " ")
}

type abstractText struct {
	Label string `xml:"Label,attr"`
	markup
}

type pubmedAuthor struct {
	LastName       string `xml:"LastName"`
	ForeName       string `xml:"ForeName"`
	CollectiveName string `xml:"CollectiveName"`
}

type pubmedJournal struct {
	Title           string `xml:"Title"`
	ISOAbbreviation string `xml:"ISOAbbreviation"`
	ISSN            string `xml:"ISSN"`
	Issue           struct {
		Volume  string `xml:"Volume"`
		Issue   string `xml:"Issue"`
		PubDate struct {
			Year        string `xml:"Year"`
			MedlineDate string `xml:"MedlineDate"`
		} `xml:"PubDate"`
	} `xml:"JournalIssue"`
}

type pubmedTypedID struct {
	Type  string `xml:"EIdType,attr"`
	Value string `xml:",chardata"`
}

type pubmedArticleID struct {
	Type  string `xml:"IdType,attr"`
	Value string `xml:",chardata"`
}

func (a *pubmedArticle) record() types.RawRecord {
	art := &a.Citation.Article
	pmid := strings.TrimSpace(a.Citation.PMID)

	r := types.RawRecord{
		Title:           art.Title.text(),
		Abstract:        joinAbstract(art.Abstract),
		Journal:         art.Journal.Title,
		Year:            pubYear(art.Journal.Issue.PubDate.Year, art.Journal.Issue.PubDate.MedlineDate),
		PMID:            pmid,
		PublicationType: strings.Join(art.PubTypes, "; "),
		Keywords:        a.Citation.MeshHeadings,
		Volume:          art.Journal.Issue.Volume,
		Issue:           art.Journal.Issue.Issue,
		Pages:           art.Pages,
		ISSN:            art.Journal.ISSN,
		Source:          "pubmed",
	}
	if r.Journal == "" {
		r.Journal = art.Journal.ISOAbbreviation
	}
	if len(art.Language) > 0 {
		r.Language = art.Language[0]
	}
	if pmid != "" {
		r.URL = "https://pubmed.ncbi.nlm.nih.gov/" + pmid + "/"
		r.SourceIDs = map[string]string{"pubmed": pmid}
	}
	for _, au := range art.Authors {
		if name := authorName(au); name != "" {
			r.Authors = append(r.Authors, name)
		}
	}

	for _, id := range art.ELocIDs {
		if id.Type == "doi" {
			r.DOI = strings.TrimSpace(id.Value)
			break
		}
	}
	if r.DOI == "" {
		for _, id := range a.Data.ArticleIDs {
			if id.Type == "doi" {
				r.DOI = strings.TrimSpace(id.Value)
				break
			}
		}
	}
	return r
}

// joinAbstract joins structured abstract sections as "LABEL: text". A
// single section is returned without its label.
func joinAbstract(parts []abstractText) string {
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0].text()
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		text := p.text()
		if p.Label != "" {
			text = p.Label + ": " + text
		}
		out = append(out, text)
	}
	return strings.Join(out, " ")
}

func authorName(a pubmedAuthor) string {
	if a.CollectiveName != "" {
		return a.CollectiveName
	}
	return strings.TrimSpace(a.LastName + " " + a.ForeName)
}

// pubYear reads the publication year from PubDate/Year, falling back to
// the leading year of a MedlineDate such as "1998 Dec-1999 Jan".
func pubYear(year, medlineDate string) int {
	if y, err := strconv.Atoi(strings.TrimSpace(year)); err == nil {
		return y
	}
	if len(medlineDate) >= 4 {
		if y, err := strconv.Atoi(medlineDate[:4]); err == nil {
			return y
		}
	}
	return 0
}
