// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the review-engine:
// bibliographic records as they arrive from search sources, the canonical
// catalog they resolve into, project linkage, and screening verdicts.
package types

import "time"

// RawRecord is a bibliographic record as returned by one search source,
// before it is resolved against the catalog. Fields the source did not
// provide are left empty.
type RawRecord struct {
	Title    string   `json:"title" yaml:"title"`
	Abstract string   `json:"abstract,omitempty" yaml:"abstract,omitempty"`
	Authors  []string `json:"authors,omitempty" yaml:"authors,omitempty"`
	Journal  string   `json:"journal,omitempty" yaml:"journal,omitempty"`
	Year     int      `json:"year,omitempty" yaml:"year,omitempty"`

	// DOI is the bare DOI without a resolver prefix (e.g. "10.1000/xyz").
	DOI  string `json:"doi,omitempty" yaml:"doi,omitempty"`
	PMID string `json:"pmid,omitempty" yaml:"pmid,omitempty"`

	// SourceIDs maps a database name (e.g. "openalex", "scopus") to the
	// record's identifier in that database.
	SourceIDs map[string]string `json:"source_ids,omitempty" yaml:"source_ids,omitempty"`

	PublicationType string   `json:"publication_type,omitempty" yaml:"publication_type,omitempty"`
	Keywords        []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	URL             string   `json:"url,omitempty" yaml:"url,omitempty"`
	Volume          string   `json:"volume,omitempty" yaml:"volume,omitempty"`
	Issue           string   `json:"issue,omitempty" yaml:"issue,omitempty"`
	Pages           string   `json:"pages,omitempty" yaml:"pages,omitempty"`
	ISSN            string   `json:"issn,omitempty" yaml:"issn,omitempty"`
	Language        string   `json:"language,omitempty" yaml:"language,omitempty"`

	// Source names the database the record came from (e.g. "pubmed").
	Source string `json:"source,omitempty" yaml:"source,omitempty"`
}

// SourceRecordID returns the identifier under which the originating source
// knows this record: PMID first, then the source's own id, then DOI.
func (r RawRecord) SourceRecordID() string {
	if r.PMID != "" {
		return r.PMID
	}
	if id := r.SourceIDs[r.Source]; id != "" {
		return id
	}
	return r.DOI
}

// CanonicalWork is the deduplicated, cross-project identity of a
// publication. Once created its bibliographic fields do not change; only
// SourceIDs may gain new keys.
type CanonicalWork struct {
	ID              string            `json:"id" yaml:"id"`
	Title           string            `json:"title" yaml:"title"`
	TitleNormalized string            `json:"title_normalized" yaml:"title_normalized"`
	Abstract        string            `json:"abstract,omitempty" yaml:"abstract,omitempty"`
	Authors         []string          `json:"authors,omitempty" yaml:"authors,omitempty"`
	Journal         string            `json:"journal,omitempty" yaml:"journal,omitempty"`
	Year            int               `json:"year,omitempty" yaml:"year,omitempty"`
	DOI             string            `json:"doi,omitempty" yaml:"doi,omitempty"`
	PMID            string            `json:"pmid,omitempty" yaml:"pmid,omitempty"`
	Fingerprint     string            `json:"fingerprint,omitempty" yaml:"fingerprint,omitempty"`
	SourceIDs       map[string]string `json:"source_ids,omitempty" yaml:"source_ids,omitempty"`
	PublicationType string            `json:"publication_type,omitempty" yaml:"publication_type,omitempty"`
	Keywords        []string          `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	URL             string            `json:"url,omitempty" yaml:"url,omitempty"`
	Volume          string            `json:"volume,omitempty" yaml:"volume,omitempty"`
	Issue           string            `json:"issue,omitempty" yaml:"issue,omitempty"`
	Pages           string            `json:"pages,omitempty" yaml:"pages,omitempty"`
	ISSN            string            `json:"issn,omitempty" yaml:"issn,omitempty"`
	Language        string            `json:"language,omitempty" yaml:"language,omitempty"`
	CreatedAt       time.Time         `json:"created_at" yaml:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at" yaml:"updated_at"`
}

// Project groups the articles of one systematic review.
type Project struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
}

// ScreeningStatus is the review state of a project article.
type ScreeningStatus string

const (
	StatusPending ScreeningStatus = "pending"
	StatusInclude ScreeningStatus = "include"
	StatusExclude ScreeningStatus = "exclude"
	StatusMaybe   ScreeningStatus = "maybe"
)

// Valid reports whether s is one of the known statuses.
func (s ScreeningStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInclude, StatusExclude, StatusMaybe:
		return true
	}
	return false
}

// ProjectArticle is a work's membership in a project. Bibliographic fields
// are copied from the raw record that introduced it, so per-source
// variations (such as a missing abstract) are preserved. WorkID is empty
// for articles added by hand or by file upload.
type ProjectArticle struct {
	ID              string          `json:"id" yaml:"id"`
	ProjectID       string          `json:"project_id" yaml:"project_id"`
	WorkID          string          `json:"work_id,omitempty" yaml:"work_id,omitempty"`
	SearchID        string          `json:"search_id,omitempty" yaml:"search_id,omitempty"`
	Source          string          `json:"source" yaml:"source"`
	Title           string          `json:"title" yaml:"title"`
	Abstract        string          `json:"abstract,omitempty" yaml:"abstract,omitempty"`
	Authors         []string        `json:"authors,omitempty" yaml:"authors,omitempty"`
	Journal         string          `json:"journal,omitempty" yaml:"journal,omitempty"`
	Year            int             `json:"year,omitempty" yaml:"year,omitempty"`
	DOI             string          `json:"doi,omitempty" yaml:"doi,omitempty"`
	PMID            string          `json:"pmid,omitempty" yaml:"pmid,omitempty"`
	PublicationType string          `json:"publication_type,omitempty" yaml:"publication_type,omitempty"`
	Keywords        []string        `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	URL             string          `json:"url,omitempty" yaml:"url,omitempty"`
	ScreeningStatus ScreeningStatus `json:"screening_status" yaml:"screening_status"`
	CreatedAt       time.Time       `json:"created_at" yaml:"created_at"`
}

// Search is an audit row for one ingestion of one source's results into a
// project.
type Search struct {
	ID           string    `json:"id" yaml:"id"`
	ProjectID    string    `json:"project_id" yaml:"project_id"`
	Database     string    `json:"database" yaml:"database"`
	Query        string    `json:"query" yaml:"query"`
	ResultsCount int       `json:"results_count" yaml:"results_count"`
	CreatedAt    time.Time `json:"created_at" yaml:"created_at"`
}

// SearchResult links a search to the canonical work one of its records
// resolved to.
type SearchResult struct {
	ID             string    `json:"id" yaml:"id"`
	SearchID       string    `json:"search_id" yaml:"search_id"`
	WorkID         string    `json:"work_id" yaml:"work_id"`
	SourceRecordID string    `json:"source_record_id,omitempty" yaml:"source_record_id,omitempty"`
	RawData        string    `json:"raw_data,omitempty" yaml:"raw_data,omitempty"`
	CreatedAt      time.Time `json:"created_at" yaml:"created_at"`
}
