// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists projects, the canonical work catalog, project
// articles, search audit rows and screening events in SQLite.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned by lookups that match no row.
var ErrNotFound = errors.New("not found")

// SQLite is a Store backed by a single SQLite database file. It is safe for
// concurrent use.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the database at path and ensures the schema exists.
func Open(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &SQLite{db: db, now: time.Now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS projects (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS works (
			id TEXT PRIMARY KEY,
			title TEXT,
			title_normalized TEXT,
			abstract TEXT,
			authors TEXT,
			journal TEXT,
			year INTEGER,
			doi TEXT,
			pmid TEXT,
			fingerprint TEXT,
			source_ids TEXT,
			publication_type TEXT,
			keywords TEXT,
			url TEXT,
			volume TEXT,
			issue TEXT,
			pages TEXT,
			issn TEXT,
			language TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_works_fingerprint ON works(fingerprint)`,
		`CREATE INDEX IF NOT EXISTS idx_works_doi ON works(doi)`,
		`CREATE INDEX IF NOT EXISTS idx_works_pmid ON works(pmid)`,
		`CREATE TABLE IF NOT EXISTS searches (
			id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL REFERENCES projects(id),
			source_database TEXT NOT NULL,
			query TEXT,
			results_count INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS search_results (
			id TEXT PRIMARY KEY,
			search_id TEXT NOT NULL REFERENCES searches(id),
			work_id TEXT NOT NULL REFERENCES works(id),
			source_record_id TEXT,
			raw_data TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_search_results_search ON search_results(search_id)`,
		`CREATE TABLE IF NOT EXISTS project_articles (
			id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL REFERENCES projects(id),
			work_id TEXT REFERENCES works(id),
			search_id TEXT,
			source TEXT,
			title TEXT,
			abstract TEXT,
			authors TEXT,
			journal TEXT,
			year INTEGER,
			doi TEXT,
			pmid TEXT,
			publication_type TEXT,
			keywords TEXT,
			url TEXT,
			screening_status TEXT NOT NULL DEFAULT 'pending',
			created_at TEXT NOT NULL,
			UNIQUE(project_id, work_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_project_articles_status ON project_articles(project_id, screening_status)`,
		`CREATE TABLE IF NOT EXISTS screening_events (
			id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL REFERENCES projects(id),
			article_id TEXT NOT NULL REFERENCES project_articles(id),
			actor_type TEXT NOT NULL,
			provider TEXT,
			model TEXT,
			decision TEXT NOT NULL,
			rationale TEXT,
			criteria TEXT,
			inclusion_evaluation TEXT,
			exclusion_evaluation TEXT,
			prompt TEXT,
			raw_response TEXT,
			prompt_tokens INTEGER,
			completion_tokens INTEGER,
			total_tokens INTEGER,
			batch_id TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_screening_events_article ON screening_events(article_id)`,
		`CREATE INDEX IF NOT EXISTS idx_screening_events_batch ON screening_events(batch_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

func newID() string {
	return uuid.NewString()
}

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(timeLayout, s)
	return t
}

// encodeJSON marshals v for a TEXT column. Nil slices and maps are stored
// as NULL.
func encodeJSON(v any) (sql.NullString, error) {
	switch x := v.(type) {
	case []string:
		if x == nil {
			return sql.NullString{}, nil
		}
	case map[string]string:
		if x == nil {
			return sql.NullString{}, nil
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func decodeJSON(col sql.NullString, v any) error {
	if !col.Valid || col.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(col.String), v)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}
