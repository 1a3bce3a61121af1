// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pdiddy/review-engine/pkg/types"
)

// CreateProject inserts p, assigning an id and creation time when unset.
func (s *SQLite) CreateProject(ctx context.Context, p *types.Project) error {
	if p.ID == "" {
		p.ID = newID()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (id, name, description, created_at) VALUES (?, ?, ?, ?)`,
		p.ID, p.Name, nullString(p.Description), formatTime(p.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting project: %w", err)
	}
	return nil
}

// GetProject returns the project with the given id, or ErrNotFound.
func (s *SQLite) GetProject(ctx context.Context, id string) (*types.Project, error) {
	var (
		p         types.Project
		desc      sql.NullString
		createdAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, created_at FROM projects WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &desc, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying project: %w", err)
	}
	p.Description = desc.String
	p.CreatedAt = parseTime(createdAt)
	return &p, nil
}

// ListProjects returns all projects, oldest first.
func (s *SQLite) ListProjects(ctx context.Context) ([]types.Project, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, created_at FROM projects ORDER BY created_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("querying projects: %w", err)
	}
	defer rows.Close()

	var projects []types.Project
	for rows.Next() {
		var (
			p         types.Project
			desc      sql.NullString
			createdAt string
		)
		if err := rows.Scan(&p.ID, &p.Name, &desc, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning project: %w", err)
		}
		p.Description = desc.String
		p.CreatedAt = parseTime(createdAt)
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// CreateSearch inserts the audit row for one source ingestion.
func (s *SQLite) CreateSearch(ctx context.Context, search *types.Search) error {
	if search.ID == "" {
		search.ID = newID()
	}
	if search.CreatedAt.IsZero() {
		search.CreatedAt = s.now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO searches (id, project_id, source_database, query, results_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		search.ID, search.ProjectID, search.Database, nullString(search.Query),
		search.ResultsCount, formatTime(search.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting search: %w", err)
	}
	return nil
}

// RecordSearchResult links a search to the work one of its records resolved to.
func (s *SQLite) RecordSearchResult(ctx context.Context, r *types.SearchResult) error {
	if r.ID == "" {
		r.ID = newID()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO search_results (id, search_id, work_id, source_record_id, raw_data, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.SearchID, r.WorkID, nullString(r.SourceRecordID), nullString(r.RawData),
		formatTime(r.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting search result: %w", err)
	}
	return nil
}

// CountSearchResults returns how many records were linked to a search.
func (s *SQLite) CountSearchResults(ctx context.Context, searchID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM search_results WHERE search_id = ?`, searchID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting search results: %w", err)
	}
	return n, nil
}
