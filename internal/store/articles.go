// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/pdiddy/review-engine/pkg/types"
)

// ErrDuplicate is returned when an insert would create a second project
// article for the same (project, work) pair.
var ErrDuplicate = errors.New("duplicate project article")

const articleColumns = `id, project_id, work_id, search_id, source, title, abstract, authors,
	journal, year, doi, pmid, publication_type, keywords, url, screening_status, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (*types.ProjectArticle, error) {
	var (
		a                                                  types.ProjectArticle
		workID, searchID, source, title, abstract, journal sql.NullString
		doi, pmid, pubType, url, authors, keywords         sql.NullString
		year                                               sql.NullInt64
		status, createdAt                                  string
	)
	err := row.Scan(&a.ID, &a.ProjectID, &workID, &searchID, &source, &title, &abstract, &authors,
		&journal, &year, &doi, &pmid, &pubType, &keywords, &url, &status, &createdAt)
	if err != nil {
		return nil, err
	}
	a.WorkID, a.SearchID, a.Source = workID.String, searchID.String, source.String
	a.Title, a.Abstract, a.Journal = title.String, abstract.String, journal.String
	a.DOI, a.PMID, a.PublicationType, a.URL = doi.String, pmid.String, pubType.String, url.String
	a.Year = int(year.Int64)
	a.ScreeningStatus = types.ScreeningStatus(status)
	a.CreatedAt = parseTime(createdAt)
	if err := decodeJSON(authors, &a.Authors); err != nil {
		return nil, fmt.Errorf("decoding authors: %w", err)
	}
	if err := decodeJSON(keywords, &a.Keywords); err != nil {
		return nil, fmt.Errorf("decoding keywords: %w", err)
	}
	return &a, nil
}

// FindProjectArticle returns the article linking projectID to workID, or ErrNotFound.
func (s *SQLite) FindProjectArticle(ctx context.Context, projectID, workID string) (*types.ProjectArticle, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+articleColumns+` FROM project_articles WHERE project_id = ? AND work_id = ?`,
		projectID, workID)
	a, err := scanArticle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying project article: %w", err)
	}
	return a, nil
}

// GetProjectArticle returns the article with the given id, or ErrNotFound.
func (s *SQLite) GetProjectArticle(ctx context.Context, id string) (*types.ProjectArticle, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+articleColumns+` FROM project_articles WHERE id = ?`, id)
	a, err := scanArticle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying project article: %w", err)
	}
	return a, nil
}

// ListProjectArticles returns the project's articles in insertion order.
// An empty status returns every article.
func (s *SQLite) ListProjectArticles(ctx context.Context, projectID string, status types.ScreeningStatus) ([]types.ProjectArticle, error) {
	query := `SELECT ` + articleColumns + ` FROM project_articles WHERE project_id = ?`
	args := []any{projectID}
	if status != "" {
		query += ` AND screening_status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at, rowid`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying project articles: %w", err)
	}
	defer rows.Close()

	var articles []types.ProjectArticle
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning project article: %w", err)
		}
		articles = append(articles, *a)
	}
	return articles, rows.Err()
}

// CreateProjectArticle inserts a. It returns ErrDuplicate when the project
// already holds an article for a.WorkID.
func (s *SQLite) CreateProjectArticle(ctx context.Context, a *types.ProjectArticle) error {
	if a.ID == "" {
		a.ID = newID()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now()
	}
	if a.ScreeningStatus == "" {
		a.ScreeningStatus = types.StatusPending
	}

	authors, err := encodeJSON(a.Authors)
	if err != nil {
		return fmt.Errorf("encoding authors: %w", err)
	}
	keywords, err := encodeJSON(a.Keywords)
	if err != nil {
		return fmt.Errorf("encoding keywords: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO project_articles (`+articleColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.ProjectID, nullString(a.WorkID), nullString(a.SearchID), nullString(a.Source),
		a.Title, nullString(a.Abstract), authors, nullString(a.Journal), a.Year,
		nullString(a.DOI), nullString(a.PMID), nullString(a.PublicationType), keywords,
		nullString(a.URL), string(a.ScreeningStatus), formatTime(a.CreatedAt),
	)
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("inserting project article: %w", err)
	}
	return nil
}

// UpdateScreeningStatus sets the article's screening status.
func (s *SQLite) UpdateScreeningStatus(ctx context.Context, articleID string, status types.ScreeningStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE project_articles SET screening_status = ? WHERE id = ?`, string(status), articleID)
	if err != nil {
		return fmt.Errorf("updating screening status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
