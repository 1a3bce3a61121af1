// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pdiddy/review-engine/pkg/types"
)

const workColumns = `id, title, title_normalized, abstract, authors, journal, year, doi, pmid,
	fingerprint, source_ids, publication_type, keywords, url, volume, issue, pages, issn,
	language, created_at, updated_at`

// FindWorkByFingerprint returns the earliest work with the given title
// fingerprint, or ErrNotFound.
func (s *SQLite) FindWorkByFingerprint(ctx context.Context, fingerprint string) (*types.CanonicalWork, error) {
	return s.findWork(ctx, "fingerprint", fingerprint)
}

// FindWorkByDOI returns the earliest work with exactly the given DOI, or ErrNotFound.
func (s *SQLite) FindWorkByDOI(ctx context.Context, doi string) (*types.CanonicalWork, error) {
	return s.findWork(ctx, "doi", doi)
}

// FindWorkByPMID returns the earliest work with the given PubMed id, or ErrNotFound.
func (s *SQLite) FindWorkByPMID(ctx context.Context, pmid string) (*types.CanonicalWork, error) {
	return s.findWork(ctx, "pmid", pmid)
}

// GetWork returns the work with the given id, or ErrNotFound.
func (s *SQLite) GetWork(ctx context.Context, id string) (*types.CanonicalWork, error) {
	return s.findWork(ctx, "id", id)
}

// findWork looks a work up by one indexed column. column is never user input.
func (s *SQLite) findWork(ctx context.Context, column, value string) (*types.CanonicalWork, error) {
	if value == "" {
		return nil, ErrNotFound
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT `+workColumns+` FROM works WHERE `+column+` = ? ORDER BY created_at, rowid LIMIT 1`, value)
	w, err := scanWork(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying work by %s: %w", column, err)
	}
	return w, nil
}

func scanWork(row *sql.Row) (*types.CanonicalWork, error) {
	var (
		w                                                   types.CanonicalWork
		title, norm, abstract, journal, doi, pmid, fp       sql.NullString
		pubType, url, volume, issue, pages, issn, language  sql.NullString
		authors, sourceIDs, keywords                        sql.NullString
		year                                                sql.NullInt64
		createdAt, updatedAt                                string
	)
	err := row.Scan(&w.ID, &title, &norm, &abstract, &authors, &journal, &year, &doi, &pmid,
		&fp, &sourceIDs, &pubType, &keywords, &url, &volume, &issue, &pages, &issn,
		&language, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	w.Title, w.TitleNormalized, w.Abstract = title.String, norm.String, abstract.String
	w.Journal, w.DOI, w.PMID, w.Fingerprint = journal.String, doi.String, pmid.String, fp.String
	w.PublicationType, w.URL, w.Volume = pubType.String, url.String, volume.String
	w.Issue, w.Pages, w.ISSN, w.Language = issue.String, pages.String, issn.String, language.String
	w.Year = int(year.Int64)
	w.CreatedAt, w.UpdatedAt = parseTime(createdAt), parseTime(updatedAt)
	if err := decodeJSON(authors, &w.Authors); err != nil {
		return nil, fmt.Errorf("decoding authors: %w", err)
	}
	if err := decodeJSON(keywords, &w.Keywords); err != nil {
		return nil, fmt.Errorf("decoding keywords: %w", err)
	}
	if err := decodeJSON(sourceIDs, &w.SourceIDs); err != nil {
		return nil, fmt.Errorf("decoding source ids: %w", err)
	}
	return &w, nil
}

// CreateWork inserts w, assigning an id and timestamps when unset.
func (s *SQLite) CreateWork(ctx context.Context, w *types.CanonicalWork) error {
	if w.ID == "" {
		w.ID = newID()
	}
	if w.CreatedAt.IsZero() {
		w.CreatedAt = s.now()
	}
	w.UpdatedAt = w.CreatedAt

	authors, err := encodeJSON(w.Authors)
	if err != nil {
		return fmt.Errorf("encoding authors: %w", err)
	}
	keywords, err := encodeJSON(w.Keywords)
	if err != nil {
		return fmt.Errorf("encoding keywords: %w", err)
	}
	sourceIDs, err := encodeJSON(w.SourceIDs)
	if err != nil {
		return fmt.Errorf("encoding source ids: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO works (`+workColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		w.ID, w.Title, w.TitleNormalized, nullString(w.Abstract), authors, nullString(w.Journal),
		w.Year, nullString(w.DOI), nullString(w.PMID), nullString(w.Fingerprint), sourceIDs,
		nullString(w.PublicationType), keywords, nullString(w.URL), nullString(w.Volume),
		nullString(w.Issue), nullString(w.Pages), nullString(w.ISSN), nullString(w.Language),
		formatTime(w.CreatedAt), formatTime(w.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting work: %w", err)
	}
	return nil
}

// MergeWorkSourceIDs adds the keys of ids the work does not have yet.
// Existing keys are never overwritten. It returns the merged map.
func (s *SQLite) MergeWorkSourceIDs(ctx context.Context, workID string, ids map[string]string) (map[string]string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var col sql.NullString
	err = tx.QueryRowContext(ctx, `SELECT source_ids FROM works WHERE id = ?`, workID).Scan(&col)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading source ids: %w", err)
	}

	merged := map[string]string{}
	if err := decodeJSON(col, &merged); err != nil {
		return nil, fmt.Errorf("decoding source ids: %w", err)
	}
	changed := false
	for k, v := range ids {
		if v == "" {
			continue
		}
		if _, ok := merged[k]; !ok {
			merged[k] = v
			changed = true
		}
	}
	if !changed {
		return merged, nil
	}

	enc, err := encodeJSON(merged)
	if err != nil {
		return nil, fmt.Errorf("encoding source ids: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE works SET source_ids = ?, updated_at = ? WHERE id = ?`,
		enc, formatTime(s.now()), workID,
	); err != nil {
		return nil, fmt.Errorf("updating source ids: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing source ids: %w", err)
	}
	return merged, nil
}
