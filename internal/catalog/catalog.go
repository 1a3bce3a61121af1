// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog resolves raw search records into canonical works and
// links them to review projects, deduplicating across databases and
// across projects.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/pdiddy/review-engine/internal/dedup"
	"github.com/pdiddy/review-engine/internal/store"
	"github.com/pdiddy/review-engine/pkg/types"
)

// Store is the persistence the resolver needs. Lookups return
// store.ErrNotFound when nothing matches; CreateProjectArticle returns
// store.ErrDuplicate when the (project, work) pair already exists.
type Store interface {
	GetProject(ctx context.Context, id string) (*types.Project, error)

	FindWorkByFingerprint(ctx context.Context, fingerprint string) (*types.CanonicalWork, error)
	FindWorkByDOI(ctx context.Context, doi string) (*types.CanonicalWork, error)
	FindWorkByPMID(ctx context.Context, pmid string) (*types.CanonicalWork, error)
	CreateWork(ctx context.Context, w *types.CanonicalWork) error
	MergeWorkSourceIDs(ctx context.Context, workID string, ids map[string]string) (map[string]string, error)

	FindProjectArticle(ctx context.Context, projectID, workID string) (*types.ProjectArticle, error)
	CreateProjectArticle(ctx context.Context, a *types.ProjectArticle) error
	ListProjectArticles(ctx context.Context, projectID string, status types.ScreeningStatus) ([]types.ProjectArticle, error)

	CreateSearch(ctx context.Context, s *types.Search) error
	RecordSearchResult(ctx context.Context, r *types.SearchResult) error
}

// Recorder receives per-record ingestion outcomes. A nil Recorder is allowed.
type Recorder interface {
	RecordIngested(source, outcome string)
}

// Ingestion outcomes passed to Recorder.
const (
	OutcomeSaved     = "saved"
	OutcomeDuplicate = "duplicate"
	OutcomeFailed    = "failed"
)

// Resolver maps raw records onto canonical works and project articles.
type Resolver struct {
	store   Store
	logger  *zap.Logger
	metrics Recorder
}

// NewResolver returns a Resolver over s. metrics may be nil.
func NewResolver(s Store, logger *zap.Logger, metrics Recorder) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{store: s, logger: logger, metrics: metrics}
}

// ResolveOrCreateWork returns the canonical work for rec. Existing works
// are looked up by title fingerprint, then DOI, then PMID; the first hit
// wins and gains any source ids it lacked. Without a hit a new work is
// created from rec.
func (r *Resolver) ResolveOrCreateWork(ctx context.Context, rec types.RawRecord) (*types.CanonicalWork, error) {
	fp := dedup.Fingerprint(rec.Title)

	work, err := r.lookup(ctx, fp, rec)
	if err != nil {
		return nil, err
	}
	if work != nil {
		if len(rec.SourceIDs) > 0 {
			merged, err := r.store.MergeWorkSourceIDs(ctx, work.ID, rec.SourceIDs)
			if err != nil {
				return nil, fmt.Errorf("merging source ids into work %s: %w", work.ID, err)
			}
			work.SourceIDs = merged
		}
		return work, nil
	}

	work = &types.CanonicalWork{
		Title:           rec.Title,
		TitleNormalized: dedup.NormalizeTitle(rec.Title),
		Abstract:        rec.Abstract,
		Authors:         rec.Authors,
		Journal:         rec.Journal,
		Year:            rec.Year,
		DOI:             rec.DOI,
		PMID:            rec.PMID,
		Fingerprint:     fp,
		SourceIDs:       copyIDs(rec.SourceIDs),
		PublicationType: rec.PublicationType,
		Keywords:        rec.Keywords,
		URL:             rec.URL,
		Volume:          rec.Volume,
		Issue:           rec.Issue,
		Pages:           rec.Pages,
		ISSN:            rec.ISSN,
		Language:        rec.Language,
	}
	if err := r.store.CreateWork(ctx, work); err != nil {
		return nil, fmt.Errorf("creating work: %w", err)
	}
	r.logger.Debug("created work", zap.String("work_id", work.ID), zap.String("fingerprint", fp))
	return work, nil
}

// lookup returns the first work matching fingerprint, DOI or PMID, in that
// order, or nil when none does.
func (r *Resolver) lookup(ctx context.Context, fp string, rec types.RawRecord) (*types.CanonicalWork, error) {
	steps := []struct {
		key  string
		val  string
		find func(context.Context, string) (*types.CanonicalWork, error)
	}{
		{"fingerprint", fp, r.store.FindWorkByFingerprint},
		{"doi", rec.DOI, r.store.FindWorkByDOI},
		{"pmid", rec.PMID, r.store.FindWorkByPMID},
	}
	for _, step := range steps {
		if step.val == "" {
			continue
		}
		w, err := step.find(ctx, step.val)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("looking up work by %s: %w", step.key, err)
		}
		return w, nil
	}
	return nil, nil
}

// SourceMeta describes where a record came from.
type SourceMeta struct {
	// SearchID is the audit row to link the resolved work to. Optional.
	SearchID string
	// Source names the originating database.
	Source string
}

// LinkResult reports whether LinkToProject added a new project article.
type LinkResult struct {
	Created bool
	Article *types.ProjectArticle
}

// LinkToProject adds work to the project unless it is already there. The
// new article copies its bibliographic fields from rec, not from work, and
// starts pending. When meta.SearchID is set the search-to-work link is
// recorded whether or not the article is new.
func (r *Resolver) LinkToProject(ctx context.Context, projectID string, work *types.CanonicalWork, rec types.RawRecord, meta SourceMeta) (LinkResult, error) {
	if meta.SearchID != "" {
		raw, err := json.Marshal(rec)
		if err != nil {
			return LinkResult{}, fmt.Errorf("encoding raw record: %w", err)
		}
		err = r.store.RecordSearchResult(ctx, &types.SearchResult{
			SearchID:       meta.SearchID,
			WorkID:         work.ID,
			SourceRecordID: rec.SourceRecordID(),
			RawData:        string(raw),
		})
		if err != nil {
			return LinkResult{}, fmt.Errorf("recording search result: %w", err)
		}
	}

	existing, err := r.store.FindProjectArticle(ctx, projectID, work.ID)
	if err == nil {
		return LinkResult{Created: false, Article: existing}, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return LinkResult{}, fmt.Errorf("looking up project article: %w", err)
	}

	source := meta.Source
	if source == "" {
		source = rec.Source
	}
	article := articleFromRecord(projectID, rec, source)
	article.WorkID = work.ID
	article.SearchID = meta.SearchID

	err = r.store.CreateProjectArticle(ctx, article)
	if errors.Is(err, store.ErrDuplicate) {
		// Lost a race with a concurrent ingestion of the same work.
		return LinkResult{Created: false}, nil
	}
	if err != nil {
		return LinkResult{}, fmt.Errorf("creating project article: %w", err)
	}
	return LinkResult{Created: true, Article: article}, nil
}

func articleFromRecord(projectID string, rec types.RawRecord, source string) *types.ProjectArticle {
	return &types.ProjectArticle{
		ProjectID:       projectID,
		Source:          source,
		Title:           rec.Title,
		Abstract:        rec.Abstract,
		Authors:         rec.Authors,
		Journal:         rec.Journal,
		Year:            rec.Year,
		DOI:             rec.DOI,
		PMID:            rec.PMID,
		PublicationType: rec.PublicationType,
		Keywords:        rec.Keywords,
		URL:             rec.URL,
		ScreeningStatus: types.StatusPending,
	}
}

func copyIDs(ids map[string]string) map[string]string {
	if len(ids) == 0 {
		return nil
	}
	out := make(map[string]string, len(ids))
	for k, v := range ids {
		if v != "" {
			out[k] = v
		}
	}
	return out
}
