// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/review-engine/internal/dedup"
	"github.com/pdiddy/review-engine/pkg/types"
)

// Sources used for articles that did not come from a search.
const (
	SourceManual = "manual"
	SourceUpload = "upload"
)

// IngestSummary holds counts from one ingestion run.
type IngestSummary struct {
	SearchID   string
	Saved      int
	Duplicates int
	Failed     int
}

// Total returns the number of records processed.
func (s IngestSummary) Total() int {
	return s.Saved + s.Duplicates + s.Failed
}

// Ingest stores one source's records for a project. It writes a search
// audit row, then resolves and links each record in order. A record that
// fails is logged and counted; it does not stop the run. A missing project
// or a failure to write the audit row aborts before any record is touched.
func (r *Resolver) Ingest(ctx context.Context, projectID string, database, query string, records []types.RawRecord) (IngestSummary, error) {
	if _, err := r.store.GetProject(ctx, projectID); err != nil {
		return IngestSummary{}, fmt.Errorf("loading project %s: %w", projectID, err)
	}

	search := &types.Search{
		ProjectID:    projectID,
		Database:     database,
		Query:        query,
		ResultsCount: len(records),
	}
	if err := r.store.CreateSearch(ctx, search); err != nil {
		return IngestSummary{}, fmt.Errorf("creating search: %w", err)
	}

	log := r.logger.With(zap.String("project_id", projectID), zap.String("database", database), zap.String("search_id", search.ID))
	summary := IngestSummary{SearchID: search.ID}
	meta := SourceMeta{SearchID: search.ID, Source: database}

	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		created, err := r.ingestOne(ctx, projectID, rec, meta)
		if err != nil {
			log.Warn("skipping record", zap.Int("index", i), zap.String("title", rec.Title), zap.Error(err))
			summary.Failed++
			r.record(database, OutcomeFailed)
			continue
		}
		if created {
			summary.Saved++
			r.record(database, OutcomeSaved)
		} else {
			summary.Duplicates++
			r.record(database, OutcomeDuplicate)
		}
	}

	log.Info("ingested records",
		zap.Int("saved", summary.Saved),
		zap.Int("duplicates", summary.Duplicates),
		zap.Int("failed", summary.Failed))
	return summary, nil
}

func (r *Resolver) ingestOne(ctx context.Context, projectID string, rec types.RawRecord, meta SourceMeta) (bool, error) {
	work, err := r.ResolveOrCreateWork(ctx, rec)
	if err != nil {
		return false, err
	}
	res, err := r.LinkToProject(ctx, projectID, work, rec, meta)
	if err != nil {
		return false, err
	}
	return res.Created, nil
}

func (r *Resolver) record(source, outcome string) {
	if r.metrics != nil {
		r.metrics.RecordIngested(source, outcome)
	}
}

// AddManual adds an article to a project without resolving it against the
// catalog. The article has no work link.
func (r *Resolver) AddManual(ctx context.Context, projectID string, rec types.RawRecord) (*types.ProjectArticle, error) {
	return r.addUnlinked(ctx, projectID, rec, SourceManual)
}

func (r *Resolver) addUnlinked(ctx context.Context, projectID string, rec types.RawRecord, source string) (*types.ProjectArticle, error) {
	if strings.TrimSpace(rec.Title) == "" {
		return nil, fmt.Errorf("article title is required")
	}
	if _, err := r.store.GetProject(ctx, projectID); err != nil {
		return nil, fmt.Errorf("loading project %s: %w", projectID, err)
	}
	article := articleFromRecord(projectID, rec, source)
	if err := r.store.CreateProjectArticle(ctx, article); err != nil {
		return nil, fmt.Errorf("creating project article: %w", err)
	}
	return article, nil
}

// UploadSummary holds counts from AddUploaded.
type UploadSummary struct {
	Added      int
	Duplicates int
	Failed     int
}

// AddUploaded adds records from a user-supplied file to a project. Records
// whose DOI or normalized title already appears among the project's
// articles, or earlier in the same upload, are counted as duplicates.
func (r *Resolver) AddUploaded(ctx context.Context, projectID string, records []types.RawRecord) (UploadSummary, error) {
	if _, err := r.store.GetProject(ctx, projectID); err != nil {
		return UploadSummary{}, fmt.Errorf("loading project %s: %w", projectID, err)
	}
	existing, err := r.store.ListProjectArticles(ctx, projectID, "")
	if err != nil {
		return UploadSummary{}, fmt.Errorf("listing project articles: %w", err)
	}

	dois := make(map[string]bool)
	titles := make(map[string]bool)
	for _, a := range existing {
		if a.DOI != "" {
			dois[strings.ToLower(a.DOI)] = true
		}
		if t := dedup.NormalizeTitle(a.Title); t != "" {
			titles[t] = true
		}
	}

	var summary UploadSummary
	for _, rec := range records {
		doi := strings.ToLower(strings.TrimSpace(rec.DOI))
		title := dedup.NormalizeTitle(rec.Title)
		if (doi != "" && dois[doi]) || (title != "" && titles[title]) {
			summary.Duplicates++
			continue
		}
		if _, err := r.addUnlinked(ctx, projectID, rec, SourceUpload); err != nil {
			r.logger.Warn("skipping uploaded record", zap.String("title", rec.Title), zap.Error(err))
			summary.Failed++
			continue
		}
		if doi != "" {
			dois[doi] = true
		}
		titles[title] = true
		summary.Added++
	}
	return summary, nil
}
