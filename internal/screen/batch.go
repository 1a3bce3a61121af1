// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package screen

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/review-engine/internal/llm"
	"github.com/pdiddy/review-engine/internal/store"
	"github.com/pdiddy/review-engine/pkg/types"
)

// DefaultItemTimeout bounds one article of a batch when the configuration
// leaves it unset.
const DefaultItemTimeout = 2 * time.Minute

// Store is the persistence the orchestrator needs.
type Store interface {
	GetProject(ctx context.Context, id string) (*types.Project, error)
	GetProjectArticle(ctx context.Context, id string) (*types.ProjectArticle, error)
	ListProjectArticles(ctx context.Context, projectID string, status types.ScreeningStatus) ([]types.ProjectArticle, error)
	RecordScreening(ctx context.Context, ev *types.ScreeningEvent) error
}

// BatchRequest selects the project backlog and how to screen it.
type BatchRequest struct {
	ProjectID string
	Provider  string
	Model     string
	Criteria  types.PICOCriteria
}

// Orchestrator screens a project's pending articles and records each
// verdict.
type Orchestrator struct {
	screener    *Screener
	store       Store
	logger      *zap.Logger
	itemTimeout time.Duration
}

// NewOrchestrator returns an Orchestrator screening through s and
// persisting to st.
func NewOrchestrator(s *Screener, st Store, logger *zap.Logger) *Orchestrator {
	timeout := s.cfg.ItemTimeout
	if timeout <= 0 {
		timeout = DefaultItemTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{screener: s, store: st, logger: logger, itemTimeout: timeout}
}

// Run screens every pending article of the project in order and reports
// through sink. Per-article failures become error events and the run goes
// on. A failure before the first article becomes a single fatal_error
// event and is returned. Cancelling ctx stops the run between articles
// without a complete event; a failing sink stops it immediately.
func (o *Orchestrator) Run(ctx context.Context, req BatchRequest, sink Sink) error {
	batchID := uuid.NewString()
	log := o.logger.With(
		zap.String("batch", batchID),
		zap.String("project", req.ProjectID),
		zap.String("provider", req.Provider),
	)

	articles, err := o.prepare(ctx, req)
	if err != nil {
		log.Error("batch screening could not start", zap.Error(err))
		if serr := sink.Send(ctx, fatalEvent(err)); serr != nil {
			return serr
		}
		return err
	}

	c := counters{total: len(articles)}
	if err := sink.Send(ctx, startEvent(batchID, c)); err != nil {
		return err
	}
	log.Info("batch screening started", zap.Int("total", c.total))

	for i := range articles {
		if err := ctx.Err(); err != nil {
			log.Info("batch screening cancelled", zap.Int("completed", c.completed), zap.Int("total", c.total))
			return err
		}

		a := &articles[i]
		if strings.TrimSpace(a.Title) == "" {
			c.completed++
			c.skipped++
			log.Debug("skipped article without title", zap.String("article", a.ID))
			continue
		}

		v, err := o.screenItem(ctx, batchID, req, a)
		c.completed++
		if err != nil {
			log.Warn("article screening failed", zap.String("article", a.ID), zap.Error(err))
			if serr := sink.Send(ctx, errorEvent(c, a.ID, err)); serr != nil {
				return serr
			}
			continue
		}

		switch v.Decision {
		case types.DecisionInclude:
			c.included++
		case types.DecisionExclude:
			c.excluded++
		}
		ev := progressEvent(c, Current{
			ArticleID:           a.ID,
			Title:               a.Title,
			Decision:            v.Decision,
			Rationale:           v.Rationale,
			InclusionEvaluation: v.InclusionEvaluation,
			ExclusionEvaluation: v.ExclusionEvaluation,
			Usage:               v.Usage,
		})
		if err := sink.Send(ctx, ev); err != nil {
			return err
		}
	}

	log.Info("batch screening complete",
		zap.Int("total", c.total),
		zap.Int("included", c.included),
		zap.Int("excluded", c.excluded),
		zap.Int("skipped", c.skipped))
	return sink.Send(ctx, completeEvent(batchID, c))
}

// prepare checks the project and provider and loads the pending backlog.
func (o *Orchestrator) prepare(ctx context.Context, req BatchRequest) ([]types.ProjectArticle, error) {
	if _, err := o.store.GetProject(ctx, req.ProjectID); err != nil {
		return nil, fmt.Errorf("loading project %s: %w", req.ProjectID, err)
	}
	p, err := o.screener.registry.Get(req.Provider)
	if err != nil {
		return nil, err
	}
	if !p.Available() {
		return nil, &llm.ConfigurationError{Provider: p.Name(), Reason: "has no API key configured"}
	}
	articles, err := o.store.ListProjectArticles(ctx, req.ProjectID, types.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("listing pending articles: %w", err)
	}
	return articles, nil
}

func (o *Orchestrator) screenItem(ctx context.Context, batchID string, req BatchRequest, a *types.ProjectArticle) (types.Verdict, error) {
	ctx, cancel := context.WithTimeout(ctx, o.itemTimeout)
	defer cancel()

	v, err := o.screener.ScreenArticle(ctx, Request{
		Article:  types.ArticleInput{ID: a.ID, Title: a.Title, Abstract: a.Abstract},
		Criteria: req.Criteria,
		Provider: req.Provider,
		Model:    req.Model,
	})
	if err != nil {
		return types.Verdict{}, err
	}
	if err := o.record(ctx, req.ProjectID, a.ID, batchID, req.Criteria, v); err != nil {
		return types.Verdict{}, err
	}
	return v, nil
}

// ScreenAndRecord screens one project article and persists the verdict.
// Title and abstract come from req.Article when it has a title, otherwise
// from the stored article. It returns store.ErrNotFound when the article
// does not exist or belongs to another project.
func (o *Orchestrator) ScreenAndRecord(ctx context.Context, projectID, articleID string, req Request) (types.Verdict, error) {
	a, err := o.store.GetProjectArticle(ctx, articleID)
	if err != nil {
		return types.Verdict{}, fmt.Errorf("loading article %s: %w", articleID, err)
	}
	if a.ProjectID != projectID {
		return types.Verdict{}, fmt.Errorf("article %s in project %s: %w", articleID, projectID, store.ErrNotFound)
	}

	if req.Article.Title == "" {
		req.Article.Title = a.Title
		req.Article.Abstract = a.Abstract
	}
	req.Article.ID = a.ID

	v, err := o.screener.ScreenArticle(ctx, req)
	if err != nil {
		return types.Verdict{}, err
	}
	if err := o.record(ctx, projectID, a.ID, "", req.Criteria, v); err != nil {
		return types.Verdict{}, err
	}
	return v, nil
}

func (o *Orchestrator) record(ctx context.Context, projectID, articleID, batchID string, criteria types.PICOCriteria, v types.Verdict) error {
	ev := &types.ScreeningEvent{
		ProjectID:           projectID,
		ArticleID:           articleID,
		ActorType:           types.ActorAI,
		Provider:            v.Provider,
		Model:               v.Model,
		Decision:            v.Decision,
		Rationale:           v.Rationale,
		Criteria:            criteria,
		InclusionEvaluation: v.InclusionEvaluation,
		ExclusionEvaluation: v.ExclusionEvaluation,
		Prompt:              v.Prompt,
		RawResponse:         v.RawResponse,
		Usage:               v.Usage,
		BatchID:             batchID,
	}
	if err := o.store.RecordScreening(ctx, ev); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("article %s: %w", articleID, err)
		}
		return fmt.Errorf("recording screening: %w", err)
	}
	return nil
}
