// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pdiddy/review-engine/pkg/types"
)

// RecordScreening appends ev and moves the screened article to the
// decided status in one transaction.
func (s *SQLite) RecordScreening(ctx context.Context, ev *types.ScreeningEvent) error {
	if ev.ID == "" {
		ev.ID = newID()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = s.now()
	}
	if ev.ActorType == "" {
		ev.ActorType = types.ActorAI
	}

	criteria, err := encodeJSON(ev.Criteria)
	if err != nil {
		return fmt.Errorf("encoding criteria: %w", err)
	}
	inc, err := encodeJSON(ev.InclusionEvaluation)
	if err != nil {
		return fmt.Errorf("encoding inclusion evaluation: %w", err)
	}
	exc, err := encodeJSON(ev.ExclusionEvaluation)
	if err != nil {
		return fmt.Errorf("encoding exclusion evaluation: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE project_articles SET screening_status = ? WHERE id = ?`,
		string(ev.Decision), ev.ArticleID)
	if err != nil {
		return fmt.Errorf("updating screening status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO screening_events (id, project_id, article_id, actor_type, provider, model,
			decision, rationale, criteria, inclusion_evaluation, exclusion_evaluation, prompt,
			raw_response, prompt_tokens, completion_tokens, total_tokens, batch_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.ProjectID, ev.ArticleID, ev.ActorType, nullString(ev.Provider), nullString(ev.Model),
		string(ev.Decision), ev.Rationale, criteria, inc, exc, ev.Prompt, ev.RawResponse,
		nullInt(ev.Usage.PromptTokens), nullInt(ev.Usage.CompletionTokens), nullInt(ev.Usage.TotalTokens),
		nullString(ev.BatchID), formatTime(ev.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting screening event: %w", err)
	}

	return tx.Commit()
}

// ListScreeningEvents returns the events recorded for an article, oldest first.
func (s *SQLite) ListScreeningEvents(ctx context.Context, articleID string) ([]types.ScreeningEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_id, article_id, actor_type, provider, model, decision, rationale,
			criteria, inclusion_evaluation, exclusion_evaluation, prompt, raw_response,
			prompt_tokens, completion_tokens, total_tokens, batch_id, created_at
		 FROM screening_events WHERE article_id = ? ORDER BY created_at, rowid`, articleID)
	if err != nil {
		return nil, fmt.Errorf("querying screening events: %w", err)
	}
	defer rows.Close()

	var events []types.ScreeningEvent
	for rows.Next() {
		var (
			ev                                 types.ScreeningEvent
			provider, model, rationale, batch  sql.NullString
			criteria, inc, exc, prompt, raw    sql.NullString
			promptTok, completionTok, totalTok sql.NullInt64
			decision, createdAt                string
		)
		if err := rows.Scan(&ev.ID, &ev.ProjectID, &ev.ArticleID, &ev.ActorType, &provider, &model,
			&decision, &rationale, &criteria, &inc, &exc, &prompt, &raw,
			&promptTok, &completionTok, &totalTok, &batch, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning screening event: %w", err)
		}
		ev.Provider, ev.Model, ev.Rationale = provider.String, model.String, rationale.String
		ev.Prompt, ev.RawResponse, ev.BatchID = prompt.String, raw.String, batch.String
		ev.Decision = types.Decision(decision)
		ev.CreatedAt = parseTime(createdAt)
		ev.Usage = types.Usage{
			PromptTokens:     intPtr(promptTok),
			CompletionTokens: intPtr(completionTok),
			TotalTokens:      intPtr(totalTok),
		}
		if err := decodeJSON(criteria, &ev.Criteria); err != nil {
			return nil, fmt.Errorf("decoding criteria: %w", err)
		}
		if err := decodeJSON(inc, &ev.InclusionEvaluation); err != nil {
			return nil, fmt.Errorf("decoding inclusion evaluation: %w", err)
		}
		if err := decodeJSON(exc, &ev.ExclusionEvaluation); err != nil {
			return nil, fmt.Errorf("decoding exclusion evaluation: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
