// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package screen

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/pdiddy/review-engine/pkg/types"
)

// EventType names a batch event kind.
type EventType string

// Batch event kinds, in the order a run can emit them.
const (
	EventStart      EventType = "start"
	EventProgress   EventType = "progress"
	EventError      EventType = "error"
	EventComplete   EventType = "complete"
	EventFatalError EventType = "fatal_error"
)

// Event is one entry of a batch stream. Which fields are set depends on
// Type:
//
//	start        Total, BatchID
//	progress     Completed, Total, Included, Excluded, Skipped, Current
//	error        Completed, Total, ArticleID, Error
//	complete     Total, Completed, Included, Excluded, Skipped, BatchID
//	fatal_error  Error
type Event struct {
	Type      EventType `json:"type"`
	BatchID   string    `json:"batchId,omitempty"`
	Total     *int      `json:"total,omitempty"`
	Completed *int      `json:"completed,omitempty"`
	Included  *int      `json:"included,omitempty"`
	Excluded  *int      `json:"excluded,omitempty"`
	Skipped   *int      `json:"skipped,omitempty"`
	ArticleID string    `json:"articleId,omitempty"`
	Error     string    `json:"error,omitempty"`
	Current   *Current  `json:"current,omitempty"`
}

// Current describes the article a progress event reports on.
type Current struct {
	ArticleID           string                      `json:"articleId"`
	Title               string                      `json:"title"`
	Decision            types.Decision              `json:"decision"`
	Rationale           string                      `json:"rationale"`
	InclusionEvaluation []types.CriterionEvaluation `json:"inclusion_evaluation"`
	ExclusionEvaluation []types.CriterionEvaluation `json:"exclusion_evaluation"`
	Usage               types.Usage                 `json:"usage"`
}

// counters is the running tally of a batch.
type counters struct {
	total, completed, included, excluded, skipped int
}

func num(n int) *int { return &n }

func startEvent(batchID string, c counters) Event {
	return Event{Type: EventStart, BatchID: batchID, Total: num(c.total)}
}

func progressEvent(c counters, cur Current) Event {
	return Event{
		Type:      EventProgress,
		Completed: num(c.completed),
		Total:     num(c.total),
		Included:  num(c.included),
		Excluded:  num(c.excluded),
		Skipped:   num(c.skipped),
		Current:   &cur,
	}
}

func errorEvent(c counters, articleID string, err error) Event {
	return Event{
		Type:      EventError,
		Completed: num(c.completed),
		Total:     num(c.total),
		ArticleID: articleID,
		Error:     err.Error(),
	}
}

func completeEvent(batchID string, c counters) Event {
	return Event{
		Type:      EventComplete,
		BatchID:   batchID,
		Total:     num(c.total),
		Completed: num(c.completed),
		Included:  num(c.included),
		Excluded:  num(c.excluded),
		Skipped:   num(c.skipped),
	}
}

func fatalEvent(err error) Event {
	return Event{Type: EventFatalError, Error: err.Error()}
}

// Sink consumes batch events in order. A Send error means the consumer is
// gone and the run stops.
type Sink interface {
	Send(ctx context.Context, ev Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, ev Event) error

// Send calls f.
func (f SinkFunc) Send(ctx context.Context, ev Event) error { return f(ctx, ev) }

// JSONLinesSink writes each event as one JSON line.
type JSONLinesSink struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSONLinesSink returns a sink writing newline-delimited JSON to w.
func NewJSONLinesSink(w io.Writer) *JSONLinesSink {
	return &JSONLinesSink{enc: json.NewEncoder(w)}
}

// Send encodes ev.
func (s *JSONLinesSink) Send(_ context.Context, ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enc.Encode(ev); err != nil {
		return fmt.Errorf("writing %s event: %w", ev.Type, err)
	}
	return nil
}

// ChannelSink delivers events on a channel. Send blocks until the event is
// received or ctx is done.
type ChannelSink chan<- Event

// Send delivers ev.
func (s ChannelSink) Send(ctx context.Context, ev Event) error {
	select {
	case s <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
