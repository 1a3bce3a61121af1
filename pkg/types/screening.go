// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"
)

// CriteriaList is an ordered list of screening criteria. It decodes from
// either a list of strings or a single newline-delimited string; in the
// string form blank lines are dropped and entries are trimmed.
type CriteriaList []string

// UnmarshalJSON accepts a JSON array of strings, a string, or null.
func (c *CriteriaList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*c = list
		return nil
	}
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return fmt.Errorf("criteria must be a string or a list of strings: %w", err)
	}
	*c = SplitCriteria(text)
	return nil
}

// UnmarshalYAML accepts a YAML sequence of strings or a scalar string.
func (c *CriteriaList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.SequenceNode:
		var list []string
		if err := value.Decode(&list); err != nil {
			return err
		}
		*c = list
		return nil
	case yaml.ScalarNode:
		var text string
		if err := value.Decode(&text); err != nil {
			return err
		}
		*c = SplitCriteria(text)
		return nil
	default:
		return fmt.Errorf("criteria must be a string or a list of strings (line %d)", value.Line)
	}
}

// SplitCriteria splits newline-delimited criteria text into trimmed,
// non-empty entries.
func SplitCriteria(text string) CriteriaList {
	var out CriteriaList
	for _, line := range strings.Split(text, "\n") {
		if s := strings.TrimSpace(line); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// PICOCriteria is the protocol an article is screened against.
type PICOCriteria struct {
	Question  string       `json:"pico_question" yaml:"pico_question"`
	Inclusion CriteriaList `json:"inclusion_criteria" yaml:"inclusion_criteria"`
	Exclusion CriteriaList `json:"exclusion_criteria" yaml:"exclusion_criteria"`
}

// ArticleInput is the part of an article the screening prompt needs.
type ArticleInput struct {
	ID       string `json:"id,omitempty" yaml:"id,omitempty"`
	Title    string `json:"title" yaml:"title"`
	Abstract string `json:"abstract" yaml:"abstract"`
}

// Decision is a screening outcome.
type Decision string

const (
	DecisionInclude Decision = "include"
	DecisionExclude Decision = "exclude"
	DecisionMaybe   Decision = "maybe"
)

// Valid reports whether d is one of the three screening outcomes.
func (d Decision) Valid() bool {
	switch d {
	case DecisionInclude, DecisionExclude, DecisionMaybe:
		return true
	}
	return false
}

// CriterionStatus is the model's judgement on one criterion.
type CriterionStatus string

const (
	CriterionMet     CriterionStatus = "met"
	CriterionUnclear CriterionStatus = "unclear"
	CriterionUnmet   CriterionStatus = "unmet"
)

// CriterionEvaluation pairs a criterion with its status.
type CriterionEvaluation struct {
	Criterion string          `json:"criterion" yaml:"criterion"`
	Status    CriterionStatus `json:"status" yaml:"status"`
}

// Usage reports token consumption for one provider call. A nil field means
// the provider did not report it.
type Usage struct {
	PromptTokens     *int `json:"promptTokens" yaml:"prompt_tokens"`
	CompletionTokens *int `json:"completionTokens" yaml:"completion_tokens"`
	TotalTokens      *int `json:"totalTokens" yaml:"total_tokens"`
}

// Verdict is the normalized result of screening one article.
type Verdict struct {
	Decision            Decision              `json:"decision" yaml:"decision"`
	Rationale           string                `json:"rationale" yaml:"rationale"`
	InclusionEvaluation []CriterionEvaluation `json:"inclusion_evaluation" yaml:"inclusion_evaluation"`
	ExclusionEvaluation []CriterionEvaluation `json:"exclusion_evaluation" yaml:"exclusion_evaluation"`
	Provider            string                `json:"provider,omitempty" yaml:"provider,omitempty"`
	Model               string                `json:"model,omitempty" yaml:"model,omitempty"`
	Usage               Usage                 `json:"usage" yaml:"usage"`
	Prompt              string                `json:"prompt,omitempty" yaml:"prompt,omitempty"`
	RawResponse         string                `json:"raw_response,omitempty" yaml:"raw_response,omitempty"`

	// ParseDegraded is set when the response was not valid JSON and the
	// verdict was recovered from free text.
	ParseDegraded bool `json:"parse_degraded,omitempty" yaml:"parse_degraded,omitempty"`
}

// ActorAI marks screening events produced by a model rather than a person.
const ActorAI = "ai"

// ScreeningEvent is the persisted record of one screening.
type ScreeningEvent struct {
	ID                  string                `json:"id" yaml:"id"`
	ProjectID           string                `json:"project_id" yaml:"project_id"`
	ArticleID           string                `json:"article_id" yaml:"article_id"`
	ActorType           string                `json:"actor_type" yaml:"actor_type"`
	Provider            string                `json:"provider" yaml:"provider"`
	Model               string                `json:"model" yaml:"model"`
	Decision            Decision              `json:"decision" yaml:"decision"`
	Rationale           string                `json:"rationale" yaml:"rationale"`
	Criteria            PICOCriteria          `json:"criteria" yaml:"criteria"`
	InclusionEvaluation []CriterionEvaluation `json:"inclusion_evaluation" yaml:"inclusion_evaluation"`
	ExclusionEvaluation []CriterionEvaluation `json:"exclusion_evaluation" yaml:"exclusion_evaluation"`
	Prompt              string                `json:"prompt" yaml:"prompt"`
	RawResponse         string                `json:"raw_response" yaml:"raw_response"`
	Usage               Usage                 `json:"usage" yaml:"usage"`
	BatchID             string                `json:"batch_id,omitempty" yaml:"batch_id,omitempty"`
	CreatedAt           time.Time             `json:"created_at" yaml:"created_at"`
}
