// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package screen

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/pdiddy/review-engine/pkg/types"
)

const (
	// MaxRationaleWords is the word limit applied to a parsed rationale.
	MaxRationaleWords = 12

	// MaxHeuristicRationaleRunes caps the rationale recovered from a
	// response that was not valid JSON.
	MaxHeuristicRationaleRunes = 80

	// InsufficientRationale replaces an empty rationale.
	InsufficientRationale = "insufficient information"
)

var (
	leadingFence  = regexp.MustCompile("^```(?:json)?\\s*")
	trailingFence = regexp.MustCompile("```\\s*$")
	jsonObject    = regexp.MustCompile(`(?s)\{.*\}`)
)

// Keys the evaluation arrays may appear under, in lookup order.
var (
	inclusionKeys = []string{"inclusion_evaluation", "inclusionEvaluation", "inclusionEvaluations", "inclusion_evaluations", "inclusion"}
	exclusionKeys = []string{"exclusion_evaluation", "exclusionEvaluation", "exclusionEvaluations", "exclusion_evaluations", "exclusion"}
)

// ParseVerdict turns a model reply into a Verdict. It never fails: a reply
// that is not JSON is read heuristically and the verdict is marked
// ParseDegraded. inclusion and exclusion supply the default evaluation rows
// (all unclear) when the reply has none.
func ParseVerdict(raw string, inclusion, exclusion []string) types.Verdict {
	cleaned := strings.TrimSpace(raw)
	if strings.HasPrefix(cleaned, "```") {
		cleaned = leadingFence.ReplaceAllString(cleaned, "")
		cleaned = trailingFence.ReplaceAllString(cleaned, "")
		cleaned = strings.TrimSpace(cleaned)
	}

	candidate := cleaned
	if m := jsonObject.FindString(cleaned); m != "" {
		candidate = m
	}

	var decoded any
	if err := json.Unmarshal([]byte(candidate), &decoded); err != nil {
		return heuristicVerdict(cleaned, inclusion, exclusion)
	}
	obj, _ := decoded.(map[string]any)

	v := types.Verdict{
		Decision:  types.Decision(strings.ToLower(strings.TrimSpace(jsString(obj["decision"])))),
		Rationale: truncateWords(strings.TrimSpace(jsString(obj["rationale"])), MaxRationaleWords),
	}
	if !v.Decision.Valid() {
		v.Decision = types.DecisionMaybe
	}
	if v.Rationale == "" {
		v.Rationale = InsufficientRationale
	}

	v.InclusionEvaluation = coerceEvaluations(firstTruthy(obj, inclusionKeys))
	if len(v.InclusionEvaluation) == 0 {
		v.InclusionEvaluation = unclearRows(inclusion)
	}
	v.ExclusionEvaluation = coerceEvaluations(firstTruthy(obj, exclusionKeys))
	if len(v.ExclusionEvaluation) == 0 {
		v.ExclusionEvaluation = unclearRows(exclusion)
	}
	return v
}

func heuristicVerdict(text string, inclusion, exclusion []string) types.Verdict {
	lower := strings.ToLower(text)
	hasInclude := strings.Contains(lower, "include")
	hasExclude := strings.Contains(lower, "exclude")

	decision := types.DecisionMaybe
	switch {
	case hasInclude && !hasExclude:
		decision = types.DecisionInclude
	case hasExclude && !hasInclude:
		decision = types.DecisionExclude
	}

	firstLine, _, _ := strings.Cut(text, "\n")
	if r := []rune(firstLine); len(r) > MaxHeuristicRationaleRunes {
		firstLine = string(r[:MaxHeuristicRationaleRunes])
	}

	return types.Verdict{
		Decision:            decision,
		Rationale:           firstLine,
		InclusionEvaluation: unclearRows(inclusion),
		ExclusionEvaluation: unclearRows(exclusion),
		ParseDegraded:       true,
	}
}

func truncateWords(s string, max int) string {
	words := strings.Fields(s)
	if len(words) <= max {
		return s
	}
	return strings.Join(words[:max], " ")
}

func coerceEvaluations(v any) []types.CriterionEvaluation {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []types.CriterionEvaluation
	for _, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		criterion := strings.TrimSpace(jsString(m["criterion"]))
		if criterion == "" {
			continue
		}
		status := types.CriterionStatus(strings.ToLower(strings.TrimSpace(jsString(m["status"]))))
		switch status {
		case types.CriterionMet, types.CriterionUnclear, types.CriterionUnmet:
		default:
			status = types.CriterionUnclear
		}
		out = append(out, types.CriterionEvaluation{Criterion: criterion, Status: status})
	}
	return out
}

func unclearRows(criteria []string) []types.CriterionEvaluation {
	rows := make([]types.CriterionEvaluation, 0, len(criteria))
	for _, c := range criteria {
		rows = append(rows, types.CriterionEvaluation{Criterion: c, Status: types.CriterionUnclear})
	}
	return rows
}

// firstTruthy returns the value of the first key whose value is truthy in
// the loose sense model replies are written in: anything except null,
// false, zero and the empty string. An empty array counts as truthy.
func firstTruthy(obj map[string]any, keys []string) any {
	for _, k := range keys {
		if v, ok := obj[k]; ok && truthy(v) {
			return v
		}
	}
	return nil
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		return x != ""
	default:
		return true
	}
}

// jsString renders a decoded JSON value as text. Falsy values render
// empty; arrays render their elements comma-joined.
func jsString(v any) string {
	if !truthy(v) {
		return ""
	}
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return "true"
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			if e != nil {
				parts[i] = jsString(e)
			}
		}
		return strings.Join(parts, ",")
	default:
		return "[object Object]"
	}
}
