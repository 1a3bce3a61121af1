// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package screen

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/review-engine/pkg/types"
)

func TestBuildPromptPlaceholders(t *testing.T) {
	prompt, err := BuildPrompt(types.ArticleInput{}, types.PICOCriteria{})
	require.NoError(t, err)

	assert.Contains(t, prompt, "Synopsis/PICO: (not provided)")
	assert.Equal(t, 2, strings.Count(prompt, "(none provided)"))
	assert.Contains(t, prompt, "Study Title: (no title)")
	assert.Contains(t, prompt, "Study Abstract: (no abstract)")
}

func TestBuildPromptFromCriteriaText(t *testing.T) {
	var pico types.PICOCriteria
	require.NoError(t, json.Unmarshal([]byte(`{
		"pico_question": "  Do statins reduce mortality?  ",
		"inclusion_criteria": "adults\n\n  randomised trials \n",
		"exclusion_criteria": ["", " animal studies "]
	}`), &pico))

	prompt, err := BuildPrompt(types.ArticleInput{Title: "Statins and mortality", Abstract: "We studied..."}, pico)
	require.NoError(t, err)

	assert.Contains(t, prompt, "Synopsis/PICO: Do statins reduce mortality?\n")
	assert.Contains(t, prompt, "Inclusion Criteria:\n- adults\n- randomised trials\n\nExclusion Criteria:\n- animal studies\n\n")
	assert.NotContains(t, prompt, "(none provided)")
	assert.Contains(t, prompt, "Study Title: Statins and mortality\nStudy Abstract: We studied...")
}

func TestBuildPromptSectionOrder(t *testing.T) {
	prompt, err := BuildPrompt(types.ArticleInput{Title: "T", Abstract: "A"}, types.PICOCriteria{
		Question:  "Q",
		Inclusion: types.CriteriaList{"inc"},
		Exclusion: types.CriteriaList{"exc"},
	})
	require.NoError(t, err)

	sections := []string{
		"high-sensitivity title and abstract screening",
		"Synopsis/PICO: Q",
		"Inclusion Criteria:",
		"Exclusion Criteria:",
		"Study Title: T",
		"Study Abstract: A",
		"Instructions:",
		"do not output these steps",
		"Decision logic",
		"err on the side of inclusion",
		"Output (JSON only)",
		"No other text should be produced outside the JSON.",
		"Example format:",
	}
	last := -1
	for _, s := range sections {
		i := strings.Index(prompt, s)
		require.GreaterOrEqual(t, i, 0, "missing %q", s)
		assert.Greater(t, i, last, "%q out of order", s)
		last = i
	}
}

func TestBuildPromptIsDeterministic(t *testing.T) {
	article := types.ArticleInput{Title: "T", Abstract: "A"}
	pico := types.PICOCriteria{Question: "Q", Inclusion: types.CriteriaList{"a", "b"}}

	first, err := BuildPrompt(article, pico)
	require.NoError(t, err)
	second, err := BuildPrompt(article, pico)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestParseCriteria(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, ParseCriteria(" a \n\n\tb\n  \n"))
	assert.Nil(t, ParseCriteria("  \n "))
	assert.Nil(t, NormalizeCriteria([]string{"", "  "}))
}
