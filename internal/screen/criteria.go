// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package screen

import (
	"strings"

	"github.com/pdiddy/review-engine/pkg/types"
)

// ParseCriteria splits newline-delimited criteria text into trimmed,
// non-empty entries.
func ParseCriteria(text string) []string {
	return NormalizeCriteria(types.SplitCriteria(text))
}

// NormalizeCriteria trims every entry and drops empty ones. It returns nil
// for an empty result.
func NormalizeCriteria(list []string) []string {
	var out []string
	for _, c := range list {
		if s := strings.TrimSpace(c); s != "" {
			out = append(out, s)
		}
	}
	return out
}
