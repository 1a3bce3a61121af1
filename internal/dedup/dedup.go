// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dedup derives title fingerprints and detects duplicate
// bibliographic records across databases.
package dedup

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"unicode"

	"github.com/pdiddy/review-engine/pkg/types"
)

const (
	// MinSimilarTitleLen is the normalized title length both titles must
	// exceed before the word-overlap comparison is attempted.
	MinSimilarTitleLen = 10

	// SimilarityThreshold is the word-overlap score above which two long
	// titles are considered the same work.
	SimilarityThreshold = 0.9
)

// NormalizeTitle lowercases title, drops every character other than ASCII
// letters, digits and whitespace, and collapses whitespace runs to a single
// space.
func NormalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Fingerprint returns the hex MD5 digest of the normalized title, or ""
// when the title normalizes to nothing.
func Fingerprint(title string) string {
	norm := NormalizeTitle(title)
	if norm == "" {
		return ""
	}
	sum := md5.Sum([]byte(norm))
	return hex.EncodeToString(sum[:])
}

// Similarity scores the word overlap between two titles. The words of the
// shorter title (by character count; the first argument on a tie) are
// looked up in the longer title, and the hit count is divided by the
// shorter title's word count. The score is not symmetric in word content.
func Similarity(a, b string) float64 {
	a, b = NormalizeTitle(a), NormalizeTitle(b)
	if a == b {
		return 1
	}
	shorter, longer := a, b
	if len(b) < len(a) {
		shorter, longer = b, a
	}
	short := strings.Fields(shorter)
	if len(short) == 0 {
		return 0
	}
	long := make(map[string]bool)
	for _, w := range strings.Fields(longer) {
		long[w] = true
	}
	matches := 0
	for _, w := range short {
		if long[w] {
			matches++
		}
	}
	return float64(matches) / float64(len(short))
}

// AreSimilar reports whether two records describe the same work: equal DOI
// (case-insensitive), equal PMID, equal normalized title, or two long
// titles whose similarity exceeds SimilarityThreshold.
func AreSimilar(a, b types.RawRecord) bool {
	if a.DOI != "" && b.DOI != "" && strings.EqualFold(a.DOI, b.DOI) {
		return true
	}
	if a.PMID != "" && b.PMID != "" && a.PMID == b.PMID {
		return true
	}

	ta, tb := NormalizeTitle(a.Title), NormalizeTitle(b.Title)
	if ta == "" || tb == "" {
		return false
	}
	if ta == tb {
		return true
	}
	if len(ta) > MinSimilarTitleLen && len(tb) > MinSimilarTitleLen {
		return Similarity(ta, tb) > SimilarityThreshold
	}
	return false
}

// Result holds the outcome of a deduplication pass.
type Result struct {
	Unique         []types.RawRecord
	DuplicateCount int
	TotalCount     int
}

// Deduplicate makes one left-to-right pass over records, keeping each
// record that is not similar to an already kept one. Kept records retain
// their input order.
func Deduplicate(records []types.RawRecord) Result {
	res := Result{TotalCount: len(records)}
	for _, rec := range records {
		dup := false
		for _, u := range res.Unique {
			if AreSimilar(rec, u) {
				dup = true
				break
			}
		}
		if dup {
			res.DuplicateCount++
			continue
		}
		res.Unique = append(res.Unique, rec)
	}
	return res
}
