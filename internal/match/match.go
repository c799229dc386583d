// Package match computes URL similarity for near-duplicate detection.
package match

import (
	"math"
	"unicode/utf8"

	"github.com/agext/levenshtein"
)

// DefaultThreshold is the similarity score at or above which two URLs are
// treated as the same story.
const DefaultThreshold = 90

const maxScore = 100

// Similarity returns a 0-100 score from the normalized edit distance
// between a and b. Two empty strings score 100. The comparison is
// symmetric.
func Similarity(a, b string) int {
	if a == b {
		return maxScore
	}

	lenA := utf8.RuneCountInString(a)
	lenB := utf8.RuneCountInString(b)

	longer := lenA
	if lenB > longer {
		longer = lenB
	}

	if longer == 0 {
		return maxScore
	}

	distance := levenshtein.Distance(a, b, nil)
	return int(math.Round(float64(longer-distance) / float64(longer) * maxScore))
}

// AreSimilar reports whether two URLs score at or above threshold.
// A non-positive threshold falls back to DefaultThreshold. Exact equality
// short-circuits before computing the distance.
func AreSimilar(a, b string, threshold int) bool {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	if a == b {
		return true
	}

	return Similarity(a, b) >= threshold
}
