package match_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AImitSK/skamp-monitoring/internal/match"
)

func TestSimilarity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a    string
		b    string
		want int
	}{
		{"identical strings", "example.com/a", "example.com/a", 100},
		{"both empty", "", "", 100},
		{"completely different", "aaaa", "bbbb", 0},
		{"one empty", "abcd", "", 0},
		{"single edit", "example.com/ab", "example.com/ac", 93},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, match.Similarity(tt.a, tt.b))
		})
	}
}

func TestSimilaritySymmetry(t *testing.T) {
	t.Parallel()

	pairs := [][2]string{
		{"example.com/a", "example.com/b"},
		{"news.example.com/story-1", "news.example.com/story-2"},
		{"", "x"},
		{"kurz", "ein deutlich laengerer string"},
	}

	for _, p := range pairs {
		assert.Equal(t, match.Similarity(p[0], p[1]), match.Similarity(p[1], p[0]),
			"similarity must be symmetric for %q / %q", p[0], p[1])
	}
}

func TestAreSimilar(t *testing.T) {
	t.Parallel()

	// A tracking parameter that survived canonicalization still matches.
	a := "example.com/artikel/wirtschaft-2026"
	b := "example.com/artikel/wirtschaft-2026/amp"

	assert.True(t, match.AreSimilar(a, b, match.DefaultThreshold))
	assert.True(t, match.AreSimilar(a, a, 100), "exact equality short-circuits at any threshold")
	assert.False(t, match.AreSimilar("aaaa", "bbbb", match.DefaultThreshold))

	// Non-positive threshold falls back to the default.
	assert.True(t, match.AreSimilar(a, b, 0))
}
