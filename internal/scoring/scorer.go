// Package scoring defines the external relevance scorer and merge
// service collaborators.
package scoring

import (
	"context"

	"github.com/AImitSK/skamp-monitoring/internal/domain"
)

// Input describes a fetched item presented to the scorer.
type Input struct {
	URL        string   `json:"url"`
	Title      string   `json:"title"`
	OutletName string   `json:"outlet_name,omitempty"`
	Keywords   []string `json:"keywords,omitempty"`
}

// Result carries the opaque relevance signals the decider acts on.
// Reach and Circulation are the outlet metrics behind the AVE estimate;
// zero means unknown.
type Result struct {
	MatchScore  int               `json:"match_score"`
	Sentiment   *domain.Sentiment `json:"sentiment,omitempty"`
	Reach       int               `json:"reach,omitempty"`
	Circulation int               `json:"circulation,omitempty"`
}

// Scorer supplies a 0-100 match score (and optionally a sentiment) for a
// fetched item. The score itself is computed externally; this module
// only acts on it deterministically.
type Scorer interface {
	Score(ctx context.Context, input Input) (Result, error)
}

// StaticScorer returns a fixed score. Used when no scoring endpoint is
// configured and in tests.
type StaticScorer struct {
	MatchScore  int
	Sentiment   *domain.Sentiment
	Reach       int
	Circulation int
}

// Score returns the configured score for every input.
func (s *StaticScorer) Score(_ context.Context, _ Input) (Result, error) {
	return Result{
		MatchScore:  s.MatchScore,
		Sentiment:   s.Sentiment,
		Reach:       s.Reach,
		Circulation: s.Circulation,
	}, nil
}
