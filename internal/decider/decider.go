// Package decider scores fetched items and decides their disposition:
// duplicate rejection, auto-import, or human review.
package decider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/AImitSK/skamp-monitoring/internal/ave"
	"github.com/AImitSK/skamp-monitoring/internal/canonical"
	"github.com/AImitSK/skamp-monitoring/internal/domain"
	"github.com/AImitSK/skamp-monitoring/internal/feed"
	"github.com/AImitSK/skamp-monitoring/internal/logger"
	"github.com/AImitSK/skamp-monitoring/internal/match"
	"github.com/AImitSK/skamp-monitoring/internal/scoring"
)

// ErrValidation marks a malformed candidate. The item is dropped and
// logged; the channel keeps processing.
var ErrValidation = errors.New("invalid candidate")

// DefaultLookback bounds the similarity comparison window per tracker.
const DefaultLookback = 200

// CandidateStore is the persistence surface the decider needs for
// candidates.
type CandidateStore interface {
	Create(ctx context.Context, c *domain.Candidate) error
	ExistsAccepted(ctx context.Context, trackerID, fingerprint string) (bool, error)
	RecentCanonicalURLs(ctx context.Context, trackerID string, limit int) ([]string, error)
}

// ClippingStore is the persistence surface the decider needs for
// clippings.
type ClippingStore interface {
	Create(ctx context.Context, c *domain.Clipping) error
	ExistsByFingerprint(ctx context.Context, trackerID, fingerprint string) (bool, error)
}

// RecentCache is the fast lookback path. Optional; errors degrade to the
// candidate store.
type RecentCache interface {
	RecentURLs(ctx context.Context, trackerID string) ([]string, error)
	Remember(ctx context.Context, trackerID, canonicalURL string) error
}

// Input is one fetched item in its tracker context.
type Input struct {
	Tracker  *domain.Tracker
	Channel  *domain.Channel
	Item     feed.Item
	Keywords []string
}

// Decider applies the dedup and threshold rules to fetched items.
type Decider struct {
	candidates CandidateStore
	clippings  ClippingStore
	cache      RecentCache
	scorer     scoring.Scorer
	merger     scoring.Merger
	log        logger.Interface
	lookback   int
}

// New creates a decider. cache and merger may be nil; the cache then
// always falls back to the candidate store and AI merge is skipped even
// for tenants that enable it.
func New(
	candidates CandidateStore,
	clippings ClippingStore,
	cache RecentCache,
	scorer scoring.Scorer,
	merger scoring.Merger,
	log logger.Interface,
) *Decider {
	return &Decider{
		candidates: candidates,
		clippings:  clippings,
		cache:      cache,
		scorer:     scorer,
		merger:     merger,
		log:        log,
		lookback:   DefaultLookback,
	}
}

// Decide runs the full decision for one item: dedup by fingerprint, then
// by similarity over the recent lookback window, then the tenant
// threshold. It persists the candidate with its disposition and, for
// auto-imports, the clipping. The returned clipping is nil unless the
// item was auto-imported.
func (d *Decider) Decide(
	ctx context.Context,
	in Input,
	settings *domain.TenantSettings,
) (*domain.Candidate, *domain.Clipping, error) {
	if in.Item.RawURL == "" || in.Item.Title == "" {
		return nil, nil, fmt.Errorf("%w: url=%q title=%q", ErrValidation, in.Item.RawURL, in.Item.Title)
	}

	canonicalURL := canonical.Canonicalize(in.Item.RawURL)
	fingerprint := canonical.Fingerprint(in.Item.RawURL)

	duplicate, err := d.isDuplicate(ctx, in.Tracker.ID, canonicalURL, fingerprint, settings)
	if err != nil {
		return nil, nil, err
	}

	if duplicate {
		cand := d.newCandidate(in, canonicalURL, fingerprint)
		cand.Disposition = domain.DispositionRejectedDuplicate

		if createErr := d.candidates.Create(ctx, cand); createErr != nil {
			return nil, nil, fmt.Errorf("decide create duplicate candidate: %w", createErr)
		}

		return cand, nil, nil
	}

	result, scoreErr := d.scorer.Score(ctx, scoring.Input{
		URL:        in.Item.RawURL,
		Title:      in.Item.Title,
		OutletName: in.Item.OutletName,
		Keywords:   in.Keywords,
	})
	if scoreErr != nil {
		return nil, nil, fmt.Errorf("decide score: %w", scoreErr)
	}

	cand := d.newCandidate(in, canonicalURL, fingerprint)
	cand.MatchScore = result.MatchScore
	cand.Sentiment = result.Sentiment

	var clipping *domain.Clipping

	// A score exactly equal to minScore passes.
	if result.MatchScore >= settings.MinScore {
		cand.Disposition = domain.DispositionAutoImported
		clipping = d.buildClipping(ctx, cand, result, settings)
	} else {
		cand.Disposition = domain.DispositionPendingReview
	}

	if createErr := d.candidates.Create(ctx, cand); createErr != nil {
		return nil, nil, fmt.Errorf("decide create candidate: %w", createErr)
	}

	if clipping != nil {
		if createErr := d.clippings.Create(ctx, clipping); createErr != nil {
			return nil, nil, fmt.Errorf("decide create clipping: %w", createErr)
		}
	}

	d.remember(ctx, in.Tracker.ID, canonicalURL)

	return cand, clipping, nil
}

// isDuplicate checks the fingerprint indexes, then similarity against
// the recent lookback window. Dedup is always scoped to one tracker.
func (d *Decider) isDuplicate(
	ctx context.Context,
	trackerID, canonicalURL, fingerprint string,
	settings *domain.TenantSettings,
) (bool, error) {
	exists, err := d.candidates.ExistsAccepted(ctx, trackerID, fingerprint)
	if err != nil {
		return false, fmt.Errorf("decide fingerprint lookup: %w", err)
	}
	if exists {
		return true, nil
	}

	clipped, err := d.clippings.ExistsByFingerprint(ctx, trackerID, fingerprint)
	if err != nil {
		return false, fmt.Errorf("decide clipping lookup: %w", err)
	}
	if clipped {
		return true, nil
	}

	recent, err := d.recentURLs(ctx, trackerID)
	if err != nil {
		return false, err
	}

	for _, seen := range recent {
		if match.AreSimilar(canonicalURL, seen, settings.SimilarityThreshold) {
			return true, nil
		}
	}

	return false, nil
}

// recentURLs reads the lookback window, preferring the cache and
// degrading to the candidate store on any cache failure.
func (d *Decider) recentURLs(ctx context.Context, trackerID string) ([]string, error) {
	if d.cache != nil {
		urls, err := d.cache.RecentURLs(ctx, trackerID)
		if err == nil {
			return urls, nil
		}

		d.log.Warn("recent-url cache unavailable, falling back to store",
			"tracker_id", trackerID,
			"error", err.Error(),
		)
	}

	urls, err := d.candidates.RecentCanonicalURLs(ctx, trackerID, d.lookback)
	if err != nil {
		return nil, fmt.Errorf("decide recent urls: %w", err)
	}

	return urls, nil
}

// buildClipping assembles the clipping for an auto-imported candidate.
// When the tenant enables AI merge, the external service reconciles the
// title first; merge failures keep the original metadata. Reach and
// circulation from the scorer drive the AVE estimate; without either the
// clipping stores no value.
func (d *Decider) buildClipping(
	ctx context.Context,
	cand *domain.Candidate,
	result scoring.Result,
	settings *domain.TenantSettings,
) *domain.Clipping {
	clipping := ClippingFromCandidate(cand, domain.ClippingSourceAuto)

	if settings.UseAIMerge && d.merger != nil {
		merged, err := d.merger.Merge(ctx, scoring.MergeInput{
			URL:   cand.RawURL,
			Title: cand.Title,
		})
		if err != nil {
			d.log.Warn("ai merge failed, keeping original metadata",
				"candidate_id", cand.ID,
				"error", err.Error(),
			)
		} else {
			if merged.Title != "" {
				clipping.Title = merged.Title
			}
			if merged.Excerpt != "" {
				clipping.Excerpt = &merged.Excerpt
			}
		}
	}

	attachValue(clipping, result.Reach, result.Circulation)

	return clipping
}

// ClippingFromCandidate builds the base clipping record for a candidate
// that passed review, automatically or by human confirm. No monetary
// value is attached; that needs a known reach or circulation.
func ClippingFromCandidate(cand *domain.Candidate, source domain.ClippingSource) *domain.Clipping {
	return &domain.Clipping{
		ID:           uuid.NewString(),
		TrackerID:    cand.TrackerID,
		CandidateID:  cand.ID,
		URL:          cand.RawURL,
		CanonicalURL: cand.CanonicalURL,
		Fingerprint:  cand.Fingerprint,
		Title:        cand.Title,
		OutletName:   cand.OutletName,
		OutletType:   domain.OutletTypeOnline,
		Source:       source,
		Sentiment:    cand.Sentiment,
		PublishedAt:  cand.PublishedAt,
	}
}

// attachValue stores reach, circulation, and the AVE estimate on the
// clipping. Unknown reach and circulation leave all three NULL; a
// fabricated zero is never stored.
func attachValue(clipping *domain.Clipping, reach, circulation int) {
	effective, known := ave.ReachOrCirculation(reach, circulation)
	if !known {
		return
	}

	clipping.Reach = &effective
	if circulation > 0 {
		clipping.Circulation = &circulation
	}

	sentiment := domain.SentimentNeutral
	if clipping.Sentiment != nil {
		sentiment = *clipping.Sentiment
	}

	if value, ok := ave.Calculate(effective, sentiment, clipping.OutletType); ok {
		clipping.AVE = &value
	}
}

// remember records the canonical URL in the fast lookback cache.
// Failures only cost the fast path.
func (d *Decider) remember(ctx context.Context, trackerID, canonicalURL string) {
	if d.cache == nil {
		return
	}

	if err := d.cache.Remember(ctx, trackerID, canonicalURL); err != nil {
		d.log.Warn("failed to cache recent url",
			"tracker_id", trackerID,
			"error", err.Error(),
		)
	}
}

func (d *Decider) newCandidate(in Input, canonicalURL, fingerprint string) *domain.Candidate {
	var outlet *string
	if in.Item.OutletName != "" {
		outlet = &in.Item.OutletName
	}

	return &domain.Candidate{
		ID:           uuid.NewString(),
		TrackerID:    in.Tracker.ID,
		ChannelID:    in.Channel.ID,
		RawURL:       in.Item.RawURL,
		CanonicalURL: canonicalURL,
		Fingerprint:  fingerprint,
		Title:        in.Item.Title,
		OutletName:   outlet,
		PublishedAt:  in.Item.PublishedAt,
		DiscoveredAt: time.Now().UTC(),
	}
}
