package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/AImitSK/skamp-monitoring/internal/domain"
)

// candidateSelectColumns lists columns for SELECT queries on candidates.
const candidateSelectColumns = `id, tracker_id, channel_id, raw_url, canonical_url, fingerprint,
	title, outlet_name, published_at, match_score, sentiment, disposition,
	discovered_at, created_at, updated_at`

// CandidateRepository handles database operations for candidates.
type CandidateRepository struct {
	db *sqlx.DB
}

// NewCandidateRepository creates a new candidate repository.
func NewCandidateRepository(db *sqlx.DB) *CandidateRepository {
	return &CandidateRepository{db: db}
}

// Create inserts a candidate with its decided disposition.
func (r *CandidateRepository) Create(ctx context.Context, c *domain.Candidate) error {
	query := `
		INSERT INTO candidates (id, tracker_id, channel_id, raw_url, canonical_url, fingerprint,
			title, outlet_name, published_at, match_score, sentiment, disposition,
			discovered_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW())
	`

	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.TrackerID, c.ChannelID, c.RawURL, c.CanonicalURL, c.Fingerprint,
		c.Title, c.OutletName, c.PublishedAt, c.MatchScore, c.Sentiment, c.Disposition,
		c.DiscoveredAt)
	if err != nil {
		return fmt.Errorf("failed to insert candidate: %w", err)
	}

	return nil
}

// GetByID returns a single candidate.
func (r *CandidateRepository) GetByID(ctx context.Context, id string) (*domain.Candidate, error) {
	query := `SELECT ` + candidateSelectColumns + ` FROM candidates WHERE id = $1`

	var candidate domain.Candidate
	if err := r.db.GetContext(ctx, &candidate, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("candidate %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to select candidate: %w", err)
	}

	return &candidate, nil
}

// ExistsAccepted reports whether the tracker already has a non-duplicate
// candidate with this fingerprint. Rejected duplicates do not count, so
// re-seeing the same duplicate URL stays idempotent.
func (r *CandidateRepository) ExistsAccepted(ctx context.Context, trackerID, fingerprint string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM candidates
			WHERE tracker_id = $1 AND fingerprint = $2
			  AND disposition <> 'rejected_duplicate'
			  AND disposition <> 'rejected_low_score'
		)
	`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, trackerID, fingerprint); err != nil {
		return false, fmt.Errorf("failed to check candidate fingerprint: %w", err)
	}

	return exists, nil
}

// RecentCanonicalURLs returns the canonical URLs of the tracker's most
// recent candidates, newest first, bounded by limit. Used as the
// similarity lookback window.
func (r *CandidateRepository) RecentCanonicalURLs(ctx context.Context, trackerID string, limit int) ([]string, error) {
	query := `
		SELECT canonical_url FROM candidates
		WHERE tracker_id = $1 AND disposition <> 'rejected_duplicate'
		ORDER BY discovered_at DESC
		LIMIT $2
	`

	var urls []string
	if err := r.db.SelectContext(ctx, &urls, query, trackerID, limit); err != nil {
		return nil, fmt.Errorf("failed to list recent candidate urls: %w", err)
	}

	if urls == nil {
		urls = []string{}
	}

	return urls, nil
}

// SetDisposition moves a pending-review candidate into a terminal human
// decision. Only pending_review rows may transition; anything else
// returns ErrNotFound.
func (r *CandidateRepository) SetDisposition(
	ctx context.Context,
	id string,
	disposition domain.Disposition,
) error {
	query := `
		UPDATE candidates
		SET disposition = $2, updated_at = NOW()
		WHERE id = $1 AND disposition = 'pending_review'
	`

	result, err := r.db.ExecContext(ctx, query, id, disposition)
	return execRequireRows(result, err,
		fmt.Errorf("pending candidate %s: %w", id, ErrNotFound))
}

// ListPendingReview returns candidates awaiting a human decision.
func (r *CandidateRepository) ListPendingReview(ctx context.Context, trackerID string, limit int) ([]*domain.Candidate, error) {
	query := `
		SELECT ` + candidateSelectColumns + ` FROM candidates
		WHERE tracker_id = $1 AND disposition = 'pending_review'
		ORDER BY discovered_at DESC
		LIMIT $2
	`

	var candidates []*domain.Candidate
	if err := r.db.SelectContext(ctx, &candidates, query, trackerID, limit); err != nil {
		return nil, fmt.Errorf("failed to list pending candidates: %w", err)
	}

	if candidates == nil {
		candidates = []*domain.Candidate{}
	}

	return candidates, nil
}
