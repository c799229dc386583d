package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/AImitSK/skamp-monitoring/internal/domain"
)

// clippingSelectColumns lists columns for SELECT queries on clippings.
const clippingSelectColumns = `id, tracker_id, candidate_id, url, canonical_url, fingerprint,
	title, excerpt, outlet_name, outlet_type, source, sentiment, reach, circulation, ave,
	published_at, created_at, updated_at`

// ClippingRepository handles database operations for clippings.
type ClippingRepository struct {
	db *sqlx.DB
}

// NewClippingRepository creates a new clipping repository.
func NewClippingRepository(db *sqlx.DB) *ClippingRepository {
	return &ClippingRepository{db: db}
}

// Create inserts a clipping.
func (r *ClippingRepository) Create(ctx context.Context, c *domain.Clipping) error {
	query := `
		INSERT INTO clippings (id, tracker_id, candidate_id, url, canonical_url, fingerprint,
			title, excerpt, outlet_name, outlet_type, source, sentiment, reach, circulation, ave,
			published_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, NOW(), NOW())
	`

	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.TrackerID, c.CandidateID, c.URL, c.CanonicalURL, c.Fingerprint,
		c.Title, c.Excerpt, c.OutletName, c.OutletType, c.Source, c.Sentiment,
		c.Reach, c.Circulation, c.AVE, c.PublishedAt)
	if err != nil {
		return fmt.Errorf("failed to insert clipping: %w", err)
	}

	return nil
}

// GetByID returns a single clipping.
func (r *ClippingRepository) GetByID(ctx context.Context, id string) (*domain.Clipping, error) {
	query := `SELECT ` + clippingSelectColumns + ` FROM clippings WHERE id = $1`

	var clipping domain.Clipping
	if err := r.db.GetContext(ctx, &clipping, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("clipping %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to select clipping: %w", err)
	}

	return &clipping, nil
}

// ExistsByFingerprint reports whether the tracker already has a clipping
// with this fingerprint.
func (r *ClippingRepository) ExistsByFingerprint(ctx context.Context, trackerID, fingerprint string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM clippings WHERE tracker_id = $1 AND fingerprint = $2)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, trackerID, fingerprint); err != nil {
		return false, fmt.Errorf("failed to check clipping fingerprint: %w", err)
	}

	return exists, nil
}

// ListByTracker returns the tracker's clippings, newest first.
func (r *ClippingRepository) ListByTracker(ctx context.Context, trackerID string, limit int) ([]*domain.Clipping, error) {
	query := `
		SELECT ` + clippingSelectColumns + ` FROM clippings
		WHERE tracker_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	var clippings []*domain.Clipping
	if err := r.db.SelectContext(ctx, &clippings, query, trackerID, limit); err != nil {
		return nil, fmt.Errorf("failed to list clippings for tracker %s: %w", trackerID, err)
	}

	if clippings == nil {
		clippings = []*domain.Clipping{}
	}

	return clippings, nil
}

// CorrectMetrics applies an audited sentiment/reach correction and the
// recomputed AVE. The only mutation clippings allow after creation.
func (r *ClippingRepository) CorrectMetrics(
	ctx context.Context,
	id string,
	sentiment *domain.Sentiment,
	reach, aveValue *int,
) error {
	query := `
		UPDATE clippings
		SET sentiment = $2, reach = $3, ave = $4, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, sentiment, reach, aveValue)
	return execRequireRows(result, err, fmt.Errorf("clipping %s: %w", id, ErrNotFound))
}
