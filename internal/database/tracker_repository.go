package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/AImitSK/skamp-monitoring/internal/domain"
)

// trackerSelectColumns lists columns for SELECT queries on trackers.
const trackerSelectColumns = `id, org_id, campaign_id, is_active, start_date, end_date,
	poll_interval_minutes, last_run_at, next_run_at,
	total_found, total_auto_imported, total_manually_added, total_spam_marked,
	created_at, updated_at`

// TrackerRepository handles database operations for trackers.
type TrackerRepository struct {
	db *sqlx.DB
}

// NewTrackerRepository creates a new tracker repository.
func NewTrackerRepository(db *sqlx.DB) *TrackerRepository {
	return &TrackerRepository{db: db}
}

// Create inserts a tracker.
func (r *TrackerRepository) Create(ctx context.Context, t *domain.Tracker) error {
	query := `
		INSERT INTO trackers (id, org_id, campaign_id, is_active, start_date, end_date,
			poll_interval_minutes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
	`

	_, err := r.db.ExecContext(ctx, query,
		t.ID, t.OrgID, t.CampaignID, t.IsActive, t.StartDate, t.EndDate, t.PollIntervalMinutes)
	if err != nil {
		return fmt.Errorf("failed to insert tracker: %w", err)
	}

	return nil
}

// GetByID returns a single tracker.
func (r *TrackerRepository) GetByID(ctx context.Context, id string) (*domain.Tracker, error) {
	query := `SELECT ` + trackerSelectColumns + ` FROM trackers WHERE id = $1`

	var tracker domain.Tracker
	if err := r.db.GetContext(ctx, &tracker, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("tracker %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to select tracker: %w", err)
	}

	return &tracker, nil
}

// GetByCampaign returns the tracker for a campaign, if one exists.
func (r *TrackerRepository) GetByCampaign(ctx context.Context, campaignID string) (*domain.Tracker, error) {
	query := `SELECT ` + trackerSelectColumns + ` FROM trackers WHERE campaign_id = $1`

	var tracker domain.Tracker
	if err := r.db.GetContext(ctx, &tracker, query, campaignID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("tracker for campaign %s: %w", campaignID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to select tracker by campaign: %w", err)
	}

	return &tracker, nil
}

// ListDue returns active trackers due for a run: never run, or
// last_run_at plus the tracker's poll interval has passed.
func (r *TrackerRepository) ListDue(ctx context.Context) ([]*domain.Tracker, error) {
	query := `
		SELECT ` + trackerSelectColumns + `
		FROM trackers
		WHERE is_active
		  AND (last_run_at IS NULL
		   OR last_run_at + (poll_interval_minutes * INTERVAL '1 minute') <= NOW())
		ORDER BY last_run_at ASC NULLS FIRST
	`

	var trackers []*domain.Tracker
	if err := r.db.SelectContext(ctx, &trackers, query); err != nil {
		return nil, fmt.Errorf("failed to list due trackers: %w", err)
	}

	if trackers == nil {
		trackers = []*domain.Tracker{}
	}

	return trackers, nil
}

// ListActiveByOrg returns all active trackers of one organization.
func (r *TrackerRepository) ListActiveByOrg(ctx context.Context, orgID string) ([]*domain.Tracker, error) {
	query := `
		SELECT ` + trackerSelectColumns + `
		FROM trackers
		WHERE is_active AND org_id = $1
		ORDER BY created_at ASC
	`

	var trackers []*domain.Tracker
	if err := r.db.SelectContext(ctx, &trackers, query, orgID); err != nil {
		return nil, fmt.Errorf("failed to list trackers for org %s: %w", orgID, err)
	}

	if trackers == nil {
		trackers = []*domain.Tracker{}
	}

	return trackers, nil
}

// List returns all trackers, newest first.
func (r *TrackerRepository) List(ctx context.Context, limit int) ([]*domain.Tracker, error) {
	query := `SELECT ` + trackerSelectColumns + ` FROM trackers ORDER BY created_at DESC LIMIT $1`

	var trackers []*domain.Tracker
	if err := r.db.SelectContext(ctx, &trackers, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list trackers: %w", err)
	}

	if trackers == nil {
		trackers = []*domain.Tracker{}
	}

	return trackers, nil
}

// DeactivateExpired flips is_active off for trackers whose end date has
// passed. Trackers are never hard-deleted. Returns the number affected.
func (r *TrackerRepository) DeactivateExpired(ctx context.Context) (int64, error) {
	query := `
		UPDATE trackers
		SET is_active = FALSE, updated_at = NOW()
		WHERE is_active AND end_date < NOW()
	`

	result, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate expired trackers: %w", err)
	}

	affected, affErr := result.RowsAffected()
	if affErr != nil {
		return 0, fmt.Errorf("failed to count deactivated trackers: %w", affErr)
	}

	return affected, nil
}

// CompleteRun applies a finished run in one UPDATE: counter increments
// plus last_run_at/next_run_at. Called once per tracker per pass, only
// after all channels completed, so concurrent channel results never race
// on the counters.
func (r *TrackerRepository) CompleteRun(
	ctx context.Context,
	trackerID string,
	found, autoImported int,
	lastRun, nextRun time.Time,
) error {
	query := `
		UPDATE trackers
		SET total_found = total_found + $2,
			total_auto_imported = total_auto_imported + $3,
			last_run_at = $4, next_run_at = $5, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, trackerID, found, autoImported, lastRun, nextRun)
	return execRequireRows(result, err, fmt.Errorf("tracker %s: %w", trackerID, ErrNotFound))
}

// IncrementManuallyAdded bumps the manual counter after a human confirm
// turned a pending candidate into a clipping.
func (r *TrackerRepository) IncrementManuallyAdded(ctx context.Context, trackerID string) error {
	query := `
		UPDATE trackers
		SET total_manually_added = total_manually_added + 1, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, trackerID)
	return execRequireRows(result, err, fmt.Errorf("tracker %s: %w", trackerID, ErrNotFound))
}

// IncrementSpamMarked bumps the spam counter after an explicit human
// spam mark.
func (r *TrackerRepository) IncrementSpamMarked(ctx context.Context, trackerID string) error {
	query := `
		UPDATE trackers
		SET total_spam_marked = total_spam_marked + 1, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, trackerID)
	return execRequireRows(result, err, fmt.Errorf("tracker %s: %w", trackerID, ErrNotFound))
}
