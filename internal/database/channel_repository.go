package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/AImitSK/skamp-monitoring/internal/domain"
)

// channelSelectColumns lists columns for SELECT queries on channels.
const channelSelectColumns = `id, tracker_id, type, url, publication_name, is_active,
	error_count, was_found, articles_found, last_success_at, last_error,
	last_etag, last_modified, created_at, updated_at`

// ChannelRepository handles database operations for tracker channels.
type ChannelRepository struct {
	db *sqlx.DB
}

// NewChannelRepository creates a new channel repository.
func NewChannelRepository(db *sqlx.DB) *ChannelRepository {
	return &ChannelRepository{db: db}
}

// UpsertForTracker inserts the built channels for a tracker. Channel ids
// are deterministic, so a rebuild hits the conflict path and leaves
// existing rows (and their health counters) untouched.
func (r *ChannelRepository) UpsertForTracker(
	ctx context.Context,
	trackerID string,
	channels []domain.Channel,
) error {
	query := `
		INSERT INTO channels (id, tracker_id, type, url, publication_name, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		ON CONFLICT (id) DO NOTHING
	`

	for i := range channels {
		ch := &channels[i]

		_, err := r.db.ExecContext(ctx, query,
			ch.ID, trackerID, ch.Type, ch.URL, ch.PublicationName, ch.IsActive)
		if err != nil {
			return fmt.Errorf("failed to upsert channel %s: %w", ch.ID, err)
		}
	}

	return nil
}

// ListByTracker returns all channels of a tracker.
func (r *ChannelRepository) ListByTracker(ctx context.Context, trackerID string) ([]*domain.Channel, error) {
	query := `SELECT ` + channelSelectColumns + ` FROM channels WHERE tracker_id = $1 ORDER BY created_at ASC`

	var channels []*domain.Channel
	if err := r.db.SelectContext(ctx, &channels, query, trackerID); err != nil {
		return nil, fmt.Errorf("failed to list channels for tracker %s: %w", trackerID, err)
	}

	if channels == nil {
		channels = []*domain.Channel{}
	}

	return channels, nil
}

// UpdateSuccess records a successful poll: resets error_count, stores the
// caching headers, and adds the poll's item count to the hit counters.
func (r *ChannelRepository) UpdateSuccess(
	ctx context.Context,
	channelID string,
	etag, lastModified *string,
	itemsFound int,
) error {
	query := `
		UPDATE channels
		SET error_count = 0, last_error = NULL, last_success_at = NOW(),
			was_found = was_found OR $4 > 0,
			articles_found = articles_found + $4,
			last_etag = $2, last_modified = $3, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, channelID, etag, lastModified, itemsFound)
	return execRequireRows(result, err, fmt.Errorf("channel %s: %w", channelID, ErrNotFound))
}

// SetActive flips the tenant's channel switch. Inactive channels keep
// their history and reappear in the next pass once re-enabled.
func (r *ChannelRepository) SetActive(ctx context.Context, channelID string, active bool) error {
	query := `UPDATE channels SET is_active = $2, updated_at = NOW() WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, channelID, active)
	return execRequireRows(result, err, fmt.Errorf("channel %s: %w", channelID, ErrNotFound))
}

// UpdateError records a poll failure, incrementing error_count. The
// channel stays active regardless of the count; health is report-only.
func (r *ChannelRepository) UpdateError(ctx context.Context, channelID, errMsg string) error {
	query := `
		UPDATE channels
		SET error_count = error_count + 1, last_error = $2, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, channelID, errMsg)
	return execRequireRows(result, err, fmt.Errorf("channel %s: %w", channelID, ErrNotFound))
}
