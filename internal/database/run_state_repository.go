package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/AImitSK/skamp-monitoring/internal/domain"
)

// runStateRowID is the id of the single crawl_run_state row.
const runStateRowID = 1

// RunStateRepository persists the global orchestrator pause state.
type RunStateRepository struct {
	db *sqlx.DB
}

// NewRunStateRepository creates a new run state repository.
func NewRunStateRepository(db *sqlx.DB) *RunStateRepository {
	return &RunStateRepository{db: db}
}

// Get returns the run state row, creating a running default if none
// exists. Uses INSERT ... ON CONFLICT DO NOTHING then SELECT.
func (r *RunStateRepository) Get(ctx context.Context) (*domain.CrawlRunState, error) {
	insertQuery := `
		INSERT INTO crawl_run_state (id, state, updated_at)
		VALUES ($1, 'running', NOW())
		ON CONFLICT (id) DO NOTHING
	`

	if _, err := r.db.ExecContext(ctx, insertQuery, runStateRowID); err != nil {
		return nil, fmt.Errorf("failed to insert run state: %w", err)
	}

	selectQuery := `
		SELECT id, state, pause_reason, paused_at, last_pass_at, updated_at
		FROM crawl_run_state WHERE id = $1
	`

	var state domain.CrawlRunState
	if err := r.db.GetContext(ctx, &state, selectQuery, runStateRowID); err != nil {
		return nil, fmt.Errorf("failed to select run state: %w", err)
	}

	return &state, nil
}

// Pause moves the orchestrator into the paused state with a reason.
func (r *RunStateRepository) Pause(ctx context.Context, reason string) error {
	query := `
		UPDATE crawl_run_state
		SET state = 'paused', pause_reason = $2, paused_at = NOW(), updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, runStateRowID, reason)
	return execRequireRows(result, err, fmt.Errorf("run state: %w", ErrNotFound))
}

// Resume moves the orchestrator back into the running state.
func (r *RunStateRepository) Resume(ctx context.Context) error {
	query := `
		UPDATE crawl_run_state
		SET state = 'running', pause_reason = NULL, paused_at = NULL, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, runStateRowID)
	return execRequireRows(result, err, fmt.Errorf("run state: %w", ErrNotFound))
}

// MarkPass records when the last orchestration pass completed.
func (r *RunStateRepository) MarkPass(ctx context.Context, at time.Time) error {
	query := `UPDATE crawl_run_state SET last_pass_at = $2, updated_at = NOW() WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, runStateRowID, at)
	return execRequireRows(result, err, fmt.Errorf("run state: %w", ErrNotFound))
}
