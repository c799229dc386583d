package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/AImitSK/skamp-monitoring/internal/domain"
)

// SettingsRepository reads per-organization monitoring settings.
type SettingsRepository struct {
	db *sqlx.DB
}

// NewSettingsRepository creates a new settings repository.
func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// GetByOrg returns the tenant settings for an organization, falling back
// to defaults when no row exists. Curated feed URLs are loaded alongside.
func (r *SettingsRepository) GetByOrg(ctx context.Context, orgID string) (*domain.TenantSettings, error) {
	query := `
		SELECT org_id, auto_import_enabled, min_score, similarity_threshold,
			use_ai_merge, language, country
		FROM tenant_settings WHERE org_id = $1
	`

	settings := domain.DefaultTenantSettings(orgID)

	if err := r.db.GetContext(ctx, &settings, query, orgID); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("failed to select tenant settings: %w", err)
		}
	}

	feeds, err := r.curatedFeeds(ctx, orgID)
	if err != nil {
		return nil, err
	}
	settings.CuratedFeeds = feeds

	return &settings, nil
}

// curatedFeeds returns the tenant's explicitly configured feed URLs.
func (r *SettingsRepository) curatedFeeds(ctx context.Context, orgID string) ([]string, error) {
	query := `SELECT feed_url FROM curated_feeds WHERE org_id = $1 ORDER BY created_at ASC`

	var feeds []string
	if err := r.db.SelectContext(ctx, &feeds, query, orgID); err != nil {
		return nil, fmt.Errorf("failed to list curated feeds: %w", err)
	}

	return feeds, nil
}
