package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/AImitSK/skamp-monitoring/internal/domain"
)

// CompanyRepository reads the company and campaign records that feed the
// keyword extractor.
type CompanyRepository struct {
	db *sqlx.DB
}

// NewCompanyRepository creates a new company repository.
func NewCompanyRepository(db *sqlx.DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

// GetCompany returns a single company.
func (r *CompanyRepository) GetCompany(ctx context.Context, id string) (*domain.Company, error) {
	query := `
		SELECT id, org_id, name, official_name, trading_name, created_at, updated_at
		FROM companies WHERE id = $1
	`

	var company domain.Company
	if err := r.db.GetContext(ctx, &company, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("company %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to select company: %w", err)
	}

	return &company, nil
}

// GetCampaign returns a single campaign.
func (r *CompanyRepository) GetCampaign(ctx context.Context, id string) (*domain.Campaign, error) {
	query := `
		SELECT id, org_id, company_id, title, monitoring_period_days, created_at, updated_at
		FROM campaigns WHERE id = $1
	`

	var campaign domain.Campaign
	if err := r.db.GetContext(ctx, &campaign, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("campaign %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to select campaign: %w", err)
	}

	return &campaign, nil
}
