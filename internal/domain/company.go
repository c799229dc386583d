package domain

import "time"

// Company is the subject of a monitoring campaign. Name fields feed the
// keyword extractor.
type Company struct {
	ID           string  `db:"id"            json:"id"`
	OrgID        string  `db:"org_id"        json:"org_id"`
	Name         string  `db:"name"          json:"name"`
	OfficialName *string `db:"official_name" json:"official_name,omitempty"`
	TradingName  *string `db:"trading_name"  json:"trading_name,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Campaign ties a company to a monitoring window.
type Campaign struct {
	ID        string `db:"id"         json:"id"`
	OrgID     string `db:"org_id"     json:"org_id"`
	CompanyID string `db:"company_id" json:"company_id"`
	Title     string `db:"title"      json:"title"`

	// MonitoringPeriodDays bounds the tracker window. Zero means default.
	MonitoringPeriodDays int `db:"monitoring_period_days" json:"monitoring_period_days"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
