// Package domain provides domain models used across the application.
package domain

import "time"

// Default tracker settings.
const (
	// DefaultMonitoringPeriodDays is the monitoring window applied when a
	// campaign does not specify one.
	DefaultMonitoringPeriodDays = 30

	// DefaultPollIntervalMinutes is the minimum gap between two runs of the
	// same tracker.
	DefaultPollIntervalMinutes = 60
)

// Tracker monitors one campaign for press coverage over a bounded period.
type Tracker struct {
	ID         string `db:"id"          json:"id"`
	OrgID      string `db:"org_id"      json:"org_id"`
	CampaignID string `db:"campaign_id" json:"campaign_id"`

	IsActive  bool      `db:"is_active"  json:"is_active"`
	StartDate time.Time `db:"start_date" json:"start_date"`
	EndDate   time.Time `db:"end_date"   json:"end_date"`

	// Scheduling
	PollIntervalMinutes int        `db:"poll_interval_minutes" json:"poll_interval_minutes"`
	LastRunAt           *time.Time `db:"last_run_at"           json:"last_run_at,omitempty"`
	NextRunAt           *time.Time `db:"next_run_at"           json:"next_run_at,omitempty"`

	// Aggregate counters
	TotalFound         int `db:"total_found"          json:"total_found"`
	TotalAutoImported  int `db:"total_auto_imported"  json:"total_auto_imported"`
	TotalManuallyAdded int `db:"total_manually_added" json:"total_manually_added"`
	TotalSpamMarked    int `db:"total_spam_marked"    json:"total_spam_marked"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Expired reports whether the tracker's monitoring window has passed.
func (t *Tracker) Expired(now time.Time) bool {
	return now.After(t.EndDate)
}

// Due reports whether the tracker should be picked up by the next
// orchestration pass. Never-run trackers are always due.
func (t *Tracker) Due(now time.Time) bool {
	if !t.IsActive {
		return false
	}

	if t.LastRunAt == nil {
		return true
	}

	interval := time.Duration(t.PollIntervalMinutes) * time.Minute
	return !t.LastRunAt.Add(interval).After(now)
}
