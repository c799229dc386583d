package domain

import "time"

// CrawlState is the global orchestrator state.
type CrawlState string

const (
	CrawlStateRunning CrawlState = "running"
	CrawlStatePaused  CrawlState = "paused"
)

// CrawlRunState is the single persisted row controlling the orchestrator.
type CrawlRunState struct {
	ID          int        `db:"id"           json:"id"`
	State       CrawlState `db:"state"        json:"state"`
	PauseReason *string    `db:"pause_reason" json:"pause_reason,omitempty"`
	PausedAt    *time.Time `db:"paused_at"    json:"paused_at,omitempty"`
	LastPassAt  *time.Time `db:"last_pass_at" json:"last_pass_at,omitempty"`
	UpdatedAt   time.Time  `db:"updated_at"   json:"updated_at"`
}

// Paused reports whether the orchestrator is globally paused.
func (s *CrawlRunState) Paused() bool {
	return s.State == CrawlStatePaused
}
