package domain

import "time"

// ChannelType identifies how a channel sources its items.
type ChannelType string

const (
	// ChannelTypeKeywordQuery is a search query against an external news index.
	ChannelTypeKeywordQuery ChannelType = "keyword_query"

	// ChannelTypeCuratedFeed is an explicitly configured RSS/Atom feed.
	ChannelTypeCuratedFeed ChannelType = "curated_feed"
)

// DefaultUnhealthyCeiling is the consecutive-error count after which a
// channel is reported unhealthy. Unhealthy channels keep being polled.
const DefaultUnhealthyCeiling = 5

// Channel is a single source a tracker polls for coverage.
type Channel struct {
	ID        string      `db:"id"         json:"id"`
	TrackerID string      `db:"tracker_id" json:"tracker_id"`
	Type      ChannelType `db:"type"       json:"type"`
	URL       string      `db:"url"        json:"url"`

	// PublicationName is set for curated feeds tied to a known outlet.
	PublicationName *string `db:"publication_name" json:"publication_name,omitempty"`

	// IsActive is a tenant switch. Inactive channels are skipped by
	// passes but stay listed in health reports.
	IsActive bool `db:"is_active" json:"is_active"`

	// Health
	ErrorCount    int        `db:"error_count"     json:"error_count"`
	WasFound      bool       `db:"was_found"       json:"was_found"`
	ArticlesFound int        `db:"articles_found"  json:"articles_found"`
	LastSuccessAt *time.Time `db:"last_success_at" json:"last_success_at,omitempty"`
	LastError     *string    `db:"last_error"      json:"last_error,omitempty"`

	// Conditional GET state
	LastETag     *string `db:"last_etag"     json:"last_etag,omitempty"`
	LastModified *string `db:"last_modified" json:"last_modified,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Healthy reports whether the channel's consecutive error count is below
// the given ceiling.
func (c *Channel) Healthy(ceiling int) bool {
	if ceiling <= 0 {
		ceiling = DefaultUnhealthyCeiling
	}

	return c.ErrorCount < ceiling
}
