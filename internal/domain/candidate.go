package domain

import "time"

// Disposition is the outcome of the auto-import decision for a candidate.
type Disposition string

const (
	// DispositionScored means the candidate has a match score but no
	// decision yet.
	DispositionScored Disposition = "scored"

	// DispositionAutoImported means the candidate passed the tenant
	// threshold and a clipping was created.
	DispositionAutoImported Disposition = "auto_imported"

	// DispositionPendingReview means the candidate is waiting for a human.
	DispositionPendingReview Disposition = "pending_review"

	// DispositionRejectedDuplicate means the candidate matched an already
	// known fingerprint or near-identical URL within its tracker.
	DispositionRejectedDuplicate Disposition = "rejected_duplicate"

	// DispositionRejectedLowScore means the candidate scored below the
	// review floor and was discarded.
	DispositionRejectedLowScore Disposition = "rejected_low_score"

	// DispositionConfirmed is set only by an explicit human confirm.
	DispositionConfirmed Disposition = "confirmed"

	// DispositionSpamMarked is set only by an explicit human spam mark.
	DispositionSpamMarked Disposition = "spam_marked"
)

// Terminal reports whether a disposition can no longer change.
func (d Disposition) Terminal() bool {
	switch d {
	case DispositionAutoImported,
		DispositionRejectedDuplicate,
		DispositionRejectedLowScore,
		DispositionConfirmed,
		DispositionSpamMarked:
		return true
	default:
		return false
	}
}

// Candidate is a freshly fetched item prior to (or after) its disposition
// decision.
type Candidate struct {
	ID        string `db:"id"         json:"id"`
	TrackerID string `db:"tracker_id" json:"tracker_id"`
	ChannelID string `db:"channel_id" json:"channel_id"`

	RawURL       string `db:"raw_url"       json:"raw_url"`
	CanonicalURL string `db:"canonical_url" json:"canonical_url"`
	Fingerprint  string `db:"fingerprint"   json:"fingerprint"`

	Title       string     `db:"title"        json:"title"`
	OutletName  *string    `db:"outlet_name"  json:"outlet_name,omitempty"`
	PublishedAt *time.Time `db:"published_at" json:"published_at,omitempty"`

	MatchScore  int         `db:"match_score" json:"match_score"`
	Sentiment   *Sentiment  `db:"sentiment"   json:"sentiment,omitempty"`
	Disposition Disposition `db:"disposition" json:"disposition"`

	DiscoveredAt time.Time `db:"discovered_at" json:"discovered_at"`
	CreatedAt    time.Time `db:"created_at"    json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"    json:"updated_at"`
}
