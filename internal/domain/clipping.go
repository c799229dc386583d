package domain

import "time"

// Sentiment classifies the tone of a clipping. Supplied externally, never
// computed here.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// OutletType categorizes the publishing medium for AVE purposes.
type OutletType string

const (
	OutletTypePrint     OutletType = "print"
	OutletTypeBroadcast OutletType = "broadcast"
	OutletTypeOnline    OutletType = "online"
	OutletTypeBlog      OutletType = "blog"
)

// ClippingSource records how a clipping came to exist.
type ClippingSource string

const (
	// ClippingSourceAuto marks clippings created by the auto-import decision.
	ClippingSourceAuto ClippingSource = "auto"

	// ClippingSourceManual marks clippings created by a human confirm.
	ClippingSourceManual ClippingSource = "manual"
)

// Clipping is a confirmed piece of coverage. Immutable after creation
// except for audited sentiment/reach corrections.
type Clipping struct {
	ID          string `db:"id"           json:"id"`
	TrackerID   string `db:"tracker_id"   json:"tracker_id"`
	CandidateID string `db:"candidate_id" json:"candidate_id"`

	URL          string `db:"url"           json:"url"`
	CanonicalURL string `db:"canonical_url" json:"canonical_url"`
	Fingerprint  string `db:"fingerprint"   json:"fingerprint"`

	Title      string     `db:"title"       json:"title"`
	Excerpt    *string    `db:"excerpt"     json:"excerpt,omitempty"`
	OutletName *string    `db:"outlet_name" json:"outlet_name,omitempty"`
	OutletType OutletType `db:"outlet_type" json:"outlet_type"`

	Source ClippingSource `db:"source" json:"source"`

	Sentiment   *Sentiment `db:"sentiment"    json:"sentiment,omitempty"`
	Reach       *int       `db:"reach"        json:"reach,omitempty"`
	Circulation *int       `db:"circulation"  json:"circulation,omitempty"`
	AVE         *int       `db:"ave"          json:"ave,omitempty"`
	PublishedAt *time.Time `db:"published_at" json:"published_at,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
