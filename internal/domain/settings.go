package domain

// Tenant-level defaults.
const (
	DefaultMinScore            = 70
	DefaultSimilarityThreshold = 90
)

// TenantSettings controls the auto-import decision per organization.
type TenantSettings struct {
	OrgID               string `db:"org_id"               json:"org_id"`
	AutoImportEnabled   bool   `db:"auto_import_enabled"  json:"auto_import_enabled"`
	MinScore            int    `db:"min_score"            json:"min_score"`
	SimilarityThreshold int    `db:"similarity_threshold" json:"similarity_threshold"`
	UseAIMerge          bool   `db:"use_ai_merge"         json:"use_ai_merge"`

	// Curated feed URLs configured by the tenant, one channel each.
	CuratedFeeds []string `db:"-" json:"curated_feeds,omitempty"`

	// Language/country for keyword-query channels.
	Language string `db:"language" json:"language"`
	Country  string `db:"country"  json:"country"`
}

// DefaultTenantSettings returns settings with sensible defaults applied.
func DefaultTenantSettings(orgID string) TenantSettings {
	return TenantSettings{
		OrgID:               orgID,
		AutoImportEnabled:   true,
		MinScore:            DefaultMinScore,
		SimilarityThreshold: DefaultSimilarityThreshold,
		Language:            "de",
		Country:             "DE",
	}
}
