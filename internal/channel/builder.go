// Package channel builds the source channels a tracker polls.
package channel

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"

	"github.com/AImitSK/skamp-monitoring/internal/domain"
)

// channelIDLength is the hex length of derived channel ids.
const channelIDLength = 16

// Build assembles the channel list for a campaign: one keyword-query
// channel when keywords exist, plus one curated-feed channel per
// configured feed URL. Channel ids are derived deterministically so a
// rebuild produces the same ids instead of duplicates. No keywords and
// no feeds yields an empty list, not an error.
func Build(campaignID string, kws []string, settings domain.TenantSettings) []domain.Channel {
	channels := make([]domain.Channel, 0, len(settings.CuratedFeeds)+1)

	if len(kws) > 0 {
		channels = append(channels, domain.Channel{
			ID:       DeriveID(string(domain.ChannelTypeKeywordQuery), campaignID),
			Type:     domain.ChannelTypeKeywordQuery,
			URL:      newsQueryURL(kws, settings),
			IsActive: true,
		})
	}

	for _, feedURL := range settings.CuratedFeeds {
		feedURL = strings.TrimSpace(feedURL)
		if feedURL == "" {
			continue
		}

		channels = append(channels, domain.Channel{
			ID:       DeriveID(string(domain.ChannelTypeCuratedFeed), campaignID, feedURL),
			Type:     domain.ChannelTypeCuratedFeed,
			URL:      feedURL,
			IsActive: true,
		})
	}

	return channels
}

// DeriveID hashes the given parts into a stable channel id.
func DeriveID(parts ...string) string {
	h := sha256.Sum256([]byte(strings.Join(parts, ":")))
	return hex.EncodeToString(h[:])[:channelIDLength]
}

// newsQueryURL builds the Google News RSS search URL for a keyword set.
// Keywords are joined with OR and URL-encoded; language and country come
// from the tenant settings.
func newsQueryURL(kws []string, settings domain.TenantSettings) string {
	lang := settings.Language
	if lang == "" {
		lang = "de"
	}

	country := settings.Country
	if country == "" {
		country = "DE"
	}

	query := url.QueryEscape(strings.Join(kws, " OR "))

	return fmt.Sprintf(
		"https://news.google.com/rss/search?q=%s&hl=%s&gl=%s&ceid=%s:%s",
		query, lang, country, country, lang,
	)
}
