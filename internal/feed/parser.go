// Package feed fetches and parses the RSS/Atom sources behind channels.
package feed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// httpPrefix is the scheme prefix used to decide if a GUID is a usable URL.
const httpPrefix = "http"

// Item is a single entry extracted from a polled channel.
type Item struct {
	RawURL      string     `json:"raw_url"`
	Title       string     `json:"title"`
	OutletName  string     `json:"outlet_name,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// ParseFeed parses an RSS or Atom body and returns the discovered items.
// Items without a usable link are silently skipped. An empty feed returns
// a non-nil empty slice.
func ParseFeed(ctx context.Context, body string) ([]Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	parser := gofeed.NewParser()

	parsed, err := parser.ParseString(body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	items := make([]Item, 0, len(parsed.Items))

	for _, entry := range parsed.Items {
		link := extractLink(entry)
		if link == "" {
			continue
		}

		items = append(items, Item{
			RawURL:      link,
			Title:       entry.Title,
			OutletName:  parsed.Title,
			PublishedAt: entry.PublishedParsed,
		})
	}

	return items, nil
}

// extractLink returns the best available URL from a feed entry. It
// prefers the explicit Link field, falling back to the GUID when that
// looks like an HTTP URL.
func extractLink(entry *gofeed.Item) string {
	if entry.Link != "" {
		return entry.Link
	}

	if strings.HasPrefix(entry.GUID, httpPrefix) {
		return entry.GUID
	}

	return ""
}
