// Package enrich fills missing item metadata from the article page.
package enrich

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Metadata is what can be recovered from an article page.
type Metadata struct {
	Title      string
	OutletName string
}

// Enricher fetches article pages and extracts fallback metadata for feed
// items that arrived without a title. Failures are non-fatal; the caller
// drops the item through validation instead.
type Enricher struct {
	client *http.Client
}

// New creates an Enricher backed by the given http.Client.
func New(client *http.Client) *Enricher {
	return &Enricher{client: client}
}

// Fetch loads the page and extracts a title and outlet name. Preference
// order for the title: og:title, twitter:title, <title>.
func (e *Enricher) Fetch(ctx context.Context, url string) (*Metadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("enrich new request: %w", err)
	}

	resp, doErr := e.client.Do(req)
	if doErr != nil {
		return nil, fmt.Errorf("enrich do request: %w", doErr)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("enrich unexpected status %d for %s", resp.StatusCode, url)
	}

	doc, parseErr := goquery.NewDocumentFromReader(resp.Body)
	if parseErr != nil {
		return nil, fmt.Errorf("enrich parse html: %w", parseErr)
	}

	return extractMetadata(doc), nil
}

// extractMetadata pulls the title and outlet name out of a parsed page.
func extractMetadata(doc *goquery.Document) *Metadata {
	meta := &Metadata{}

	meta.Title = firstNonEmpty(
		metaContent(doc, `meta[property="og:title"]`),
		metaContent(doc, `meta[name="twitter:title"]`),
		strings.TrimSpace(doc.Find("title").First().Text()),
	)

	meta.OutletName = metaContent(doc, `meta[property="og:site_name"]`)

	return meta
}

// metaContent returns the trimmed content attribute of the first match.
func metaContent(doc *goquery.Document, selector string) string {
	content, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(content)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}
