// Package dedup keeps a bounded ring of recently seen canonical URLs per
// tracker in Redis, used as a fast path before the database lookback.
package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// keyPrefix is the Redis key prefix for per-tracker recent URLs.
	keyPrefix = "monitor:recent:"

	// DefaultWindow bounds the ring length per tracker.
	DefaultWindow = 200

	// keyTTL expires rings of trackers that stopped running.
	keyTTL = 90 * 24 * time.Hour
)

// Cache stores recent canonical URLs per tracker.
type Cache struct {
	client *redis.Client
	window int
}

// NewCache creates a cache bounded to window entries per tracker.
func NewCache(client *redis.Client, window int) *Cache {
	if window <= 0 {
		window = DefaultWindow
	}

	return &Cache{client: client, window: window}
}

// RecentURLs returns the most recent canonical URLs for a tracker,
// newest first.
func (c *Cache) RecentURLs(ctx context.Context, trackerID string) ([]string, error) {
	key := keyPrefix + trackerID

	urls, err := c.client.LRange(ctx, key, 0, int64(c.window-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("dedup cache read %s: %w", trackerID, err)
	}

	return urls, nil
}

// Remember pushes a canonical URL onto the tracker's ring and trims it
// to the window.
func (c *Cache) Remember(ctx context.Context, trackerID, canonicalURL string) error {
	key := keyPrefix + trackerID

	pipe := c.client.TxPipeline()
	pipe.LPush(ctx, key, canonicalURL)
	pipe.LTrim(ctx, key, 0, int64(c.window-1))
	pipe.Expire(ctx, key, keyTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("dedup cache write %s: %w", trackerID, err)
	}

	return nil
}
