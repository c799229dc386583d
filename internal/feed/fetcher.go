package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Retry settings for transient fetch failures.
const (
	DefaultMaxRetries      = 3
	defaultInitialInterval = 500 * time.Millisecond
)

// FetchResponse represents the result of an HTTP fetch.
type FetchResponse struct {
	StatusCode   int
	Body         string
	ETag         *string
	LastModified *string
}

// Fetcher fetches a channel URL with optional conditional GET headers.
type Fetcher interface {
	Fetch(ctx context.Context, url string, etag, lastModified *string) (*FetchResponse, error)
}

// HTTPFetcher implements Fetcher using net/http with retry on transient
// failures.
type HTTPFetcher struct {
	client          *http.Client
	maxRetries      uint64
	initialInterval time.Duration
}

// NewHTTPFetcher creates a Fetcher backed by the given http.Client with
// default retry settings.
func NewHTTPFetcher(client *http.Client) *HTTPFetcher {
	return NewHTTPFetcherWithRetry(client, DefaultMaxRetries, defaultInitialInterval)
}

// NewHTTPFetcherWithRetry creates a Fetcher with explicit retry settings.
func NewHTTPFetcherWithRetry(client *http.Client, maxRetries uint64, initialInterval time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		client:          client,
		maxRetries:      maxRetries,
		initialInterval: initialInterval,
	}
}

// Fetch performs a conditional GET. Transient failures (network, 5xx,
// 429) are retried with exponential backoff up to the configured attempt
// cap; permanent failures are returned immediately. On success the
// response carries the status code, body, and any caching headers.
func (f *HTTPFetcher) Fetch(
	ctx context.Context,
	url string,
	etag, lastModified *string,
) (*FetchResponse, error) {
	var resp *FetchResponse

	operation := func() error {
		fetched, err := f.fetchOnce(ctx, url, etag, lastModified)
		if err != nil {
			var pollErr *PollError
			if errors.As(err, &pollErr) && pollErr.Transient() {
				return err
			}
			return backoff.Permanent(err)
		}

		resp = fetched
		return nil
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = f.initialInterval

	policy := backoff.WithContext(backoff.WithMaxRetries(expo, f.maxRetries), ctx)

	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}

	return resp, nil
}

// fetchOnce performs a single conditional GET attempt.
func (f *HTTPFetcher) fetchOnce(
	ctx context.Context,
	url string,
	etag, lastModified *string,
) (*FetchResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("fetch new request: %w", err)
	}

	setConditionalHeaders(req, etag, lastModified)

	resp, doErr := f.client.Do(req)
	if doErr != nil {
		return nil, ClassifyNetworkError(doErr, url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotModified {
		return nil, ClassifyHTTPStatus(resp.StatusCode, url)
	}

	return buildFetchResponse(resp)
}

// setConditionalHeaders adds If-None-Match and If-Modified-Since headers
// when non-nil values are provided.
func setConditionalHeaders(req *http.Request, etag, lastModified *string) {
	if etag != nil {
		req.Header.Set("If-None-Match", *etag)
	}

	if lastModified != nil {
		req.Header.Set("If-Modified-Since", *lastModified)
	}
}

// buildFetchResponse reads the response body and extracts caching headers.
func buildFetchResponse(resp *http.Response) (*FetchResponse, error) {
	var body string

	if resp.StatusCode != http.StatusNotModified {
		raw, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return nil, fmt.Errorf("fetch read body: %w", readErr)
		}

		body = string(raw)
	}

	result := &FetchResponse{
		StatusCode: resp.StatusCode,
		Body:       body,
	}

	if v := resp.Header.Get("ETag"); v != "" {
		result.ETag = &v
	}

	if v := resp.Header.Get("Last-Modified"); v != "" {
		result.LastModified = &v
	}

	return result, nil
}
