package feed_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AImitSK/skamp-monitoring/internal/feed"
)

func strPtr(s string) *string { return &s }

func TestHTTPFetcherConditionalGet(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}

		w.Header().Set("ETag", `"v1"`)
		w.Header().Set("Last-Modified", "Mon, 24 Aug 2026 09:30:00 GMT")
		_, _ = w.Write([]byte("<rss/>"))
	}))
	defer server.Close()

	fetcher := feed.NewHTTPFetcher(server.Client())

	resp, err := fetcher.Fetch(context.Background(), server.URL, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "<rss/>", resp.Body)
	require.NotNil(t, resp.ETag)

	cached, err := fetcher.Fetch(context.Background(), server.URL, resp.ETag, resp.LastModified)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotModified, cached.StatusCode)
	assert.Empty(t, cached.Body)
}

func TestHTTPFetcherRetriesTransient(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		_, _ = w.Write([]byte("<rss/>"))
	}))
	defer server.Close()

	fetcher := feed.NewHTTPFetcherWithRetry(server.Client(), 3, time.Millisecond)

	resp, err := fetcher.Fetch(context.Background(), server.URL, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(2), calls.Load())
}

func TestHTTPFetcherPermanentFailureNotRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	fetcher := feed.NewHTTPFetcherWithRetry(server.Client(), 3, time.Millisecond)

	_, err := fetcher.Fetch(context.Background(), server.URL, nil, nil)
	require.Error(t, err)

	var pollErr *feed.PollError
	require.ErrorAs(t, err, &pollErr)
	assert.Equal(t, feed.ErrTypeNotFound, pollErr.Type)
	assert.Equal(t, int32(1), calls.Load(), "4xx must not be retried")
}

func TestHTTPFetcherExhaustsRetries(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	fetcher := feed.NewHTTPFetcherWithRetry(server.Client(), 2, time.Millisecond)

	_, err := fetcher.Fetch(context.Background(), server.URL, nil, nil)
	require.Error(t, err)

	var pollErr *feed.PollError
	require.ErrorAs(t, err, &pollErr)
	assert.True(t, pollErr.Transient())
	assert.Equal(t, int32(3), calls.Load(), "initial attempt plus two retries")
}

func TestHTTPFetcherSendsLastModified(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-Modified-Since") != "" {
			w.WriteHeader(http.StatusNotModified)
			return
		}

		_, _ = w.Write([]byte("<rss/>"))
	}))
	defer server.Close()

	fetcher := feed.NewHTTPFetcher(server.Client())

	resp, err := fetcher.Fetch(
		context.Background(),
		server.URL,
		nil,
		strPtr("Mon, 24 Aug 2026 09:30:00 GMT"),
	)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotModified, resp.StatusCode)
}
