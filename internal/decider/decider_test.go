package decider_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AImitSK/skamp-monitoring/internal/decider"
	"github.com/AImitSK/skamp-monitoring/internal/domain"
	"github.com/AImitSK/skamp-monitoring/internal/feed"
	"github.com/AImitSK/skamp-monitoring/internal/logger"
	"github.com/AImitSK/skamp-monitoring/internal/scoring"
)

// mockCandidateStore is an in-memory CandidateStore.
type mockCandidateStore struct {
	created      []*domain.Candidate
	accepted     map[string]bool
	recent       []string
	recentCalled bool
}

func newMockCandidateStore() *mockCandidateStore {
	return &mockCandidateStore{accepted: map[string]bool{}}
}

func (m *mockCandidateStore) Create(_ context.Context, c *domain.Candidate) error {
	m.created = append(m.created, c)
	return nil
}

func (m *mockCandidateStore) ExistsAccepted(_ context.Context, _, fingerprint string) (bool, error) {
	return m.accepted[fingerprint], nil
}

func (m *mockCandidateStore) RecentCanonicalURLs(_ context.Context, _ string, _ int) ([]string, error) {
	m.recentCalled = true
	return m.recent, nil
}

// mockClippingStore is an in-memory ClippingStore.
type mockClippingStore struct {
	created      []*domain.Clipping
	fingerprints map[string]bool
}

func newMockClippingStore() *mockClippingStore {
	return &mockClippingStore{fingerprints: map[string]bool{}}
}

func (m *mockClippingStore) Create(_ context.Context, c *domain.Clipping) error {
	m.created = append(m.created, c)
	return nil
}

func (m *mockClippingStore) ExistsByFingerprint(_ context.Context, _, fingerprint string) (bool, error) {
	return m.fingerprints[fingerprint], nil
}

// mockCache is a RecentCache that can be forced to fail.
type mockCache struct {
	urls       []string
	failReads  bool
	remembered []string
}

func (m *mockCache) RecentURLs(_ context.Context, _ string) ([]string, error) {
	if m.failReads {
		return nil, errors.New("redis down")
	}
	return m.urls, nil
}

func (m *mockCache) Remember(_ context.Context, _, url string) error {
	m.remembered = append(m.remembered, url)
	return nil
}

// mockMerger records merge calls.
type mockMerger struct {
	called bool
	result scoring.MergeResult
	err    error
}

func (m *mockMerger) Merge(_ context.Context, _ scoring.MergeInput) (scoring.MergeResult, error) {
	m.called = true
	return m.result, m.err
}

func testInput(url, title string) decider.Input {
	return decider.Input{
		Tracker:  &domain.Tracker{ID: "trk-1", OrgID: "org-1"},
		Channel:  &domain.Channel{ID: "ch-1", TrackerID: "trk-1"},
		Item:     feed.Item{RawURL: url, Title: title},
		Keywords: []string{"Acme"},
	}
}

func testSettings() *domain.TenantSettings {
	settings := domain.DefaultTenantSettings("org-1")
	return &settings
}

func TestDecideAutoImportAtThreshold(t *testing.T) {
	t.Parallel()

	candidates := newMockCandidateStore()
	clippings := newMockClippingStore()
	scorer := &scoring.StaticScorer{MatchScore: domain.DefaultMinScore}

	d := decider.New(candidates, clippings, nil, scorer, nil, logger.NewNoop())

	cand, clipping, err := d.Decide(
		context.Background(),
		testInput("https://news.example.com/acme", "Acme expandiert"),
		testSettings(),
	)
	require.NoError(t, err)

	assert.Equal(t, domain.DispositionAutoImported, cand.Disposition,
		"a score equal to minScore counts as a pass")
	require.NotNil(t, clipping)
	assert.Equal(t, cand.Fingerprint, clipping.Fingerprint)
	assert.Len(t, clippings.created, 1)
}

func TestDecidePendingReviewBelowThreshold(t *testing.T) {
	t.Parallel()

	candidates := newMockCandidateStore()
	clippings := newMockClippingStore()
	scorer := &scoring.StaticScorer{MatchScore: domain.DefaultMinScore - 1}

	d := decider.New(candidates, clippings, nil, scorer, nil, logger.NewNoop())

	cand, clipping, err := d.Decide(
		context.Background(),
		testInput("https://news.example.com/acme", "Acme expandiert"),
		testSettings(),
	)
	require.NoError(t, err)

	assert.Equal(t, domain.DispositionPendingReview, cand.Disposition)
	assert.Nil(t, clipping)
	assert.Empty(t, clippings.created)
}

func TestDecideRejectsKnownFingerprint(t *testing.T) {
	t.Parallel()

	candidates := newMockCandidateStore()
	clippings := newMockClippingStore()
	scorer := &scoring.StaticScorer{MatchScore: 100}

	d := decider.New(candidates, clippings, nil, scorer, nil, logger.NewNoop())

	// First pass accepts, second pass with an equivalent URL is a duplicate.
	first, _, err := d.Decide(
		context.Background(),
		testInput("https://news.example.com/a", "Story"),
		testSettings(),
	)
	require.NoError(t, err)
	candidates.accepted[first.Fingerprint] = true

	second, clipping, err := d.Decide(
		context.Background(),
		testInput("https://news.example.com/a?ref=1", "Story"),
		testSettings(),
	)
	require.NoError(t, err)

	assert.Equal(t, domain.DispositionRejectedDuplicate, second.Disposition)
	assert.Equal(t, first.Fingerprint, second.Fingerprint,
		"query string must not survive canonicalization")
	assert.Nil(t, clipping)
}

func TestDecideRejectsSimilarRecentURL(t *testing.T) {
	t.Parallel()

	candidates := newMockCandidateStore()
	candidates.recent = []string{"news.example.com/acme-expandiert-hamburg"}
	clippings := newMockClippingStore()
	scorer := &scoring.StaticScorer{MatchScore: 100}

	d := decider.New(candidates, clippings, nil, scorer, nil, logger.NewNoop())

	cand, _, err := d.Decide(
		context.Background(),
		testInput("https://news.example.com/acme-expandiert-hamburg2", "Story"),
		testSettings(),
	)
	require.NoError(t, err)

	assert.Equal(t, domain.DispositionRejectedDuplicate, cand.Disposition)
}

func TestDecideCacheFallsBackToStore(t *testing.T) {
	t.Parallel()

	candidates := newMockCandidateStore()
	clippings := newMockClippingStore()
	cache := &mockCache{failReads: true}
	scorer := &scoring.StaticScorer{MatchScore: 100}

	d := decider.New(candidates, clippings, cache, scorer, nil, logger.NewNoop())

	_, _, err := d.Decide(
		context.Background(),
		testInput("https://news.example.com/a", "Story"),
		testSettings(),
	)
	require.NoError(t, err)

	assert.True(t, candidates.recentCalled, "cache failure must degrade to the store lookback")
}

func TestDecideRemembersAcceptedURL(t *testing.T) {
	t.Parallel()

	candidates := newMockCandidateStore()
	clippings := newMockClippingStore()
	cache := &mockCache{}
	scorer := &scoring.StaticScorer{MatchScore: 100}

	d := decider.New(candidates, clippings, cache, scorer, nil, logger.NewNoop())

	cand, _, err := d.Decide(
		context.Background(),
		testInput("https://news.example.com/a", "Story"),
		testSettings(),
	)
	require.NoError(t, err)
	assert.Equal(t, []string{cand.CanonicalURL}, cache.remembered)
}

func TestDecideAIMergeReconcilesMetadata(t *testing.T) {
	t.Parallel()

	candidates := newMockCandidateStore()
	clippings := newMockClippingStore()
	merger := &mockMerger{result: scoring.MergeResult{Title: "Bereinigter Titel", Excerpt: "Kurztext"}}
	scorer := &scoring.StaticScorer{MatchScore: 100}

	d := decider.New(candidates, clippings, nil, scorer, merger, logger.NewNoop())

	settings := testSettings()
	settings.UseAIMerge = true

	_, clipping, err := d.Decide(
		context.Background(),
		testInput("https://news.example.com/a", "Roher Titel"),
		settings,
	)
	require.NoError(t, err)

	assert.True(t, merger.called)
	require.NotNil(t, clipping)
	assert.Equal(t, "Bereinigter Titel", clipping.Title)
	require.NotNil(t, clipping.Excerpt)
	assert.Equal(t, "Kurztext", *clipping.Excerpt)
}

func TestDecideAIMergeFailureKeepsOriginal(t *testing.T) {
	t.Parallel()

	candidates := newMockCandidateStore()
	clippings := newMockClippingStore()
	merger := &mockMerger{err: errors.New("merge service down")}
	scorer := &scoring.StaticScorer{MatchScore: 100}

	d := decider.New(candidates, clippings, nil, scorer, merger, logger.NewNoop())

	settings := testSettings()
	settings.UseAIMerge = true

	_, clipping, err := d.Decide(
		context.Background(),
		testInput("https://news.example.com/a", "Roher Titel"),
		settings,
	)
	require.NoError(t, err)

	require.NotNil(t, clipping, "merge failure must not block the import")
	assert.Equal(t, "Roher Titel", clipping.Title)
}

func TestDecideAutoImportAttachesAVE(t *testing.T) {
	t.Parallel()

	candidates := newMockCandidateStore()
	clippings := newMockClippingStore()
	positive := domain.SentimentPositive
	scorer := &scoring.StaticScorer{MatchScore: 100, Sentiment: &positive, Reach: 2000}

	d := decider.New(candidates, clippings, nil, scorer, nil, logger.NewNoop())

	_, clipping, err := d.Decide(
		context.Background(),
		testInput("https://news.example.com/acme", "Acme expandiert"),
		testSettings(),
	)
	require.NoError(t, err)
	require.NotNil(t, clipping)

	assert.Equal(t, domain.ClippingSourceAuto, clipping.Source)
	require.NotNil(t, clipping.Reach)
	assert.Equal(t, 2000, *clipping.Reach)
	// 2 thousand readers, online CPM 15, positive tone triples it.
	require.NotNil(t, clipping.AVE)
	assert.Equal(t, 90, *clipping.AVE)
}

func TestDecideAutoImportWithoutReachStoresNoValue(t *testing.T) {
	t.Parallel()

	candidates := newMockCandidateStore()
	clippings := newMockClippingStore()
	scorer := &scoring.StaticScorer{MatchScore: 100}

	d := decider.New(candidates, clippings, nil, scorer, nil, logger.NewNoop())

	_, clipping, err := d.Decide(
		context.Background(),
		testInput("https://news.example.com/acme", "Acme expandiert"),
		testSettings(),
	)
	require.NoError(t, err)
	require.NotNil(t, clipping)

	assert.Nil(t, clipping.Reach, "unknown reach stays NULL, never a fabricated zero")
	assert.Nil(t, clipping.Circulation)
	assert.Nil(t, clipping.AVE)
}

func TestDecideAutoImportFallsBackToCirculation(t *testing.T) {
	t.Parallel()

	candidates := newMockCandidateStore()
	clippings := newMockClippingStore()
	scorer := &scoring.StaticScorer{MatchScore: 100, Circulation: 300}

	d := decider.New(candidates, clippings, nil, scorer, nil, logger.NewNoop())

	_, clipping, err := d.Decide(
		context.Background(),
		testInput("https://news.example.com/acme", "Acme expandiert"),
		testSettings(),
	)
	require.NoError(t, err)
	require.NotNil(t, clipping)

	require.NotNil(t, clipping.Reach)
	assert.Equal(t, 3000, *clipping.Reach, "circulation times readership stands in for reach")
	require.NotNil(t, clipping.Circulation)
	assert.Equal(t, 300, *clipping.Circulation)
	// 3 thousand effective readers, online CPM 15, neutral halves the top multiplier.
	require.NotNil(t, clipping.AVE)
	assert.Equal(t, 68, *clipping.AVE)
}

func TestDecideValidation(t *testing.T) {
	t.Parallel()

	d := decider.New(
		newMockCandidateStore(),
		newMockClippingStore(),
		nil,
		&scoring.StaticScorer{MatchScore: 100},
		nil,
		logger.NewNoop(),
	)

	_, _, err := d.Decide(context.Background(), testInput("", "Titel"), testSettings())
	assert.ErrorIs(t, err, decider.ErrValidation)

	_, _, err = d.Decide(context.Background(), testInput("https://x.example/a", ""), testSettings())
	assert.ErrorIs(t, err, decider.ErrValidation)
}
