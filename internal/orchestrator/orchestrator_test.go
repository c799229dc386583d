package orchestrator_test

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AImitSK/skamp-monitoring/internal/decider"
	"github.com/AImitSK/skamp-monitoring/internal/domain"
	"github.com/AImitSK/skamp-monitoring/internal/enrich"
	"github.com/AImitSK/skamp-monitoring/internal/feed"
	"github.com/AImitSK/skamp-monitoring/internal/logger"
	"github.com/AImitSK/skamp-monitoring/internal/metrics"
	"github.com/AImitSK/skamp-monitoring/internal/orchestrator"
)

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Beispiel News</title>
    <item>
      <title>Acme expandiert nach Hamburg</title>
      <link>https://news.example.com/acme-hamburg</link>
    </item>
    <item>
      <title>Acme stellt neues Produkt vor</title>
      <link>https://news.example.com/acme-produkt</link>
    </item>
  </channel>
</rss>`

const untitledRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Beispiel News</title>
    <item>
      <link>https://news.example.com/ohne-titel</link>
    </item>
  </channel>
</rss>`

type completeCall struct {
	trackerID string
	found     int
	imported  int
}

type mockTrackerStore struct {
	mu          sync.Mutex
	due         []*domain.Tracker
	byOrg       map[string][]*domain.Tracker
	deactivated bool
	completes   []completeCall

	listDueCalled bool
	listOrgCalled string
}

func (m *mockTrackerStore) ListDue(_ context.Context) ([]*domain.Tracker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listDueCalled = true
	return m.due, nil
}

func (m *mockTrackerStore) ListActiveByOrg(_ context.Context, orgID string) ([]*domain.Tracker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listOrgCalled = orgID
	return m.byOrg[orgID], nil
}

func (m *mockTrackerStore) DeactivateExpired(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deactivated = true
	return 0, nil
}

func (m *mockTrackerStore) CompleteRun(_ context.Context, trackerID string, found, autoImported int, _, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completes = append(m.completes, completeCall{trackerID: trackerID, found: found, imported: autoImported})
	return nil
}

type mockChannelStore struct {
	mu          sync.Mutex
	channels    map[string][]*domain.Channel
	successes   []string
	failures    []string
	lastETag    *string
	itemsFound  map[string]int
	errorCounts map[string]int
}

func (m *mockChannelStore) ListByTracker(_ context.Context, trackerID string) ([]*domain.Channel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.channels[trackerID], nil
}

func (m *mockChannelStore) UpdateSuccess(_ context.Context, channelID string, etag, _ *string, itemsFound int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.successes = append(m.successes, channelID)
	m.lastETag = etag
	if m.itemsFound == nil {
		m.itemsFound = map[string]int{}
	}
	m.itemsFound[channelID] += itemsFound
	if m.errorCounts == nil {
		m.errorCounts = map[string]int{}
	}
	m.errorCounts[channelID] = 0
	return nil
}

func (m *mockChannelStore) UpdateError(_ context.Context, channelID, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = append(m.failures, channelID)
	if m.errorCounts == nil {
		m.errorCounts = map[string]int{}
	}
	m.errorCounts[channelID]++
	return nil
}

func (m *mockChannelStore) errorCount(channelID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errorCounts[channelID]
}

type mockSettingsStore struct {
	settings domain.TenantSettings
}

func (m *mockSettingsStore) GetByOrg(_ context.Context, orgID string) (*domain.TenantSettings, error) {
	s := m.settings
	s.OrgID = orgID
	return &s, nil
}

type mockRunState struct {
	mu     sync.Mutex
	state  domain.CrawlRunState
	marked bool
}

func (m *mockRunState) Get(_ context.Context) (*domain.CrawlRunState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.state
	return &s, nil
}

func (m *mockRunState) Pause(_ context.Context, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.State = domain.CrawlStatePaused
	m.state.PauseReason = &reason
	return nil
}

func (m *mockRunState) Resume(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.State = domain.CrawlStateRunning
	m.state.PauseReason = nil
	return nil
}

func (m *mockRunState) MarkPass(_ context.Context, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.marked = true
	return nil
}

type mockFetcher struct {
	mu        sync.Mutex
	responses map[string]*feed.FetchResponse
	errs      map[string]error
	seenETags map[string]*string
}

func (m *mockFetcher) Fetch(_ context.Context, url string, etag, _ *string) (*feed.FetchResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.seenETags == nil {
		m.seenETags = map[string]*string{}
	}
	m.seenETags[url] = etag

	if err, ok := m.errs[url]; ok {
		return nil, err
	}
	return m.responses[url], nil
}

type mockDecider struct {
	mu        sync.Mutex
	inputs    []decider.Input
	importAll bool
	err       error
}

func (m *mockDecider) Decide(_ context.Context, in decider.Input, _ *domain.TenantSettings) (*domain.Candidate, *domain.Clipping, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.inputs = append(m.inputs, in)

	if m.err != nil {
		return nil, nil, m.err
	}

	cand := &domain.Candidate{
		ID:        "cand-" + in.Item.RawURL,
		TrackerID: in.Tracker.ID,
	}

	if m.importAll {
		cand.Disposition = domain.DispositionAutoImported
		return cand, &domain.Clipping{ID: "clip-" + in.Item.RawURL}, nil
	}

	cand.Disposition = domain.DispositionPendingReview
	return cand, nil, nil
}

type mockEnricher struct {
	meta *enrich.Metadata
}

func (m *mockEnricher) Fetch(_ context.Context, _ string) (*enrich.Metadata, error) {
	return m.meta, nil
}

type mockKeywords struct {
	kws []string
}

func (m *mockKeywords) KeywordsForCampaign(_ context.Context, _ string) ([]string, error) {
	return m.kws, nil
}

func testTracker(id string) *domain.Tracker {
	return &domain.Tracker{
		ID:                  id,
		OrgID:               "org-1",
		CampaignID:          "camp-1",
		IsActive:            true,
		PollIntervalMinutes: 60,
	}
}

type fixture struct {
	trackers *mockTrackerStore
	channels *mockChannelStore
	runState *mockRunState
	fetcher  *mockFetcher
	decider  *mockDecider
	orch     *orchestrator.Orchestrator
	metrics  *metrics.Metrics
}

func newFixture(t *testing.T, enricher orchestrator.Enricher) *fixture {
	t.Helper()

	f := &fixture{
		trackers: &mockTrackerStore{byOrg: map[string][]*domain.Tracker{}},
		channels: &mockChannelStore{channels: map[string][]*domain.Channel{}},
		runState: &mockRunState{state: domain.CrawlRunState{State: domain.CrawlStateRunning}},
		fetcher:  &mockFetcher{responses: map[string]*feed.FetchResponse{}, errs: map[string]error{}},
		decider:  &mockDecider{importAll: true},
		metrics:  metrics.NewMetrics(),
	}

	f.orch = orchestrator.New(
		orchestrator.DefaultConfig(),
		f.trackers,
		f.channels,
		&mockSettingsStore{settings: domain.DefaultTenantSettings("org-1")},
		f.runState,
		f.fetcher,
		f.decider,
		enricher,
		&mockKeywords{kws: []string{"Acme"}},
		f.metrics,
		logger.NewNoop(),
	)

	return f
}

func TestRunPassProcessesDueTracker(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)

	trk := testTracker("trk-1")
	f.trackers.due = []*domain.Tracker{trk}
	f.channels.channels["trk-1"] = []*domain.Channel{
		{ID: "ch-1", TrackerID: "trk-1", URL: "https://feeds.example.com/a", IsActive: true},
	}

	etag := `"v1"`
	f.fetcher.responses["https://feeds.example.com/a"] = &feed.FetchResponse{
		StatusCode: http.StatusOK,
		Body:       sampleRSS,
		ETag:       &etag,
	}

	result, err := f.orch.RunPass(context.Background(), orchestrator.Options{})
	require.NoError(t, err)

	assert.Empty(t, result.Skipped)
	assert.Equal(t, 1, result.TrackersProcessed)
	assert.Equal(t, 2, result.CandidatesProcessed)
	assert.Equal(t, 2, result.CandidatesImported)
	assert.Zero(t, result.CandidatesFailed)

	assert.True(t, f.trackers.deactivated, "expired trackers are retired before the pass")
	assert.True(t, f.runState.marked)

	require.Len(t, f.trackers.completes, 1)
	assert.Equal(t, 2, f.trackers.completes[0].found)
	assert.Equal(t, 2, f.trackers.completes[0].imported)

	require.Len(t, f.channels.successes, 1)
	require.NotNil(t, f.channels.lastETag, "caching headers are persisted for the next poll")
	assert.Equal(t, etag, *f.channels.lastETag)

	require.Len(t, f.decider.inputs, 2)
	assert.Equal(t, []string{"Acme"}, f.decider.inputs[0].Keywords)

	snapshot := f.metrics.GetSnapshot()
	assert.Equal(t, int64(1), snapshot.PassesCompleted)
	assert.Equal(t, int64(2), snapshot.CandidatesImported)
}

func TestRunPassSkipsWhenPaused(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	reason := "maintenance"
	f.runState.state = domain.CrawlRunState{State: domain.CrawlStatePaused, PauseReason: &reason}

	result, err := f.orch.RunPass(context.Background(), orchestrator.Options{})
	require.NoError(t, err)

	assert.Equal(t, "paused", result.Skipped)
	assert.False(t, f.trackers.listDueCalled, "a paused pass must not touch trackers")
	assert.False(t, f.runState.marked)
}

func TestRunPassOrgTriggerBypassesPause(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	f.runState.state = domain.CrawlRunState{State: domain.CrawlStatePaused}
	f.trackers.byOrg["org-1"] = []*domain.Tracker{testTracker("trk-1")}

	result, err := f.orch.RunPass(context.Background(), orchestrator.Options{OrgID: "org-1"})
	require.NoError(t, err)

	assert.Empty(t, result.Skipped, "an org-scoped trigger runs even while paused")
	assert.Equal(t, "org-1", f.trackers.listOrgCalled)
	assert.False(t, f.trackers.listDueCalled)
	assert.Equal(t, 1, result.TrackersProcessed)
}

func TestRunPassNotModifiedSkipsProcessing(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)

	trk := testTracker("trk-1")
	etag := `"v1"`
	f.trackers.due = []*domain.Tracker{trk}
	f.channels.channels["trk-1"] = []*domain.Channel{
		{ID: "ch-1", TrackerID: "trk-1", URL: "https://feeds.example.com/a", IsActive: true, LastETag: &etag},
	}
	f.fetcher.responses["https://feeds.example.com/a"] = &feed.FetchResponse{
		StatusCode: http.StatusNotModified,
	}

	result, err := f.orch.RunPass(context.Background(), orchestrator.Options{})
	require.NoError(t, err)

	assert.Zero(t, result.CandidatesProcessed)
	assert.Empty(t, f.decider.inputs)
	assert.Len(t, f.channels.successes, 1, "304 counts as a healthy poll")
	require.NotNil(t, f.fetcher.seenETags["https://feeds.example.com/a"])
	assert.Equal(t, etag, *f.fetcher.seenETags["https://feeds.example.com/a"])
}

func TestRunPassChannelFailureIsIsolated(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)

	trk := testTracker("trk-1")
	f.trackers.due = []*domain.Tracker{trk}
	f.channels.channels["trk-1"] = []*domain.Channel{
		{ID: "ch-bad", TrackerID: "trk-1", URL: "https://feeds.example.com/bad", IsActive: true},
		{ID: "ch-good", TrackerID: "trk-1", URL: "https://feeds.example.com/good", IsActive: true},
	}
	f.fetcher.errs["https://feeds.example.com/bad"] = feed.ClassifyHTTPStatus(500, "https://feeds.example.com/bad")
	f.fetcher.responses["https://feeds.example.com/good"] = &feed.FetchResponse{
		StatusCode: http.StatusOK,
		Body:       sampleRSS,
	}

	result, err := f.orch.RunPass(context.Background(), orchestrator.Options{})
	require.NoError(t, err)

	assert.Equal(t, 1, result.ChannelErrors)
	assert.Equal(t, 2, result.CandidatesProcessed, "the healthy channel still runs")
	assert.NotEmpty(t, result.Errors)

	assert.Equal(t, []string{"ch-bad"}, f.channels.failures)
	assert.Equal(t, []string{"ch-good"}, f.channels.successes)

	require.Len(t, f.trackers.completes, 1,
		"a failing channel must not block the tracker's run completion")
}

func TestRunPassRespectsAutoImportDisabled(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)

	settings := domain.DefaultTenantSettings("org-1")
	settings.AutoImportEnabled = false

	f.orch = orchestrator.New(
		orchestrator.DefaultConfig(),
		f.trackers,
		f.channels,
		&mockSettingsStore{settings: settings},
		f.runState,
		f.fetcher,
		f.decider,
		nil,
		&mockKeywords{},
		f.metrics,
		logger.NewNoop(),
	)

	f.trackers.due = []*domain.Tracker{testTracker("trk-1")}
	f.channels.channels["trk-1"] = []*domain.Channel{
		{ID: "ch-1", TrackerID: "trk-1", URL: "https://feeds.example.com/a", IsActive: true},
	}

	result, err := f.orch.RunPass(context.Background(), orchestrator.Options{})
	require.NoError(t, err)

	assert.Zero(t, result.CandidatesProcessed)
	assert.Empty(t, f.decider.inputs)
	assert.Empty(t, f.trackers.completes, "a skipped tracker keeps its schedule untouched")
}

func TestRunPassEnrichesUntitledItems(t *testing.T) {
	t.Parallel()

	f := newFixture(t, &mockEnricher{meta: &enrich.Metadata{Title: "Nachgeladener Titel"}})

	trk := testTracker("trk-1")
	f.trackers.due = []*domain.Tracker{trk}
	f.channels.channels["trk-1"] = []*domain.Channel{
		{ID: "ch-1", TrackerID: "trk-1", URL: "https://feeds.example.com/a", IsActive: true},
	}
	f.fetcher.responses["https://feeds.example.com/a"] = &feed.FetchResponse{
		StatusCode: http.StatusOK,
		Body:       untitledRSS,
	}

	_, err := f.orch.RunPass(context.Background(), orchestrator.Options{})
	require.NoError(t, err)

	require.Len(t, f.decider.inputs, 1)
	assert.Equal(t, "Nachgeladener Titel", f.decider.inputs[0].Item.Title)
}

func TestRunPassSkipsInactiveChannels(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)

	trk := testTracker("trk-1")
	f.trackers.due = []*domain.Tracker{trk}
	f.channels.channels["trk-1"] = []*domain.Channel{
		{ID: "ch-off", TrackerID: "trk-1", URL: "https://feeds.example.com/off", IsActive: false},
		{ID: "ch-on", TrackerID: "trk-1", URL: "https://feeds.example.com/on", IsActive: true},
	}
	f.fetcher.responses["https://feeds.example.com/on"] = &feed.FetchResponse{
		StatusCode: http.StatusOK,
		Body:       sampleRSS,
	}

	result, err := f.orch.RunPass(context.Background(), orchestrator.Options{})
	require.NoError(t, err)

	assert.Equal(t, 2, result.CandidatesProcessed)
	assert.Equal(t, []string{"ch-on"}, f.channels.successes)
	assert.NotContains(t, f.fetcher.seenETags, "https://feeds.example.com/off",
		"a disabled channel must not be polled at all")
}

func TestRunPassErrorCountResetsOnRecovery(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)

	trk := testTracker("trk-1")
	f.trackers.due = []*domain.Tracker{trk}
	f.channels.channels["trk-1"] = []*domain.Channel{
		{ID: "ch-1", TrackerID: "trk-1", URL: "https://feeds.example.com/a", IsActive: true},
	}
	f.fetcher.errs["https://feeds.example.com/a"] = feed.ClassifyHTTPStatus(500, "https://feeds.example.com/a")

	for i := 0; i < 3; i++ {
		_, err := f.orch.RunPass(context.Background(), orchestrator.Options{})
		require.NoError(t, err)
	}
	assert.Equal(t, 3, f.channels.errorCount("ch-1"))

	f.fetcher.mu.Lock()
	delete(f.fetcher.errs, "https://feeds.example.com/a")
	f.fetcher.responses["https://feeds.example.com/a"] = &feed.FetchResponse{
		StatusCode: http.StatusOK,
		Body:       sampleRSS,
	}
	f.fetcher.mu.Unlock()

	_, err := f.orch.RunPass(context.Background(), orchestrator.Options{})
	require.NoError(t, err)

	assert.Zero(t, f.channels.errorCount("ch-1"),
		"one successful poll clears the accumulated error count")
	assert.Equal(t, 2, f.channels.itemsFound["ch-1"])
}

func TestRunPassNoTrackersDue(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)

	result, err := f.orch.RunPass(context.Background(), orchestrator.Options{})
	require.NoError(t, err)

	assert.Zero(t, result.TrackersProcessed)
	assert.Empty(t, result.Errors)
}

func TestPauseAndResume(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	ctx := context.Background()

	require.NoError(t, f.orch.Pause(ctx, "deploy"))

	state, err := f.orch.Status(ctx)
	require.NoError(t, err)
	assert.True(t, state.Paused())
	require.NotNil(t, state.PauseReason)
	assert.Equal(t, "deploy", *state.PauseReason)

	require.NoError(t, f.orch.Resume(ctx))

	state, err = f.orch.Status(ctx)
	require.NoError(t, err)
	assert.False(t, state.Paused())
}
