// Package orchestrator runs the periodic monitoring passes: selecting
// due trackers, polling their channels, and feeding items through the
// auto-import decision.
package orchestrator

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/AImitSK/skamp-monitoring/internal/decider"
	"github.com/AImitSK/skamp-monitoring/internal/domain"
	"github.com/AImitSK/skamp-monitoring/internal/enrich"
	"github.com/AImitSK/skamp-monitoring/internal/feed"
	"github.com/AImitSK/skamp-monitoring/internal/logger"
	"github.com/AImitSK/skamp-monitoring/internal/metrics"
	"github.com/AImitSK/skamp-monitoring/internal/worker"
)

// Defaults for a pass.
const (
	// DefaultChannelConcurrency bounds parallel channel polls per tracker.
	DefaultChannelConcurrency = 3

	// maxReportedErrors bounds the error list in a pass result.
	maxReportedErrors = 20
)

// TrackerStore is the tracker persistence surface for passes.
type TrackerStore interface {
	ListDue(ctx context.Context) ([]*domain.Tracker, error)
	ListActiveByOrg(ctx context.Context, orgID string) ([]*domain.Tracker, error)
	DeactivateExpired(ctx context.Context) (int64, error)
	CompleteRun(ctx context.Context, trackerID string, found, autoImported int, lastRun, nextRun time.Time) error
}

// ChannelStore is the channel persistence surface for passes.
type ChannelStore interface {
	ListByTracker(ctx context.Context, trackerID string) ([]*domain.Channel, error)
	UpdateSuccess(ctx context.Context, channelID string, etag, lastModified *string, itemsFound int) error
	UpdateError(ctx context.Context, channelID, errMsg string) error
}

// SettingsStore reads tenant settings.
type SettingsStore interface {
	GetByOrg(ctx context.Context, orgID string) (*domain.TenantSettings, error)
}

// RunStateStore persists the global pause state.
type RunStateStore interface {
	Get(ctx context.Context) (*domain.CrawlRunState, error)
	Pause(ctx context.Context, reason string) error
	Resume(ctx context.Context) error
	MarkPass(ctx context.Context, at time.Time) error
}

// Decider decides the disposition of one fetched item.
type Decider interface {
	Decide(ctx context.Context, in decider.Input, settings *domain.TenantSettings) (*domain.Candidate, *domain.Clipping, error)
}

// Enricher recovers metadata for items that arrived without a title.
type Enricher interface {
	Fetch(ctx context.Context, url string) (*enrich.Metadata, error)
}

// KeywordSource supplies the scoring keywords for a campaign.
type KeywordSource interface {
	KeywordsForCampaign(ctx context.Context, campaignID string) ([]string, error)
}

// Options controls a single pass.
type Options struct {
	// OrgID limits the pass to one organization's trackers. An org-scoped
	// trigger is honored even while globally paused.
	OrgID string
}

// PassResult summarizes one orchestration pass.
type PassResult struct {
	Skipped             string   `json:"skipped,omitempty"`
	TrackersProcessed   int      `json:"trackersProcessed"`
	CandidatesProcessed int      `json:"candidatesProcessed"`
	CandidatesImported  int      `json:"candidatesImported"`
	CandidatesFailed    int      `json:"candidatesFailed"`
	ChannelErrors       int      `json:"channelErrors"`
	Errors              []string `json:"errors"`
}

// Config holds orchestrator tuning knobs.
type Config struct {
	WorkerPool         worker.Config
	ChannelConcurrency int
}

// DefaultConfig returns sensible pass defaults.
func DefaultConfig() Config {
	return Config{
		WorkerPool:         worker.DefaultConfig(),
		ChannelConcurrency: DefaultChannelConcurrency,
	}
}

// Orchestrator coordinates monitoring passes.
type Orchestrator struct {
	config   Config
	trackers TrackerStore
	channels ChannelStore
	settings SettingsStore
	runState RunStateStore
	fetcher  feed.Fetcher
	decider  Decider
	enricher Enricher
	keywords KeywordSource
	metrics  *metrics.Metrics
	log      logger.Interface
}

// New creates an orchestrator. enricher may be nil to disable the
// metadata fallback.
func New(
	config Config,
	trackers TrackerStore,
	channels ChannelStore,
	settings SettingsStore,
	runState RunStateStore,
	fetcher feed.Fetcher,
	dec Decider,
	enricher Enricher,
	kw KeywordSource,
	m *metrics.Metrics,
	log logger.Interface,
) *Orchestrator {
	if config.ChannelConcurrency <= 0 {
		config.ChannelConcurrency = DefaultChannelConcurrency
	}

	return &Orchestrator{
		config:   config,
		trackers: trackers,
		channels: channels,
		settings: settings,
		runState: runState,
		fetcher:  fetcher,
		decider:  dec,
		enricher: enricher,
		keywords: kw,
		metrics:  m,
		log:      log,
	}
}

// RunPass executes one orchestration pass. A globally paused state skips
// everything except org-scoped triggers. Expired trackers are
// deactivated first, then due trackers run on the worker pool. Nothing
// due is a successful no-op.
func (o *Orchestrator) RunPass(ctx context.Context, opts Options) (*PassResult, error) {
	started := time.Now()

	state, err := o.runState.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("run pass read state: %w", err)
	}

	if state.Paused() && opts.OrgID == "" {
		reason := ""
		if state.PauseReason != nil {
			reason = *state.PauseReason
		}

		o.log.Info("orchestrator paused, skipping pass", "reason", reason)
		return &PassResult{Skipped: "paused", Errors: []string{}}, nil
	}

	if _, deactivateErr := o.trackers.DeactivateExpired(ctx); deactivateErr != nil {
		return nil, fmt.Errorf("run pass deactivate expired: %w", deactivateErr)
	}

	due, err := o.selectTrackers(ctx, opts)
	if err != nil {
		return nil, err
	}

	result := &PassResult{Errors: []string{}}
	if len(due) == 0 {
		o.log.Info("no trackers due")
		return result, nil
	}

	if runErr := o.runTrackers(ctx, due, result); runErr != nil {
		return nil, runErr
	}

	duration := time.Since(started)

	if o.metrics != nil {
		o.metrics.RecordPass(
			result.TrackersProcessed,
			result.CandidatesProcessed,
			result.CandidatesImported,
			result.CandidatesFailed,
			result.ChannelErrors,
			duration,
		)
	}

	if markErr := o.runState.MarkPass(ctx, time.Now().UTC()); markErr != nil {
		o.log.Error("failed to mark pass", "error", markErr.Error())
	}

	o.log.Info("pass completed",
		"trackers", result.TrackersProcessed,
		"processed", result.CandidatesProcessed,
		"imported", result.CandidatesImported,
		"failed", result.CandidatesFailed,
		"duration", duration.String(),
	)

	return result, nil
}

// Pause moves the orchestrator into the paused state.
func (o *Orchestrator) Pause(ctx context.Context, reason string) error {
	if err := o.runState.Pause(ctx, reason); err != nil {
		return fmt.Errorf("pause: %w", err)
	}

	o.log.Info("orchestrator paused", "reason", reason)
	return nil
}

// Resume moves the orchestrator back into the running state.
func (o *Orchestrator) Resume(ctx context.Context) error {
	if err := o.runState.Resume(ctx); err != nil {
		return fmt.Errorf("resume: %w", err)
	}

	o.log.Info("orchestrator resumed")
	return nil
}

// Status returns the persisted run state.
func (o *Orchestrator) Status(ctx context.Context) (*domain.CrawlRunState, error) {
	return o.runState.Get(ctx)
}

// selectTrackers picks the trackers for this pass: all due trackers, or
// one organization's active trackers for an org-scoped trigger.
func (o *Orchestrator) selectTrackers(ctx context.Context, opts Options) ([]*domain.Tracker, error) {
	if opts.OrgID != "" {
		trackers, err := o.trackers.ListActiveByOrg(ctx, opts.OrgID)
		if err != nil {
			return nil, fmt.Errorf("run pass list org trackers: %w", err)
		}
		return trackers, nil
	}

	trackers, err := o.trackers.ListDue(ctx)
	if err != nil {
		return nil, fmt.Errorf("run pass list due trackers: %w", err)
	}
	return trackers, nil
}

// runTrackers fans the trackers out over the worker pool and waits for
// all of them.
func (o *Orchestrator) runTrackers(ctx context.Context, due []*domain.Tracker, result *PassResult) error {
	pool, err := worker.NewPool(o.config.WorkerPool, o.log)
	if err != nil {
		return fmt.Errorf("run pass create pool: %w", err)
	}

	if startErr := pool.Start(); startErr != nil {
		return fmt.Errorf("run pass start pool: %w", startErr)
	}

	var mu sync.Mutex

	for _, trk := range due {
		trk := trk

		submitErr := pool.Submit(ctx, func(jobCtx context.Context) error {
			stats, runErr := o.runTracker(jobCtx, trk)

			mu.Lock()
			defer mu.Unlock()

			if runErr != nil {
				appendError(result, fmt.Sprintf("tracker %s: %s", trk.ID, runErr))
				return runErr
			}

			result.TrackersProcessed++
			result.CandidatesProcessed += stats.processed
			result.CandidatesImported += stats.imported
			result.CandidatesFailed += stats.failed
			result.ChannelErrors += stats.channelErrors
			for _, msg := range stats.errors {
				appendError(result, msg)
			}

			return nil
		})
		if submitErr != nil {
			mu.Lock()
			appendError(result, fmt.Sprintf("tracker %s: submit: %s", trk.ID, submitErr))
			mu.Unlock()
		}
	}

	pool.Wait()

	stopCtx, cancel := context.WithTimeout(context.Background(), o.config.WorkerPool.DrainTimeout)
	defer cancel()

	if stopErr := pool.Stop(stopCtx); stopErr != nil {
		o.log.Warn("pool stop", "error", stopErr.Error())
	}

	return nil
}

// trackerStats accumulates one tracker's run.
type trackerStats struct {
	found         int
	processed     int
	imported      int
	failed        int
	channelErrors int
	errors        []string
}

// runTracker polls every channel of one tracker with bounded parallelism
// and applies the counter update only after all channels finished. A
// cancelled run leaves lastRun untouched so the tracker is re-picked on
// the next pass.
func (o *Orchestrator) runTracker(ctx context.Context, trk *domain.Tracker) (*trackerStats, error) {
	settings, err := o.settings.GetByOrg(ctx, trk.OrgID)
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}

	if !settings.AutoImportEnabled {
		o.log.Info("auto-import disabled for org, skipping tracker",
			"tracker_id", trk.ID,
			"org_id", trk.OrgID,
		)
		return &trackerStats{}, nil
	}

	channels, err := o.channels.ListByTracker(ctx, trk.ID)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}

	var kws []string
	if o.keywords != nil {
		kws, err = o.keywords.KeywordsForCampaign(ctx, trk.CampaignID)
		if err != nil {
			// Scoring degrades without keywords but the run still counts.
			o.log.Warn("keyword lookup failed",
				"tracker_id", trk.ID,
				"campaign_id", trk.CampaignID,
				"error", err.Error(),
			)
		}
	}

	stats := &trackerStats{}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	sem := make(chan struct{}, o.config.ChannelConcurrency)

	for _, ch := range channels {
		ch := ch

		if !ch.IsActive {
			o.log.Debug("channel disabled by tenant, skipping",
				"channel_id", ch.ID,
				"tracker_id", trk.ID,
			)
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			chStats := o.pollChannel(ctx, trk, ch, kws, settings)

			mu.Lock()
			defer mu.Unlock()

			stats.found += chStats.found
			stats.processed += chStats.processed
			stats.imported += chStats.imported
			stats.failed += chStats.failed
			stats.channelErrors += chStats.channelErrors
			stats.errors = append(stats.errors, chStats.errors...)
		}()
	}

	wg.Wait()

	if ctx.Err() != nil {
		// Partial run: counters stay put, the tracker is due again next pass.
		return nil, fmt.Errorf("tracker run cancelled: %w", ctx.Err())
	}

	now := time.Now().UTC()
	nextRun := now.Add(time.Duration(trk.PollIntervalMinutes) * time.Minute)

	if completeErr := o.trackers.CompleteRun(ctx, trk.ID, stats.found, stats.imported, now, nextRun); completeErr != nil {
		return nil, fmt.Errorf("complete run: %w", completeErr)
	}

	return stats, nil
}

// pollChannel fetches and processes one channel. Failures are recorded
// on the channel and never abort the tracker's other channels.
func (o *Orchestrator) pollChannel(
	ctx context.Context,
	trk *domain.Tracker,
	ch *domain.Channel,
	kws []string,
	settings *domain.TenantSettings,
) *trackerStats {
	stats := &trackerStats{}

	resp, err := o.fetcher.Fetch(ctx, ch.URL, ch.LastETag, ch.LastModified)
	if err != nil {
		o.recordChannelError(ctx, ch, err, stats)
		return stats
	}

	if resp.StatusCode == http.StatusNotModified {
		o.log.Debug("channel not modified", "channel_id", ch.ID, "url", ch.URL)

		if successErr := o.channels.UpdateSuccess(ctx, ch.ID, ch.LastETag, ch.LastModified, 0); successErr != nil {
			o.log.Error("failed to record channel success", "channel_id", ch.ID, "error", successErr.Error())
		}
		return stats
	}

	items, parseErr := feed.ParseFeed(ctx, resp.Body)
	if parseErr != nil {
		o.recordChannelError(ctx, ch, feed.ClassifyParseError(parseErr, ch.URL), stats)
		return stats
	}

	// Candidates are processed in fetch order; dedup does not depend on it.
	for i := range items {
		o.processItem(ctx, trk, ch, items[i], kws, settings, stats)
	}

	if successErr := o.channels.UpdateSuccess(ctx, ch.ID, resp.ETag, resp.LastModified, len(items)); successErr != nil {
		o.log.Error("failed to record channel success", "channel_id", ch.ID, "error", successErr.Error())
	}

	return stats
}

// processItem runs one item through enrichment and the decider.
func (o *Orchestrator) processItem(
	ctx context.Context,
	trk *domain.Tracker,
	ch *domain.Channel,
	item feed.Item,
	kws []string,
	settings *domain.TenantSettings,
	stats *trackerStats,
) {
	if item.Title == "" && o.enricher != nil {
		if meta, enrichErr := o.enricher.Fetch(ctx, item.RawURL); enrichErr == nil {
			item.Title = meta.Title
			if item.OutletName == "" {
				item.OutletName = meta.OutletName
			}
		}
	}

	cand, clipping, err := o.decider.Decide(ctx, decider.Input{
		Tracker:  trk,
		Channel:  ch,
		Item:     item,
		Keywords: kws,
	}, settings)
	if err != nil {
		stats.processed++
		stats.failed++
		stats.errors = append(stats.errors, fmt.Sprintf("channel %s: %s", ch.ID, err))

		o.log.Warn("candidate dropped",
			"channel_id", ch.ID,
			"url", item.RawURL,
			"error", err.Error(),
		)
		return
	}

	stats.processed++

	if cand.Disposition != domain.DispositionRejectedDuplicate {
		stats.found++
	}

	if clipping != nil {
		stats.imported++
	}
}

// recordChannelError logs and persists one channel failure.
func (o *Orchestrator) recordChannelError(ctx context.Context, ch *domain.Channel, err error, stats *trackerStats) {
	stats.channelErrors++
	stats.errors = append(stats.errors, fmt.Sprintf("channel %s: %s", ch.ID, err))

	o.log.Warn("channel poll failed",
		"channel_id", ch.ID,
		"url", ch.URL,
		"error", err.Error(),
	)

	if updateErr := o.channels.UpdateError(ctx, ch.ID, err.Error()); updateErr != nil {
		o.log.Error("failed to record channel error",
			"channel_id", ch.ID,
			"error", updateErr.Error(),
		)
	}
}

// appendError adds a message to the bounded pass error list.
func appendError(result *PassResult, msg string) {
	if len(result.Errors) >= maxReportedErrors {
		return
	}

	result.Errors = append(result.Errors, msg)
}
