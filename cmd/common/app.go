package common

import (
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/AImitSK/skamp-monitoring/internal/database"
	"github.com/AImitSK/skamp-monitoring/internal/decider"
	"github.com/AImitSK/skamp-monitoring/internal/dedup"
	"github.com/AImitSK/skamp-monitoring/internal/enrich"
	"github.com/AImitSK/skamp-monitoring/internal/feed"
	"github.com/AImitSK/skamp-monitoring/internal/metrics"
	"github.com/AImitSK/skamp-monitoring/internal/orchestrator"
	"github.com/AImitSK/skamp-monitoring/internal/scoring"
	"github.com/AImitSK/skamp-monitoring/internal/tracker"
	"github.com/AImitSK/skamp-monitoring/internal/worker"
)

const defaultRetryInterval = 500 * time.Millisecond

// App holds the wired application graph shared by the serve and crawl
// commands.
type App struct {
	DB           *sqlx.DB
	Redis        *redis.Client
	Trackers     *database.TrackerRepository
	Channels     *database.ChannelRepository
	Candidates   *database.CandidateRepository
	Clippings    *database.ClippingRepository
	Settings     *database.SettingsRepository
	TrackerSvc   *tracker.Service
	Orchestrator *orchestrator.Orchestrator
	Metrics      *metrics.Metrics
}

// BuildApp connects to the backing stores and wires the orchestrator.
func BuildApp(deps *CommandDeps) (*App, error) {
	cfg := deps.Config

	db, err := database.NewPostgresConnection(cfg.DatabaseConnConfig())
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	trackers := database.NewTrackerRepository(db)
	channels := database.NewChannelRepository(db)
	candidates := database.NewCandidateRepository(db)
	clippings := database.NewClippingRepository(db)
	companies := database.NewCompanyRepository(db)
	settings := database.NewSettingsRepository(db)
	runState := database.NewRunStateRepository(db)

	app := &App{
		DB:         db,
		Trackers:   trackers,
		Channels:   channels,
		Candidates: candidates,
		Clippings:  clippings,
		Settings:   settings,
		Metrics:    metrics.NewMetrics(),
	}

	// The cache is optional; without it dedup uses the database lookback.
	var cache decider.RecentCache
	if cfg.Redis.Address != "" {
		app.Redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		cache = dedup.NewCache(app.Redis, dedup.DefaultWindow)
	}

	httpClient := &http.Client{Timeout: cfg.Crawl.FetchTimeout}

	var scorer scoring.Scorer
	if cfg.Scoring.Endpoint != "" {
		scorer = scoring.NewHTTPScorer(httpClient, cfg.Scoring.Endpoint, cfg.Scoring.Secret)
	} else {
		// Without an external scorer everything lands in human review.
		scorer = &scoring.StaticScorer{}
		deps.Logger.Warn("no scoring endpoint configured, all candidates go to pending review")
	}

	var merger scoring.Merger
	if cfg.Scoring.MergeEndpoint != "" {
		merger = scoring.NewHTTPMerger(httpClient, cfg.Scoring.MergeEndpoint, cfg.Scoring.Secret)
	}

	dec := decider.New(candidates, clippings, cache, scorer, merger, deps.Logger)

	app.TrackerSvc = tracker.NewService(companies, trackers, channels, settings, deps.Logger)

	fetcher := feed.NewHTTPFetcherWithRetry(httpClient, uint64(cfg.Crawl.MaxRetries), defaultRetryInterval)

	orchConfig := orchestrator.Config{
		WorkerPool: worker.Config{
			PoolSize:     cfg.Crawl.PoolSize,
			DrainTimeout: cfg.Crawl.DrainTimeout,
			JobTimeout:   cfg.Crawl.JobTimeout,
		},
		ChannelConcurrency: cfg.Crawl.ChannelConcurrency,
	}

	app.Orchestrator = orchestrator.New(
		orchConfig,
		trackers,
		channels,
		settings,
		runState,
		fetcher,
		dec,
		enrich.New(httpClient),
		app.TrackerSvc,
		app.Metrics,
		deps.Logger,
	)

	return app, nil
}

// Close releases the app's connections.
func (a *App) Close() {
	if a.Redis != nil {
		_ = a.Redis.Close()
	}

	if a.DB != nil {
		_ = a.DB.Close()
	}
}
