// Package scheduler drives recurring orchestration passes on a cron
// schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/AImitSK/skamp-monitoring/internal/logger"
	"github.com/AImitSK/skamp-monitoring/internal/orchestrator"
)

// DefaultSchedule runs a pass every 15 minutes. Trackers keep their own
// poll interval, so a tighter cron only means due trackers are picked up
// sooner.
const DefaultSchedule = "*/15 * * * *"

// PassRunner runs one orchestration pass.
type PassRunner interface {
	RunPass(ctx context.Context, opts orchestrator.Options) (*orchestrator.PassResult, error)
}

// Scheduler runs orchestration passes on a fixed cron schedule. Passes
// never overlap: a tick that fires while the previous pass is still
// running is skipped.
type Scheduler struct {
	runner   PassRunner
	schedule string
	log      logger.Interface

	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a scheduler. An empty schedule falls back to
// DefaultSchedule.
func New(runner PassRunner, schedule string, log logger.Interface) *Scheduler {
	if schedule == "" {
		schedule = DefaultSchedule
	}

	ctx, cancel := context.WithCancel(context.Background())

	// Standard 5-field format: minute hour day month weekday.
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	c := cron.New(
		cron.WithParser(parser),
		cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	return &Scheduler{
		runner:   runner,
		schedule: schedule,
		log:      log,
		cron:     c,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start registers the pass job and starts the cron loop. The first pass
// runs at the first cron tick, not immediately.
func (s *Scheduler) Start() error {
	entryID, err := s.cron.AddFunc(s.schedule, s.runPass)
	if err != nil {
		return fmt.Errorf("scheduler add pass job: %w", err)
	}

	s.cron.Start()

	s.log.Info("scheduler started",
		"schedule", s.schedule,
		"entry_id", int(entryID),
	)

	return nil
}

// Stop stops the cron loop and waits for an in-flight pass to finish.
func (s *Scheduler) Stop() {
	s.log.Info("scheduler stopping")

	s.cancel()

	cronCtx := s.cron.Stop()
	<-cronCtx.Done()

	s.wg.Wait()

	s.log.Info("scheduler stopped")
}

// runPass executes one scheduled pass with the scheduler's lifecycle
// context.
func (s *Scheduler) runPass() {
	s.wg.Add(1)
	defer s.wg.Done()

	if s.ctx.Err() != nil {
		return
	}

	started := time.Now()

	result, err := s.runner.RunPass(s.ctx, orchestrator.Options{})
	if err != nil {
		s.log.Error("scheduled pass failed",
			"error", err.Error(),
			"duration", time.Since(started).String(),
		)
		return
	}

	if result.Skipped != "" {
		s.log.Info("scheduled pass skipped", "reason", result.Skipped)
		return
	}

	s.log.Info("scheduled pass finished",
		"trackers", result.TrackersProcessed,
		"processed", result.CandidatesProcessed,
		"imported", result.CandidatesImported,
		"duration", time.Since(started).String(),
	)
}
