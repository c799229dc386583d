package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AImitSK/skamp-monitoring/internal/logger"
)

// PoolState represents the current state of the pool.
type PoolState int32

const (
	// PoolStateStopped means the pool is not running.
	PoolStateStopped PoolState = iota

	// PoolStateRunning means the pool is actively processing jobs.
	PoolStateRunning

	// PoolStateDraining means the pool is shutting down gracefully.
	PoolStateDraining
)

// String returns the string representation of a pool state.
func (s PoolState) String() string {
	switch s {
	case PoolStateStopped:
		return "stopped"
	case PoolStateRunning:
		return "running"
	case PoolStateDraining:
		return "draining"
	default:
		return "unknown"
	}
}

// Job is a unit of work executed by the pool.
type Job func(ctx context.Context) error

// Pool manages bounded-concurrency execution of jobs.
type Pool struct {
	config Config
	log    logger.Interface
	state  atomic.Int32
	sem    chan struct{}
	wg     sync.WaitGroup
	stopCh chan struct{}

	// Stats
	totalJobsProcessed atomic.Int64
	totalJobsSucceeded atomic.Int64
	totalJobsFailed    atomic.Int64
}

// NewPool creates a new worker pool.
func NewPool(cfg Config, log logger.Interface) (*Pool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	p := &Pool{
		config: cfg,
		log:    log,
		sem:    make(chan struct{}, cfg.PoolSize),
		stopCh: make(chan struct{}),
	}

	p.state.Store(int32(PoolStateStopped))

	return p, nil
}

// Start starts the worker pool.
func (p *Pool) Start() error {
	if !p.state.CompareAndSwap(int32(PoolStateStopped), int32(PoolStateRunning)) {
		return errors.New("pool is already running")
	}

	p.log.Info("worker pool started", "pool_size", p.config.PoolSize)

	return nil
}

// Stop gracefully stops the worker pool, waiting for in-flight jobs up
// to the drain timeout.
func (p *Pool) Stop(ctx context.Context) error {
	if !p.state.CompareAndSwap(int32(PoolStateRunning), int32(PoolStateDraining)) {
		return errors.New("pool is not running")
	}

	p.log.Info("worker pool draining")

	close(p.stopCh)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.log.Info("worker pool stopped gracefully")
	case <-ctx.Done():
		p.log.Warn("worker pool stop cancelled")
	case <-time.After(p.config.DrainTimeout):
		p.log.Warn("worker pool drain timeout exceeded")
	}

	p.state.Store(int32(PoolStateStopped))
	return nil
}

// Submit schedules a job, blocking while all workers are busy. The job
// runs with the pool's job timeout applied.
func (p *Pool) Submit(ctx context.Context, job Job) error {
	if p.State() != PoolStateRunning {
		return errors.New("pool is not running")
	}

	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	case <-p.stopCh:
		return errors.New("pool is stopping")
	}

	p.wg.Add(1)

	go func() {
		defer func() {
			<-p.sem
			p.wg.Done()
		}()

		jobCtx, cancel := context.WithTimeout(ctx, p.config.JobTimeout)
		defer cancel()

		err := job(jobCtx)

		p.totalJobsProcessed.Add(1)
		if err != nil {
			p.totalJobsFailed.Add(1)
			p.log.Error("worker job failed", "error", err.Error())
		} else {
			p.totalJobsSucceeded.Add(1)
		}
	}()

	return nil
}

// Wait blocks until all submitted jobs have finished.
func (p *Pool) Wait() {
	p.wg.Wait()
}

// State returns the current pool state.
func (p *Pool) State() PoolState {
	return PoolState(p.state.Load())
}

// IsRunning returns true if the pool is running.
func (p *Pool) IsRunning() bool {
	return p.State() == PoolStateRunning
}

// Size returns the pool size.
func (p *Pool) Size() int {
	return p.config.PoolSize
}

// Stats returns pool statistics.
func (p *Pool) Stats() PoolStats {
	return PoolStats{
		State:         p.State(),
		PoolSize:      p.config.PoolSize,
		JobsProcessed: p.totalJobsProcessed.Load(),
		JobsSucceeded: p.totalJobsSucceeded.Load(),
		JobsFailed:    p.totalJobsFailed.Load(),
	}
}

// PoolStats holds statistics for the pool.
type PoolStats struct {
	State         PoolState
	PoolSize      int
	JobsProcessed int64
	JobsSucceeded int64
	JobsFailed    int64
}
