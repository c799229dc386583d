// Package metrics provides in-process counters for orchestration passes.
package metrics

import (
	"sync"
	"time"
)

// Metrics holds the pass-level processing counters.
type Metrics struct {
	mu sync.Mutex

	passesCompleted     int64
	trackersProcessed   int64
	candidatesProcessed int64
	candidatesImported  int64
	candidatesFailed    int64
	channelErrors       int64
	lastPassAt          time.Time
	lastPassDuration    time.Duration
	startTime           time.Time
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	PassesCompleted     int64         `json:"passes_completed"`
	TrackersProcessed   int64         `json:"trackers_processed"`
	CandidatesProcessed int64         `json:"candidates_processed"`
	CandidatesImported  int64         `json:"candidates_imported"`
	CandidatesFailed    int64         `json:"candidates_failed"`
	ChannelErrors       int64         `json:"channel_errors"`
	LastPassAt          time.Time     `json:"last_pass_at"`
	LastPassDuration    time.Duration `json:"last_pass_duration"`
	Uptime              time.Duration `json:"uptime"`
}

// NewMetrics creates a new Metrics instance.
func NewMetrics() *Metrics {
	return &Metrics{startTime: time.Now()}
}

// RecordPass accumulates the results of one completed orchestration pass.
func (m *Metrics) RecordPass(trackers, processed, imported, failed, channelErrors int, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.passesCompleted++
	m.trackersProcessed += int64(trackers)
	m.candidatesProcessed += int64(processed)
	m.candidatesImported += int64(imported)
	m.candidatesFailed += int64(failed)
	m.channelErrors += int64(channelErrors)
	m.lastPassAt = time.Now()
	m.lastPassDuration = duration
}

// GetSnapshot returns a copy of the current counters.
func (m *Metrics) GetSnapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Snapshot{
		PassesCompleted:     m.passesCompleted,
		TrackersProcessed:   m.trackersProcessed,
		CandidatesProcessed: m.candidatesProcessed,
		CandidatesImported:  m.candidatesImported,
		CandidatesFailed:    m.candidatesFailed,
		ChannelErrors:       m.channelErrors,
		LastPassAt:          m.lastPassAt,
		LastPassDuration:    m.lastPassDuration,
		Uptime:              time.Since(m.startTime),
	}
}

// Reset resets all counters to their initial values.
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.passesCompleted = 0
	m.trackersProcessed = 0
	m.candidatesProcessed = 0
	m.candidatesImported = 0
	m.candidatesFailed = 0
	m.channelErrors = 0
	m.lastPassAt = time.Time{}
	m.lastPassDuration = 0
}
