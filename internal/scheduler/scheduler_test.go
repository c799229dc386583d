package scheduler_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AImitSK/skamp-monitoring/internal/logger"
	"github.com/AImitSK/skamp-monitoring/internal/orchestrator"
	"github.com/AImitSK/skamp-monitoring/internal/scheduler"
)

type mockRunner struct {
	calls atomic.Int32
}

func (m *mockRunner) RunPass(_ context.Context, _ orchestrator.Options) (*orchestrator.PassResult, error) {
	m.calls.Add(1)
	return &orchestrator.PassResult{}, nil
}

func TestStartRejectsInvalidSchedule(t *testing.T) {
	t.Parallel()

	s := scheduler.New(&mockRunner{}, "not a cron expression", logger.NewNoop())

	err := s.Start()
	require.Error(t, err)
}

func TestStartAndStop(t *testing.T) {
	t.Parallel()

	runner := &mockRunner{}
	s := scheduler.New(runner, scheduler.DefaultSchedule, logger.NewNoop())

	require.NoError(t, s.Start())

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop in time")
	}

	assert.Zero(t, runner.calls.Load(), "no tick fires within a stop that fast")
}
