package schedulerengine

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gitlab.com/appserver.net/internal/adapter/logging"
)

func TestScheduleRunsTask(t *testing.T) {
	engine := NewSchedulerEngine(logging.NewNopLogger(), time.Second)

	var runs atomic.Int32
	require.NoError(t, engine.Schedule("tick", "@every 1s", func(ctx context.Context) error {
		runs.Add(1)
		return nil
	}))

	engine.Start()
	defer engine.Stop()

	require.Eventually(t, func() bool { return runs.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)
}

func TestScheduleReplacesTask(t *testing.T) {
	engine := NewSchedulerEngine(logging.NewNopLogger(), time.Second)

	require.NoError(t, engine.Schedule("tick", "@every 1h", func(context.Context) error { return nil }))
	require.NoError(t, engine.Schedule("tick", "@every 2h", func(context.Context) error { return nil }))
	require.Equal(t, 1, engine.Len())
}

func TestScheduleRejectsBadSpec(t *testing.T) {
	engine := NewSchedulerEngine(logging.NewNopLogger(), time.Second)

	require.Error(t, engine.Schedule("tick", "not a schedule", func(context.Context) error { return nil }))
	require.Equal(t, 0, engine.Len())
}

func TestStopCancelsRunningTask(t *testing.T) {
	engine := NewSchedulerEngine(logging.NewNopLogger(), time.Minute)

	started := make(chan struct{}, 1)
	var cancelled atomic.Bool
	require.NoError(t, engine.Schedule("block", "@every 1s", func(ctx context.Context) error {
		select {
		case started <- struct{}{}:
		default:
		}
		<-ctx.Done()
		cancelled.Store(true)
		return ctx.Err()
	}))

	engine.Start()
	select {
	case <-started:
	case <-time.After(3 * time.Second):
		t.Fatal("task never started")
	}

	engine.Stop()
	require.True(t, cancelled.Load())
}
