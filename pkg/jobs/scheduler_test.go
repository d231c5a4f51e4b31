package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerRetriesUntilSuccess(t *testing.T) {
	var calls int32
	done := make(chan Job, 1)
	s := NewScheduler("test", func(ctx context.Context, job Job) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return errors.New("transient")
		}
		done <- job
		return nil
	}, Config{MaxRetries: 3, RetryDelay: time.Millisecond})

	s.Start(context.Background(), time.Hour, "scan")
	defer s.Stop()

	select {
	case job := <-done:
		assert.Equal(t, 3, job.Attempt)
		assert.Equal(t, "scan", job.Type)
		assert.NotEmpty(t, job.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("job did not succeed after retries")
	}
}

func TestSchedulerGivesUpAfterMaxRetries(t *testing.T) {
	var calls int32
	s := NewScheduler("test", func(context.Context, Job) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("broken")
	}, Config{MaxRetries: 2, RetryDelay: time.Millisecond})

	// A non-positive interval runs once, so Stop returns after the retries.
	s.Start(context.Background(), 0, "scan")
	require.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 3 }, 2*time.Second, time.Millisecond)
	s.Stop()
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestSchedulerRunsOnEachTick(t *testing.T) {
	var calls int32
	s := NewScheduler("ticker", func(context.Context, Job) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx, 5*time.Millisecond, "scan")
	s.Start(ctx, 5*time.Millisecond, "scan")

	require.Eventually(t, func() bool { return atomic.LoadInt32(&calls) >= 3 }, 2*time.Second, time.Millisecond)
	s.Stop()
	stopped := atomic.LoadInt32(&calls)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, stopped, atomic.LoadInt32(&calls))
}

func TestSchedulerStopWithoutStart(t *testing.T) {
	s := NewScheduler("idle", func(context.Context, Job) error { return nil }, Config{})
	assert.NotPanics(t, s.Stop)
}
