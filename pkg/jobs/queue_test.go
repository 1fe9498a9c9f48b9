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

func TestQueueRetriesUntilSuccess(t *testing.T) {
	var calls int32
	done := make(chan int, 1)
	q := NewQueue("test", func(_ context.Context, job Job) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return errors.New("transient")
		}
		done <- job.Attempt
		return nil
	}, QueueConfig{MaxRetries: 3, RetryDelay: 5 * time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "job-1"}))
	select {
	case attempt := <-done:
		assert.Equal(t, 2, attempt)
	case <-time.After(2 * time.Second):
		t.Fatal("job never succeeded")
	}
}

func TestQueuePermanentErrorIsNotRetried(t *testing.T) {
	var calls int32
	q := NewQueue("test", func(context.Context, Job) error {
		atomic.AddInt32(&calls, 1)
		return Permanent(errors.New("missing input"))
	}, QueueConfig{MaxRetries: 3, RetryDelay: 5 * time.Millisecond})
	q.Start(context.Background())

	require.NoError(t, q.Enqueue(Job{ID: "job-1"}))
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	q.Stop()
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestQueueEnqueueRequiresStart(t *testing.T) {
	q := NewQueue("idle", func(context.Context, Job) error { return nil }, QueueConfig{})
	assert.Error(t, q.Enqueue(Job{ID: "x"}))
	assert.Equal(t, 3, q.MaxRetries())
}

func TestPermanentWrapping(t *testing.T) {
	base := errors.New("boom")
	err := Permanent(base)
	assert.True(t, IsPermanent(err))
	assert.ErrorIs(t, err, base)
	assert.False(t, IsPermanent(base))
	assert.NoError(t, Permanent(nil))
}

func TestQueueRecoversPanicsAsPermanent(t *testing.T) {
	var calls int32
	q := NewQueue("panicky", func(context.Context, Job) error {
		atomic.AddInt32(&calls, 1)
		panic("nil curriculum")
	}, QueueConfig{MaxRetries: 3, RetryDelay: time.Millisecond})
	q.Start(context.Background())

	require.NoError(t, q.Enqueue(Job{ID: "job-1"}))
	assert.Eventually(t, func() bool { return q.Stats().Failed == 1 }, time.Second, 5*time.Millisecond)
	q.Stop()
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
	assert.Zero(t, q.Stats().Retried)
}

func TestQueueJobTimeoutCancelsHandler(t *testing.T) {
	errs := make(chan error, 1)
	q := NewQueue("slow", func(ctx context.Context, _ Job) error {
		<-ctx.Done()
		errs <- ctx.Err()
		return Permanent(ctx.Err())
	}, QueueConfig{JobTimeout: 10 * time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "job-1"}))
	select {
	case err := <-errs:
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(2 * time.Second):
		t.Fatal("handler was never cancelled")
	}
}

func TestQueueBackoffDoublesUpToCap(t *testing.T) {
	q := NewQueue("backoff", func(context.Context, Job) error { return nil }, QueueConfig{
		RetryDelay:    100 * time.Millisecond,
		MaxRetryDelay: 350 * time.Millisecond,
	})
	assert.Equal(t, 100*time.Millisecond, q.backoff(1))
	assert.Equal(t, 200*time.Millisecond, q.backoff(2))
	assert.Equal(t, 350*time.Millisecond, q.backoff(3))
	assert.Equal(t, 350*time.Millisecond, q.backoff(8))
}

func TestQueueStatsCountOutcomes(t *testing.T) {
	q := NewQueue("stats", func(_ context.Context, job Job) error {
		if job.ID == "bad" {
			return Permanent(errors.New("bad input"))
		}
		return nil
	}, QueueConfig{Workers: 2})
	q.Start(context.Background())
	defer q.Stop()

	for _, id := range []string{"a", "b", "bad"} {
		require.NoError(t, q.Enqueue(Job{ID: id}))
	}
	assert.Eventually(t, func() bool {
		s := q.Stats()
		return s.Succeeded == 2 && s.Failed == 1
	}, time.Second, 5*time.Millisecond)
}
