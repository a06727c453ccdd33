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

func TestQueueProcessesJobs(t *testing.T) {
	var sum int64
	done := make(chan struct{}, 3)
	q := NewQueue[int]("sum", func(_ context.Context, job Job[int]) error {
		atomic.AddInt64(&sum, int64(job.Payload))
		done <- struct{}{}
		return nil
	}, QueueConfig{Workers: 2})
	q.Start(context.Background())
	defer q.Stop()

	for _, n := range []int{1, 2, 3} {
		require.NoError(t, q.Enqueue(n))
	}
	for i := 0; i < 3; i++ {
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for jobs")
		}
	}
	assert.Equal(t, int64(6), atomic.LoadInt64(&sum))
}

func TestQueueRetriesThenDrops(t *testing.T) {
	var calls int32
	dropped := make(chan error, 1)
	q := NewQueue[string]("fail", func(context.Context, Job[string]) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("db down")
	}, QueueConfig{MaxRetries: 2, RetryDelay: time.Millisecond, OnDrop: func(err error) { dropped <- err }})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue("snap"))
	select {
	case err := <-dropped:
		assert.EqualError(t, err, "db down")
	case <-time.After(time.Second):
		t.Fatal("job was never dropped")
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestQueueRejectsBeforeStart(t *testing.T) {
	q := NewQueue[int]("idle", func(context.Context, Job[int]) error { return nil }, QueueConfig{})
	assert.ErrorIs(t, q.Enqueue(1), ErrNotStarted)
	assert.ErrorIs(t, q.TryEnqueue(1), ErrNotStarted)
}

func TestQueueTryEnqueueFull(t *testing.T) {
	block := make(chan struct{})
	q := NewQueue[int]("full", func(ctx context.Context, _ Job[int]) error {
		select {
		case <-block:
		case <-ctx.Done():
		}
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 1})
	q.Start(context.Background())
	defer func() {
		close(block)
		q.Stop()
	}()

	require.NoError(t, q.Enqueue(1))
	require.Eventually(t, func() bool { return len(q.jobs) == 0 }, time.Second, time.Millisecond)
	require.NoError(t, q.TryEnqueue(2))
	assert.ErrorIs(t, q.TryEnqueue(3), ErrQueueFull)
}

func TestQueueOutlivesDetachedParentAndReportsLeftovers(t *testing.T) {
	block := make(chan struct{})
	var handled, dropped int32
	q := NewQueue[int]("drain", func(ctx context.Context, _ Job[int]) error {
		select {
		case <-block:
			atomic.AddInt32(&handled, 1)
		case <-ctx.Done():
		}
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 4, OnDrop: func(err error) {
		if errors.Is(err, ErrStopped) {
			atomic.AddInt32(&dropped, 1)
		}
	}})

	parent, cancel := context.WithCancel(context.Background())
	q.Start(context.WithoutCancel(parent))
	cancel()

	require.NoError(t, q.TryEnqueue(1))
	block <- struct{}{}
	require.Eventually(t, func() bool { return atomic.LoadInt32(&handled) == 1 }, time.Second, time.Millisecond)

	require.NoError(t, q.TryEnqueue(2))
	require.Eventually(t, func() bool { return len(q.jobs) == 0 }, time.Second, time.Millisecond)
	require.NoError(t, q.TryEnqueue(3))
	require.NoError(t, q.TryEnqueue(4))
	q.Stop()

	assert.Equal(t, int32(2), atomic.LoadInt32(&dropped))
	assert.ErrorIs(t, q.TryEnqueue(5), ErrNotStarted)
}
