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

func TestQueueDeliversJobRef(t *testing.T) {
	got := make(chan Job, 1)
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		got <- job
		return nil
	}, QueueConfig{Workers: 1})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "j-1", Kind: "invoice", Ref: "inv-42"}))

	select {
	case job := <-got:
		assert.Equal(t, "invoice", job.Kind)
		assert.Equal(t, "inv-42", job.Ref)
		assert.False(t, job.EnqueuedAt.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("job was not processed")
	}
}

func TestQueueRetriesFailedJob(t *testing.T) {
	var attempts int32
	done := make(chan struct{})
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		if atomic.AddInt32(&attempts, 1) == 1 {
			return errors.New("transient")
		}
		close(done)
		return nil
	}, QueueConfig{Workers: 1, MaxRetries: 2, RetryDelay: 10 * time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "j-1", Kind: "invoice", Ref: "inv-42"}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not retried")
	}
	assert.EqualValues(t, 2, atomic.LoadInt32(&attempts))
}

func TestQueueEnqueueBeforeStart(t *testing.T) {
	q := NewQueue("test", func(context.Context, Job) error { return nil }, QueueConfig{})
	assert.Error(t, q.Enqueue(Job{ID: "j-1"}))
}
