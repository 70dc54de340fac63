package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/bountyforge/bountyforge/internal/models"
)

// fakeQueue is an in-memory FIFO satisfying the Queue interface, used
// to exercise WorkerPool without a BadgerDB temp directory.
type fakeQueue struct {
	mu    sync.Mutex
	items []models.JobDescriptor
}

func (f *fakeQueue) Enqueue(ctx context.Context, job models.JobDescriptor) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append(f.items, job)
	return nil
}

func (f *fakeQueue) Receive(ctx context.Context) (*models.JobDescriptor, DeleteFunc, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.items) == 0 {
		return nil, nil, ErrNoMessage
	}
	job := f.items[0]
	f.items = f.items[1:]
	return &job, func() error { return nil }, nil
}

func (f *fakeQueue) Close() error { return nil }

func TestWorkerPool_DispatchesEnqueuedJobToHandler(t *testing.T) {
	q := &fakeQueue{}
	require.NoError(t, q.Enqueue(context.Background(), models.JobDescriptor{JobID: "job-1"}))

	var mu sync.Mutex
	var handled []string
	done := make(chan struct{}, 1)

	handler := func(ctx context.Context, job models.JobDescriptor) error {
		mu.Lock()
		handled = append(handled, job.JobID)
		mu.Unlock()
		select {
		case done <- struct{}{}:
		default:
		}
		return nil
	}

	wp := NewWorkerPool(q, handler, arbor.NewLogger(), 5*time.Millisecond, 1)
	require.NoError(t, wp.Start())
	defer wp.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler was never invoked")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Contains(t, handled, "job-1")
}
