package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/bountyforge/bountyforge/internal/common"
	"github.com/bountyforge/bountyforge/internal/models"
)

// Handler processes one job pulled off the queue. A returned error is
// logged but never requeues the job itself — the Runner is responsible
// for recording the failure against the job record before returning.
type Handler func(ctx context.Context, job models.JobDescriptor) error

// WorkerPool runs a fixed number of goroutines, each polling Queue on
// its own ticker and dispatching received jobs to Handler.
type WorkerPool struct {
	q            Queue
	handler      Handler
	logger       arbor.ILogger
	pollInterval time.Duration
	concurrency  int
	ctx          context.Context
	cancel       context.CancelFunc
}

// NewWorkerPool constructs a pool draining q at pollInterval with
// concurrency parallel workers.
func NewWorkerPool(q Queue, handler Handler, logger arbor.ILogger, pollInterval time.Duration, concurrency int) *WorkerPool {
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &WorkerPool{
		q:            q,
		handler:      handler,
		logger:       logger,
		pollInterval: pollInterval,
		concurrency:  concurrency,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Start launches the worker goroutines. It returns immediately; workers
// run until Stop is called.
func (wp *WorkerPool) Start() error {
	for i := 0; i < wp.concurrency; i++ {
		workerID := i
		common.SafeGo(wp.logger, fmt.Sprintf("queueWorker-%d", workerID), func() {
			wp.worker(workerID)
		})
	}
	wp.logger.Info().Int("workers", wp.concurrency).Dur("poll_interval", wp.pollInterval).Msg("worker pool started")
	return nil
}

// Stop cancels every worker's polling loop and waits briefly for
// in-flight handlers to notice the cancellation.
func (wp *WorkerPool) Stop() error {
	wp.cancel()
	time.Sleep(200 * time.Millisecond)
	return nil
}

func (wp *WorkerPool) worker(workerID int) {
	// Stagger starts so Concurrency workers don't all poll the queue on
	// the same tick, which would otherwise waste receives on contention.
	divisor := wp.concurrency
	if divisor < 1 {
		divisor = 1
	}
	startDelay := time.Duration(workerID) * (wp.pollInterval / time.Duration(divisor))
	select {
	case <-time.After(startDelay):
	case <-wp.ctx.Done():
		return
	}

	ticker := time.NewTicker(wp.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-wp.ctx.Done():
			return
		case <-ticker.C:
			if err := wp.processOne(workerID); err != nil && !errors.Is(err, ErrNoMessage) {
				wp.logger.Error().Err(err).Int("worker", workerID).Msg("failed to process queued job")
			}
		}
	}
}

func (wp *WorkerPool) processOne(workerID int) error {
	job, del, err := wp.q.Receive(wp.ctx)
	if err != nil {
		return err
	}

	if handlerErr := wp.handler(wp.ctx, *job); handlerErr != nil {
		wp.logger.Error().Err(handlerErr).Str("job_id", job.JobID).Int("worker", workerID).Msg("job handler returned an error")
	}

	return wp.retryDelete(del, job.JobID)
}

// retryDelete removes a processed message from the queue, retrying a
// handful of times since Badger can report a transient conflict under
// write contention from concurrent workers.
func (wp *WorkerPool) retryDelete(del DeleteFunc, jobID string) error {
	const attempts = 3
	var lastErr error
	for i := 0; i < attempts; i++ {
		if err := del(); err != nil {
			lastErr = err
			if strings.Contains(err.Error(), "conflict") {
				time.Sleep(time.Duration(1<<i) * 10 * time.Millisecond)
				continue
			}
			return err
		}
		return nil
	}
	return lastErr
}
