// Package badger implements the submission Queue on BadgerDB via
// badgerhold, the same persistence choice the Result Store Gateway
// uses, so the Runner has a durable queue to drain without pulling in
// a second storage engine.
package badger

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/bountyforge/bountyforge/internal/models"
	"github.com/bountyforge/bountyforge/internal/queue"
)

// queuedMessage is the badgerhold-persisted envelope around a
// JobDescriptor. ID carries a nanosecond-timestamp prefix so that
// sorting by ID gives FIFO order.
type queuedMessage struct {
	ID           string `badgerhold:"key"`
	Body         models.JobDescriptor
	EnqueuedAt   time.Time
	VisibleAt    time.Time `badgerhold:"index"`
	ReceiveCount int
}

// Queue is a BadgerDB-backed implementation of queue.Queue.
type Queue struct {
	store             *badgerhold.Store
	logger            arbor.ILogger
	visibilityTimeout time.Duration
	maxReceive        int
}

// Option configures optional Queue behaviour.
type Option func(*Queue)

// WithVisibilityTimeout overrides the default redelivery window for a
// message that was received but never deleted (worker crash).
func WithVisibilityTimeout(d time.Duration) Option {
	return func(q *Queue) { q.visibilityTimeout = d }
}

// WithMaxReceive overrides how many times in total (first delivery
// included) a message may be received before it is left in place for
// operator inspection rather than handed to a worker again.
func WithMaxReceive(n int) Option {
	return func(q *Queue) { q.maxReceive = n }
}

// Open creates (if necessary) and opens a BadgerDB-backed queue at
// dataDir.
func Open(logger arbor.ILogger, dataDir string, opts ...Option) (*Queue, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create queue directory: %w", err)
	}

	options := badgerhold.DefaultOptions
	options.Dir = dataDir
	options.ValueDir = dataDir
	options.Logger = nil

	store, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open queue database at %s: %w", dataDir, err)
	}

	q := &Queue{store: store, logger: logger, visibilityTimeout: 5 * time.Minute, maxReceive: 3}
	for _, opt := range opts {
		opt(q)
	}
	return q, nil
}

var _ queue.Queue = (*Queue)(nil)

func (q *Queue) Enqueue(ctx context.Context, job models.JobDescriptor) error {
	now := time.Now()
	id := fmt.Sprintf("%019d:%s", now.UnixNano(), uuid.New().String())

	msg := queuedMessage{
		ID:         id,
		Body:       job,
		EnqueuedAt: now,
		VisibleAt:  now,
	}
	if err := q.store.Insert(id, &msg); err != nil {
		return fmt.Errorf("failed to enqueue job %s: %w", job.JobID, err)
	}
	return nil
}

func (q *Queue) Receive(ctx context.Context) (*models.JobDescriptor, queue.DeleteFunc, error) {
	now := time.Now()

	var pending []queuedMessage
	err := q.store.Find(&pending, badgerhold.Where("VisibleAt").Le(now).
		And("ReceiveCount").Lt(q.maxReceive).
		SortBy("ID").
		Limit(1))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to receive message: %w", err)
	}
	if len(pending) == 0 {
		return nil, nil, queue.ErrNoMessage
	}

	found := pending[0]
	found.ReceiveCount++
	found.VisibleAt = now.Add(q.visibilityTimeout)
	if err := q.store.Update(found.ID, &found); err != nil {
		return nil, nil, fmt.Errorf("failed to extend message visibility: %w", err)
	}

	id := found.ID
	del := func() error {
		return q.store.Delete(id, &queuedMessage{})
	}
	job := found.Body
	return &job, del, nil
}

func (q *Queue) Close() error {
	if q.store == nil {
		return nil
	}
	return q.store.Close()
}
