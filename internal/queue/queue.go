// Package queue defines the durable job queue the Runner drains jobs
// from. The interface is kept separate from the event bus: the queue
// carries one JobDescriptor per submission and survives a process
// restart, while the bus is a fire-and-forget fan-out of progress
// events with no persistence.
package queue

import (
	"context"
	"errors"

	"github.com/bountyforge/bountyforge/internal/models"
)

// ErrNoMessage is returned by Receive when the queue currently holds
// no visible message.
var ErrNoMessage = errors.New("queue: no message available")

// DeleteFunc removes a received message from the queue once its
// handler has finished processing it.
type DeleteFunc func() error

// Queue is the durable submission queue contract. Implementations must
// provide FIFO delivery and a visibility timeout so that a worker that
// dies mid-processing does not silently lose the job: the message
// reappears for another worker once the timeout elapses.
type Queue interface {
	Enqueue(ctx context.Context, job models.JobDescriptor) error
	Receive(ctx context.Context) (*models.JobDescriptor, DeleteFunc, error)
	Close() error
}
