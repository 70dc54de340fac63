// Package eventbus implements the Event Bus Publisher: a lightweight
// per-job pub/sub abstraction, per spec.md §4.6. Subscribers of
// channel scan:<job-id> receive a finite stream of events that ends
// once a terminal-kind event is observed.
package eventbus

import (
	"sync"

	"golang.org/x/time/rate"

	"github.com/bountyforge/bountyforge/internal/models"
)

const subscriberBufferSize = 64

// Bus is an in-process implementation of the Event Bus Publisher.
// Publish is non-blocking and best-effort: a full subscriber buffer
// drops the event rather than blocking the publisher, matching
// spec.md §4.6's "publish is non-blocking and best-effort" contract.
type Bus struct {
	mu          sync.Mutex
	subscribers map[string][]chan models.Event
	throttlers  map[string]*rate.Limiter
}

// New constructs an empty Bus.
func New() *Bus {
	return &Bus{
		subscribers: make(map[string][]chan models.Event),
		throttlers:  make(map[string]*rate.Limiter),
	}
}

// Subscribe returns a channel of events for jobID. The channel is
// closed by the bus itself once a terminal-kind event for that job
// has been delivered, so a subscriber's range loop terminates
// naturally (spec.md §4.6, §8's "Terminal exactness" property).
func (b *Bus) Subscribe(jobID string) <-chan models.Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan models.Event, subscriberBufferSize)
	channel := models.Channel(jobID)
	b.subscribers[channel] = append(b.subscribers[channel], ch)
	return ch
}

// Publish fans event out to every subscriber of its job channel.
// High-frequency stage_raw events are throttled per job (mirrors the
// teacher's WebSocket event throttling); stage_started, stage_parsed
// and terminal events are never throttled. Publish never blocks: a
// full subscriber buffer silently drops the event.
func (b *Bus) Publish(event models.Event) {
	channel := models.Channel(event.JobID)

	if event.Kind == models.EventStageRaw && !b.allow(channel) {
		return
	}

	b.mu.Lock()
	subs := append([]chan models.Event{}, b.subscribers[channel]...)
	terminal := event.Kind.Terminal()
	if terminal {
		delete(b.subscribers, channel)
		delete(b.throttlers, channel)
	}
	b.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- event:
		default:
			// best-effort: a slow subscriber misses this event rather
			// than stalling the publisher.
		}
		if terminal {
			close(ch)
		}
	}
}

// allow reports whether a stage_raw event on channel passes its
// per-channel rate limiter, creating the limiter lazily on first use.
func (b *Bus) allow(channel string) bool {
	b.mu.Lock()
	limiter, ok := b.throttlers[channel]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(20), 40) // 20 raw events/sec, burst 40
		b.throttlers[channel] = limiter
	}
	b.mu.Unlock()
	return limiter.Allow()
}
