package eventbus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bountyforge/bountyforge/internal/models"
)

func drain(t *testing.T, ch <-chan models.Event, timeout time.Duration) []models.Event {
	t.Helper()
	var events []models.Event
	deadline := time.After(timeout)
	for {
		select {
		case e, ok := <-ch:
			if !ok {
				return events
			}
			events = append(events, e)
		case <-deadline:
			t.Fatal("timed out waiting for channel to close")
		}
	}
}

func TestBus_SubscriberStreamEndsOnTerminalEvent(t *testing.T) {
	b := New()
	ch := b.Subscribe("job-1")

	b.Publish(models.Event{Kind: models.EventStarted, JobID: "job-1"})
	b.Publish(models.Event{Kind: models.EventStageStarted, JobID: "job-1", Stage: models.StageSubdomainEnum})
	b.Publish(models.Event{Kind: models.EventFinished, JobID: "job-1"})

	events := drain(t, ch, time.Second)
	require.Len(t, events, 3)
	assert.Equal(t, models.EventFinished, events[len(events)-1].Kind)
}

func TestBus_ChannelsAreIsolatedByJobID(t *testing.T) {
	b := New()
	chA := b.Subscribe("job-a")
	chB := b.Subscribe("job-b")

	b.Publish(models.Event{Kind: models.EventFinished, JobID: "job-a"})

	eventsA := drain(t, chA, time.Second)
	require.Len(t, eventsA, 1)

	select {
	case _, ok := <-chB:
		if ok {
			t.Fatal("job-b subscriber should not have received job-a's event")
		}
	case <-time.After(50 * time.Millisecond):
		// expected: nothing delivered to an unrelated channel
	}
}

func TestBus_PublishAfterNoSubscribersDoesNotBlock(t *testing.T) {
	b := New()
	done := make(chan struct{})
	go func() {
		b.Publish(models.Event{Kind: models.EventStarted, JobID: "no-subscribers"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked with no subscribers")
	}
}
