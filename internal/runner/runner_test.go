package runner

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/bountyforge/bountyforge/internal/merge"
	"github.com/bountyforge/bountyforge/internal/models"
	"github.com/bountyforge/bountyforge/internal/pipeline"
)

type fakeEngine struct {
	outcome pipeline.Outcome
}

func (f fakeEngine) Run(ctx context.Context, job models.JobDescriptor, defaults merge.ScannerDefaults) pipeline.Outcome {
	return f.outcome
}

type fakeStore struct {
	running      []string
	terminal     map[string]models.Status
	terminalErr  error
}

func newFakeStore() *fakeStore { return &fakeStore{terminal: make(map[string]models.Status)} }

func (s *fakeStore) MarkRunning(ctx context.Context, jobID string) error {
	s.running = append(s.running, jobID)
	return nil
}

func (s *fakeStore) MarkTerminal(ctx context.Context, jobID string, status models.Status, errorMsg string) error {
	if s.terminalErr != nil {
		return s.terminalErr
	}
	s.terminal[jobID] = status
	return nil
}

type fakeBus struct{ events []models.Event }

func (b *fakeBus) Publish(event models.Event) { b.events = append(b.events, event) }

func TestRunner_HandleMarksRunningThenTerminal(t *testing.T) {
	engine := fakeEngine{outcome: pipeline.Outcome{Status: models.StatusFinished}}
	store := newFakeStore()
	bus := &fakeBus{}

	r := New(engine, store, bus, merge.ScannerDefaults{}, arbor.NewLogger(), 0)
	job := models.JobDescriptor{JobID: "job-1", Target: []string{"example.com"}, Tools: []models.StageName{models.StageSubdomainEnum}, Initiator: "alice"}

	require.NoError(t, r.Handle(context.Background(), job))

	assert.Contains(t, store.running, "job-1")
	assert.Equal(t, models.StatusFinished, store.terminal["job-1"])
	require.Len(t, bus.events, 2)
	assert.Equal(t, models.EventStarted, bus.events[0].Kind)
	assert.Equal(t, models.EventFinished, bus.events[1].Kind)
}

func TestRunner_HandleEmitsFinishedWithErrorsEvent(t *testing.T) {
	engine := fakeEngine{outcome: pipeline.Outcome{Status: models.StatusFinishedWithErrors}}
	store := newFakeStore()
	bus := &fakeBus{}

	r := New(engine, store, bus, merge.ScannerDefaults{}, arbor.NewLogger(), 0)
	job := models.JobDescriptor{JobID: "job-2", Initiator: "alice"}

	require.NoError(t, r.Handle(context.Background(), job))
	assert.Equal(t, models.EventFinishedWithErrors, bus.events[len(bus.events)-1].Kind)
}

func TestRunner_HandleEmitsErrorEventOnPipelineError(t *testing.T) {
	engine := fakeEngine{outcome: pipeline.Outcome{Status: models.StatusError, ErrorMsg: "boom"}}
	store := newFakeStore()
	bus := &fakeBus{}

	r := New(engine, store, bus, merge.ScannerDefaults{}, arbor.NewLogger(), 0)
	job := models.JobDescriptor{JobID: "job-3", Initiator: "alice"}

	require.NoError(t, r.Handle(context.Background(), job))
	last := bus.events[len(bus.events)-1]
	assert.Equal(t, models.EventError, last.Kind)
	assert.Equal(t, "boom", last.Error)
}

func TestRunner_HandleStillPublishesTerminalEventWhenStoreWriteFails(t *testing.T) {
	engine := fakeEngine{outcome: pipeline.Outcome{Status: models.StatusFinished}}
	store := newFakeStore()
	store.terminalErr = errors.New("disk full")
	bus := &fakeBus{}

	r := New(engine, store, bus, merge.ScannerDefaults{}, arbor.NewLogger(), 0)
	job := models.JobDescriptor{JobID: "job-4", Initiator: "alice"}

	err := r.Handle(context.Background(), job)
	require.Error(t, err)

	require.Len(t, bus.events, 2)
	last := bus.events[len(bus.events)-1]
	assert.Equal(t, models.EventError, last.Kind)
	assert.Equal(t, models.StatusError, last.Status)
	assert.Equal(t, "disk full", last.Error)
	assert.Empty(t, store.terminal["job-4"])
}
