package pipeline

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bountyforge/bountyforge/internal/adapter"
	"github.com/bountyforge/bountyforge/internal/merge"
	"github.com/bountyforge/bountyforge/internal/models"
)

// fakeAdapter returns a canned ToolResult regardless of input, letting
// tests drive the engine without spawning real processes.
type fakeAdapter struct {
	name   string
	result models.ToolResult
}

func (f *fakeAdapter) Name() string { return f.name }
func (f *fakeAdapter) Invoke(ctx context.Context, spec models.StageSpec, target []string, targetType models.TargetType) models.ToolResult {
	return f.result
}
func (f *fakeAdapter) CheckAvailability(ctx context.Context) adapter.AvailabilityStatus {
	return adapter.AvailabilityStatus{Available: true}
}

// recordingBus captures every published event in order.
type recordingBus struct {
	mu     sync.Mutex
	events []models.Event
}

func (b *recordingBus) Publish(e models.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
}

// memStore is a minimal in-memory ResultSink for pipeline tests.
type memStore struct {
	mu      sync.Mutex
	results map[models.StageName]models.ToolResult
	failOn  models.StageName
}

func (s *memStore) AppendResult(ctx context.Context, jobID string, stage models.StageName, result models.ToolResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOn != "" && stage == s.failOn {
		return assert.AnError
	}
	if s.results == nil {
		s.results = make(map[models.StageName]models.ToolResult)
	}
	s.results[stage] = result
	return nil
}

func newTestRegistry(results map[models.StageName]models.ToolResult) *adapter.Registry {
	return adapter.New(map[string]adapter.Factory{
		"subfinder": func() adapter.Adapter { return &fakeAdapter{name: "subfinder", result: results[models.StageSubdomainEnum]} },
		"httpx":     func() adapter.Adapter { return &fakeAdapter{name: "httpx", result: results[models.StageHTTPProbe]} },
		"nmap":      func() adapter.Adapter { return &fakeAdapter{name: "nmap", result: results[models.StagePortScan]} },
		"ffuf":      func() adapter.Adapter { return &fakeAdapter{name: "ffuf", result: results[models.StageDirBruteforce]} },
		"nuclei":    func() adapter.Adapter { return &fakeAdapter{name: "nuclei", result: results[models.StageTemplateScan]} },
	})
}

func TestEngineRun_StageOrderingMatchesCanonicalOrder(t *testing.T) {
	results := map[models.StageName]models.ToolResult{
		models.StageSubdomainEnum: {Success: true, Parsed: []models.ParsedRecord{{Fields: map[string]interface{}{"host": "www.example.com"}}}},
		models.StageHTTPProbe:     {Success: true, Parsed: []models.ParsedRecord{{Fields: map[string]interface{}{"url": "https://www.example.com", "status": 200}}}},
	}
	bus := &recordingBus{}
	store := &memStore{}
	engine := New(newTestRegistry(results), bus, store, nil)

	job := models.JobDescriptor{
		JobID:      "job-1",
		Target:     []string{"example.com"},
		TargetType: models.TargetMultiple,
		Tools:      []models.StageName{models.StageHTTPProbe, models.StageSubdomainEnum}, // out-of-order input
	}

	outcome := engine.Run(context.Background(), job, merge.ScannerDefaults{})

	require.Equal(t, models.StatusFinished, outcome.Status)

	var stageEvents []models.StageName
	for _, e := range bus.events {
		if e.Kind == models.EventStageStarted {
			stageEvents = append(stageEvents, e.Stage)
		}
	}
	assert.Equal(t, []models.StageName{models.StageSubdomainEnum, models.StageHTTPProbe}, stageEvents)
}

func TestEngineRun_AbortOnErrorStopsRemainingStages(t *testing.T) {
	results := map[models.StageName]models.ToolResult{
		models.StageSubdomainEnum: {Success: false, Error: "binary missing: subfinder"},
		models.StageHTTPProbe:     {Success: true},
	}
	bus := &recordingBus{}
	store := &memStore{}
	engine := New(newTestRegistry(results), bus, store, nil)

	job := models.JobDescriptor{
		JobID:      "job-2",
		Target:     []string{"example.com"},
		TargetType: models.TargetMultiple,
		Tools:      []models.StageName{models.StageSubdomainEnum, models.StageHTTPProbe},
		AbortOnErr: true,
	}

	outcome := engine.Run(context.Background(), job, merge.ScannerDefaults{})
	require.Equal(t, models.StatusError, outcome.Status)

	for _, e := range bus.events {
		assert.NotEqual(t, models.StageHTTPProbe, e.Stage, "no event should be emitted for a stage after abort")
	}
}

func TestEngineRun_ContinueOnErrorYieldsFinishedWithErrors(t *testing.T) {
	results := map[models.StageName]models.ToolResult{
		models.StageSubdomainEnum: {Success: false, Error: "timeout"},
		models.StageHTTPProbe:     {Success: true},
	}
	bus := &recordingBus{}
	store := &memStore{}
	engine := New(newTestRegistry(results), bus, store, nil)

	job := models.JobDescriptor{
		JobID:      "job-3",
		Target:     []string{"example.com"},
		TargetType: models.TargetMultiple,
		Tools:      []models.StageName{models.StageSubdomainEnum, models.StageHTTPProbe},
		AbortOnErr: false,
	}

	outcome := engine.Run(context.Background(), job, merge.ScannerDefaults{})
	assert.Equal(t, models.StatusFinishedWithErrors, outcome.Status)

	var sawHTTPStarted bool
	for _, e := range bus.events {
		if e.Kind == models.EventStageStarted && e.Stage == models.StageHTTPProbe {
			sawHTTPStarted = true
		}
	}
	assert.True(t, sawHTTPStarted, "continue-on-error must still run the next stage")
}

func TestEngineRun_PersistenceErrorYieldsError(t *testing.T) {
	results := map[models.StageName]models.ToolResult{
		models.StageSubdomainEnum: {Success: true},
	}
	bus := &recordingBus{}
	store := &memStore{failOn: models.StageSubdomainEnum}
	engine := New(newTestRegistry(results), bus, store, nil)

	job := models.JobDescriptor{
		JobID:      "job-4",
		Target:     []string{"example.com"},
		TargetType: models.TargetMultiple,
		Tools:      []models.StageName{models.StageSubdomainEnum},
	}

	outcome := engine.Run(context.Background(), job, merge.ScannerDefaults{})
	assert.Equal(t, models.StatusError, outcome.Status)
}
