package pipeline

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/bountyforge/bountyforge/internal/adapter"
	"github.com/bountyforge/bountyforge/internal/merge"
	"github.com/bountyforge/bountyforge/internal/models"
)

// Publisher is the subset of the Event Bus Publisher contract the
// engine depends on (spec.md §4.6). Kept as a narrow interface so the
// engine never imports the eventbus package's implementation.
type Publisher interface {
	Publish(event models.Event)
}

// ResultSink is the subset of the Result Store Gateway contract the
// engine depends on (spec.md §4.8).
type ResultSink interface {
	AppendResult(ctx context.Context, jobID string, stage models.StageName, result models.ToolResult) error
}

// Engine runs the stages a job selected, in canonical order, per
// spec.md §4.3.
type Engine struct {
	Registry *adapter.Registry
	Bus      Publisher
	Store    ResultSink
	Logger   arbor.ILogger
}

// New constructs an Engine.
func New(registry *adapter.Registry, bus Publisher, store ResultSink, logger arbor.ILogger) *Engine {
	return &Engine{Registry: registry, Bus: bus, Store: store, Logger: logger}
}

// Outcome is the engine's verdict for a completed job: the terminal
// status to write, and (when it is StatusError due to a pipeline
// internal failure) an error message.
type Outcome struct {
	Status   models.Status
	ErrorMsg string
}

// Run drives the pipeline for one job: for each selected stage, in
// canonical order, merge config, invoke the adapter, publish raw and
// parsed events, append the result, and apply the stage's projection.
// Failure policy follows spec.md §4.3's abort-on-error flag.
func (e *Engine) Run(ctx context.Context, job models.JobDescriptor, defaults merge.ScannerDefaults) Outcome {
	selected := make(map[models.StageName]bool, len(job.Tools))
	for _, s := range job.Tools {
		selected[s] = true
	}

	working := models.NormalizeTargets(job.Target)
	anyUnsuccessful := false

	for _, stage := range models.CanonicalStageOrder {
		if !selected[stage] {
			continue
		}

		select {
		case <-ctx.Done():
			return Outcome{Status: models.StatusError, ErrorMsg: "job cancelled"}
		default:
		}

		e.Bus.Publish(models.Event{Kind: models.EventStageStarted, JobID: job.JobID, Stage: stage})

		spec := merge.Effective(defaults, job.Params[stage], stage)
		spec.Exclude = models.NormalizeTargets(append(append([]string{}, spec.Exclude...), job.Exclude...))

		factory, ok := e.Registry.Get(spec.Binary)
		if !ok {
			result := models.ToolResult{Stage: stage, Success: false, Error: fmt.Sprintf("adapter not registered: %s", spec.Binary)}
			if err := e.handleUnsuccessful(ctx, job, stage, result); err != nil {
				return Outcome{Status: models.StatusError, ErrorMsg: err.Error()}
			}
			anyUnsuccessful = true
			if job.AbortOnErr {
				return Outcome{Status: models.StatusError}
			}
			continue
		}

		result := factory().Invoke(ctx, spec, working, models.TargetMultiple)
		result.Stage = stage

		e.Bus.Publish(models.Event{Kind: models.EventStageRaw, JobID: job.JobID, Stage: stage, Tool: spec.Binary, Output: result.Stdout})

		if err := e.Store.AppendResult(ctx, job.JobID, stage, result); err != nil {
			e.Bus.Publish(models.Event{Kind: models.EventStageError, JobID: job.JobID, Stage: stage, Error: err.Error()})
			return Outcome{Status: models.StatusError, ErrorMsg: fmt.Sprintf("persistence error: %v", err)}
		}

		if !result.Success {
			e.Bus.Publish(models.Event{Kind: models.EventStageError, JobID: job.JobID, Stage: stage, Tool: spec.Binary, Error: result.Error})
			anyUnsuccessful = true
			if job.AbortOnErr {
				return Outcome{Status: models.StatusError}
			}
			continue
		}

		e.Bus.Publish(models.Event{Kind: models.EventStageParsed, JobID: job.JobID, Stage: stage, Tool: spec.Binary, Parsed: result.Parsed})

		working = ProjectionFor(stage)(working, result)
	}

	if anyUnsuccessful {
		return Outcome{Status: models.StatusFinishedWithErrors}
	}
	return Outcome{Status: models.StatusFinished}
}

// handleUnsuccessful stores and publishes an unsuccessful result that
// was synthesized before an adapter could even be invoked (e.g. an
// unregistered binary), keeping the publish-after-store-append
// ordering rule from spec.md §9.
func (e *Engine) handleUnsuccessful(ctx context.Context, job models.JobDescriptor, stage models.StageName, result models.ToolResult) error {
	if err := e.Store.AppendResult(ctx, job.JobID, stage, result); err != nil {
		e.Bus.Publish(models.Event{Kind: models.EventStageError, JobID: job.JobID, Stage: stage, Error: err.Error()})
		return err
	}
	e.Bus.Publish(models.Event{Kind: models.EventStageError, JobID: job.JobID, Stage: stage, Error: result.Error})
	return nil
}
