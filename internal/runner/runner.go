// Package runner implements the Job Runner: the component that owns a
// job's lifecycle end to end, from dequeue through to a terminal
// status written to the Result Store Gateway.
package runner

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/bountyforge/bountyforge/internal/merge"
	"github.com/bountyforge/bountyforge/internal/models"
	"github.com/bountyforge/bountyforge/internal/pipeline"
	"github.com/bountyforge/bountyforge/internal/queue"
)

// Engine is the subset of the Pipeline Engine contract the Runner
// depends on.
type Engine interface {
	Run(ctx context.Context, job models.JobDescriptor, defaults merge.ScannerDefaults) pipeline.Outcome
}

// Store is the subset of the Result Store Gateway the Runner depends
// on for lifecycle transitions.
type Store interface {
	MarkRunning(ctx context.Context, jobID string) error
	MarkTerminal(ctx context.Context, jobID string, status models.Status, errorMsg string) error
}

// Bus is the subset of the Event Bus Publisher the Runner depends on
// for the start/terminal events that bookend a job.
type Bus interface {
	Publish(event models.Event)
}

// Runner drives one job's full lifecycle: running -> pipeline -> terminal.
type Runner struct {
	Engine       Engine
	Store        Store
	Bus          Bus
	Defaults     merge.ScannerDefaults
	Logger       arbor.ILogger
	StageTimeout time.Duration
}

// New constructs a Runner.
func New(engine Engine, store Store, bus Bus, defaults merge.ScannerDefaults, logger arbor.ILogger, stageTimeout time.Duration) *Runner {
	return &Runner{Engine: engine, Store: store, Bus: bus, Defaults: defaults, Logger: logger, StageTimeout: stageTimeout}
}

// Handle implements queue.Handler: it is the function the WorkerPool
// invokes for every job it dequeues.
func (r *Runner) Handle(ctx context.Context, job models.JobDescriptor) error {
	if err := r.Store.MarkRunning(ctx, job.JobID); err != nil {
		r.Logger.Error().Err(err).Str("job_id", job.JobID).Msg("failed to mark job running")
		return err
	}
	r.Bus.Publish(models.Event{Kind: models.EventStarted, JobID: job.JobID})

	defaults := r.Defaults
	if r.StageTimeout > 0 {
		defaults = merge.ScannerDefaults{Stages: make(map[models.StageName]merge.StageDefaults, len(r.Defaults.Stages))}
		for stage, sd := range r.Defaults.Stages {
			defaults.Stages[stage] = sd
		}
		for _, stage := range models.CanonicalStageOrder {
			if sd := defaults.Stages[stage]; sd.Timeout == "" {
				sd.Timeout = r.StageTimeout.String()
				defaults.Stages[stage] = sd
			}
		}
	}

	outcome := r.Engine.Run(ctx, job, defaults)

	status := outcome.Status
	errMsg := outcome.ErrorMsg
	if err := r.Store.MarkTerminal(ctx, job.JobID, outcome.Status, outcome.ErrorMsg); err != nil {
		r.Logger.Error().Err(err).Str("job_id", job.JobID).Msg("failed to persist terminal status")
		status = models.StatusError
		errMsg = err.Error()
		r.Bus.Publish(models.Event{Kind: terminalEventKind(status), JobID: job.JobID, Status: status, Error: errMsg})
		return err
	}

	kind := terminalEventKind(status)
	r.Bus.Publish(models.Event{Kind: kind, JobID: job.JobID, Status: status, Error: errMsg})

	r.Logger.Info().Str("job_id", job.JobID).Str("status", string(status)).Msg("job finished")
	return nil
}

func terminalEventKind(status models.Status) models.EventKind {
	switch status {
	case models.StatusFinished:
		return models.EventFinished
	case models.StatusFinishedWithErrors:
		return models.EventFinishedWithErrors
	default:
		return models.EventError
	}
}

var _ queue.Handler = (*Runner)(nil).Handle
