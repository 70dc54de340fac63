// Package store defines the Result Store Gateway contract, per
// spec.md §4.8: persistence for job metadata and per-job results.
// Implementations may be atomic or not; callers never rely on
// cross-call atomicity and must tolerate duplicate appends
// idempotently by stage name.
package store

import (
	"context"
	"time"

	"github.com/bountyforge/bountyforge/internal/models"
)

// Gateway is the Result Store Gateway contract.
type Gateway interface {
	// EnqueueJob creates the initial JobRecord at status "queued".
	EnqueueJob(ctx context.Context, record models.JobRecord) error

	// MarkRunning transitions a job to "running".
	MarkRunning(ctx context.Context, jobID string) error

	// AppendResult idempotently records stage's ToolResult under jobID.
	AppendResult(ctx context.Context, jobID string, stage models.StageName, result models.ToolResult) error

	// MarkTerminal writes a job's one-time terminal status.
	MarkTerminal(ctx context.Context, jobID string, status models.Status, errorMsg string) error

	// FindJob returns the job document for jobID.
	FindJob(ctx context.Context, jobID string) (models.JobRecord, error)

	// FindResults returns every recorded ToolResult for jobID.
	FindResults(ctx context.Context, jobID string) (map[models.StageName]models.ToolResult, error)

	// ListJobsByPrincipal returns jobs submitted by principal at or
	// after since, newest first.
	ListJobsByPrincipal(ctx context.Context, principal string, since time.Time) ([]models.JobRecord, error)

	// CountResults returns the aggregate parsed-record count for jobID.
	CountResults(ctx context.Context, jobID string) (int, error)
}

// ErrNotFound is returned by FindJob when jobID is unknown.
var ErrNotFound = errNotFound{}

type errNotFound struct{}

func (errNotFound) Error() string { return "job not found" }
