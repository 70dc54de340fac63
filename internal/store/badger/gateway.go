package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/bountyforge/bountyforge/internal/models"
	"github.com/bountyforge/bountyforge/internal/store"
)

// jobDoc is the badgerhold-persisted shape of a JobRecord. The
// document key (the job ID) is supplied explicitly to every
// Store().Upsert/Get call rather than embedded as a struct field;
// Initiator and Timestamp are hoisted out of Record purely so
// badgerhold can index and query on them.
type jobDoc struct {
	Initiator string `badgerhold:"index"`
	Timestamp time.Time
	Record    models.JobRecord
}

// Gateway implements store.Gateway on top of BadgerDB.
type Gateway struct {
	db     *DB
	logger arbor.ILogger
}

// NewGateway constructs a badger-backed Gateway over an open DB.
func NewGateway(db *DB, logger arbor.ILogger) *Gateway {
	return &Gateway{db: db, logger: logger}
}

func (g *Gateway) EnqueueJob(ctx context.Context, record models.JobRecord) error {
	if record.Status == "" {
		record.Status = models.StatusQueued
	}
	doc := jobDoc{Initiator: record.Initiator, Timestamp: record.Timestamp, Record: record}
	if err := g.db.Store().Upsert(record.JobID, &doc); err != nil {
		return fmt.Errorf("failed to enqueue job %s: %w", record.JobID, err)
	}
	return nil
}

func (g *Gateway) MarkRunning(ctx context.Context, jobID string) error {
	return g.mutate(jobID, func(r *models.JobRecord) error {
		r.Status = models.StatusRunning
		return nil
	})
}

func (g *Gateway) AppendResult(ctx context.Context, jobID string, stage models.StageName, result models.ToolResult) error {
	return g.mutate(jobID, func(r *models.JobRecord) error {
		r.AppendResult(stage, result)
		return nil
	})
}

func (g *Gateway) MarkTerminal(ctx context.Context, jobID string, status models.Status, errorMsg string) error {
	return g.mutate(jobID, func(r *models.JobRecord) error {
		if r.Status.Terminal() {
			return nil // terminal status is never mutated once written
		}
		r.Status = status
		r.ErrorMsg = errorMsg
		return nil
	})
}

func (g *Gateway) FindJob(ctx context.Context, jobID string) (models.JobRecord, error) {
	var doc jobDoc
	if err := g.db.Store().Get(jobID, &doc); err != nil {
		if err == badgerhold.ErrNotFound {
			return models.JobRecord{}, store.ErrNotFound
		}
		return models.JobRecord{}, fmt.Errorf("failed to get job %s: %w", jobID, err)
	}
	return doc.Record, nil
}

func (g *Gateway) FindResults(ctx context.Context, jobID string) (map[models.StageName]models.ToolResult, error) {
	job, err := g.FindJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return job.Results, nil
}

func (g *Gateway) ListJobsByPrincipal(ctx context.Context, principal string, since time.Time) ([]models.JobRecord, error) {
	var docs []jobDoc
	query := badgerhold.Where("Initiator").Eq(principal).And("Timestamp").Ge(since).SortBy("Timestamp").Reverse()
	if err := g.db.Store().Find(&docs, query); err != nil {
		return nil, fmt.Errorf("failed to list jobs for %s: %w", principal, err)
	}
	out := make([]models.JobRecord, len(docs))
	for i, d := range docs {
		out[i] = d.Record
	}
	return out, nil
}

func (g *Gateway) CountResults(ctx context.Context, jobID string) (int, error) {
	job, err := g.FindJob(ctx, jobID)
	if err != nil {
		return 0, err
	}
	return job.ResultCount(), nil
}

// mutate reads-modifies-writes the jobDoc for jobID. BadgerDB/
// badgerhold has no first-class optimistic-concurrency primitive for
// partial field updates, so the gateway accepts read-modify-write races
// the same way the Runner already tolerates duplicate appends (§4.8).
func (g *Gateway) mutate(jobID string, fn func(*models.JobRecord) error) error {
	var doc jobDoc
	if err := g.db.Store().Get(jobID, &doc); err != nil {
		if err == badgerhold.ErrNotFound {
			return store.ErrNotFound
		}
		return fmt.Errorf("failed to get job %s: %w", jobID, err)
	}
	if err := fn(&doc.Record); err != nil {
		return err
	}
	if err := g.db.Store().Upsert(jobID, &doc); err != nil {
		return fmt.Errorf("failed to persist job %s: %w", jobID, err)
	}
	return nil
}
