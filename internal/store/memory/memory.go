// Package memory implements an in-memory Result Store Gateway, used
// by unit tests and property tests that don't need a BadgerDB temp
// directory for pure-logic assertions.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/bountyforge/bountyforge/internal/models"
	"github.com/bountyforge/bountyforge/internal/store"
)

// Store is an in-memory Gateway implementation.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]models.JobRecord
}

// New constructs an empty in-memory Store.
func New() *Store {
	return &Store{jobs: make(map[string]models.JobRecord)}
}

func (s *Store) EnqueueJob(ctx context.Context, record models.JobRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record.Status == "" {
		record.Status = models.StatusQueued
	}
	s.jobs[record.JobID] = record
	return nil
}

func (s *Store) MarkRunning(ctx context.Context, jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return store.ErrNotFound
	}
	job.Status = models.StatusRunning
	s.jobs[jobID] = job
	return nil
}

func (s *Store) AppendResult(ctx context.Context, jobID string, stage models.StageName, result models.ToolResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return store.ErrNotFound
	}
	job.AppendResult(stage, result)
	s.jobs[jobID] = job
	return nil
}

func (s *Store) MarkTerminal(ctx context.Context, jobID string, status models.Status, errorMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return store.ErrNotFound
	}
	if job.Status.Terminal() {
		return nil // terminal status is never mutated once written
	}
	job.Status = status
	job.ErrorMsg = errorMsg
	s.jobs[jobID] = job
	return nil
}

func (s *Store) FindJob(ctx context.Context, jobID string) (models.JobRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return models.JobRecord{}, store.ErrNotFound
	}
	return job, nil
}

func (s *Store) FindResults(ctx context.Context, jobID string) (map[models.StageName]models.ToolResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return job.Results, nil
}

func (s *Store) ListJobsByPrincipal(ctx context.Context, principal string, since time.Time) ([]models.JobRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.JobRecord
	for _, job := range s.jobs {
		if job.Initiator != principal {
			continue
		}
		if job.Timestamp.Before(since) {
			continue
		}
		out = append(out, job)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

func (s *Store) CountResults(ctx context.Context, jobID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return 0, store.ErrNotFound
	}
	return job.ResultCount(), nil
}
