package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bountyforge/bountyforge/internal/models"
	"github.com/bountyforge/bountyforge/internal/store"
)

func TestStore_EnqueueFindAndTerminal(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.EnqueueJob(ctx, models.JobRecord{JobID: "j1", Initiator: "alice", Timestamp: time.Now()}))

	job, err := s.FindJob(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusQueued, job.Status)

	require.NoError(t, s.MarkRunning(ctx, "j1"))
	job, _ = s.FindJob(ctx, "j1")
	assert.Equal(t, models.StatusRunning, job.Status)

	require.NoError(t, s.MarkTerminal(ctx, "j1", models.StatusFinished, ""))
	job, _ = s.FindJob(ctx, "j1")
	assert.Equal(t, models.StatusFinished, job.Status)
}

func TestStore_TerminalStatusNeverMutatedOnceWritten(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.EnqueueJob(ctx, models.JobRecord{JobID: "j2"}))
	require.NoError(t, s.MarkTerminal(ctx, "j2", models.StatusError, "boom"))

	require.NoError(t, s.MarkTerminal(ctx, "j2", models.StatusFinished, ""))
	job, _ := s.FindJob(ctx, "j2")
	assert.Equal(t, models.StatusError, job.Status, "terminal status must not change once written")
}

func TestStore_AppendResultIsIdempotentByStage(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.EnqueueJob(ctx, models.JobRecord{JobID: "j3"}))

	first := models.ToolResult{Stage: models.StageSubdomainEnum, Success: true, Parsed: []models.ParsedRecord{{}}}
	second := models.ToolResult{Stage: models.StageSubdomainEnum, Success: true, Parsed: []models.ParsedRecord{{}, {}}}

	require.NoError(t, s.AppendResult(ctx, "j3", models.StageSubdomainEnum, first))
	require.NoError(t, s.AppendResult(ctx, "j3", models.StageSubdomainEnum, second))

	count, err := s.CountResults(ctx, "j3")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "re-appending the same stage replaces rather than accumulates")
}

func TestStore_FindJobUnknownReturnsErrNotFound(t *testing.T) {
	s := New()
	_, err := s.FindJob(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestStore_ListJobsByPrincipalFiltersBySinceAndPrincipal(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.EnqueueJob(ctx, models.JobRecord{JobID: "a", Initiator: "alice", Timestamp: now.Add(-time.Hour)}))
	require.NoError(t, s.EnqueueJob(ctx, models.JobRecord{JobID: "b", Initiator: "alice", Timestamp: now}))
	require.NoError(t, s.EnqueueJob(ctx, models.JobRecord{JobID: "c", Initiator: "bob", Timestamp: now}))

	jobs, err := s.ListJobsByPrincipal(ctx, "alice", now.Add(-time.Minute))
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "b", jobs[0].JobID)
}
