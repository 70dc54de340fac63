package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"

	"github.com/bountyforge/bountyforge/internal/adapter"
	"github.com/bountyforge/bountyforge/internal/common"
	"github.com/bountyforge/bountyforge/internal/models"
	"github.com/bountyforge/bountyforge/internal/queue"
	"github.com/bountyforge/bountyforge/internal/store"
)

func errorResult(format string, args ...interface{}) (*mcp.CallToolResult, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(fmt.Sprintf(format, args...))},
	}, nil
}

func handleSubmitScan(q queue.Queue, st store.Gateway, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		target := request.GetStringSlice("target", nil)
		if len(target) == 0 {
			return errorResult("Error: target is required")
		}
		targetType := models.TargetType(request.GetString("target_type", ""))
		if !targetType.Valid() {
			return errorResult("Error: target_type must be single, multiple, or file")
		}
		toolNames := request.GetStringSlice("tools", nil)
		if len(toolNames) == 0 {
			return errorResult("Error: tools is required")
		}
		initiator := request.GetString("initiator", "")
		if initiator == "" {
			return errorResult("Error: initiator is required")
		}

		tools := make([]models.StageName, 0, len(toolNames))
		for _, t := range toolNames {
			tools = append(tools, models.StageName(t))
		}

		jobID := common.NewJobID()
		job := models.JobDescriptor{
			JobID:      jobID,
			Target:     models.NormalizeTargets(target),
			TargetType: targetType,
			Tools:      tools,
			Initiator:  initiator,
		}

		record := models.JobRecord{
			JobID:     jobID,
			Initiator: initiator,
			Targets:   job.Target,
			Timestamp: time.Now(),
			Status:    models.StatusQueued,
		}

		if err := st.EnqueueJob(ctx, record); err != nil {
			logger.Error().Err(err).Msg("failed to persist job")
			return errorResult("Error: failed to queue job: %v", err)
		}
		if err := q.Enqueue(ctx, job); err != nil {
			logger.Error().Err(err).Msg("failed to enqueue job")
			return errorResult("Error: failed to queue job: %v", err)
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{mcp.NewTextContent(fmt.Sprintf("Queued job %s", jobID))},
		}, nil
	}
}

func handleGetJob(st store.Gateway, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		jobID, err := request.RequireString("job_id")
		if err != nil || jobID == "" {
			return errorResult("Error: job_id is required")
		}

		job, err := st.FindJob(ctx, jobID)
		if err != nil {
			return errorResult("Job not found: %v", err)
		}

		body, err := json.MarshalIndent(job, "", "  ")
		if err != nil {
			return errorResult("Error: failed to format job: %v", err)
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{mcp.NewTextContent(string(body))},
		}, nil
	}
}

func handleCheckAvailability(registry *adapter.Registry, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		statuses := registry.CheckAvailability(ctx)
		body, err := json.MarshalIndent(statuses, "", "  ")
		if err != nil {
			return errorResult("Error: failed to format availability: %v", err)
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{mcp.NewTextContent(string(body))},
		}, nil
	}
}
