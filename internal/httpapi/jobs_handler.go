package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/bountyforge/bountyforge/internal/common"
	"github.com/bountyforge/bountyforge/internal/models"
	"github.com/bountyforge/bountyforge/internal/queue"
	"github.com/bountyforge/bountyforge/internal/store"
)

// JobsHandler serves job submission, lookup, and listing.
type JobsHandler struct {
	queue  queue.Queue
	store  store.Gateway
	logger arbor.ILogger
}

// NewJobsHandler constructs a JobsHandler.
func NewJobsHandler(q queue.Queue, st store.Gateway, logger arbor.ILogger) *JobsHandler {
	return &JobsHandler{queue: q, store: st, logger: logger}
}

// Submit handles POST /jobs: validates the request, assigns a job ID,
// writes a queued JobRecord, and enqueues the descriptor for the Runner.
func (h *JobsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	targetType := models.TargetType(req.TargetType)
	if !targetType.Valid() {
		writeError(w, http.StatusBadRequest, "invalid target_type")
		return
	}

	jobID := common.NewJobID()
	tools := make([]models.StageName, 0, len(req.Tools))
	for _, t := range req.Tools {
		tools = append(tools, models.StageName(t))
	}

	params := make(map[models.StageName]models.StageOptions, len(req.Params))
	for stage, opts := range req.Params {
		params[models.StageName(stage)] = models.StageOptions{
			Mode:         models.ScanMode(opts.Mode),
			Wordlist:     opts.Wordlist,
			TemplatesDir: opts.TemplatesDir,
			RateLimit:    opts.RateLimit,
			Timeout:      opts.Timeout,
			ExtraArgv:    opts.ExtraArgv,
		}
	}

	job := models.JobDescriptor{
		JobID:      jobID,
		Target:     models.NormalizeTargets(req.Target),
		TargetType: targetType,
		Tools:      tools,
		Params:     params,
		Initiator:  req.Initiator,
		Exclude:    req.Exclude,
		AbortOnErr: req.AbortOnErr,
	}

	record := models.JobRecord{
		JobID:     jobID,
		Initiator: req.Initiator,
		Targets:   job.Target,
		Exclude:   job.Exclude,
		Timestamp: time.Now(),
		Status:    models.StatusQueued,
	}

	if err := h.store.EnqueueJob(r.Context(), record); err != nil {
		h.logger.Error().Err(err).Str("job_id", jobID).Msg("failed to persist queued job")
		writeError(w, http.StatusInternalServerError, "failed to queue job")
		return
	}
	if err := h.queue.Enqueue(r.Context(), job); err != nil {
		h.logger.Error().Err(err).Str("job_id", jobID).Msg("failed to enqueue job")
		writeError(w, http.StatusInternalServerError, "failed to queue job")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": jobID})
}

// Get handles GET /jobs/{id}.
func (h *JobsHandler) Get(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	job, err := h.store.FindJob(r.Context(), jobID)
	if err != nil {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// List handles GET /jobs?principal=&since=.
func (h *JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	principal := r.URL.Query().Get("principal")
	if principal == "" {
		writeError(w, http.StatusBadRequest, "principal is required")
		return
	}

	since := time.Time{}
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "since must be RFC3339")
			return
		}
		since = parsed
	}

	jobs, err := h.store.ListJobsByPrincipal(r.Context(), principal, since)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list jobs")
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
