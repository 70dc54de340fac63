package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/bountyforge/bountyforge/internal/eventbus"
)

// EventsHandler streams a job's progress events as Server-Sent Events.
type EventsHandler struct {
	bus    *eventbus.Bus
	logger arbor.ILogger
}

// NewEventsHandler constructs an EventsHandler.
func NewEventsHandler(bus *eventbus.Bus, logger arbor.ILogger) *EventsHandler {
	return &EventsHandler{bus: bus, logger: logger}
}

// Stream handles GET /jobs/{id}/events. The connection stays open
// until the job's subscriber channel is closed on a terminal event or
// the client disconnects.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	events := h.bus.Subscribe(jobID)
	ctx := r.Context()

	for {
		select {
		case <-ctx.Done():
			return
		case event, open := <-events:
			if !open {
				return
			}
			payload, err := json.Marshal(event)
			if err != nil {
				h.logger.Error().Err(err).Msg("failed to marshal event for SSE")
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
	}
}
