package httpapi

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"

	"github.com/bountyforge/bountyforge/internal/eventbus"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WSHandler is the alternate event-stream transport for clients that
// prefer a WebSocket connection over SSE (spec.md §4.6 expansion).
type WSHandler struct {
	bus    *eventbus.Bus
	logger arbor.ILogger
}

// NewWSHandler constructs a WSHandler.
func NewWSHandler(bus *eventbus.Bus, logger arbor.ILogger) *WSHandler {
	return &WSHandler{bus: bus, logger: logger}
}

// Handle upgrades the connection and relays events for the job ID
// given in the {id} path value until the subscriber channel closes or
// the socket errors out.
func (h *WSHandler) Handle(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	if jobID == "" {
		http.Error(w, "job id is required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to upgrade websocket connection")
		return
	}
	defer conn.Close()

	events := h.bus.Subscribe(jobID)
	for event := range events {
		if err := conn.WriteJSON(event); err != nil {
			h.logger.Debug().Err(err).Str("job_id", jobID).Msg("websocket write failed, closing stream")
			return
		}
	}
}
