package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/bountyforge/bountyforge/internal/adapter"
)

// AvailabilityHandler serves the adapter availability snapshot.
type AvailabilityHandler struct {
	registry *adapter.Registry
}

// NewAvailabilityHandler constructs an AvailabilityHandler.
func NewAvailabilityHandler(registry *adapter.Registry) *AvailabilityHandler {
	return &AvailabilityHandler{registry: registry}
}

// Get handles GET /availability.
func (h *AvailabilityHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 20*time.Second)
	defer cancel()
	writeJSON(w, http.StatusOK, h.registry.CheckAvailability(ctx))
}
