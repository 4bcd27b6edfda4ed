package api

import (
	"net/http"
	"time"

	"github.com/mymichlin/discovery/internal/api/respond"
)

// HealthHandler reports the aggregated service health.
type HealthHandler struct {
	healthy func() bool
}

func NewHealthHandler(healthy func() bool) *HealthHandler {
	if healthy == nil {
		healthy = func() bool { return true }
	}
	return &HealthHandler{healthy: healthy}
}

// CheckHealth handles GET /api/health.
// Always returns 200; body reports healthy/unhealthy. 500 indicates handler failure only.
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	status := "unhealthy"
	if h.healthy() {
		status = "healthy"
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
