package api

import (
	"net/http"
	"time"

	respond "github.com/sakina-app/sakina-server/internal/api/respond"
	"github.com/sakina-app/sakina-server/internal/health"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	checker *health.ServiceHealthChecker
}

// NewHealthHandler creates a new health handler backed by the cached service health.
func NewHealthHandler(checker *health.ServiceHealthChecker) *HealthHandler {
	return &HealthHandler{checker: checker}
}

// CheckHealth handles GET /api/health
// Always returns 200; body reports healthy/unhealthy. 500 indicates handler failure only.
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	status := "unhealthy"
	components := map[string]bool{}
	if h.checker != nil {
		if h.checker.IsHealthy() {
			status = "healthy"
		}
		components = h.checker.Components()
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":     status,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"components": components,
	})
}
