package api

import (
	"net/http"

	"github.com/sakina-app/sakina-server/internal/api/respond"
	"github.com/sakina-app/sakina-server/internal/api/validate"
	"github.com/sakina-app/sakina-server/internal/services"
)

type InsightsHandler struct {
	insights  *services.InsightsService
	dashboard *services.DashboardService
}

func NewInsightsHandler(insights *services.InsightsService, dashboard *services.DashboardService) *InsightsHandler {
	return &InsightsHandler{insights: insights, dashboard: dashboard}
}

// Weekly POST /api/insights/weekly {"days": 7}
func (h *InsightsHandler) Weekly(w http.ResponseWriter, r *http.Request) {
	in := struct {
		Days int `json:"days"`
	}{Days: 7}
	if r.ContentLength != 0 {
		if err := validate.DecodeJSON(r, &in); err != nil {
			respond.WriteServiceError(w, r, err)
			return
		}
	}
	out, err := h.insights.Weekly(r.Context(), callerID(r), in.Days)
	if err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// Stats GET /api/insights/stats?days=
func (h *InsightsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	days, err := validate.QueryInt(r.URL.Query(), "days", 7, 1, 30)
	if err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	out, err := h.insights.Stats(r.Context(), callerID(r), days)
	if err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// Streak GET /api/insights/streak
func (h *InsightsHandler) Streak(w http.ResponseWriter, r *http.Request) {
	out, err := h.insights.Streak(r.Context(), callerID(r))
	if err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// Dashboard GET /api/dashboard/summary
func (h *InsightsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	out, err := h.dashboard.Summary(r.Context(), callerID(r))
	if err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}
