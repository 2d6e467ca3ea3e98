package api

import (
	"net/http"

	"github.com/sakina-app/sakina-server/internal/api/respond"
	"github.com/sakina-app/sakina-server/internal/api/validate"
	"github.com/sakina-app/sakina-server/internal/model"
	"github.com/sakina-app/sakina-server/internal/services"
)

const maxSubtypeLen = 50

type InterventionHandler struct {
	svc *services.InterventionService
}

func NewInterventionHandler(svc *services.InterventionService) *InterventionHandler {
	return &InterventionHandler{svc: svc}
}

// LogIntervention POST /api/interventions
func (h *InterventionHandler) LogIntervention(w http.ResponseWriter, r *http.Request) {
	var in services.LogInterventionInput
	if err := validate.DecodeJSON(r, &in); err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	if err := validate.MaxLen("subtype", in.Subtype, maxSubtypeLen); err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	out, err := h.svc.Log(r.Context(), callerID(r), in)
	if err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, out)
}

// ListInterventions GET /api/interventions?limit=
func (h *InterventionHandler) ListInterventions(w http.ResponseWriter, r *http.Request) {
	limit, err := validate.QueryInt(r.URL.Query(), "limit", 20, 1, 100)
	if err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	out, err := h.svc.List(r.Context(), callerID(r), limit)
	if err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	if out == nil {
		out = []*model.InterventionLog{}
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// RecentInterventions GET /api/interventions/recent?hours=
func (h *InterventionHandler) RecentInterventions(w http.ResponseWriter, r *http.Request) {
	hours, err := validate.QueryInt(r.URL.Query(), "hours", 24, 1, 24*30)
	if err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	out, err := h.svc.Recent(r.Context(), callerID(r), hours)
	if err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	if out.Logs == nil {
		out.Logs = []*model.InterventionLog{}
	}
	respond.WriteJSON(w, http.StatusOK, out)
}
