package api

import (
	"net/http"

	"github.com/sakina-app/sakina-server/internal/api/respond"
	"github.com/sakina-app/sakina-server/internal/api/validate"
	"github.com/sakina-app/sakina-server/internal/services"
)

const maxNudgeContextLen = 200

type NudgeHandler struct {
	svc *services.NudgeService
}

func NewNudgeHandler(svc *services.NudgeService) *NudgeHandler { return &NudgeHandler{svc: svc} }

// Check POST /api/nudge/check
func (h *NudgeHandler) Check(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Check(r.Context(), callerID(r))
	if err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// Status GET /api/nudge/status
func (h *NudgeHandler) Status(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Status(r.Context(), callerID(r))
	if err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// Shown POST /api/nudge/shown
func (h *NudgeHandler) Shown(w http.ResponseWriter, r *http.Request) {
	var in services.NudgeShownInput
	if err := validate.DecodeJSON(r, &in); err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	if err := validate.MaxLen("context", &in.Context, maxNudgeContextLen); err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	out, err := h.svc.Shown(r.Context(), callerID(r), in)
	if err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, out)
}
