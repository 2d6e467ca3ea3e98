package api

import (
	"net/http"

	"github.com/sakina-app/sakina-server/internal/api/respond"
	"github.com/sakina-app/sakina-server/internal/api/validate"
	"github.com/sakina-app/sakina-server/internal/model"
	"github.com/sakina-app/sakina-server/internal/services"
)

type UserHandler struct {
	svc *services.UserService
}

func NewUserHandler(svc *services.UserService) *UserHandler { return &UserHandler{svc: svc} }

// GetProfile GET /api/users/profile
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.GetUser(r.Context(), callerID(r))
	if err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, u)
}

// UpdatePreferences PATCH /api/users/preferences
func (h *UserHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var in model.UserPreferences
	if err := validate.DecodeJSON(r, &in); err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	u, err := h.svc.UpdatePreferences(r.Context(), callerID(r), in)
	if err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, u)
}
