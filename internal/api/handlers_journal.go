package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/sakina-app/sakina-server/internal/api/respond"
	"github.com/sakina-app/sakina-server/internal/api/validate"
	"github.com/sakina-app/sakina-server/internal/model"
	"github.com/sakina-app/sakina-server/internal/services"
)

type JournalHandler struct {
	svc *services.JournalService
}

func NewJournalHandler(svc *services.JournalService) *JournalHandler {
	return &JournalHandler{svc: svc}
}

// CreateEntry POST /api/journal
func (h *JournalHandler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	var in services.CreateEntryInput
	if err := validate.DecodeJSON(r, &in); err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	out, err := h.svc.Create(r.Context(), callerID(r), in)
	if err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, out)
}

// ListEntries GET /api/journal?skip=&limit=&mood=
func (h *JournalHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	skip, err := validate.QueryInt(q, "skip", 0, 0, 1<<20)
	if err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	limit, err := validate.QueryInt(q, "limit", 20, 1, 100)
	if err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	out, err := h.svc.List(r.Context(), callerID(r), skip, limit, q.Get("mood"))
	if err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	if out == nil {
		out = []*model.JournalEntry{}
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// GetEntry GET /api/journal/{entryId}
func (h *JournalHandler) GetEntry(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["entryId"]
	if err := validate.EntryID(id); err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	out, err := h.svc.Get(r.Context(), callerID(r), id)
	if err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// DeleteEntry DELETE /api/journal/{entryId}
func (h *JournalHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["entryId"]
	if err := validate.EntryID(id); err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	if err := h.svc.Delete(r.Context(), callerID(r), id); err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AnalyzeEntry POST /api/journal/analyze
func (h *JournalHandler) AnalyzeEntry(w http.ResponseWriter, r *http.Request) {
	var in services.AnalyzeInput
	if err := validate.DecodeJSON(r, &in); err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	out, err := h.svc.Analyze(r.Context(), in)
	if err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}
