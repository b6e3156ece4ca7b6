package handler

import (
	"net/http"

	"github.com/tawjihai/tawjih/internal/model"
)

type preferencesRequest struct {
	Language string `json:"language" validate:"required,language"`
}

func (h *Handler) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.UserFromContext(r.Context()))
}

func (h *Handler) handleUpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var req preferencesRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	user, err := h.store.UpdateUserLanguage(model.UserIDFromContext(r.Context()), req.Language)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
