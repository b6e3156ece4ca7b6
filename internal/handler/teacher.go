package handler

import (
	"net/http"

	"github.com/tawjihai/tawjih/internal/model"
)

func (h *Handler) handleTeacherDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	d := h.svc.Dashboard.Build(ctx, model.UserIDFromContext(ctx), r.URL.Query().Get("class"))
	writeJSON(w, http.StatusOK, d)
}
