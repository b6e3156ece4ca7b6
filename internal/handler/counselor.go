package handler

import (
	"net/http"

	"github.com/tawjihai/tawjih/internal/model"
)

type messageRequest struct {
	Content string `json:"content" validate:"required"`
}

// handleAIMessage answers a counselor message. Anonymous users are allowed.
func (h *Handler) handleAIMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	ctx := r.Context()
	reply, err := h.svc.Counselor.Respond(ctx, model.UserIDFromContext(ctx), req.Content)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, reply)
}

func (h *Handler) handleListConversations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	writeJSON(w, http.StatusOK, h.svc.Counselor.Conversations(ctx, model.UserIDFromContext(ctx)))
}
