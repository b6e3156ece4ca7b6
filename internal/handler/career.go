package handler

import (
	"net/http"

	"github.com/tawjihai/tawjih/internal/matching"
	"github.com/tawjihai/tawjih/internal/model"
)

type favoriteRequest struct {
	IsFavorite *bool `json:"isFavorite" validate:"required"`
}

// recommendedCareer adds the displayed match to a career. Careers without a
// match show matching.DisplayDefault even though they sort last.
type recommendedCareer struct {
	model.Career
	MatchPercentage int `json:"matchPercentage"`
}

func (h *Handler) handleListCareers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, emptyIfNil(h.store.ListCareers(language(r))))
}

func (h *Handler) handleRecommendedCareers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := model.UserIDFromContext(ctx)
	if userID == 0 {
		writeJSON(w, http.StatusOK, emptyIfNil(h.store.ListCareers(language(r))))
		return
	}

	careers := h.svc.Matching.Recommended(ctx, userID, language(r))
	matches := h.svc.Matching.Matches(ctx, userID)
	out := make([]recommendedCareer, len(careers))
	for i, c := range careers {
		out[i] = recommendedCareer{Career: c, MatchPercentage: matching.DisplayPercentage(matches, c.ID)}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGetCareer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	career, err := h.store.GetCareer(id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, career)
}

func (h *Handler) handleListUserCareers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, emptyIfNil(h.store.ListUserCareers(model.UserIDFromContext(r.Context()))))
}

func (h *Handler) handleCareerMatches(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	writeJSON(w, http.StatusOK, h.svc.Matching.Matches(ctx, model.UserIDFromContext(ctx)))
}

func (h *Handler) handleGetUserCareer(w http.ResponseWriter, r *http.Request) {
	careerID, err := pathID(r, "careerID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	uc, err := h.store.GetUserCareer(model.UserIDFromContext(r.Context()), careerID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, uc)
}

func (h *Handler) handleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	careerID, err := pathID(r, "careerID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req favoriteRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	ctx := r.Context()
	uc, err := h.svc.Matching.ToggleFavorite(ctx, model.UserIDFromContext(ctx), careerID, *req.IsFavorite)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, uc)
}

func (h *Handler) handleRecordView(w http.ResponseWriter, r *http.Request) {
	careerID, err := pathID(r, "careerID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	ctx := r.Context()
	if _, err := h.svc.Matching.RecordView(ctx, model.UserIDFromContext(ctx), careerID); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
