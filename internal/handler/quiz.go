package handler

import (
	"net/http"

	"github.com/tawjihai/tawjih/internal/model"
)

type answerRequest struct {
	QuestionID int64  `json:"questionId" validate:"required,gt=0"`
	Answer     string `json:"answer" validate:"required"`
}

func emptyIfNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func (h *Handler) handleListQuizzes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, emptyIfNil(h.store.ListQuizzes(language(r))))
}

func (h *Handler) handleGetQuiz(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	quiz, err := h.store.GetQuiz(id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

func (h *Handler) handleListQuestions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(h.store.ListQuizQuestions(id, language(r))))
}

func (h *Handler) handleListUserQuizzes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, emptyIfNil(h.store.ListUserQuizzes(model.UserIDFromContext(r.Context()))))
}

func (h *Handler) handleGetUserQuiz(w http.ResponseWriter, r *http.Request) {
	quizID, err := pathID(r, "quizID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	uq, err := h.store.GetUserQuiz(model.UserIDFromContext(r.Context()), quizID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, uq)
}

func (h *Handler) handleStartQuiz(w http.ResponseWriter, r *http.Request) {
	quizID, err := pathID(r, "quizID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	uq, err := h.svc.Assessment.StartOrGetAttempt(r.Context(), model.UserIDFromContext(r.Context()), quizID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, uq)
}

func (h *Handler) handleSaveAnswer(w http.ResponseWriter, r *http.Request) {
	quizID, err := pathID(r, "quizID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req answerRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	ctx := r.Context()
	attempt, err := h.svc.Assessment.StartOrGetAttempt(ctx, model.UserIDFromContext(ctx), quizID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	uq, err := h.svc.Assessment.SaveAnswer(ctx, attempt.ID, req.QuestionID, req.Answer)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, uq)
}

// handleCompleteQuiz completes the user's attempt and refreshes their career matches.
func (h *Handler) handleCompleteQuiz(w http.ResponseWriter, r *http.Request) {
	quizID, err := pathID(r, "quizID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	ctx := r.Context()
	userID := model.UserIDFromContext(ctx)
	attempt, err := h.store.GetUserQuiz(userID, quizID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	uq, err := h.svc.Assessment.CompleteAttempt(ctx, attempt.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.svc.Matching.RecalculateAll(ctx, userID)
	writeJSON(w, http.StatusOK, uq)
}
