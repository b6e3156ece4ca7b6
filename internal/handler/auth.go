package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	appI18n "github.com/tawjihai/tawjih/internal/i18n"
	"github.com/tawjihai/tawjih/internal/model"
	"github.com/tawjihai/tawjih/internal/store"
)

const (
	sessionName   = "tawjih_session"
	sessionUserID = "user_id"
)

type registerRequest struct {
	Username string         `json:"username" validate:"required,min=3,max=50"`
	Password string         `json:"password" validate:"required,min=6,max=72"`
	FullName string         `json:"fullName" validate:"required,max=100"`
	Role     model.UserRole `json:"role" validate:"omitempty,oneof=student teacher"`
	Language string         `json:"language" validate:"omitempty,language"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// loadUser attaches the signed-in user to the request context when the
// session cookie is valid. Requests without a session pass through anonymously.
func (h *Handler) loadUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := h.sessions.Get(r, sessionName)
		if err != nil {
			slog.Debug("discarding invalid session cookie", "error", err)
			next.ServeHTTP(w, r)
			return
		}
		userID, ok := sess.Values[sessionUserID].(int64)
		if !ok || userID == 0 {
			next.ServeHTTP(w, r)
			return
		}
		user, err := h.store.GetUserByID(userID)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(model.ContextWithUser(r.Context(), &user)))
	})
}

// requireAuth rejects requests without a signed-in user.
func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if model.UserFromContext(r.Context()) == nil {
			h.writeError(w, r, model.ErrUnauthenticated)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireRole returns middleware that checks the user has one of the allowed roles.
func requireRole(allowed ...model.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := model.UserFromContext(r.Context())
			if user == nil {
				writeMessage(w, http.StatusUnauthorized, appI18n.T(r.Context(), "ErrUnauthenticated"))
				return
			}
			for _, role := range allowed {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeMessage(w, http.StatusForbidden, appI18n.T(r.Context(), "ErrForbidden"))
		})
	}
}

func (h *Handler) startSession(w http.ResponseWriter, r *http.Request, userID int64) error {
	sess, _ := h.sessions.Get(r, sessionName)
	sess.Values[sessionUserID] = userID
	return sess.Save(r, w)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.Role == "" {
		req.Role = model.UserRoleStudent
	}
	if req.Language == "" {
		req.Language = h.config.DefaultLanguage
	}

	hash, err := store.HashPassword(req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	user, err := h.store.CreateUser(model.User{
		Username:     req.Username,
		PasswordHash: hash,
		FullName:     req.FullName,
		Role:         req.Role,
		Language:     req.Language,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.startSession(w, r, user.ID); err != nil {
		h.writeError(w, r, err)
		return
	}
	slog.Info("user registered", "user_id", user.ID, "role", user.Role)
	writeJSON(w, http.StatusCreated, user)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	user, err := h.store.GetUserByUsername(req.Username)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		h.writeError(w, r, err)
		return
	}
	if err != nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		writeMessage(w, http.StatusUnauthorized, appI18n.T(r.Context(), "InvalidCredentials"))
		return
	}

	if err := h.startSession(w, r, user.ID); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess, _ := h.sessions.Get(r, sessionName)
	delete(sess.Values, sessionUserID)
	sess.Options.MaxAge = -1
	if err := sess.Save(r, w); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, appI18n.T(r.Context(), "LoggedOut"))
}
