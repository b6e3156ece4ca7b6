package handler

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/sessions"

	"github.com/tawjihai/tawjih/internal/assessment"
	"github.com/tawjihai/tawjih/internal/counselor"
	"github.com/tawjihai/tawjih/internal/dashboard"
	appI18n "github.com/tawjihai/tawjih/internal/i18n"
	"github.com/tawjihai/tawjih/internal/matching"
	"github.com/tawjihai/tawjih/internal/model"
	"github.com/tawjihai/tawjih/internal/store"
)

// Services are the domain components the handlers call into.
type Services struct {
	Assessment *assessment.Engine
	Matching   *matching.Aggregator
	Dashboard  *dashboard.Builder
	Counselor  *counselor.Service
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store    *store.Store
	svc      Services
	sessions *sessions.CookieStore
	validate *validator.Validate
	config   model.AppConfig
}

// New creates a new Handler. An empty session key is replaced by a random
// one, which invalidates sessions on restart.
func New(s *store.Store, svc Services, cfg model.AppConfig) (*Handler, error) {
	key := []byte(cfg.SessionKey)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("generate session key: %w", err)
		}
		slog.Warn("no session key configured, sessions will not survive a restart")
	}
	if cfg.DefaultLanguage == "" {
		cfg.DefaultLanguage = "en"
	}

	cs := sessions.NewCookieStore(key)
	cs.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 3600,
		HttpOnly: true,
		Secure:   cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("language", func(fl validator.FieldLevel) bool {
		return appI18n.IsSupported(fl.Field().String())
	}); err != nil {
		return nil, fmt.Errorf("register language validation: %w", err)
	}

	return &Handler{store: s, svc: svc, sessions: cs, validate: v, config: cfg}, nil
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/healthz", h.handleHealth)

	r.Route("/api", func(api chi.Router) {
		api.Use(h.loadUser)
		api.Use(h.withLanguage)
		api.Use(appI18n.Middleware(func(r *http.Request) string {
			return model.LanguageFromContext(r.Context())
		}))

		api.Post("/auth/register", h.handleRegister)
		api.Post("/auth/login", h.handleLogin)
		api.Post("/auth/logout", h.handleLogout)

		api.Get("/quizzes", h.handleListQuizzes)
		api.Get("/quizzes/{id}", h.handleGetQuiz)
		api.Get("/quizzes/{id}/questions", h.handleListQuestions)

		api.Get("/careers", h.handleListCareers)
		api.Get("/careers/recommended", h.handleRecommendedCareers)
		api.Get("/careers/{id}", h.handleGetCareer)

		api.Post("/ai/message", h.handleAIMessage)

		api.Group(func(auth chi.Router) {
			auth.Use(h.requireAuth)

			auth.Get("/user/current", h.handleCurrentUser)
			auth.Post("/user/preferences", h.handleUpdatePreferences)

			auth.Get("/user/quizzes", h.handleListUserQuizzes)
			auth.Get("/user/quizzes/{quizID}", h.handleGetUserQuiz)
			auth.Post("/user/quizzes/{quizID}/start", h.handleStartQuiz)
			auth.Post("/user/quizzes/{quizID}/answers", h.handleSaveAnswer)
			auth.Post("/user/quizzes/{quizID}/complete", h.handleCompleteQuiz)

			auth.Get("/user/careers", h.handleListUserCareers)
			auth.Get("/user/career-matches", h.handleCareerMatches)
			auth.Get("/user/careers/{careerID}", h.handleGetUserCareer)
			auth.Post("/user/careers/{careerID}/favorite", h.handleToggleFavorite)
			auth.Post("/user/careers/{careerID}/view", h.handleRecordView)

			auth.Get("/ai/conversations", h.handleListConversations)

			auth.Route("/teacher", func(t chi.Router) {
				t.Use(requireRole(model.UserRoleTeacher))
				t.Get("/dashboard", h.handleTeacherDashboard)
				t.Get("/catalog", h.handleExportCatalog)
				t.Post("/catalog", h.handleUploadCatalog)
			})
		})
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// withLanguage resolves the request language: the language query parameter,
// then the signed-in user's preference, then the configured default.
// Unsupported query values are ignored.
func (h *Handler) withLanguage(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang := r.URL.Query().Get("language")
		if !appI18n.IsSupported(lang) {
			lang = ""
		}
		if lang == "" {
			if u := model.UserFromContext(r.Context()); u != nil && u.Language != "" {
				lang = u.Language
			}
		}
		if lang == "" {
			lang = h.config.DefaultLanguage
		}
		next.ServeHTTP(w, r.WithContext(model.ContextWithLanguage(r.Context(), lang)))
	})
}

func language(r *http.Request) string {
	return model.LanguageFromContext(r.Context())
}

type messageResponse struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messageResponse{Message: msg})
}

var errBadJSON = errors.New("malformed JSON body")

// decode reads a JSON body into dst and validates it.
func (h *Handler) decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errBadJSON, err)
	}
	return h.validate.Struct(dst)
}

// writeError maps domain errors to HTTP status codes with a localized message.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		writeJSON(w, http.StatusBadRequest, messageResponse{
			Message: appI18n.T(ctx, "ErrValidation"),
			Errors:  fieldErrors(r, verrs),
		})
	case errors.Is(err, errBadJSON):
		writeMessage(w, http.StatusBadRequest, appI18n.T(ctx, "ErrBadJSON"))
	case errors.Is(err, model.ErrValidation):
		writeMessage(w, http.StatusBadRequest, appI18n.T(ctx, "ErrValidation"))
	case errors.Is(err, model.ErrNotFound):
		writeMessage(w, http.StatusNotFound, appI18n.T(ctx, "ErrNotFound"))
	case errors.Is(err, model.ErrUnauthenticated):
		writeMessage(w, http.StatusUnauthorized, appI18n.T(ctx, "ErrUnauthenticated"))
	case errors.Is(err, model.ErrForbidden):
		writeMessage(w, http.StatusForbidden, appI18n.T(ctx, "ErrForbidden"))
	case errors.Is(err, model.ErrConflict):
		writeMessage(w, http.StatusConflict, appI18n.T(ctx, "ErrConflict"))
	default:
		slog.ErrorContext(ctx, "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeMessage(w, http.StatusInternalServerError, appI18n.T(ctx, "ErrInternal"))
	}
}

func fieldErrors(r *http.Request, verrs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		data := map[string]any{"Field": fe.Field(), "Param": fe.Param()}
		var id string
		switch fe.Tag() {
		case "required":
			id = "FieldRequired"
		case "min":
			id = "FieldMin"
		case "max":
			id = "FieldMax"
		case "oneof":
			id = "FieldOneOf"
		case "language":
			id = "FieldOneOf"
			data["Param"] = strings.Join(appI18n.Supported, " ")
		default:
			id = "FieldInvalid"
		}
		out[fe.Field()] = appI18n.Td(r.Context(), id, data)
	}
	return out
}

// pathID parses a numeric URL parameter. A malformed ID cannot match any
// record, so it is reported as not found.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s %q: %w", name, chi.URLParam(r, name), model.ErrNotFound)
	}
	return id, nil
}
