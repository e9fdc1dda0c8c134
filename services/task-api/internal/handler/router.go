package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/vasapolrittideah/task-tracker-api/services/task-api/internal/model"
	"github.com/vasapolrittideah/task-tracker-api/services/task-api/internal/usecase"
	"github.com/vasapolrittideah/task-tracker-api/shared/apperr"
	"github.com/vasapolrittideah/task-tracker-api/shared/middleware"
	"github.com/vasapolrittideah/task-tracker-api/shared/utilities"
)

// RouterDeps holds everything the HTTP routes are served from.
type RouterDeps struct {
	Logger         *zerolog.Logger
	AuthUsecase    usecase.AuthUsecase
	AccountUsecase usecase.AccountUsecase
	TaskUsecase    usecase.DocumentUsecase[*model.Task]
	Pinger         Pinger
}

// NewRouter builds the HTTP router of the task API.
func NewRouter(deps RouterDeps) http.Handler {
	users := NewUserHTTPHandler(deps.AccountUsecase, deps.AuthUsecase, deps.Logger)
	tasks := NewTaskHTTPHandler(deps.TaskUsecase, deps.Logger)
	health := NewHealthHTTPHandler(deps.Pinger)

	r := chi.NewRouter()
	r.Use(hlog.NewHandler(*deps.Logger))
	r.Use(hlog.RequestIDHandler("req_id", "X-Request-Id"))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Stringer("url", r.URL).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request handled")
	}))
	r.Use(chimiddleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utilities.WriteError(w, r, apperr.NotFound("route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		utilities.WriteJSON(w, http.StatusMethodNotAllowed, utilities.ErrorResponse{Message: "method not allowed"})
	})

	r.Get("/healthz", health.Health)

	r.Put("/users", users.Register)
	r.Post("/users/login", users.Login)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate[*model.User](deps.AuthUsecase))

		r.Get("/users/me", users.GetProfile)
		r.Patch("/users/me", users.UpdateProfile)
		r.Delete("/users/me", users.DeleteAccount)
		r.Post("/users/logout", users.Logout)
		r.Post("/users/logoutAll", users.LogoutAll)

		r.Put("/tasks", tasks.Create)
		r.Get("/tasks", tasks.List)
		r.Get("/tasks/{id}", tasks.Get)
		r.Patch("/tasks/{id}", tasks.Update)
		r.Delete("/tasks/{id}", tasks.Delete)
	})

	return r
}
