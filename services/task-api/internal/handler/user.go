package handler

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/task-tracker-api/services/task-api/internal/model"
	"github.com/vasapolrittideah/task-tracker-api/services/task-api/internal/usecase"
	"github.com/vasapolrittideah/task-tracker-api/shared/apperr"
	"github.com/vasapolrittideah/task-tracker-api/shared/middleware"
	"github.com/vasapolrittideah/task-tracker-api/shared/utilities"
)

type userHTTPHandler struct {
	accountUsecase usecase.AccountUsecase
	authUsecase    usecase.AuthUsecase
	logger         *zerolog.Logger
}

func NewUserHTTPHandler(
	accountUsecase usecase.AccountUsecase,
	authUsecase usecase.AuthUsecase,
	logger *zerolog.Logger,
) *userHTTPHandler {
	return &userHTTPHandler{
		accountUsecase: accountUsecase,
		authUsecase:    authUsecase,
		logger:         logger,
	}
}

func (h *userHTTPHandler) Register(w http.ResponseWriter, r *http.Request) {
	data, err := decodeBody(r)
	if err != nil {
		utilities.WriteError(w, r, err)
		return
	}

	user, token, err := h.accountUsecase.Register(r.Context(), data)
	if err != nil {
		utilities.WriteError(w, r, err)
		return
	}

	utilities.WriteJSON(w, http.StatusCreated, AuthResponse{User: user, Token: token})
}

func (h *userHTTPHandler) Login(w http.ResponseWriter, r *http.Request) {
	data, err := decodeBody(r)
	if err != nil {
		utilities.WriteError(w, r, err)
		return
	}

	user, err := h.authUsecase.Login(r.Context(), data)
	if err != nil {
		utilities.WriteError(w, r, err)
		return
	}

	token, err := h.authUsecase.IssueToken(r.Context(), user)
	if err != nil {
		utilities.WriteError(w, r, err)
		return
	}

	utilities.WriteJSON(w, http.StatusOK, AuthResponse{User: user, Token: token})
}

func (h *userHTTPHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		utilities.WriteError(w, r, errNoCurrentUser)
		return
	}

	if err := h.authUsecase.Logout(r.Context(), user, middleware.TokenFromContext(r.Context())); err != nil {
		utilities.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *userHTTPHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		utilities.WriteError(w, r, errNoCurrentUser)
		return
	}

	if err := h.authUsecase.LogoutAll(r.Context(), user); err != nil {
		utilities.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *userHTTPHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		utilities.WriteError(w, r, errNoCurrentUser)
		return
	}

	utilities.WriteJSON(w, http.StatusOK, user)
}

func (h *userHTTPHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		utilities.WriteError(w, r, errNoCurrentUser)
		return
	}

	data, err := decodeBody(r)
	if err != nil {
		utilities.WriteError(w, r, err)
		return
	}

	updated, err := h.accountUsecase.UpdateProfile(r.Context(), user, data)
	if err != nil {
		utilities.WriteError(w, r, err)
		return
	}

	utilities.WriteJSON(w, http.StatusOK, updated)
}

func (h *userHTTPHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		utilities.WriteError(w, r, errNoCurrentUser)
		return
	}

	deleted, err := h.accountUsecase.DeleteAccount(r.Context(), user)
	if err != nil {
		utilities.WriteError(w, r, err)
		return
	}

	h.logger.Info().Str("user_id", deleted.ID.Hex()).Msg("user deleted their account")

	utilities.WriteJSON(w, http.StatusOK, deleted)
}

// errNoCurrentUser means a protected route was mounted without the
// authentication middleware.
var errNoCurrentUser = apperr.Unauthorized("please authenticate")

func currentUser(r *http.Request) (*model.User, bool) {
	return middleware.UserFromContext[*model.User](r.Context())
}
