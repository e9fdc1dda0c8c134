package handler

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vasapolrittideah/task-tracker-api/services/task-api/internal/model"
	"github.com/vasapolrittideah/task-tracker-api/services/task-api/internal/repository"
	"github.com/vasapolrittideah/task-tracker-api/services/task-api/internal/usecase"
	"github.com/vasapolrittideah/task-tracker-api/shared/utilities"
)

type taskHTTPHandler struct {
	taskUsecase usecase.DocumentUsecase[*model.Task]
	logger      *zerolog.Logger
}

func NewTaskHTTPHandler(taskUsecase usecase.DocumentUsecase[*model.Task], logger *zerolog.Logger) *taskHTTPHandler {
	return &taskHTTPHandler{
		taskUsecase: taskUsecase,
		logger:      logger,
	}
}

func (h *taskHTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
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
	data["owner"] = user.ID

	task, err := h.taskUsecase.Create(r.Context(), data)
	if err != nil {
		utilities.WriteError(w, r, err)
		return
	}

	utilities.WriteJSON(w, http.StatusCreated, task)
}

func (h *taskHTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		utilities.WriteError(w, r, errNoCurrentUser)
		return
	}

	tasks, err := h.taskUsecase.List(r.Context(), taskListParams(user.ID, r.URL.Query()))
	if err != nil {
		utilities.WriteError(w, r, err)
		return
	}
	if tasks == nil {
		tasks = []*model.Task{}
	}

	utilities.WriteJSON(w, http.StatusOK, tasks)
}

func (h *taskHTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		utilities.WriteError(w, r, errNoCurrentUser)
		return
	}

	task, err := h.taskUsecase.GetByIDAndOwner(r.Context(), chi.URLParam(r, "id"), user.ID)
	if err != nil {
		utilities.WriteError(w, r, err)
		return
	}

	utilities.WriteJSON(w, http.StatusOK, task)
}

func (h *taskHTTPHandler) Update(w http.ResponseWriter, r *http.Request) {
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

	task, err := h.taskUsecase.UpdateByIDAndOwner(
		r.Context(),
		chi.URLParam(r, "id"),
		user.ID,
		data,
		model.TaskUpdatableFields,
	)
	if err != nil {
		utilities.WriteError(w, r, err)
		return
	}

	utilities.WriteJSON(w, http.StatusOK, task)
}

func (h *taskHTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		utilities.WriteError(w, r, errNoCurrentUser)
		return
	}

	task, err := h.taskUsecase.DeleteByIDAndOwner(r.Context(), chi.URLParam(r, "id"), user.ID)
	if err != nil {
		utilities.WriteError(w, r, err)
		return
	}

	utilities.WriteJSON(w, http.StatusOK, task)
}

// taskListParams scopes the listing to owner and applies the optional
// completed, limit, skip and sortBy query parameters. Values that cannot be
// understood are ignored.
func taskListParams(owner bson.ObjectID, query url.Values) repository.FindParams {
	params := repository.FindParams{
		Filter: repository.Filter{Owner: &owner},
		Limit:  nonNegativeInt(query.Get("limit")),
		Skip:   nonNegativeInt(query.Get("skip")),
	}

	switch query.Get("completed") {
	case "true":
		params.Filter.Match = bson.M{"completed": true}
	case "false":
		params.Filter.Match = bson.M{"completed": false}
	}

	if sortBy := query.Get("sortBy"); sortBy != "" {
		field, direction, _ := strings.Cut(sortBy, ":")
		stored, ok := model.TaskSortFields[field]
		if ok && (direction == "asc" || direction == "desc") {
			params.SortBy = stored
			params.SortDesc = direction == "desc"
		}
	}

	return params
}

func nonNegativeInt(value string) int64 {
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil || n < 0 {
		return 0
	}

	return n
}
