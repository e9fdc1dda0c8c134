package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/vasapolrittideah/task-tracker-api/services/task-api/internal/model"
	"github.com/vasapolrittideah/task-tracker-api/shared/apperr"
)

// AuthResponse is returned by registration and login.
type AuthResponse struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

var ErrInvalidBody = apperr.BadRequest("request body must be a JSON object")

// decodeBody reads a JSON object from the request body. An empty body is an
// empty object. Numbers are kept as json.Number so integers survive intact.
func decodeBody(r *http.Request) (map[string]any, error) {
	data := map[string]any{}
	if r.Body == nil {
		return data, nil
	}

	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()
	if err := decoder.Decode(&data); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]any{}, nil
		}

		return nil, apperr.Wrap(apperr.KindBadRequest, ErrInvalidBody.Message, err)
	}
	if data == nil {
		return nil, ErrInvalidBody
	}

	return data, nil
}
