package utilities

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"github.com/vasapolrittideah/task-tracker-api/shared/apperr"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Message string `json:"message"`
}

// WriteJSON encodes v as the JSON body of a response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}

	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates err into a status code and message. Internal errors
// are logged with the request logger and never exposed to the client.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindInternal {
		hlog.FromRequest(r).Error().Err(err).Msg("request failed")
	} else {
		hlog.FromRequest(r).Debug().Err(err).Str("kind", kind.String()).Msg("request rejected")
	}

	WriteJSON(w, kind.HTTPStatus(), ErrorResponse{Message: apperr.MessageOf(err)})
}
