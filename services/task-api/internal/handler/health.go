package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/vasapolrittideah/task-tracker-api/shared/apperr"
	"github.com/vasapolrittideah/task-tracker-api/shared/utilities"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type healthHTTPHandler struct {
	pinger Pinger
}

func NewHealthHTTPHandler(pinger Pinger) *healthHTTPHandler {
	return &healthHTTPHandler{pinger: pinger}
}

func (h *healthHTTPHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.pinger.Ping(ctx); err != nil {
		utilities.WriteError(w, r, apperr.Internal(err))
		return
	}

	utilities.WriteJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}
