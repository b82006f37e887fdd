package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/sakif/recipe-mate/internal/respond"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler answers liveness checks.
type HealthHandler struct {
	db Pinger
	rs *respond.Responder
}

func NewHealthHandler(db Pinger, rs *respond.Responder) *HealthHandler {
	return &HealthHandler{db: db, rs: rs}
}

type healthResponse struct {
	Status string `json:"status"`
}

// HandleHealth reports "ok", or 503 when the database does not answer.
//
// HTTP: GET /health
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.rs.Text(w, r, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"}, "unavailable")
		return
	}
	h.rs.Text(w, r, http.StatusOK, healthResponse{Status: "ok"}, "ok")
}
