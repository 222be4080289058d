package handler

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/joestump/bookshelf/internal/api"
	"github.com/joestump/bookshelf/internal/build"
)

const healthTimeout = 2 * time.Second

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StatusHandler serves the service banner and the health probe.
type StatusHandler struct {
	db  Pinger
	log *zap.Logger
}

func NewStatusHandler(db Pinger, log *zap.Logger) *StatusHandler {
	return &StatusHandler{db: db, log: log}
}

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Version string `json:"version,omitempty"`
}

// Index confirms the API is running.
func (h *StatusHandler) Index(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, http.StatusOK, statusResponse{
		Status:  "ok",
		Message: "bookshelf API is running",
		Version: build.Version,
	})
}

// Health answers 200 when the database responds to a ping and 503 otherwise.
func (h *StatusHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.log.Warn("health check failed", zap.Error(err))
		api.WriteJSON(w, http.StatusServiceUnavailable, statusResponse{Status: "unavailable", Message: "database unreachable"})
		return
	}
	api.WriteJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}
