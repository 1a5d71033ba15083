package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"hvexport/internal/operations"
)

// ProgressSource reports the progress of the running batch.
type ProgressSource interface {
	Progress() operations.ProgressSnapshot
}

// StatusResponse is the body of GET /status.
type StatusResponse struct {
	Version  string                      `json:"version"`
	Uptime   string                      `json:"uptime"`
	Archive  string                      `json:"archive,omitempty"`
	Progress operations.ProgressSnapshot `json:"progress"`
}

// StatusHandler serves liveness and batch progress.
type StatusHandler struct {
	source  ProgressSource
	version string
	archive string
	started time.Time
	logger  *slog.Logger
}

// NewStatusHandler creates a status handler. archive names the dialect of the batch.
func NewStatusHandler(source ProgressSource, version, archive string, logger *slog.Logger) *StatusHandler {
	return &StatusHandler{
		source:  source,
		version: version,
		archive: archive,
		started: time.Now(),
		logger:  logger.With(slog.String("handler", "status")),
	}
}

// Register adds the status routes to r
func (h *StatusHandler) Register(r chi.Router) {
	r.Get("/healthz", h.Health)
	r.Get("/status", h.Status)
}

// Health handles GET /healthz
func (h *StatusHandler) Health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}

// Status handles GET /status
func (h *StatusHandler) Status(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, StatusResponse{
		Version:  h.version,
		Uptime:   time.Since(h.started).Round(time.Second).String(),
		Archive:  h.archive,
		Progress: h.source.Progress(),
	})
}
