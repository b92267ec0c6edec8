package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"healthvault/internal/session"
)

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	store   *session.Store
	version string
	started time.Time
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(store *session.Store, version string) *HealthHandler {
	return &HealthHandler{store: store, version: version, started: time.Now()}
}

// Routes returns the router for health endpoints.
func (h *HealthHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Health)
	return r
}

// Health reports process status and live session count.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"status":   "ok",
		"version":  h.version,
		"uptime":   time.Since(h.started).String(),
		"sessions": h.store.Len(),
	})
}
