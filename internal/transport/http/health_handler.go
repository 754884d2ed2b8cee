package http

import (
	"net/http"
	"time"

	"github.com/go-chi/render"

	"sabercli/internal/config"
)

// HealthHandler reports process liveness and snapshot freshness.
type HealthHandler struct {
	provider SnapshotProvider
	started  time.Time
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(provider SnapshotProvider) *HealthHandler {
	return &HealthHandler{provider: provider, started: time.Now()}
}

// Get handles GET /api/health.
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"status":  "ok",
		"app":     config.AppName,
		"version": config.AppVersion,
		"uptime":  time.Since(h.started).String(),
	}
	if snapshot := h.provider.Current(); snapshot != nil {
		body["snapshot_generated_at"] = snapshot.GeneratedAt
		body["record_count"] = snapshot.RecordCount
	} else {
		body["snapshot_generated_at"] = nil
	}
	render.JSON(w, r, body)
}
