package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/outbreak-atlas/atlas-server/internal/models"
)

// Version is reported by the health endpoints.
const Version = "1.0.0"

var startTime = time.Now()

// HealthHandler provides health check endpoints
type HealthHandler struct {
	db     Pinger
	cache  Pinger
	logger *zap.SugaredLogger
}

// NewHealthHandler creates a new health handler. cache may be nil when no
// cache is configured.
func NewHealthHandler(db Pinger, cache Pinger, logger *zap.SugaredLogger) *HealthHandler {
	return &HealthHandler{db: db, cache: cache, logger: logger}
}

// Check handles GET /health (liveness)
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, models.HealthStatus{
		Status:  "ok",
		Version: Version,
		Uptime:  time.Since(startTime).String(),
	})
}

// Ready handles GET /health/ready (readiness). An unreachable cache
// is reported but does not fail readiness.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	status := models.HealthStatus{
		Status:   "ready",
		Version:  Version,
		Uptime:   time.Since(startTime).String(),
		Database: "connected",
	}

	if h.cache != nil {
		status.Cache = "connected"
		if err := h.cache.Ping(r.Context()); err != nil {
			h.logger.Warnw("Cache ping failed", "error", err)
			status.Cache = "disconnected"
		}
	}

	if err := h.db.Ping(r.Context()); err != nil {
		h.logger.Errorw("Database ping failed", "error", err)
		status.Status = "not ready"
		status.Database = "disconnected"
		status.Uptime = ""
		respondJSON(w, http.StatusServiceUnavailable, status)
		return
	}

	respondJSON(w, http.StatusOK, status)
}
