package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// Pinger reports dependency reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	store    Pinger
	analysis Pinger
	timeout  time.Duration
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(store Pinger, timeout time.Duration) *HealthHandler {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HealthHandler{store: store, timeout: timeout}
}

// WithAnalysis adds the remote analysis service to the report. An unreachable
// analysis service degrades the report without failing it, since sessions
// still complete with fallback scoring.
func (h *HealthHandler) WithAnalysis(p Pinger) *HealthHandler {
	h.analysis = p
	return h
}

// Health returns the health status of the API and its dependencies.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	checks := map[string]string{"api": "ok"}
	status := map[string]interface{}{
		"status": "healthy",
		"checks": checks,
	}
	statusCode := http.StatusOK

	if err := h.store.Ping(ctx); err != nil {
		slog.Error("Health check failed", "error", err)
		status["status"] = "degraded"
		checks["database"] = "unreachable"
		statusCode = http.StatusServiceUnavailable
	} else {
		checks["database"] = "ok"
	}

	if h.analysis != nil {
		if err := h.analysis.Ping(ctx); err != nil {
			slog.Warn("Analysis service health check failed", "error", err)
			checks["analysis"] = "fallback"
			if statusCode == http.StatusOK {
				status["status"] = "degraded"
			}
		} else {
			checks["analysis"] = "ok"
		}
	}

	JSON(w, statusCode, status)
}

// RegisterHealth registers the health check route.
func (h *HealthHandler) RegisterHealth(r chi.Router) {
	r.Get("/health", h.Health)
}
