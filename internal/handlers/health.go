// Package handlers serves the operational probes of a running rockae process.
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"rockae/internal/observability"
)

// Pinger is anything the health check can reach out to.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a plain function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthResponse is the body of /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Handlers holds the dependencies probed by /health. A nil Cache means
// caching is disabled and is reported as such rather than as a failure.
type Handlers struct {
	DB      Pinger
	Cache   Pinger
	Timeout time.Duration
}

const (
	statusOK       = "ok"
	statusDegraded = "degraded"
	statusDown     = "down"
	statusDisabled = "disabled"
)

// Health reports database and cache reachability. The database is required;
// a failing cache only degrades the status.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	resp := HealthResponse{Status: statusOK, Checks: map[string]string{}}
	code := http.StatusOK

	if err := h.DB.Ping(ctx); err != nil {
		observability.Logger.ErrorContext(ctx, "health: database ping failed", slog.Any("error", err))
		resp.Checks["database"] = statusDown
		resp.Status = statusDown
		code = http.StatusServiceUnavailable
	} else {
		resp.Checks["database"] = statusOK
	}

	switch {
	case h.Cache == nil:
		resp.Checks["cache"] = statusDisabled
	case h.Cache.Ping(ctx) != nil:
		resp.Checks["cache"] = statusDown
		if resp.Status == statusOK {
			resp.Status = statusDegraded
		}
	default:
		resp.Checks["cache"] = statusOK
	}

	writeJSON(w, code, resp)
}

// Ping answers without touching any dependency.
func (h *Handlers) Ping(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "pong"})
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		observability.Logger.Warn("write error", slog.Any("error", err))
	}
}
