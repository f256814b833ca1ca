package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/iho/walletledger/internal/adapter/http/dto"
)

// Pinger is a dependency that can report whether it is reachable.
// *pgxpool.Pool satisfies it directly.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

// Ping calls f.
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthHandler handles health check requests.
type HealthHandler struct {
	checks  map[string]Pinger
	timeout time.Duration
}

// NewHealthHandler creates a new HealthHandler. Readiness pings every
// entry of checks; an empty map is always ready.
func NewHealthHandler(checks map[string]Pinger) *HealthHandler {
	return &HealthHandler{
		checks:  checks,
		timeout: 5 * time.Second,
	}
}

// Liveness returns 200 if the service is alive.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readiness returns 200 if every dependency answers its ping.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	resp := dto.ReadinessResponse{Status: "ready", Checks: make(map[string]string, len(names))}
	status := http.StatusOK

	for _, name := range names {
		if err := h.checks[name].Ping(ctx); err != nil {
			resp.Checks[name] = err.Error()
			resp.Status = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}

	writeJSON(w, status, resp)
}
