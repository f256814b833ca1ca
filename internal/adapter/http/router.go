package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/walletledger/internal/adapter/http/handler"
	"github.com/iho/walletledger/internal/adapter/http/middleware"
	"github.com/iho/walletledger/internal/infrastructure/metrics"
)

// RouterConfig holds dependencies for the ops router.
type RouterConfig struct {
	HealthHandler         *handler.HealthHandler
	ReconciliationHandler *handler.ReconciliationHandler
	Metrics               *metrics.Metrics
	Gatherer              prometheus.Gatherer
	Logger                zerolog.Logger
}

// NewRouter creates the operator-facing HTTP router. It serves probes,
// Prometheus metrics and reconciliation reports; balance operations are
// not exposed over HTTP.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}

	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)

	if cfg.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	if cfg.ReconciliationHandler != nil {
		r.Get("/reconciliation", cfg.ReconciliationHandler.Report)
		r.Get("/accounts/{id}/reconciliation", cfg.ReconciliationHandler.Account)
	}

	return r
}
