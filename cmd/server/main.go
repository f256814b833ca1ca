package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	httpAdapter "github.com/iho/walletledger/internal/adapter/http"
	"github.com/iho/walletledger/internal/adapter/http/handler"
	"github.com/iho/walletledger/internal/app"
	"github.com/iho/walletledger/internal/infrastructure/config"
	"github.com/iho/walletledger/internal/infrastructure/logger"
	"github.com/iho/walletledger/internal/infrastructure/metrics"
	"github.com/iho/walletledger/internal/infrastructure/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}

	log.Info().Msg("server stopped")
}

// run boots the ledger and serves the ops endpoints until ctx is done.
func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	if cfg.StorageBackend == config.BackendPostgres {
		if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, log); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	ledger, err := app.New(ctx, cfg, log, m)
	if err != nil {
		return err
	}
	defer ledger.Close()

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		HealthHandler:         handler.NewHealthHandler(ledger.Checks),
		ReconciliationHandler: handler.NewReconciliationHandler(ledger.Reconciliation),
		Metrics:               m,
		Gatherer:              reg,
		Logger:                log,
	})

	server := newOpsServer(cfg, router)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().
			Str("port", cfg.OpsHTTPPort).
			Str("backend", cfg.StorageBackend).
			Msg("starting ops server")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		log.Info().Msg("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
		defer cancel()

		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newOpsServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.OpsHTTPPort),
		Handler:      h,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}
}
