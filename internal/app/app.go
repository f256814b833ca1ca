// Package app assembles the ledger's use cases on top of the configured
// storage backend. Both the ops server and the operator CLI build on it.
package app

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iho/walletledger/internal/adapter/http/handler"
	"github.com/iho/walletledger/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/walletledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/walletledger/internal/adapter/repository/redis"
	"github.com/iho/walletledger/internal/infrastructure/config"
	"github.com/iho/walletledger/internal/infrastructure/postgres"
	"github.com/iho/walletledger/internal/infrastructure/redis"
	"github.com/iho/walletledger/internal/infrastructure/retry"
	"github.com/iho/walletledger/internal/usecase"
)

// App holds the wired use cases and the resources behind them.
type App struct {
	Accounts       *usecase.AccountUseCase
	Balance        *usecase.BalanceUseCase
	History        *usecase.HistoryUseCase
	Reconciliation *usecase.ReconciliationUseCase

	// Checks are the dependencies readiness probes should ping.
	Checks map[string]handler.Pinger

	closers []func()
}

// storage is what a backend contributes to the App.
type storage struct {
	txManager usecase.TransactionManager
	accounts  usecase.AccountStore
	ledger    usecase.LedgerStore
	directory usecase.AccountDirectory
}

// New connects to the configured backend and wires the use cases.
// observer may be nil.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger, observer usecase.Observer) (*App, error) {
	a := &App{Checks: make(map[string]handler.Pinger)}

	var (
		store *storage
		err   error
	)

	switch cfg.StorageBackend {
	case config.BackendPostgres:
		store, err = a.openPostgres(ctx, cfg, logger)
	case config.BackendMemory:
		store = openMemory(cfg)
		logger.Warn().Msg("using in-memory storage, balances are lost on exit")
	default:
		err = fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
	if err != nil {
		a.Close()
		return nil, err
	}

	opts := []usecase.BalanceOption{}
	if observer != nil {
		opts = append(opts, usecase.WithObserver(observer))
	}

	directory := store.directory

	if cfg.RedisURL != "" {
		client, err := redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.closers = append(a.closers, func() { client.Close() })
		a.Checks["redis"] = redisPinger(client)

		directory = redisRepo.NewCachedDirectory(directory, redisRepo.NewCache(client), cfg.DirectoryCacheTTL, logger)
		opts = append(opts, usecase.WithIdempotency(redisRepo.NewIdempotencyStore(client), cfg.IdempotencyTTL))

		logger.Info().Msg("connected to redis")
	}

	opts = append(opts, usecase.WithDirectory(directory))

	retrier := retry.NewRetrier(retry.Config{
		MaxRetries:      cfg.RetryMaxAttempts,
		InitialInterval: cfg.RetryInitialInterval,
		MaxInterval:     cfg.RetryMaxInterval,
		MaxElapsedTime:  usecase.DefaultTransactionTimeout,
	}, logger)

	a.Accounts = usecase.NewAccountUseCase(store.accounts, postgresRepo.NewULIDGenerator())
	a.Balance = usecase.NewBalanceUseCase(store.txManager, store.accounts, store.ledger, retrier, logger, opts...)
	a.History = usecase.NewHistoryUseCase(store.accounts, store.ledger, directory, cfg.HistoryMaxPageSize)
	a.Reconciliation = usecase.NewReconciliationUseCase(store.accounts, store.ledger)

	return a, nil
}

func (a *App) openPostgres(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*storage, error) {
	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		ConnectTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	a.closers = append(a.closers, pool.Close)
	a.Checks["postgres"] = pool

	logger.Info().Msg("connected to postgres")

	return &storage{
		txManager: postgresRepo.NewTxManager(pool, cfg.LockTimeout),
		accounts:  postgresRepo.NewAccountRepository(pool),
		ledger:    postgresRepo.NewLedgerRepository(pool),
		directory: postgresRepo.NewDirectoryRepository(pool),
	}, nil
}

func openMemory(cfg *config.Config) *storage {
	store := memory.NewStore(cfg.LockTimeout)
	accounts := memory.NewAccountRepository(store)

	return &storage{
		txManager: memory.NewTxManager(store),
		accounts:  accounts,
		ledger:    memory.NewLedgerRepository(store),
		directory: usecase.NewStoreDirectory(accounts),
	}
}

func redisPinger(client goredis.UniversalClient) handler.PingFunc {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}

// Close releases connections in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
