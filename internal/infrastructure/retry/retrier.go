package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/iho/walletledger/internal/domain"
)

// PostgreSQL error codes for retryable errors.
const (
	pgErrDeadlock             = "40P01"
	pgErrSerializationFailure = "40001"
)

// Config bounds the retry budget.
type Config struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration
}

// DefaultConfig returns the default retry budget.
func DefaultConfig() Config {
	return Config{
		MaxRetries:      3,
		InitialInterval: 20 * time.Millisecond,
		MaxInterval:     500 * time.Millisecond,
		MaxElapsedTime:  5 * time.Second,
	}
}

// Retrier implements usecase.Retrier with exponential backoff.
type Retrier struct {
	maxRetries      int
	initialInterval time.Duration
	maxInterval     time.Duration
	maxElapsedTime  time.Duration
	logger          zerolog.Logger
}

// NewRetrier creates a new Retrier.
func NewRetrier(cfg Config, logger zerolog.Logger) *Retrier {
	return &Retrier{
		maxRetries:      cfg.MaxRetries,
		initialInterval: cfg.InitialInterval,
		maxInterval:     cfg.MaxInterval,
		maxElapsedTime:  cfg.MaxElapsedTime,
		logger:          logger,
	}
}

// Retry executes an operation with exponential backoff on retryable errors.
// Once the budget is spent the last error is returned unchanged.
func (r *Retrier) Retry(ctx context.Context, operation func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.initialInterval
	b.MaxInterval = r.maxInterval
	b.MaxElapsedTime = r.maxElapsedTime

	retryCount := 0

	return backoff.Retry(func() error {
		err := operation()
		if err == nil {
			return nil
		}

		if !IsRetryable(err) {
			return backoff.Permanent(err)
		}

		retryCount++
		if retryCount > r.maxRetries {
			return backoff.Permanent(err)
		}

		r.logger.Warn().
			Err(err).
			Int("retry", retryCount).
			Msg("concurrent modification, retrying")

		return err
	}, backoff.WithContext(b, ctx))
}

// IsRetryable reports whether err is a conflict worth another attempt.
func IsRetryable(err error) bool {
	if errors.Is(err, domain.ErrConflict) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgErrDeadlock, pgErrSerializationFailure:
			return true
		}
	}
	return false
}
