package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/walletledger/internal/usecase"
)

type pgxPool interface {
	Begin(context.Context) (pgx.Tx, error)
}

// TxManager implements usecase.TransactionManager.
// Every transaction it opens bounds row lock waits by lockTimeout.
type TxManager struct {
	pool        pgxPool
	lockTimeout time.Duration
}

// NewTxManager creates a new TxManager.
func NewTxManager(pool *pgxpool.Pool, lockTimeout time.Duration) *TxManager {
	return newTxManagerWithPool(pool, lockTimeout)
}

func newTxManagerWithPool(pool pgxPool, lockTimeout time.Duration) *TxManager {
	return &TxManager{pool: pool, lockTimeout: lockTimeout}
}

// Begin starts a new transaction.
func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}

	if m.lockTimeout > 0 {
		// SET does not accept bind parameters.
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = %d", m.lockTimeout.Milliseconds())
		if _, err := tx.Exec(ctx, stmt); err != nil {
			_ = tx.Rollback(ctx)
			return nil, fmt.Errorf("failed to set lock timeout: %w", err)
		}
	}

	return &Tx{tx: tx}, nil
}

// Tx wraps a pgx transaction.
type Tx struct {
	tx pgx.Tx
}

// Commit commits the transaction.
func (t *Tx) Commit(ctx context.Context) error {
	return mapError(t.tx.Commit(ctx))
}

// Rollback rolls back the transaction. Rolling back a finished
// transaction is not an error.
func (t *Tx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}

// PgxTx returns the underlying pgx.Tx.
func (t *Tx) PgxTx() pgx.Tx {
	return t.tx
}

// ErrForeignTransaction is returned when a repository receives a
// transaction it did not open.
var ErrForeignTransaction = errors.New("transaction was not opened by postgres.TxManager")

func pgxTxFrom(tx usecase.Transaction) (pgx.Tx, error) {
	t, ok := tx.(*Tx)
	if !ok {
		return nil, ErrForeignTransaction
	}
	return t.PgxTx(), nil
}
