package memory

import (
	"context"
	"errors"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

// ErrTxClosed is returned when a finished transaction is used again.
var ErrTxClosed = errors.New("transaction already committed or rolled back")

// TxManager implements usecase.TransactionManager.
type TxManager struct {
	store *Store
}

// NewTxManager creates a new TxManager.
func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

// Begin starts a new transaction.
func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &Tx{
		store:    m.store,
		base:     make(map[string]int64),
		accounts: make(map[string]domain.Account),
	}, nil
}

// Tx holds the account locks and staged writes of one unit of work.
// A Tx must not be shared between goroutines.
type Tx struct {
	store    *Store
	held     []string
	base     map[string]int64
	accounts map[string]domain.Account
	entries  []domain.LedgerEntry
	done     bool
}

// Commit applies the staged writes and releases held locks in reverse order.
func (t *Tx) Commit(ctx context.Context) error {
	if t.done {
		return ErrTxClosed
	}
	t.done = true
	defer t.releaseAll()

	return t.store.apply(t.base, t.accounts, t.entries)
}

// Rollback discards staged writes. It is a no-op on a finished transaction.
func (t *Tx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.releaseAll()

	return nil
}

func (t *Tx) holds(id string) bool {
	for _, h := range t.held {
		if h == id {
			return true
		}
	}
	return false
}

func (t *Tx) lock(ctx context.Context, id string) error {
	if t.holds(id) {
		return nil
	}

	if err := t.store.acquire(ctx, id); err != nil {
		return err
	}

	t.held = append(t.held, id)

	return nil
}

func (t *Tx) releaseAll() {
	for i := len(t.held) - 1; i >= 0; i-- {
		t.store.release(t.held[i])
	}
	t.held = nil
}

func txFrom(tx usecase.Transaction) (*Tx, error) {
	t := tx.(*Tx)
	if t.done {
		return nil, ErrTxClosed
	}
	return t, nil
}
