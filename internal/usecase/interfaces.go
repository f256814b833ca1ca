package usecase

import (
	"context"
	"time"

	"github.com/iho/walletledger/internal/domain"
)

// AccountStore defines data access for accounts.
//
// GetForUpdate grants tx exclusive access to the account until tx ends.
// Save persists the balance and bumps the version; it returns
// domain.ErrConflict when the stored version no longer matches account.Version.
type AccountStore interface {
	Create(ctx context.Context, account *domain.Account) error
	Get(ctx context.Context, id string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	GetForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Account, error)
	Save(ctx context.Context, tx Transaction, account *domain.Account) error
	List(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}

// LedgerStore defines data access for ledger entries.
// Append and AppendBatch assign entry IDs.
type LedgerStore interface {
	Append(ctx context.Context, tx Transaction, entry *domain.LedgerEntry) error
	AppendBatch(ctx context.Context, tx Transaction, entries []*domain.LedgerEntry) error
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.LedgerEntry, error)
	CountByAccount(ctx context.Context, accountID string) (int64, error)
	AccountTotals(ctx context.Context, accountID string) (domain.LedgerTotals, error)
	Totals(ctx context.Context) (domain.LedgerTotals, error)
}

// AccountDirectory maps between account IDs and their email addresses.
type AccountDirectory interface {
	ResolveEmail(ctx context.Context, email string) (string, error)
	EmailsByID(ctx context.Context, ids []string) (map[string]string, error)
}

// Transaction represents a unit of work against the stores.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier re-runs operation while it fails with domain.ErrConflict.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a reservation so the key can be retried.
	Release(ctx context.Context, key string) error
}

// Observer receives balance engine telemetry.
type Observer interface {
	ObserveOperation(operation, outcome string, duration time.Duration, amount domain.Money)
	ObserveRetry(operation string)
	ObserveReplay(operation string)
}
