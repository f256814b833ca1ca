package usecase

import "time"

const (
	// DefaultTransactionTimeout bounds a single attempt of a balance operation,
	// lock waits included.
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// DefaultHistoryPageSize and MaxHistoryPageSize bound GetHistory.
	DefaultHistoryPageSize = 20
	MaxHistoryPageSize     = 100
)

// Operation names used in logs and metrics.
const (
	OperationDeposit  = "deposit"
	OperationTransfer = "transfer"
)

// Outcome labels reported to the Observer.
const (
	OutcomeSuccess      = "success"
	OutcomeRejected     = "rejected"
	OutcomeStorageError = "storage_error"
	OutcomeReplayed     = "replayed"
)
