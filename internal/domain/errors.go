package domain

import "errors"

var (
	// Amount errors
	ErrInvalidAmount = errors.New("amount must be positive with at most two fractional digits")

	// Account errors
	ErrAccountNotFound     = errors.New("account not found")
	ErrRecipientNotFound   = errors.New("recipient not found")
	ErrAccountExists       = errors.New("account already exists")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrBalanceLimit        = errors.New("balance would exceed the maximum storable amount")

	// Transfer errors
	ErrSelfTransferNotAllowed = errors.New("cannot transfer to yourself")

	// Concurrency and storage errors
	ErrLockTimeout      = errors.New("timed out waiting for account lock")
	ErrConflict         = errors.New("account was modified concurrently")
	ErrStorage          = errors.New("storage failure")
	ErrDuplicateRequest = errors.New("request with this idempotency key is already in progress")

	// Ledger errors
	ErrLedgerInconsistent = errors.New("ledger is inconsistent")
)

// IsDomainError reports whether err carries one of the sentinels above
// that callers are expected to handle, as opposed to an infrastructure fault.
func IsDomainError(err error) bool {
	for _, target := range []error{
		ErrInvalidAmount,
		ErrAccountNotFound,
		ErrRecipientNotFound,
		ErrAccountExists,
		ErrInsufficientBalance,
		ErrBalanceLimit,
		ErrSelfTransferNotAllowed,
		ErrLockTimeout,
		ErrStorage,
		ErrDuplicateRequest,
		ErrInvalidEmail,
		ErrInvalidPagination,
		ErrInvalidIDFormat,
	} {
		if errors.Is(err, target) {
			return true
		}
	}

	return false
}
