package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/iho/walletledger/internal/domain"
)

// PostgreSQL error codes mapped onto domain errors.
const (
	pgErrUniqueViolation      = "23505"
	pgErrForeignKeyViolation  = "23503"
	pgErrCheckViolation       = "23514"
	pgErrNumericOutOfRange    = "22003"
	pgErrSerializationFailure = "40001"
	pgErrDeadlock             = "40P01"
	pgErrLockNotAvailable     = "55P03"
)

const (
	balanceCheckConstraint = "accounts_balance_check"
	amountCheckConstraint  = "ledger_entries_amount_check"
)

// mapError translates driver errors into domain errors. Anything it does not
// recognise is returned unchanged.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgErrSerializationFailure, pgErrDeadlock:
		return fmt.Errorf("%w: %s", domain.ErrConflict, pgErr.Message)
	case pgErrLockNotAvailable:
		return domain.ErrLockTimeout
	case pgErrUniqueViolation:
		return domain.ErrAccountExists
	case pgErrForeignKeyViolation:
		return domain.ErrAccountNotFound
	case pgErrNumericOutOfRange:
		return domain.ErrBalanceLimit
	case pgErrCheckViolation:
		switch pgErr.ConstraintName {
		case balanceCheckConstraint:
			return domain.ErrInsufficientBalance
		case amountCheckConstraint:
			return domain.ErrInvalidAmount
		}
	}

	return err
}
