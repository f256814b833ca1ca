package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/walletledger/internal/domain"
)

// BalanceUseCase is the only writer of account balances. Every operation
// runs as one transaction that locks the touched accounts, updates their
// balances and appends the matching ledger entries.
type BalanceUseCase struct {
	txManager      TransactionManager
	accounts       AccountStore
	ledger         LedgerStore
	retrier        Retrier
	directory      AccountDirectory
	idempotency    IdempotencyStore
	idempotencyTTL time.Duration
	observer       Observer
	logger         zerolog.Logger
	now            func() time.Time
}

// BalanceOption configures optional BalanceUseCase collaborators.
type BalanceOption func(*BalanceUseCase)

// WithDirectory overrides the directory used by TransferToEmail.
func WithDirectory(directory AccountDirectory) BalanceOption {
	return func(uc *BalanceUseCase) { uc.directory = directory }
}

// WithIdempotency enables deduplication of operations that carry an idempotency key.
func WithIdempotency(store IdempotencyStore, ttl time.Duration) BalanceOption {
	return func(uc *BalanceUseCase) {
		uc.idempotency = store
		uc.idempotencyTTL = ttl
	}
}

// WithObserver reports outcomes and retries to observer.
func WithObserver(observer Observer) BalanceOption {
	return func(uc *BalanceUseCase) { uc.observer = observer }
}

// WithClock overrides the source of entry timestamps.
func WithClock(now func() time.Time) BalanceOption {
	return func(uc *BalanceUseCase) { uc.now = now }
}

// NewBalanceUseCase creates a new BalanceUseCase.
func NewBalanceUseCase(
	txManager TransactionManager,
	accounts AccountStore,
	ledger LedgerStore,
	retrier Retrier,
	logger zerolog.Logger,
	opts ...BalanceOption,
) *BalanceUseCase {
	uc := &BalanceUseCase{
		txManager:      txManager,
		accounts:       accounts,
		ledger:         ledger,
		retrier:        retrier,
		directory:      NewStoreDirectory(accounts),
		idempotencyTTL: IdempotencyKeyTTL,
		observer:       noopObserver{},
		logger:         logger,
		now:            time.Now,
	}

	for _, opt := range opts {
		opt(uc)
	}

	if uc.retrier == nil {
		uc.retrier = singleAttempt{}
	}

	return uc
}

// DepositInput represents input for a deposit.
type DepositInput struct {
	AccountID      string
	Amount         domain.Money
	IdempotencyKey string
}

// TransferInput represents input for a transfer between two accounts.
type TransferInput struct {
	FromAccountID  string
	ToAccountID    string
	Amount         domain.Money
	IdempotencyKey string
}

// TransferToEmailInput represents a transfer whose recipient is identified by email.
type TransferToEmailInput struct {
	FromAccountID  string
	RecipientEmail string
	Amount         domain.Money
	IdempotencyKey string
}

// OperationResult is returned by every committed balance operation.
// NewBalance belongs to the deposited-to account or to the sender;
// EntryID is the DEPOSIT or SEND entry.
type OperationResult struct {
	NewBalance domain.Money `json:"new_balance"`
	EntryID    int64        `json:"entry_id"`
	Replayed   bool         `json:"-"`
}

// Deposit credits amount to an account.
func (uc *BalanceUseCase) Deposit(ctx context.Context, input DepositInput) (*OperationResult, error) {
	if err := domain.ValidateAmount(input.Amount); err != nil {
		uc.observer.ObserveOperation(OperationDeposit, OutcomeRejected, 0, input.Amount)
		return nil, err
	}

	key := idempotencyKey(OperationDeposit, input.AccountID, input.IdempotencyKey)

	return uc.execute(ctx, OperationDeposit, input.Amount, key, func() (*OperationResult, error) {
		return uc.deposit(ctx, input)
	})
}

func (uc *BalanceUseCase) deposit(ctx context.Context, input DepositInput) (*OperationResult, error) {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	account, err := uc.accounts.GetForUpdate(ctx, tx, input.AccountID)
	if err != nil {
		return nil, err
	}

	if err := account.ValidateCredit(input.Amount); err != nil {
		uc.logger.Warn().
			Str("account_id", account.ID).
			Stringer("amount", input.Amount).
			Stringer("balance", account.Balance).
			Msg("deposit rejected: balance limit")
		return nil, err
	}

	now := uc.now().UTC()
	account.Balance = account.ApplyCredit(input.Amount)
	account.UpdatedAt = now

	if err := uc.accounts.Save(ctx, tx, account); err != nil {
		return nil, err
	}

	entry := domain.NewDepositEntry(account.ID, input.Amount, now)
	if err := uc.ledger.Append(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	uc.logger.Info().
		Str("account_id", account.ID).
		Stringer("amount", input.Amount).
		Stringer("new_balance", account.Balance).
		Int64("entry_id", entry.ID).
		Msg("deposit committed")

	return &OperationResult{NewBalance: account.Balance, EntryID: entry.ID}, nil
}

// Transfer moves amount from one account to another.
func (uc *BalanceUseCase) Transfer(ctx context.Context, input TransferInput) (*OperationResult, error) {
	if err := domain.ValidateAmount(input.Amount); err != nil {
		uc.observer.ObserveOperation(OperationTransfer, OutcomeRejected, 0, input.Amount)
		return nil, err
	}

	if input.FromAccountID == input.ToAccountID {
		uc.observer.ObserveOperation(OperationTransfer, OutcomeRejected, 0, input.Amount)
		return nil, domain.ErrSelfTransferNotAllowed
	}

	key := idempotencyKey(OperationTransfer, input.FromAccountID, input.IdempotencyKey)

	return uc.execute(ctx, OperationTransfer, input.Amount, key, func() (*OperationResult, error) {
		return uc.transfer(ctx, input)
	})
}

// TransferToEmail resolves the recipient by email and transfers to it.
func (uc *BalanceUseCase) TransferToEmail(ctx context.Context, input TransferToEmailInput) (*OperationResult, error) {
	if err := domain.ValidateAmount(input.Amount); err != nil {
		uc.observer.ObserveOperation(OperationTransfer, OutcomeRejected, 0, input.Amount)
		return nil, err
	}

	toAccountID, err := uc.directory.ResolveEmail(ctx, domain.NormalizeEmail(input.RecipientEmail))
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.ErrRecipientNotFound
		}
		return nil, storageError(err)
	}

	return uc.Transfer(ctx, TransferInput{
		FromAccountID:  input.FromAccountID,
		ToAccountID:    toAccountID,
		Amount:         input.Amount,
		IdempotencyKey: input.IdempotencyKey,
	})
}

func (uc *BalanceUseCase) transfer(ctx context.Context, input TransferInput) (*OperationResult, error) {
	// Lock in ascending ID order so opposite transfers cannot deadlock.
	accountIDs := []string{input.FromAccountID, input.ToAccountID}
	sort.Strings(accountIDs)

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	locked := make(map[string]*domain.Account, len(accountIDs))
	for _, id := range accountIDs {
		account, err := uc.accounts.GetForUpdate(ctx, tx, id)
		if err != nil {
			if errors.Is(err, domain.ErrAccountNotFound) && id == input.ToAccountID {
				return nil, domain.ErrRecipientNotFound
			}
			return nil, err
		}
		locked[id] = account
	}

	from := locked[input.FromAccountID]
	to := locked[input.ToAccountID]

	if err := from.ValidateDebit(input.Amount); err != nil {
		uc.logger.Warn().
			Str("from_account_id", from.ID).
			Str("to_account_id", to.ID).
			Stringer("amount", input.Amount).
			Stringer("balance", from.Balance).
			Msg("transfer rejected: insufficient balance")
		return nil, err
	}

	if err := to.ValidateCredit(input.Amount); err != nil {
		uc.logger.Warn().
			Str("from_account_id", from.ID).
			Str("to_account_id", to.ID).
			Stringer("amount", input.Amount).
			Stringer("recipient_balance", to.Balance).
			Msg("transfer rejected: recipient balance limit")
		return nil, err
	}

	now := uc.now().UTC()
	from.Balance = from.ApplyDebit(input.Amount)
	from.UpdatedAt = now
	to.Balance = to.ApplyCredit(input.Amount)
	to.UpdatedAt = now

	for _, id := range accountIDs {
		if err := uc.accounts.Save(ctx, tx, locked[id]); err != nil {
			return nil, err
		}
	}

	send, receive := domain.NewTransferEntries(from.ID, to.ID, input.Amount, now)
	if err := uc.ledger.AppendBatch(ctx, tx, []*domain.LedgerEntry{send, receive}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	uc.logger.Info().
		Str("from_account_id", from.ID).
		Str("to_account_id", to.ID).
		Stringer("amount", input.Amount).
		Stringer("sender_balance", from.Balance).
		Int64("send_entry_id", send.ID).
		Int64("receive_entry_id", receive.ID).
		Msg("transfer committed")

	return &OperationResult{NewBalance: from.Balance, EntryID: send.ID}, nil
}

// execute runs attempt under the retrier and the idempotency guard and reports the outcome.
func (uc *BalanceUseCase) execute(
	ctx context.Context,
	operation string,
	amount domain.Money,
	key string,
	attempt func() (*OperationResult, error),
) (*OperationResult, error) {
	start := time.Now()

	result, err := uc.withIdempotency(ctx, operation, key, func() (*OperationResult, error) {
		var (
			result   *OperationResult
			attempts int
		)

		err := uc.retrier.Retry(ctx, func() error {
			attempts++
			if attempts > 1 {
				uc.observer.ObserveRetry(operation)
			}

			var err error
			result, err = attempt()
			return err
		})
		if err != nil {
			return nil, storageError(err)
		}

		return result, nil
	})

	outcome := OutcomeSuccess
	switch {
	case err != nil && errors.Is(err, domain.ErrStorage):
		outcome = OutcomeStorageError
		uc.logger.Error().Err(err).Str("operation", operation).Msg("balance operation failed")
	case err != nil:
		outcome = OutcomeRejected
	case result.Replayed:
		outcome = OutcomeReplayed
	}
	uc.observer.ObserveOperation(operation, outcome, time.Since(start), amount)

	return result, err
}

func (uc *BalanceUseCase) withIdempotency(
	ctx context.Context,
	operation, key string,
	run func() (*OperationResult, error),
) (*OperationResult, error) {
	if uc.idempotency == nil || key == "" {
		return run()
	}

	exists, cached, err := uc.idempotency.CheckAndSet(ctx, key, nil, uc.idempotencyTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: idempotency check: %w", domain.ErrStorage, err)
	}

	if exists {
		var result OperationResult
		// Anything that is not a stored result is an in-flight reservation.
		if len(cached) == 0 || json.Unmarshal(cached, &result) != nil {
			return nil, domain.ErrDuplicateRequest
		}

		result.Replayed = true
		uc.observer.ObserveReplay(operation)

		return &result, nil
	}

	result, err := run()
	if err != nil {
		if relErr := uc.idempotency.Release(ctx, key); relErr != nil {
			uc.logger.Warn().Err(relErr).Str("key", key).Msg("failed to release idempotency key")
		}
		return nil, err
	}

	data, err := json.Marshal(result)
	if err == nil {
		err = uc.idempotency.Update(ctx, key, data, uc.idempotencyTTL)
	}
	if err != nil {
		uc.logger.Warn().Err(err).Str("key", key).Msg("failed to store idempotent result, retries get duplicate-request until the key expires")
	}

	return result, nil
}

func idempotencyKey(operation, accountID, key string) string {
	if key == "" {
		return ""
	}
	return operation + ":" + accountID + ":" + key
}

// storageError passes domain errors through and wraps everything else in domain.ErrStorage.
func storageError(err error) error {
	switch {
	case errors.Is(err, domain.ErrConflict):
		return fmt.Errorf("%w: retries exhausted: %v", domain.ErrStorage, err)
	case domain.IsDomainError(err):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("%w: %w", domain.ErrStorage, err)
	}
}

type singleAttempt struct{}

func (singleAttempt) Retry(_ context.Context, operation func() error) error {
	return operation()
}

type noopObserver struct{}

func (noopObserver) ObserveOperation(string, string, time.Duration, domain.Money) {}
func (noopObserver) ObserveRetry(string)                                        {}
func (noopObserver) ObserveReplay(string)                                       {}
