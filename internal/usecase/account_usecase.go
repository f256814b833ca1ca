package usecase

import (
	"context"
	"time"

	"github.com/iho/walletledger/internal/domain"
)

// AccountUseCase handles account registration and lookup.
// Balances are never written here; see BalanceUseCase.
type AccountUseCase struct {
	accounts AccountStore
	idGen    IDGenerator
	now      func() time.Time
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(accounts AccountStore, idGen IDGenerator) *AccountUseCase {
	return &AccountUseCase{
		accounts: accounts,
		idGen:    idGen,
		now:      time.Now,
	}
}

// OpenAccountInput represents input for opening an account.
type OpenAccountInput struct {
	Email string
}

// OpenAccount creates a zero-balance account for email.
func (uc *AccountUseCase) OpenAccount(ctx context.Context, input OpenAccountInput) (*domain.Account, error) {
	if err := domain.ValidateEmail(input.Email); err != nil {
		return nil, err
	}

	now := uc.now().UTC()

	account := &domain.Account{
		ID:        uc.idGen.Generate(),
		Email:     domain.NormalizeEmail(input.Email),
		Balance:   domain.ZeroMoney,
		Version:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := uc.accounts.Create(ctx, account); err != nil {
		return nil, storageError(err)
	}

	return account, nil
}

// GetAccount retrieves an account by ID.
func (uc *AccountUseCase) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	account, err := uc.accounts.Get(ctx, id)
	if err != nil {
		return nil, storageError(err)
	}
	return account, nil
}

// GetBalance returns the committed balance of an account.
func (uc *AccountUseCase) GetBalance(ctx context.Context, id string) (domain.Money, error) {
	account, err := uc.GetAccount(ctx, id)
	if err != nil {
		return domain.ZeroMoney, err
	}
	return account.Balance, nil
}

// GetAccountByEmail retrieves an account by email.
func (uc *AccountUseCase) GetAccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	account, err := uc.accounts.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return nil, storageError(err)
	}
	return account, nil
}

// ListAccountsInput represents input for listing accounts.
type ListAccountsInput struct {
	Limit  int
	Offset int
}

// ListAccounts lists accounts with pagination.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, input ListAccountsInput) ([]*domain.Account, error) {
	if input.Limit <= 0 {
		input.Limit = 20
	}
	if input.Limit > 100 {
		input.Limit = 100
	}
	if input.Offset < 0 {
		input.Offset = 0
	}

	accounts, err := uc.accounts.List(ctx, input.Limit, input.Offset)
	if err != nil {
		return nil, storageError(err)
	}
	return accounts, nil
}
