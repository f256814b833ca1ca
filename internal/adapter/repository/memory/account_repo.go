package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

var errNotLocked = errors.New("account saved without being locked by the transaction")

// AccountRepository implements usecase.AccountStore.
type AccountRepository struct {
	store *Store
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(store *Store) *AccountRepository {
	return &AccountRepository{store: store}
}

// Create creates a new account.
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.accounts[account.ID]; ok {
		return fmt.Errorf("%w: id %s", domain.ErrAccountExists, account.ID)
	}

	if _, ok := r.store.byEmail[account.Email]; ok {
		return fmt.Errorf("%w: email %s", domain.ErrAccountExists, account.Email)
	}

	r.store.accounts[account.ID] = *account
	r.store.byEmail[account.Email] = account.ID

	return nil
}

// Get retrieves an account by ID without locking it.
func (r *AccountRepository) Get(ctx context.Context, id string) (*domain.Account, error) {
	a, ok := r.store.account(id)
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return &a, nil
}

// GetByEmail retrieves an account by email.
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	r.store.mu.RLock()
	id, ok := r.store.byEmail[email]
	r.store.mu.RUnlock()

	if !ok {
		return nil, domain.ErrAccountNotFound
	}

	return r.Get(ctx, id)
}

// GetForUpdate locks the account for tx and returns its current state,
// including writes already staged on tx.
func (r *AccountRepository) GetForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error) {
	t, err := txFrom(tx)
	if err != nil {
		return nil, err
	}

	if _, ok := r.store.account(id); !ok {
		return nil, domain.ErrAccountNotFound
	}

	if err := t.lock(ctx, id); err != nil {
		return nil, err
	}

	if staged, ok := t.accounts[id]; ok {
		return &staged, nil
	}

	a, _ := r.store.account(id)
	if _, ok := t.base[id]; !ok {
		t.base[id] = a.Version
	}

	return &a, nil
}

// Save stages the new balance on tx and bumps the version.
func (r *AccountRepository) Save(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	t, err := txFrom(tx)
	if err != nil {
		return err
	}

	if !t.holds(account.ID) {
		return fmt.Errorf("%w: %s", errNotLocked, account.ID)
	}

	current, ok := t.accounts[account.ID]
	if !ok {
		current, _ = r.store.account(account.ID)
	}

	if current.Version != account.Version {
		return fmt.Errorf("%w: account %s has version %d, expected %d",
			domain.ErrConflict, account.ID, current.Version, account.Version)
	}

	if !account.Balance.IsNonNegative() {
		return domain.ErrInsufficientBalance
	}

	account.Version++
	t.accounts[account.ID] = *account

	return nil
}

// List lists accounts ordered by ID.
func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	r.store.mu.RLock()
	ids := make([]string, 0, len(r.store.accounts))
	for id := range r.store.accounts {
		ids = append(ids, id)
	}
	r.store.mu.RUnlock()

	sort.Strings(ids)

	if offset >= len(ids) {
		return []*domain.Account{}, nil
	}

	ids = ids[offset:min(offset+limit, len(ids))]

	accounts := make([]*domain.Account, 0, len(ids))
	for _, id := range ids {
		if a, ok := r.store.account(id); ok {
			accounts = append(accounts, &a)
		}
	}

	return accounts, nil
}
