package usecase

import (
	"context"
	"errors"

	"github.com/iho/walletledger/internal/domain"
)

// StoreDirectory implements AccountDirectory on top of an AccountStore.
type StoreDirectory struct {
	accounts AccountStore
}

// NewStoreDirectory creates a new StoreDirectory.
func NewStoreDirectory(accounts AccountStore) *StoreDirectory {
	return &StoreDirectory{accounts: accounts}
}

// ResolveEmail returns the ID of the account registered under email.
func (d *StoreDirectory) ResolveEmail(ctx context.Context, email string) (string, error) {
	account, err := d.accounts.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	return account.ID, nil
}

// EmailsByID looks up emails for ids. Unknown IDs are omitted from the result.
func (d *StoreDirectory) EmailsByID(ctx context.Context, ids []string) (map[string]string, error) {
	emails := make(map[string]string, len(ids))

	for _, id := range ids {
		if _, ok := emails[id]; ok {
			continue
		}

		account, err := d.accounts.Get(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrAccountNotFound) {
				continue
			}
			return nil, err
		}

		emails[id] = account.Email
	}

	return emails, nil
}
