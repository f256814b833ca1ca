package postgres

import (
	"context"

	"github.com/iho/walletledger/internal/infrastructure/postgres/generated"
)

// DirectoryRepository implements usecase.AccountDirectory with indexed
// lookups on the accounts table.
type DirectoryRepository struct {
	accounts *AccountRepository
	queries  *generated.Queries
}

// NewDirectoryRepository creates a new DirectoryRepository.
func NewDirectoryRepository(db generated.DBTX) *DirectoryRepository {
	return &DirectoryRepository{
		accounts: NewAccountRepository(db),
		queries:  generated.New(db),
	}
}

// ResolveEmail returns the ID of the account registered under email.
func (r *DirectoryRepository) ResolveEmail(ctx context.Context, email string) (string, error) {
	account, err := r.accounts.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	return account.ID, nil
}

// EmailsByID fetches the emails of ids in one query. Unknown IDs are omitted.
func (r *DirectoryRepository) EmailsByID(ctx context.Context, ids []string) (map[string]string, error) {
	emails := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return emails, nil
	}

	rows, err := r.queries.GetAccountEmailsByIDs(ctx, ids)
	if err != nil {
		return nil, mapError(err)
	}

	for _, row := range rows {
		emails[row.ID] = row.Email
	}

	return emails, nil
}
