package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/infrastructure/postgres/generated"
	"github.com/iho/walletledger/internal/usecase"
)

// AccountRepository implements usecase.AccountStore.
type AccountRepository struct {
	queries *generated.Queries
}

// NewAccountRepository creates a new AccountRepository.
// db is usually a *pgxpool.Pool.
func NewAccountRepository(db generated.DBTX) *AccountRepository {
	return &AccountRepository{queries: generated.New(db)}
}

// Create creates a new account.
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	_, err := r.queries.CreateAccount(ctx, generated.CreateAccountParams{
		ID:        account.ID,
		Email:     account.Email,
		Balance:   moneyToNumeric(account.Balance),
		Version:   account.Version,
		CreatedAt: timeToPgTimestamptz(account.CreatedAt),
		UpdatedAt: timeToPgTimestamptz(account.UpdatedAt),
	})

	return mapError(err)
}

// Get retrieves an account by ID.
func (r *AccountRepository) Get(ctx context.Context, id string) (*domain.Account, error) {
	row, err := r.queries.GetAccountByID(ctx, id)
	if err != nil {
		return nil, accountError(err)
	}

	return rowToAccount(row)
}

// GetByEmail retrieves an account by its normalized email.
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	row, err := r.queries.GetAccountByEmail(ctx, email)
	if err != nil {
		return nil, accountError(err)
	}

	return rowToAccount(row)
}

// GetForUpdate retrieves an account by ID with a FOR UPDATE lock held until tx ends.
func (r *AccountRepository) GetForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error) {
	pgxTx, err := pgxTxFrom(tx)
	if err != nil {
		return nil, err
	}

	row, err := r.queries.WithTx(pgxTx).GetAccountByIDForUpdate(ctx, id)
	if err != nil {
		return nil, accountError(err)
	}

	return rowToAccount(row)
}

// Save writes the balance guarded by the version read under lock and
// increments account.Version.
func (r *AccountRepository) Save(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	pgxTx, err := pgxTxFrom(tx)
	if err != nil {
		return err
	}

	if !account.Balance.IsNonNegative() {
		return domain.ErrInsufficientBalance
	}

	updated, err := r.queries.WithTx(pgxTx).UpdateAccountBalance(ctx, generated.UpdateAccountBalanceParams{
		ID:        account.ID,
		Balance:   moneyToNumeric(account.Balance),
		UpdatedAt: timeToPgTimestamptz(account.UpdatedAt),
		Version:   account.Version,
	})
	if err != nil {
		return mapError(err)
	}

	if updated == 0 {
		return fmt.Errorf("%w: account %s changed since version %d", domain.ErrConflict, account.ID, account.Version)
	}

	account.Version++

	return nil
}

// List lists accounts ordered by ID.
func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	rows, err := r.queries.ListAccounts(ctx, generated.ListAccountsParams{
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	if err != nil {
		return nil, mapError(err)
	}

	accounts := make([]*domain.Account, 0, len(rows))
	for _, row := range rows {
		account, err := rowToAccount(row)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	return accounts, nil
}

func accountError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrAccountNotFound
	}
	return mapError(err)
}

func rowToAccount(row generated.Account) (*domain.Account, error) {
	balance, err := numericToMoney(row.Balance)
	if err != nil {
		return nil, fmt.Errorf("account %s: %w", row.ID, err)
	}

	return &domain.Account{
		ID:        row.ID,
		Email:     row.Email,
		Balance:   balance,
		Version:   row.Version,
		CreatedAt: row.CreatedAt.Time,
		UpdatedAt: row.UpdatedAt.Time,
	}, nil
}

// Type conversion helpers.
func moneyToNumeric(m domain.Money) pgtype.Numeric {
	var n pgtype.Numeric

	_ = n.Scan(m.String())

	return n
}

func numericToMoney(n pgtype.Numeric) (domain.Money, error) {
	if !n.Valid || n.Int == nil {
		return domain.ZeroMoney, nil
	}

	return domain.NewMoneyFromDecimal(decimal.NewFromBigInt(n.Int, n.Exp))
}

func timeToPgTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}
