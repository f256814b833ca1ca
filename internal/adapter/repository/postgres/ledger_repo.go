package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/infrastructure/postgres/generated"
	"github.com/iho/walletledger/internal/usecase"
)

// LedgerRepository implements usecase.LedgerStore on the append-only
// ledger_entries table.
type LedgerRepository struct {
	queries *generated.Queries
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(db generated.DBTX) *LedgerRepository {
	return &LedgerRepository{queries: generated.New(db)}
}

// Append inserts entry within tx and sets its ID.
func (r *LedgerRepository) Append(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	return r.AppendBatch(ctx, tx, []*domain.LedgerEntry{entry})
}

// AppendBatch inserts entries in order within tx. A failure aborts tx,
// so either all entries are written or none.
func (r *LedgerRepository) AppendBatch(ctx context.Context, tx usecase.Transaction, entries []*domain.LedgerEntry) error {
	pgxTx, err := pgxTxFrom(tx)
	if err != nil {
		return err
	}

	queries := r.queries.WithTx(pgxTx)

	for _, entry := range entries {
		if !entry.Type.Valid() {
			return fmt.Errorf("unknown entry type %q", entry.Type)
		}

		id, err := queries.CreateLedgerEntry(ctx, generated.CreateLedgerEntryParams{
			AccountID:             entry.AccountID,
			Type:                  string(entry.Type),
			Amount:                moneyToNumeric(entry.Amount),
			CounterpartyAccountID: textFromPtr(entry.CounterpartyAccountID),
			CreatedAt:             timeToPgTimestamptz(entry.CreatedAt),
		})
		if err != nil {
			return mapError(err)
		}

		entry.ID = id
	}

	return nil
}

// ListByAccount returns the account's entries newest first.
func (r *LedgerRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.LedgerEntry, error) {
	rows, err := r.queries.ListLedgerEntriesByAccount(ctx, generated.ListLedgerEntriesByAccountParams{
		AccountID: accountID,
		Limit:     int32(limit),
		Offset:    int32(offset),
	})
	if err != nil {
		return nil, mapError(err)
	}

	entries := make([]*domain.LedgerEntry, 0, len(rows))
	for _, row := range rows {
		amount, err := numericToMoney(row.Amount)
		if err != nil {
			return nil, fmt.Errorf("ledger entry %d: %w", row.ID, err)
		}

		entries = append(entries, &domain.LedgerEntry{
			ID:                    row.ID,
			AccountID:             row.AccountID,
			Type:                  domain.EntryType(row.Type),
			Amount:                amount,
			CounterpartyAccountID: textToPtr(row.CounterpartyAccountID),
			CreatedAt:             row.CreatedAt.Time,
		})
	}

	return entries, nil
}

// CountByAccount counts the account's entries.
func (r *LedgerRepository) CountByAccount(ctx context.Context, accountID string) (int64, error) {
	count, err := r.queries.CountLedgerEntriesByAccount(ctx, accountID)
	return count, mapError(err)
}

// AccountTotals sums the account's entries per type.
func (r *LedgerRepository) AccountTotals(ctx context.Context, accountID string) (domain.LedgerTotals, error) {
	row, err := r.queries.GetAccountLedgerTotals(ctx, accountID)
	if err != nil {
		return domain.LedgerTotals{}, mapError(err)
	}

	return toTotals(row.Deposited, row.Sent, row.Received)
}

// Totals sums all entries per type.
func (r *LedgerRepository) Totals(ctx context.Context) (domain.LedgerTotals, error) {
	row, err := r.queries.GetLedgerTotals(ctx)
	if err != nil {
		return domain.LedgerTotals{}, mapError(err)
	}

	return toTotals(row.Deposited, row.Sent, row.Received)
}

func toTotals(deposited, sent, received pgtype.Numeric) (domain.LedgerTotals, error) {
	var (
		totals domain.LedgerTotals
		err    error
	)

	if totals.Deposited, err = numericToMoney(deposited); err != nil {
		return domain.LedgerTotals{}, err
	}
	if totals.Sent, err = numericToMoney(sent); err != nil {
		return domain.LedgerTotals{}, err
	}
	if totals.Received, err = numericToMoney(received); err != nil {
		return domain.LedgerTotals{}, err
	}

	return totals, nil
}

func textFromPtr(s *string) pgtype.Text {
	if s == nil {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *s, Valid: true}
}

func textToPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	s := t.String
	return &s
}
