package memory

import (
	"context"
	"fmt"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

// LedgerRepository implements usecase.LedgerStore.
type LedgerRepository struct {
	store *Store
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(store *Store) *LedgerRepository {
	return &LedgerRepository{store: store}
}

// Append stages one entry on tx and assigns its ID.
func (r *LedgerRepository) Append(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	return r.AppendBatch(ctx, tx, []*domain.LedgerEntry{entry})
}

// AppendBatch stages entries on tx. Either all entries are staged or none.
func (r *LedgerRepository) AppendBatch(ctx context.Context, tx usecase.Transaction, entries []*domain.LedgerEntry) error {
	t, err := txFrom(tx)
	if err != nil {
		return err
	}

	for _, e := range entries {
		if !e.Type.Valid() {
			return fmt.Errorf("unknown entry type %q", e.Type)
		}
		if !e.Amount.IsPositive() {
			return domain.ErrInvalidAmount
		}
	}

	for _, e := range entries {
		e.ID = r.store.nextEntryID.Add(1)
		t.entries = append(t.entries, *e)
	}

	return nil
}

// ListByAccount returns the account's entries newest first.
func (r *LedgerRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.LedgerEntry, error) {
	if limit < 0 || offset < 0 {
		return nil, fmt.Errorf("%w: limit=%d offset=%d", domain.ErrInvalidPagination, limit, offset)
	}

	r.store.mu.RLock()
	entries := make([]domain.LedgerEntry, len(r.store.entries[accountID]))
	copy(entries, r.store.entries[accountID])
	r.store.mu.RUnlock()

	newestFirst(entries)

	if offset >= len(entries) {
		return []*domain.LedgerEntry{}, nil
	}

	page := entries[offset:min(offset+limit, len(entries))]

	result := make([]*domain.LedgerEntry, 0, len(page))
	for i := range page {
		result = append(result, &page[i])
	}

	return result, nil
}

// CountByAccount counts the account's entries.
func (r *LedgerRepository) CountByAccount(ctx context.Context, accountID string) (int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return int64(len(r.store.entries[accountID])), nil
}

// AccountTotals sums the account's entries per type.
func (r *LedgerRepository) AccountTotals(ctx context.Context, accountID string) (domain.LedgerTotals, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var totals domain.LedgerTotals
	for i := range r.store.entries[accountID] {
		totals = totals.Add(&r.store.entries[accountID][i])
	}

	return totals, nil
}

// Totals sums all entries per type.
func (r *LedgerRepository) Totals(ctx context.Context) (domain.LedgerTotals, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return r.store.allTotals, nil
}
