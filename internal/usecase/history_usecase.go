package usecase

import (
	"context"
	"time"

	"github.com/iho/walletledger/internal/domain"
)

// HistoryUseCase serves paginated, newest-first ledger history.
type HistoryUseCase struct {
	accounts    AccountStore
	ledger      LedgerStore
	directory   AccountDirectory
	maxPageSize int
}

// NewHistoryUseCase creates a new HistoryUseCase.
// A nil directory falls back to looking counterparties up in accounts.
func NewHistoryUseCase(accounts AccountStore, ledger LedgerStore, directory AccountDirectory, maxPageSize int) *HistoryUseCase {
	if directory == nil {
		directory = NewStoreDirectory(accounts)
	}

	if maxPageSize <= 0 {
		maxPageSize = MaxHistoryPageSize
	}

	return &HistoryUseCase{
		accounts:    accounts,
		ledger:      ledger,
		directory:   directory,
		maxPageSize: maxPageSize,
	}
}

// GetHistoryInput represents input for reading an account's history.
// Page is zero-based.
type GetHistoryInput struct {
	AccountID string
	Page      int
	PageSize  int
}

// HistoryItem is a ledger entry projected for display. ToEmail is set on
// SEND items and FromEmail on RECEIVE items.
type HistoryItem struct {
	CreatedAt             time.Time        `json:"created_at"`
	CounterpartyAccountID string           `json:"counterparty_account_id,omitempty"`
	ToEmail               string           `json:"to_email,omitempty"`
	FromEmail             string           `json:"from_email,omitempty"`
	Type                  domain.EntryType `json:"type"`
	Amount                domain.Money     `json:"amount"`
	ID                    int64            `json:"id"`
}

// HistoryPage is one page of history plus paging metadata.
type HistoryPage struct {
	Items      []HistoryItem `json:"items"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
	TotalItems int64         `json:"total_items"`
	TotalPages int64         `json:"total_pages"`
}

// GetHistory returns one page of the account's entries, newest first.
// Pages past the end are empty rather than an error.
func (uc *HistoryUseCase) GetHistory(ctx context.Context, input GetHistoryInput) (*HistoryPage, error) {
	pageSize, offset, err := domain.ValidatePagination(input.Page, input.PageSize, uc.maxPageSize)
	if err != nil {
		return nil, err
	}

	if _, err := uc.accounts.Get(ctx, input.AccountID); err != nil {
		return nil, storageError(err)
	}

	total, err := uc.ledger.CountByAccount(ctx, input.AccountID)
	if err != nil {
		return nil, storageError(err)
	}

	page := &HistoryPage{
		Items:      []HistoryItem{},
		Page:       input.Page,
		PageSize:   pageSize,
		TotalItems: total,
		TotalPages: (total + int64(pageSize) - 1) / int64(pageSize),
	}

	if int64(offset) >= total {
		return page, nil
	}

	entries, err := uc.ledger.ListByAccount(ctx, input.AccountID, pageSize, offset)
	if err != nil {
		return nil, storageError(err)
	}

	counterparties := make([]string, 0, len(entries))
	for _, e := range entries {
		if id := e.Counterparty(); id != "" {
			counterparties = append(counterparties, id)
		}
	}

	emails := map[string]string{}
	if len(counterparties) > 0 {
		emails, err = uc.directory.EmailsByID(ctx, counterparties)
		if err != nil {
			return nil, storageError(err)
		}
	}

	for _, e := range entries {
		item := HistoryItem{
			ID:                    e.ID,
			Type:                  e.Type,
			Amount:                e.Amount,
			CounterpartyAccountID: e.Counterparty(),
			CreatedAt:             e.CreatedAt,
		}

		switch e.Type {
		case domain.EntryTypeSend:
			item.ToEmail = emails[item.CounterpartyAccountID]
		case domain.EntryTypeReceive:
			item.FromEmail = emails[item.CounterpartyAccountID]
		}

		page.Items = append(page.Items, item)
	}

	return page, nil
}
