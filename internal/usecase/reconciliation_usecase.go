package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iho/walletledger/internal/domain"
)

// reconcileBatchSize is the page size used to walk all accounts.
const reconcileBatchSize = 100

// ReconciliationUseCase checks recorded balances against the ledger.
type ReconciliationUseCase struct {
	accounts AccountStore
	ledger   LedgerStore
	now      func() time.Time
}

// NewReconciliationUseCase creates a new reconciliation use case
func NewReconciliationUseCase(accounts AccountStore, ledger LedgerStore) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		accounts: accounts,
		ledger:   ledger,
		now:      time.Now,
	}
}

// ReconciliationResult represents the result of a reconciliation check
type ReconciliationResult struct {
	AccountID         string       `json:"account_id"`
	RecordedBalance   domain.Money `json:"recorded_balance"`
	CalculatedBalance domain.Money `json:"calculated_balance"`
	Difference        domain.Money `json:"difference"`
	IsReconciled      bool         `json:"is_reconciled"`
	LastChecked       time.Time    `json:"last_checked"`
}

// ReconcileAccount compares the stored balance with DEPOSIT + RECEIVE - SEND.
func (uc *ReconciliationUseCase) ReconcileAccount(ctx context.Context, accountID string) (*ReconciliationResult, error) {
	account, err := uc.accounts.Get(ctx, accountID)
	if err != nil {
		return nil, storageError(err)
	}

	return uc.reconcile(ctx, account)
}

func (uc *ReconciliationUseCase) reconcile(ctx context.Context, account *domain.Account) (*ReconciliationResult, error) {
	totals, err := uc.ledger.AccountTotals(ctx, account.ID)
	if err != nil {
		return nil, storageError(err)
	}

	calculated := totals.Balance()

	return &ReconciliationResult{
		AccountID:         account.ID,
		RecordedBalance:   account.Balance,
		CalculatedBalance: calculated,
		Difference:        account.Balance.Sub(calculated),
		IsReconciled:      account.Balance.Equal(calculated),
		LastChecked:       uc.now().UTC(),
	}, nil
}

// ReconcileAllAccounts reconciles all accounts in the system
func (uc *ReconciliationUseCase) ReconcileAllAccounts(ctx context.Context) ([]*ReconciliationResult, error) {
	var results []*ReconciliationResult

	for offset := 0; ; offset += reconcileBatchSize {
		accounts, err := uc.accounts.List(ctx, reconcileBatchSize, offset)
		if err != nil {
			return nil, storageError(err)
		}

		for _, account := range accounts {
			result, err := uc.reconcile(ctx, account)
			if err != nil {
				return nil, fmt.Errorf("failed to reconcile account %s: %w", account.ID, err)
			}
			results = append(results, result)
		}

		if len(accounts) < reconcileBatchSize {
			return results, nil
		}
	}
}

// CheckLedgerConsistency verifies that every SEND has a matching RECEIVE.
func (uc *ReconciliationUseCase) CheckLedgerConsistency(ctx context.Context) (domain.LedgerTotals, error) {
	totals, err := uc.ledger.Totals(ctx)
	if err != nil {
		return domain.LedgerTotals{}, storageError(err)
	}

	if !totals.Sent.Equal(totals.Received) {
		return totals, fmt.Errorf(
			"%w: sent=%s received=%s difference=%s",
			domain.ErrLedgerInconsistent,
			totals.Sent,
			totals.Received,
			totals.Sent.Sub(totals.Received),
		)
	}

	return totals, nil
}

// ReconciliationReport represents a full reconciliation report
type ReconciliationReport struct {
	TotalAccounts      int                     `json:"total_accounts"`
	ReconciledAccounts int                     `json:"reconciled_accounts"`
	Discrepancies      []*ReconciliationResult `json:"discrepancies"`
	LedgerTotals       domain.LedgerTotals     `json:"ledger_totals"`
	LedgerConsistent   bool                    `json:"ledger_consistent"`
	CheckedAt          time.Time               `json:"checked_at"`
}

// GenerateReconciliationReport generates a comprehensive reconciliation report
func (uc *ReconciliationUseCase) GenerateReconciliationReport(ctx context.Context) (*ReconciliationReport, error) {
	results, err := uc.ReconcileAllAccounts(ctx)
	if err != nil {
		return nil, err
	}

	totals, ledgerErr := uc.CheckLedgerConsistency(ctx)
	if ledgerErr != nil && !errors.Is(ledgerErr, domain.ErrLedgerInconsistent) {
		return nil, ledgerErr
	}

	report := &ReconciliationReport{
		TotalAccounts:    len(results),
		Discrepancies:    make([]*ReconciliationResult, 0),
		LedgerTotals:     totals,
		LedgerConsistent: ledgerErr == nil,
		CheckedAt:        uc.now().UTC(),
	}

	for _, result := range results {
		if result.IsReconciled {
			report.ReconciledAccounts++
		} else {
			report.Discrepancies = append(report.Discrepancies, result)
		}
	}

	return report, nil
}
