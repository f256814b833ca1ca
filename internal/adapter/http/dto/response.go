package dto

import (
	"time"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// ReadinessResponse reports the state of each dependency.
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// DiscrepancyResponse describes an account whose balance disagrees with its ledger.
type DiscrepancyResponse struct {
	AccountID         string       `json:"account_id"`
	RecordedBalance   domain.Money `json:"recorded_balance"`
	CalculatedBalance domain.Money `json:"calculated_balance"`
	Difference        domain.Money `json:"difference"`
}

// ReconciliationResponse is the ops view of a reconciliation report.
type ReconciliationResponse struct {
	TotalAccounts      int                    `json:"total_accounts"`
	ReconciledAccounts int                    `json:"reconciled_accounts"`
	Discrepancies      []*DiscrepancyResponse `json:"discrepancies"`
	TotalDeposited     domain.Money           `json:"total_deposited"`
	TotalSent          domain.Money           `json:"total_sent"`
	TotalReceived      domain.Money           `json:"total_received"`
	LedgerConsistent   bool                   `json:"ledger_consistent"`
	CheckedAt          time.Time              `json:"checked_at"`
}

// Healthy reports whether the report found nothing to fix.
func (r *ReconciliationResponse) Healthy() bool {
	return r.LedgerConsistent && len(r.Discrepancies) == 0
}

// ReconciliationFromReport converts a usecase report to its response.
func ReconciliationFromReport(report *usecase.ReconciliationReport) *ReconciliationResponse {
	resp := &ReconciliationResponse{
		TotalAccounts:      report.TotalAccounts,
		ReconciledAccounts: report.ReconciledAccounts,
		Discrepancies:      make([]*DiscrepancyResponse, 0, len(report.Discrepancies)),
		TotalDeposited:     report.LedgerTotals.Deposited,
		TotalSent:          report.LedgerTotals.Sent,
		TotalReceived:      report.LedgerTotals.Received,
		LedgerConsistent:   report.LedgerConsistent,
		CheckedAt:          report.CheckedAt,
	}

	for _, d := range report.Discrepancies {
		resp.Discrepancies = append(resp.Discrepancies, &DiscrepancyResponse{
			AccountID:         d.AccountID,
			RecordedBalance:   d.RecordedBalance,
			CalculatedBalance: d.CalculatedBalance,
			Difference:        d.Difference,
		})
	}

	return resp
}
