package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/walletledger/internal/adapter/http/dto"
	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

// Reconciler produces reconciliation reports.
type Reconciler interface {
	GenerateReconciliationReport(ctx context.Context) (*usecase.ReconciliationReport, error)
	ReconcileAccount(ctx context.Context, accountID string) (*usecase.ReconciliationResult, error)
}

// ReconciliationHandler exposes ledger reconciliation to operators.
type ReconciliationHandler struct {
	reconciler Reconciler
}

// NewReconciliationHandler creates a new ReconciliationHandler.
func NewReconciliationHandler(reconciler Reconciler) *ReconciliationHandler {
	return &ReconciliationHandler{reconciler: reconciler}
}

// Report runs a full reconciliation. It answers 200 when the ledger is
// clean and 409 when discrepancies were found.
func (h *ReconciliationHandler) Report(w http.ResponseWriter, r *http.Request) {
	report, err := h.reconciler.GenerateReconciliationReport(r.Context())
	if err != nil {
		writeError(w, mapDomainError(err), "reconciliation failed", err.Error())
		return
	}

	resp := dto.ReconciliationFromReport(report)
	if !resp.Healthy() {
		writeJSON(w, http.StatusConflict, resp)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Account reconciles a single account. Malformed ids are rejected with 400.
func (h *ReconciliationHandler) Account(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := domain.ValidateAccountID(id); err != nil {
		writeError(w, http.StatusBadRequest, "invalid account id", err.Error())
		return
	}

	result, err := h.reconciler.ReconcileAccount(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "reconciliation failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}
