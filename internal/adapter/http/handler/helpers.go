package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/iho/walletledger/internal/adapter/http/dto"
	"github.com/iho/walletledger/internal/domain"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrRecipientNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidIDFormat),
		errors.Is(err, domain.ErrInvalidPagination),
		errors.Is(err, domain.ErrSelfTransferNotAllowed):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInsufficientBalance),
		errors.Is(err, domain.ErrBalanceLimit),
		errors.Is(err, domain.ErrDuplicateRequest),
		errors.Is(err, domain.ErrAccountExists):
		return http.StatusConflict
	case errors.Is(err, domain.ErrLockTimeout):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
