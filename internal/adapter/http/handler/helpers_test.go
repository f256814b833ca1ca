package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/iho/walletledger/internal/adapter/http/dto"
	"github.com/iho/walletledger/internal/domain"
)

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"account not found", domain.ErrAccountNotFound, http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("load: %w", domain.ErrAccountNotFound), http.StatusNotFound},
		{"invalid amount", domain.ErrInvalidAmount, http.StatusBadRequest},
		{"bad pagination", domain.ErrInvalidPagination, http.StatusBadRequest},
		{"insufficient balance", domain.ErrInsufficientBalance, http.StatusConflict},
		{"balance limit", domain.ErrBalanceLimit, http.StatusConflict},
		{"lock timeout", domain.ErrLockTimeout, http.StatusServiceUnavailable},
		{"storage", domain.ErrStorage, http.StatusInternalServerError},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapDomainError(tt.err); got != tt.expected {
				t.Fatalf("expected %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestWriteJSON(t *testing.T) {
	rr := httptest.NewRecorder()
	payload := map[string]string{"status": "ok"}

	writeJSON(rr, http.StatusCreated, payload)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rr.Code)
	}

	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected content-type application/json, got %s", ct)
	}

	var decoded map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if decoded["status"] != "ok" {
		t.Fatalf("unexpected payload %+v", decoded)
	}
}

func TestWriteError(t *testing.T) {
	rr := httptest.NewRecorder()

	writeError(rr, http.StatusBadRequest, "bad request", "detail")

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}

	var resp dto.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}

	if resp.Error != "bad request" || resp.Message != "detail" {
		t.Fatalf("unexpected error response %+v", resp)
	}
}
