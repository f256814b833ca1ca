package domain

import (
	"time"
)

// EntryType classifies a ledger entry.
type EntryType string

const (
	EntryTypeDeposit EntryType = "DEPOSIT"
	EntryTypeSend    EntryType = "SEND"
	EntryTypeReceive EntryType = "RECEIVE"
)

// Valid reports whether t is a known entry type.
func (t EntryType) Valid() bool {
	switch t {
	case EntryTypeDeposit, EntryTypeSend, EntryTypeReceive:
		return true
	}
	return false
}

// LedgerEntry is an immutable record of one balance change on one account.
// Amount is always a positive magnitude; Type carries the direction.
type LedgerEntry struct {
	CreatedAt             time.Time
	CounterpartyAccountID *string
	AccountID             string
	Type                  EntryType
	Amount                Money
	ID                    int64
}

// NewDepositEntry builds the single entry written by a deposit.
func NewDepositEntry(accountID string, amount Money, at time.Time) *LedgerEntry {
	return &LedgerEntry{
		AccountID: accountID,
		Type:      EntryTypeDeposit,
		Amount:    amount,
		CreatedAt: at,
	}
}

// NewTransferEntries builds the SEND/RECEIVE pair written by a transfer.
func NewTransferEntries(fromAccountID, toAccountID string, amount Money, at time.Time) (send, receive *LedgerEntry) {
	from, to := fromAccountID, toAccountID

	send = &LedgerEntry{
		AccountID:             fromAccountID,
		Type:                  EntryTypeSend,
		Amount:                amount,
		CounterpartyAccountID: &to,
		CreatedAt:             at,
	}
	receive = &LedgerEntry{
		AccountID:             toAccountID,
		Type:                  EntryTypeReceive,
		Amount:                amount,
		CounterpartyAccountID: &from,
		CreatedAt:             at,
	}

	return send, receive
}

// Counterparty returns the counterparty account id or "" for deposits.
func (e *LedgerEntry) Counterparty() string {
	if e.CounterpartyAccountID == nil {
		return ""
	}
	return *e.CounterpartyAccountID
}

// LedgerTotals sums entry amounts per type.
type LedgerTotals struct {
	Deposited Money
	Sent      Money
	Received  Money
}

// Add accumulates one entry into the totals.
func (t LedgerTotals) Add(e *LedgerEntry) LedgerTotals {
	switch e.Type {
	case EntryTypeDeposit:
		t.Deposited = t.Deposited.Add(e.Amount)
	case EntryTypeSend:
		t.Sent = t.Sent.Add(e.Amount)
	case EntryTypeReceive:
		t.Received = t.Received.Add(e.Amount)
	}
	return t
}

// Balance is the balance implied by the entries: deposits plus receipts minus sends.
func (t LedgerTotals) Balance() Money {
	return t.Deposited.Add(t.Received).Sub(t.Sent)
}
