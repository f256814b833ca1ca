package usecase_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/mock/gomock"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/infrastructure/retry"
	"github.com/iho/walletledger/internal/usecase"
	"github.com/iho/walletledger/internal/usecase/mocks"
)

var fixedNow = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

type balanceMocks struct {
	txMgr     *mocks.MockTransactionManager
	tx        *mocks.MockTransaction
	accounts  *mocks.MockAccountStore
	ledger    *mocks.MockLedgerStore
	directory *mocks.MockAccountDirectory
	idem      *mocks.MockIdempotencyStore
	observer  *mocks.MockObserver
}

func newBalanceMocks(t *testing.T) *balanceMocks {
	ctrl := gomock.NewController(t)

	m := &balanceMocks{
		txMgr:     mocks.NewMockTransactionManager(ctrl),
		tx:        mocks.NewMockTransaction(ctrl),
		accounts:  mocks.NewMockAccountStore(ctrl),
		ledger:    mocks.NewMockLedgerStore(ctrl),
		directory: mocks.NewMockAccountDirectory(ctrl),
		idem:      mocks.NewMockIdempotencyStore(ctrl),
		observer:  mocks.NewMockObserver(ctrl),
	}

	m.observer.EXPECT().ObserveOperation(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	m.observer.EXPECT().ObserveRetry(gomock.Any()).AnyTimes()
	m.observer.EXPECT().ObserveReplay(gomock.Any()).AnyTimes()

	return m
}

func (m *balanceMocks) useCase(retrier usecase.Retrier, opts ...usecase.BalanceOption) *usecase.BalanceUseCase {
	opts = append([]usecase.BalanceOption{
		usecase.WithClock(func() time.Time { return fixedNow }),
		usecase.WithDirectory(m.directory),
		usecase.WithObserver(m.observer),
	}, opts...)

	return usecase.NewBalanceUseCase(m.txMgr, m.accounts, m.ledger, retrier, zerolog.Nop(), opts...)
}

// expectTx expects one transaction that is always rolled back by defer
// and optionally committed first.
func (m *balanceMocks) expectTx(commit bool) {
	m.txMgr.EXPECT().Begin(gomock.Any()).Return(m.tx, nil)
	if commit {
		m.tx.EXPECT().Commit(gomock.Any()).Return(nil)
	}
	m.tx.EXPECT().Rollback(gomock.Any()).Return(nil)
}

func account(id string, balance string, version int64) *domain.Account {
	return &domain.Account{ID: id, Email: id + "@example.com", Balance: domain.MustMoney(balance), Version: version}
}

func TestBalanceUseCase_Deposit(t *testing.T) {
	m := newBalanceMocks(t)
	m.expectTx(true)

	m.accounts.EXPECT().GetForUpdate(gomock.Any(), m.tx, "acc-1").Return(account("acc-1", "100", 3), nil)
	m.accounts.EXPECT().Save(gomock.Any(), m.tx, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ usecase.Transaction, a *domain.Account) error {
			if a.Balance.String() != "140.50" {
				t.Fatalf("expected saved balance 140.50, got %s", a.Balance)
			}
			if a.Version != 3 {
				t.Fatalf("expected version read under lock, got %d", a.Version)
			}
			return nil
		})
	m.ledger.EXPECT().Append(gomock.Any(), m.tx, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ usecase.Transaction, e *domain.LedgerEntry) error {
			if e.Type != domain.EntryTypeDeposit || e.AccountID != "acc-1" || e.CounterpartyAccountID != nil {
				t.Fatalf("unexpected deposit entry: %+v", e)
			}
			if !e.CreatedAt.Equal(fixedNow) {
				t.Fatalf("expected entry timestamp from clock, got %s", e.CreatedAt)
			}
			e.ID = 42
			return nil
		})

	uc := m.useCase(nil)
	result, err := uc.Deposit(context.Background(), usecase.DepositInput{
		AccountID: "acc-1",
		Amount:    domain.MustMoney("40.50"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.NewBalance.String() != "140.50" || result.EntryID != 42 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestBalanceUseCase_DepositRejections(t *testing.T) {
	tests := []struct {
		name    string
		amount  domain.Money
		setup   func(m *balanceMocks)
		wantErr error
	}{
		{
			name:    "zero amount",
			amount:  domain.ZeroMoney,
			setup:   func(*balanceMocks) {},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "negative amount",
			amount:  domain.MustMoney("-5"),
			setup:   func(*balanceMocks) {},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:   "unknown account",
			amount: domain.MustMoney("5"),
			setup: func(m *balanceMocks) {
				m.expectTx(false)
				m.accounts.EXPECT().GetForUpdate(gomock.Any(), m.tx, "acc-1").Return(nil, domain.ErrAccountNotFound)
			},
			wantErr: domain.ErrAccountNotFound,
		},
		{
			name:   "lock timeout",
			amount: domain.MustMoney("5"),
			setup: func(m *balanceMocks) {
				m.expectTx(false)
				m.accounts.EXPECT().GetForUpdate(gomock.Any(), m.tx, "acc-1").Return(nil, domain.ErrLockTimeout)
			},
			wantErr: domain.ErrLockTimeout,
		},
		{
			name:   "begin fails",
			amount: domain.MustMoney("5"),
			setup: func(m *balanceMocks) {
				m.txMgr.EXPECT().Begin(gomock.Any()).Return(nil, errors.New("pool exhausted"))
			},
			wantErr: domain.ErrStorage,
		},
		{
			name:   "ledger append fails",
			amount: domain.MustMoney("5"),
			setup: func(m *balanceMocks) {
				m.expectTx(false)
				m.accounts.EXPECT().GetForUpdate(gomock.Any(), m.tx, "acc-1").Return(account("acc-1", "0", 0), nil)
				m.accounts.EXPECT().Save(gomock.Any(), m.tx, gomock.Any()).Return(nil)
				m.ledger.EXPECT().Append(gomock.Any(), m.tx, gomock.Any()).Return(errors.New("disk full"))
			},
			wantErr: domain.ErrStorage,
		},
		{
			name:   "commit fails",
			amount: domain.MustMoney("5"),
			setup: func(m *balanceMocks) {
				m.txMgr.EXPECT().Begin(gomock.Any()).Return(m.tx, nil)
				m.tx.EXPECT().Commit(gomock.Any()).Return(errors.New("connection reset"))
				m.tx.EXPECT().Rollback(gomock.Any()).Return(nil)
				m.accounts.EXPECT().GetForUpdate(gomock.Any(), m.tx, "acc-1").Return(account("acc-1", "0", 0), nil)
				m.accounts.EXPECT().Save(gomock.Any(), m.tx, gomock.Any()).Return(nil)
				m.ledger.EXPECT().Append(gomock.Any(), m.tx, gomock.Any()).Return(nil)
			},
			wantErr: domain.ErrStorage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newBalanceMocks(t)
			tt.setup(m)

			_, err := m.useCase(nil).Deposit(context.Background(), usecase.DepositInput{
				AccountID: "acc-1",
				Amount:    tt.amount,
			})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestBalanceUseCase_TransferLocksInAscendingOrder(t *testing.T) {
	m := newBalanceMocks(t)
	m.expectTx(true)

	// Sender "b" sorts after recipient "a", so "a" is locked first.
	gomock.InOrder(
		m.accounts.EXPECT().GetForUpdate(gomock.Any(), m.tx, "a").Return(account("a", "0", 1), nil),
		m.accounts.EXPECT().GetForUpdate(gomock.Any(), m.tx, "b").Return(account("b", "100", 5), nil),
		m.accounts.EXPECT().Save(gomock.Any(), m.tx, gomock.Any()).DoAndReturn(
			func(_ context.Context, _ usecase.Transaction, a *domain.Account) error {
				if a.ID != "a" || a.Balance.String() != "40.00" {
					t.Fatalf("unexpected recipient save: %+v", a)
				}
				return nil
			}),
		m.accounts.EXPECT().Save(gomock.Any(), m.tx, gomock.Any()).DoAndReturn(
			func(_ context.Context, _ usecase.Transaction, a *domain.Account) error {
				if a.ID != "b" || a.Balance.String() != "60.00" {
					t.Fatalf("unexpected sender save: %+v", a)
				}
				return nil
			}),
		m.ledger.EXPECT().AppendBatch(gomock.Any(), m.tx, gomock.Any()).DoAndReturn(
			func(_ context.Context, _ usecase.Transaction, entries []*domain.LedgerEntry) error {
				if len(entries) != 2 {
					t.Fatalf("expected SEND and RECEIVE, got %d entries", len(entries))
				}
				send, receive := entries[0], entries[1]
				if send.Type != domain.EntryTypeSend || send.AccountID != "b" || send.Counterparty() != "a" {
					t.Fatalf("unexpected send entry: %+v", send)
				}
				if receive.Type != domain.EntryTypeReceive || receive.AccountID != "a" || receive.Counterparty() != "b" {
					t.Fatalf("unexpected receive entry: %+v", receive)
				}
				send.ID, receive.ID = 10, 11
				return nil
			}),
	)

	result, err := m.useCase(nil).Transfer(context.Background(), usecase.TransferInput{
		FromAccountID: "b",
		ToAccountID:   "a",
		Amount:        domain.MustMoney("40"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.NewBalance.String() != "60.00" || result.EntryID != 10 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestBalanceUseCase_TransferRejections(t *testing.T) {
	tests := []struct {
		name    string
		input   usecase.TransferInput
		setup   func(m *balanceMocks)
		wantErr error
	}{
		{
			name:    "self transfer checked before locking",
			input:   usecase.TransferInput{FromAccountID: "a", ToAccountID: "a", Amount: domain.MustMoney("1")},
			setup:   func(*balanceMocks) {},
			wantErr: domain.ErrSelfTransferNotAllowed,
		},
		{
			name:    "invalid amount",
			input:   usecase.TransferInput{FromAccountID: "a", ToAccountID: "b", Amount: domain.ZeroMoney},
			setup:   func(*balanceMocks) {},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:  "recipient missing",
			input: usecase.TransferInput{FromAccountID: "a", ToAccountID: "b", Amount: domain.MustMoney("1")},
			setup: func(m *balanceMocks) {
				m.expectTx(false)
				m.accounts.EXPECT().GetForUpdate(gomock.Any(), m.tx, "a").Return(account("a", "10", 0), nil)
				m.accounts.EXPECT().GetForUpdate(gomock.Any(), m.tx, "b").Return(nil, domain.ErrAccountNotFound)
			},
			wantErr: domain.ErrRecipientNotFound,
		},
		{
			name:  "sender missing",
			input: usecase.TransferInput{FromAccountID: "a", ToAccountID: "b", Amount: domain.MustMoney("1")},
			setup: func(m *balanceMocks) {
				m.expectTx(false)
				m.accounts.EXPECT().GetForUpdate(gomock.Any(), m.tx, "a").Return(nil, domain.ErrAccountNotFound)
			},
			wantErr: domain.ErrAccountNotFound,
		},
		{
			name:  "insufficient balance checked under lock",
			input: usecase.TransferInput{FromAccountID: "a", ToAccountID: "b", Amount: domain.MustMoney("1000")},
			setup: func(m *balanceMocks) {
				m.expectTx(false)
				m.accounts.EXPECT().GetForUpdate(gomock.Any(), m.tx, "a").Return(account("a", "60", 0), nil)
				m.accounts.EXPECT().GetForUpdate(gomock.Any(), m.tx, "b").Return(account("b", "40", 0), nil)
			},
			wantErr: domain.ErrInsufficientBalance,
		},
		{
			name:  "second lock times out",
			input: usecase.TransferInput{FromAccountID: "a", ToAccountID: "b", Amount: domain.MustMoney("1")},
			setup: func(m *balanceMocks) {
				m.expectTx(false)
				m.accounts.EXPECT().GetForUpdate(gomock.Any(), m.tx, "a").Return(account("a", "60", 0), nil)
				m.accounts.EXPECT().GetForUpdate(gomock.Any(), m.tx, "b").Return(nil, domain.ErrLockTimeout)
			},
			wantErr: domain.ErrLockTimeout,
		},
		{
			name:  "entry batch fails",
			input: usecase.TransferInput{FromAccountID: "a", ToAccountID: "b", Amount: domain.MustMoney("1")},
			setup: func(m *balanceMocks) {
				m.expectTx(false)
				m.accounts.EXPECT().GetForUpdate(gomock.Any(), m.tx, "a").Return(account("a", "60", 0), nil)
				m.accounts.EXPECT().GetForUpdate(gomock.Any(), m.tx, "b").Return(account("b", "40", 0), nil)
				m.accounts.EXPECT().Save(gomock.Any(), m.tx, gomock.Any()).Return(nil).Times(2)
				m.ledger.EXPECT().AppendBatch(gomock.Any(), m.tx, gomock.Any()).Return(errors.New("io error"))
			},
			wantErr: domain.ErrStorage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newBalanceMocks(t)
			tt.setup(m)

			_, err := m.useCase(nil).Transfer(context.Background(), tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestBalanceUseCase_RetriesOnConflict(t *testing.T) {
	m := newBalanceMocks(t)

	m.txMgr.EXPECT().Begin(gomock.Any()).Return(m.tx, nil).Times(2)
	m.tx.EXPECT().Rollback(gomock.Any()).Return(nil).Times(2)
	m.tx.EXPECT().Commit(gomock.Any()).Return(nil)

	m.accounts.EXPECT().GetForUpdate(gomock.Any(), m.tx, "acc-1").Return(account("acc-1", "10", 1), nil)
	m.accounts.EXPECT().GetForUpdate(gomock.Any(), m.tx, "acc-1").Return(account("acc-1", "15", 2), nil)
	gomock.InOrder(
		m.accounts.EXPECT().Save(gomock.Any(), m.tx, gomock.Any()).Return(domain.ErrConflict),
		m.accounts.EXPECT().Save(gomock.Any(), m.tx, gomock.Any()).Return(nil),
	)
	m.ledger.EXPECT().Append(gomock.Any(), m.tx, gomock.Any()).Return(nil)

	uc := m.useCase(fastRetrier(3))
	result, err := uc.Deposit(context.Background(), usecase.DepositInput{AccountID: "acc-1", Amount: domain.MustMoney("1")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The second attempt re-reads the account, so the concurrent write is kept.
	if result.NewBalance.String() != "16.00" {
		t.Fatalf("expected 16.00, got %s", result.NewBalance)
	}
}

func TestBalanceUseCase_ConflictRetriesExhausted(t *testing.T) {
	m := newBalanceMocks(t)

	m.txMgr.EXPECT().Begin(gomock.Any()).Return(m.tx, nil).Times(3)
	m.tx.EXPECT().Rollback(gomock.Any()).Return(nil).Times(3)
	m.accounts.EXPECT().GetForUpdate(gomock.Any(), m.tx, "acc-1").Return(account("acc-1", "10", 1), nil).Times(3)
	m.accounts.EXPECT().Save(gomock.Any(), m.tx, gomock.Any()).Return(domain.ErrConflict).Times(3)

	uc := m.useCase(fastRetrier(2))
	_, err := uc.Deposit(context.Background(), usecase.DepositInput{AccountID: "acc-1", Amount: domain.MustMoney("1")})

	if !errors.Is(err, domain.ErrStorage) {
		t.Fatalf("expected ErrStorage after retries, got %v", err)
	}
	if errors.Is(err, domain.ErrConflict) {
		t.Fatalf("conflict must not leak to callers: %v", err)
	}
}

func TestBalanceUseCase_TransferToEmail(t *testing.T) {
	t.Run("resolves recipient", func(t *testing.T) {
		m := newBalanceMocks(t)
		m.directory.EXPECT().ResolveEmail(gomock.Any(), "bob@example.com").Return("b", nil)
		m.expectTx(true)
		m.accounts.EXPECT().GetForUpdate(gomock.Any(), m.tx, "a").Return(account("a", "100", 0), nil)
		m.accounts.EXPECT().GetForUpdate(gomock.Any(), m.tx, "b").Return(account("b", "0", 0), nil)
		m.accounts.EXPECT().Save(gomock.Any(), m.tx, gomock.Any()).Return(nil).Times(2)
		m.ledger.EXPECT().AppendBatch(gomock.Any(), m.tx, gomock.Any()).Return(nil)

		result, err := m.useCase(nil).TransferToEmail(context.Background(), usecase.TransferToEmailInput{
			FromAccountID:  "a",
			RecipientEmail: "  Bob@Example.com",
			Amount:         domain.MustMoney("40"),
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.NewBalance.String() != "60.00" {
			t.Fatalf("expected 60.00, got %s", result.NewBalance)
		}
	})

	t.Run("unknown recipient", func(t *testing.T) {
		m := newBalanceMocks(t)
		m.directory.EXPECT().ResolveEmail(gomock.Any(), "ghost@example.com").Return("", domain.ErrAccountNotFound)

		_, err := m.useCase(nil).TransferToEmail(context.Background(), usecase.TransferToEmailInput{
			FromAccountID:  "a",
			RecipientEmail: "ghost@example.com",
			Amount:         domain.MustMoney("1"),
		})
		if !errors.Is(err, domain.ErrRecipientNotFound) {
			t.Fatalf("expected ErrRecipientNotFound, got %v", err)
		}
	})

	t.Run("self by email", func(t *testing.T) {
		m := newBalanceMocks(t)
		m.directory.EXPECT().ResolveEmail(gomock.Any(), "a@example.com").Return("a", nil)

		_, err := m.useCase(nil).TransferToEmail(context.Background(), usecase.TransferToEmailInput{
			FromAccountID:  "a",
			RecipientEmail: "a@example.com",
			Amount:         domain.MustMoney("1"),
		})
		if !errors.Is(err, domain.ErrSelfTransferNotAllowed) {
			t.Fatalf("expected ErrSelfTransferNotAllowed, got %v", err)
		}
	})
}

func TestBalanceUseCase_Idempotency(t *testing.T) {
	const key = "deposit:acc-1:req-1"

	t.Run("stores result after commit", func(t *testing.T) {
		m := newBalanceMocks(t)
		m.idem.EXPECT().CheckAndSet(gomock.Any(), key, nil, time.Hour).Return(false, nil, nil)
		m.expectTx(true)
		m.accounts.EXPECT().GetForUpdate(gomock.Any(), m.tx, "acc-1").Return(account("acc-1", "0", 0), nil)
		m.accounts.EXPECT().Save(gomock.Any(), m.tx, gomock.Any()).Return(nil)
		m.ledger.EXPECT().Append(gomock.Any(), m.tx, gomock.Any()).DoAndReturn(
			func(_ context.Context, _ usecase.Transaction, e *domain.LedgerEntry) error {
				e.ID = 7
				return nil
			})
		m.idem.EXPECT().Update(gomock.Any(), key, gomock.Any(), time.Hour).DoAndReturn(
			func(_ context.Context, _ string, data []byte, _ time.Duration) error {
				var stored usecase.OperationResult
				if err := json.Unmarshal(data, &stored); err != nil {
					t.Fatalf("stored result is not json: %v", err)
				}
				if stored.EntryID != 7 || stored.NewBalance.String() != "5.00" {
					t.Fatalf("unexpected stored result: %+v", stored)
				}
				return nil
			})

		uc := m.useCase(nil, usecase.WithIdempotency(m.idem, time.Hour))
		result, err := uc.Deposit(context.Background(), usecase.DepositInput{
			AccountID: "acc-1", Amount: domain.MustMoney("5"), IdempotencyKey: "req-1",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Replayed {
			t.Fatalf("first execution must not be a replay")
		}
	})

	t.Run("replays completed result", func(t *testing.T) {
		m := newBalanceMocks(t)
		m.idem.EXPECT().CheckAndSet(gomock.Any(), key, nil, time.Hour).
			Return(true, []byte(`{"new_balance":"5.00","entry_id":7}`), nil)

		uc := m.useCase(nil, usecase.WithIdempotency(m.idem, time.Hour))
		result, err := uc.Deposit(context.Background(), usecase.DepositInput{
			AccountID: "acc-1", Amount: domain.MustMoney("5"), IdempotencyKey: "req-1",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.Replayed || result.EntryID != 7 || result.NewBalance.String() != "5.00" {
			t.Fatalf("unexpected replay: %+v", result)
		}
	})

	t.Run("rejects in-flight duplicate", func(t *testing.T) {
		m := newBalanceMocks(t)
		m.idem.EXPECT().CheckAndSet(gomock.Any(), key, nil, time.Hour).Return(true, []byte("processing"), nil)

		uc := m.useCase(nil, usecase.WithIdempotency(m.idem, time.Hour))
		_, err := uc.Deposit(context.Background(), usecase.DepositInput{
			AccountID: "acc-1", Amount: domain.MustMoney("5"), IdempotencyKey: "req-1",
		})
		if !errors.Is(err, domain.ErrDuplicateRequest) {
			t.Fatalf("expected ErrDuplicateRequest, got %v", err)
		}
	})

	t.Run("releases key on failure", func(t *testing.T) {
		m := newBalanceMocks(t)
		m.idem.EXPECT().CheckAndSet(gomock.Any(), key, nil, time.Hour).Return(false, nil, nil)
		m.expectTx(false)
		m.accounts.EXPECT().GetForUpdate(gomock.Any(), m.tx, "acc-1").Return(nil, domain.ErrAccountNotFound)
		m.idem.EXPECT().Release(gomock.Any(), key).Return(nil)

		uc := m.useCase(nil, usecase.WithIdempotency(m.idem, time.Hour))
		_, err := uc.Deposit(context.Background(), usecase.DepositInput{
			AccountID: "acc-1", Amount: domain.MustMoney("5"), IdempotencyKey: "req-1",
		})
		if !errors.Is(err, domain.ErrAccountNotFound) {
			t.Fatalf("expected ErrAccountNotFound, got %v", err)
		}
	})

	t.Run("keeps reservation when result store fails", func(t *testing.T) {
		m := newBalanceMocks(t)
		m.idem.EXPECT().CheckAndSet(gomock.Any(), key, nil, time.Hour).Return(false, nil, nil)
		m.expectTx(true)
		m.accounts.EXPECT().GetForUpdate(gomock.Any(), m.tx, "acc-1").Return(account("acc-1", "0", 0), nil)
		m.accounts.EXPECT().Save(gomock.Any(), m.tx, gomock.Any()).Return(nil)
		m.ledger.EXPECT().Append(gomock.Any(), m.tx, gomock.Any()).Return(nil)
		m.idem.EXPECT().Update(gomock.Any(), key, gomock.Any(), time.Hour).Return(errors.New("redis down"))
		m.idem.EXPECT().Release(gomock.Any(), gomock.Any()).Times(0)

		uc := m.useCase(nil, usecase.WithIdempotency(m.idem, time.Hour))
		result, err := uc.Deposit(context.Background(), usecase.DepositInput{
			AccountID: "acc-1", Amount: domain.MustMoney("5"), IdempotencyKey: "req-1",
		})
		if err != nil {
			t.Fatalf("committed deposit must succeed, got %v", err)
		}
		if result.NewBalance.String() != "5.00" {
			t.Fatalf("unexpected balance %s", result.NewBalance)
		}
	})

	t.Run("no key bypasses store", func(t *testing.T) {
		m := newBalanceMocks(t)
		m.expectTx(true)
		m.accounts.EXPECT().GetForUpdate(gomock.Any(), m.tx, "acc-1").Return(account("acc-1", "0", 0), nil)
		m.accounts.EXPECT().Save(gomock.Any(), m.tx, gomock.Any()).Return(nil)
		m.ledger.EXPECT().Append(gomock.Any(), m.tx, gomock.Any()).Return(nil)

		uc := m.useCase(nil, usecase.WithIdempotency(m.idem, time.Hour))
		if _, err := uc.Deposit(context.Background(), usecase.DepositInput{
			AccountID: "acc-1", Amount: domain.MustMoney("5"),
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestBalanceUseCase_ReportsOutcomes(t *testing.T) {
	ctrl := gomock.NewController(t)
	observer := mocks.NewMockObserver(ctrl)
	observer.EXPECT().ObserveOperation(usecase.OperationTransfer, usecase.OutcomeRejected, gomock.Any(), gomock.Any())

	uc := usecase.NewBalanceUseCase(nil, nil, nil, nil, zerolog.Nop(), usecase.WithObserver(observer))
	_, err := uc.Transfer(context.Background(), usecase.TransferInput{
		FromAccountID: "a", ToAccountID: "a", Amount: domain.MustMoney("1"),
	})
	if !errors.Is(err, domain.ErrSelfTransferNotAllowed) {
		t.Fatalf("expected ErrSelfTransferNotAllowed, got %v", err)
	}
}

func fastRetrier(maxRetries int) usecase.Retrier {
	return retry.NewRetrier(retry.Config{
		MaxRetries:      maxRetries,
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
		MaxElapsedTime:  time.Second,
	}, zerolog.Nop())
}
