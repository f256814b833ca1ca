package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
	"github.com/iho/walletledger/internal/usecase/mocks"
)

func TestHistoryUseCase_ProjectsCounterparties(t *testing.T) {
	ctrl := gomock.NewController(t)
	accounts := mocks.NewMockAccountStore(ctrl)
	ledger := mocks.NewMockLedgerStore(ctrl)
	directory := mocks.NewMockAccountDirectory(ctrl)

	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	send, _ := domain.NewTransferEntries("me", "bob", domain.MustMoney("5"), at.Add(2*time.Minute))
	_, receive := domain.NewTransferEntries("carol", "me", domain.MustMoney("7"), at.Add(time.Minute))
	deposit := domain.NewDepositEntry("me", domain.MustMoney("100"), at)
	send.ID, receive.ID, deposit.ID = 3, 2, 1

	accounts.EXPECT().Get(gomock.Any(), "me").Return(&domain.Account{ID: "me"}, nil)
	ledger.EXPECT().CountByAccount(gomock.Any(), "me").Return(int64(3), nil)
	ledger.EXPECT().ListByAccount(gomock.Any(), "me", 10, 0).Return([]*domain.LedgerEntry{send, receive, deposit}, nil)
	directory.EXPECT().EmailsByID(gomock.Any(), []string{"bob", "carol"}).Return(map[string]string{
		"bob":   "bob@example.com",
		"carol": "carol@example.com",
	}, nil)

	uc := usecase.NewHistoryUseCase(accounts, ledger, directory, 100)
	page, err := uc.GetHistory(context.Background(), usecase.GetHistoryInput{AccountID: "me", PageSize: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if page.TotalItems != 3 || page.TotalPages != 1 || len(page.Items) != 3 {
		t.Fatalf("unexpected page metadata: %+v", page)
	}

	if got := page.Items[0]; got.Type != domain.EntryTypeSend || got.ToEmail != "bob@example.com" || got.FromEmail != "" {
		t.Fatalf("unexpected send item: %+v", got)
	}
	if got := page.Items[1]; got.Type != domain.EntryTypeReceive || got.FromEmail != "carol@example.com" || got.ToEmail != "" {
		t.Fatalf("unexpected receive item: %+v", got)
	}
	if got := page.Items[2]; got.CounterpartyAccountID != "" || got.ToEmail != "" || got.FromEmail != "" {
		t.Fatalf("deposit must not carry a counterparty: %+v", got)
	}
}

func TestHistoryUseCase_Paging(t *testing.T) {
	tests := []struct {
		name      string
		input     usecase.GetHistoryInput
		setup     func(*mocks.MockAccountStore, *mocks.MockLedgerStore)
		wantErr   error
		wantSize  int
		wantPages int64
	}{
		{
			name:    "negative page",
			input:   usecase.GetHistoryInput{AccountID: "me", Page: -1, PageSize: 10},
			setup:   func(*mocks.MockAccountStore, *mocks.MockLedgerStore) {},
			wantErr: domain.ErrInvalidPagination,
		},
		{
			name:    "zero page size",
			input:   usecase.GetHistoryInput{AccountID: "me", PageSize: 0},
			setup:   func(*mocks.MockAccountStore, *mocks.MockLedgerStore) {},
			wantErr: domain.ErrInvalidPagination,
		},
		{
			name:  "unknown account",
			input: usecase.GetHistoryInput{AccountID: "ghost", PageSize: 10},
			setup: func(accounts *mocks.MockAccountStore, _ *mocks.MockLedgerStore) {
				accounts.EXPECT().Get(gomock.Any(), "ghost").Return(nil, domain.ErrAccountNotFound)
			},
			wantErr: domain.ErrAccountNotFound,
		},
		{
			name:  "past the end",
			input: usecase.GetHistoryInput{AccountID: "me", Page: 5, PageSize: 10},
			setup: func(accounts *mocks.MockAccountStore, ledger *mocks.MockLedgerStore) {
				accounts.EXPECT().Get(gomock.Any(), "me").Return(&domain.Account{ID: "me"}, nil)
				ledger.EXPECT().CountByAccount(gomock.Any(), "me").Return(int64(12), nil)
			},
			wantSize:  10,
			wantPages: 2,
		},
		{
			name:  "page size capped",
			input: usecase.GetHistoryInput{AccountID: "me", Page: 1, PageSize: 500},
			setup: func(accounts *mocks.MockAccountStore, ledger *mocks.MockLedgerStore) {
				accounts.EXPECT().Get(gomock.Any(), "me").Return(&domain.Account{ID: "me"}, nil)
				ledger.EXPECT().CountByAccount(gomock.Any(), "me").Return(int64(120), nil)
				ledger.EXPECT().ListByAccount(gomock.Any(), "me", 50, 50).Return([]*domain.LedgerEntry{}, nil)
			},
			wantSize:  50,
			wantPages: 3,
		},
		{
			name:  "count fails",
			input: usecase.GetHistoryInput{AccountID: "me", PageSize: 10},
			setup: func(accounts *mocks.MockAccountStore, ledger *mocks.MockLedgerStore) {
				accounts.EXPECT().Get(gomock.Any(), "me").Return(&domain.Account{ID: "me"}, nil)
				ledger.EXPECT().CountByAccount(gomock.Any(), "me").Return(int64(0), errors.New("broken pipe"))
			},
			wantErr: domain.ErrStorage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			accounts := mocks.NewMockAccountStore(ctrl)
			ledger := mocks.NewMockLedgerStore(ctrl)
			tt.setup(accounts, ledger)

			uc := usecase.NewHistoryUseCase(accounts, ledger, mocks.NewMockAccountDirectory(ctrl), 50)
			page, err := uc.GetHistory(context.Background(), tt.input)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if page.Items == nil || len(page.Items) != 0 {
				t.Fatalf("expected empty non-nil items, got %v", page.Items)
			}
			if page.PageSize != tt.wantSize || page.TotalPages != tt.wantPages {
				t.Fatalf("unexpected page metadata: %+v", page)
			}
		})
	}
}
