package usecase_test

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
	"github.com/iho/walletledger/internal/usecase/mocks"
)

func TestAccountUseCase_OpenAccount(t *testing.T) {
	tests := []struct {
		name       string
		email      string
		setupMocks func(*mocks.MockAccountStore, *mocks.MockIDGenerator)
		wantErr    error
	}{
		{
			name:  "successful account creation",
			email: " Alice@Example.COM ",
			setupMocks: func(repo *mocks.MockAccountStore, idGen *mocks.MockIDGenerator) {
				idGen.EXPECT().Generate().Return("01HZX3J6Y0K5V8WQ2N4M7R9T1B")
				repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, account *domain.Account) error {
						if account.Email != "alice@example.com" {
							return errors.New("email not normalized: " + account.Email)
						}
						if !account.Balance.IsZero() || account.Version != 0 {
							return errors.New("new account must start empty")
						}
						return nil
					})
			},
		},
		{
			name:       "invalid email",
			email:      "not-an-email",
			setupMocks: func(*mocks.MockAccountStore, *mocks.MockIDGenerator) {},
			wantErr:    domain.ErrInvalidEmail,
		},
		{
			name:  "email already registered",
			email: "alice@example.com",
			setupMocks: func(repo *mocks.MockAccountStore, idGen *mocks.MockIDGenerator) {
				idGen.EXPECT().Generate().Return("01HZX3J6Y0K5V8WQ2N4M7R9T1B")
				repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(domain.ErrAccountExists)
			},
			wantErr: domain.ErrAccountExists,
		},
		{
			name:  "repository failure",
			email: "alice@example.com",
			setupMocks: func(repo *mocks.MockAccountStore, idGen *mocks.MockIDGenerator) {
				idGen.EXPECT().Generate().Return("01HZX3J6Y0K5V8WQ2N4M7R9T1B")
				repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("connection refused"))
			},
			wantErr: domain.ErrStorage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			repo := mocks.NewMockAccountStore(ctrl)
			idGen := mocks.NewMockIDGenerator(ctrl)
			tt.setupMocks(repo, idGen)

			uc := usecase.NewAccountUseCase(repo, idGen)
			account, err := uc.OpenAccount(context.Background(), usecase.OpenAccountInput{Email: tt.email})

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if account.ID != "01HZX3J6Y0K5V8WQ2N4M7R9T1B" {
				t.Fatalf("expected generated ID, got %s", account.ID)
			}
		})
	}
}

func TestAccountUseCase_GetAccount(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockAccountStore(ctrl)

	repo.EXPECT().Get(gomock.Any(), "acc-1").Return(&domain.Account{
		ID:      "acc-1",
		Email:   "a@example.com",
		Balance: domain.MustMoney("12.34"),
	}, nil)
	repo.EXPECT().Get(gomock.Any(), "missing").Return(nil, domain.ErrAccountNotFound)
	repo.EXPECT().GetByEmail(gomock.Any(), "a@example.com").Return(&domain.Account{ID: "acc-1"}, nil)

	uc := usecase.NewAccountUseCase(repo, nil)

	account, err := uc.GetAccount(context.Background(), "acc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if account.Balance.String() != "12.34" {
		t.Fatalf("expected balance 12.34, got %s", account.Balance)
	}

	if _, err := uc.GetAccount(context.Background(), "missing"); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}

	byEmail, err := uc.GetAccountByEmail(context.Background(), "A@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if byEmail.ID != "acc-1" {
		t.Fatalf("expected acc-1, got %s", byEmail.ID)
	}
}

func TestAccountUseCase_GetBalance(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockAccountStore(ctrl)

	repo.EXPECT().Get(gomock.Any(), "acc-1").Return(&domain.Account{ID: "acc-1", Balance: domain.MustMoney("60")}, nil)
	repo.EXPECT().Get(gomock.Any(), "acc-2").Return(nil, errors.New("connection reset"))

	uc := usecase.NewAccountUseCase(repo, nil)

	balance, err := uc.GetBalance(context.Background(), "acc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if balance.String() != "60.00" {
		t.Fatalf("expected 60.00, got %s", balance)
	}

	if _, err := uc.GetBalance(context.Background(), "acc-2"); !errors.Is(err, domain.ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
}

func TestAccountUseCase_ListAccounts(t *testing.T) {
	tests := []struct {
		name       string
		input      usecase.ListAccountsInput
		wantLimit  int
		wantOffset int
	}{
		{"defaults", usecase.ListAccountsInput{}, 20, 0},
		{"caps limit", usecase.ListAccountsInput{Limit: 1000, Offset: 5}, 100, 5},
		{"negative offset", usecase.ListAccountsInput{Limit: 10, Offset: -3}, 10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			repo := mocks.NewMockAccountStore(ctrl)
			repo.EXPECT().List(gomock.Any(), tt.wantLimit, tt.wantOffset).Return([]*domain.Account{{ID: "a"}}, nil)

			accounts, err := usecase.NewAccountUseCase(repo, nil).ListAccounts(context.Background(), tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(accounts) != 1 {
				t.Fatalf("expected 1 account, got %d", len(accounts))
			}
		})
	}
}
