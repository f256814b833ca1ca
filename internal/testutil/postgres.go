// Package testutil provides a PostgreSQL fixture for integration tests.
package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/infrastructure/postgres"
	"github.com/iho/walletledger/internal/infrastructure/postgres/generated"
)

// DatabaseURLEnv names the variable that enables integration tests.
const DatabaseURLEnv = "LEDGER_TEST_DATABASE_URL"

// TestDB provides a migrated test database connection.
type TestDB struct {
	Pool    *pgxpool.Pool
	Queries *generated.Queries
	t       *testing.T
}

// NewTestDB connects to the database named by LEDGER_TEST_DATABASE_URL and
// applies the embedded migrations. The test is skipped when the variable
// is unset or -short is given.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test")
	}

	dbURL := os.Getenv(DatabaseURLEnv)
	if dbURL == "" {
		t.Skipf("%s not set", DatabaseURLEnv)
	}

	if err := postgres.RunMigrations(dbURL, "", zerolog.Nop()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, dbURL, 20, 2)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	db := &TestDB{
		Pool:    pool,
		Queries: generated.New(pool),
		t:       t,
	}
	t.Cleanup(db.Pool.Close)

	db.TruncateAll(ctx)

	return db
}

// TruncateAll removes all data from tables.
func (db *TestDB) TruncateAll(ctx context.Context) {
	db.t.Helper()

	_, err := db.Pool.Exec(ctx, `TRUNCATE TABLE ledger_entries, accounts RESTART IDENTITY CASCADE`)
	if err != nil {
		db.t.Fatalf("failed to truncate tables: %v", err)
	}
}

// CreateTestAccount inserts a zero-balance account directly.
func (db *TestDB) CreateTestAccount(ctx context.Context, email string) *domain.Account {
	db.t.Helper()

	now := time.Now().UTC()
	id := ulid.Make().String()

	var balance pgtype.Numeric
	_ = balance.Scan("0")

	ts := pgtype.Timestamptz{Time: now, Valid: true}

	_, err := db.Queries.CreateAccount(ctx, generated.CreateAccountParams{
		ID:        id,
		Email:     email,
		Balance:   balance,
		Version:   0,
		CreatedAt: ts,
		UpdatedAt: ts,
	})
	if err != nil {
		db.t.Fatalf("failed to create test account: %v", err)
	}

	return &domain.Account{
		ID:        id,
		Email:     email,
		Balance:   domain.ZeroMoney,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
