package postgres

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrator applies the schema migrations. With an empty path the
// migrations embedded in the binary are used.
type Migrator struct {
	databaseURL    string
	migrationsPath string
	logger         zerolog.Logger
}

// NewMigrator creates a new Migrator.
func NewMigrator(databaseURL, migrationsPath string, logger zerolog.Logger) *Migrator {
	return &Migrator{
		databaseURL:    databaseURL,
		migrationsPath: migrationsPath,
		logger:         logger,
	}
}

func (m *Migrator) open() (*migrate.Migrate, error) {
	var (
		mg  *migrate.Migrate
		err error
	)

	if m.migrationsPath != "" {
		mg, err = migrate.New("file://"+m.migrationsPath, m.databaseURL)
	} else {
		source, srcErr := iofs.New(migrationsFS, "migrations")
		if srcErr != nil {
			return nil, fmt.Errorf("failed to open embedded migrations: %w", srcErr)
		}
		mg, err = migrate.NewWithSourceInstance("iofs", source, m.databaseURL)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	return mg, nil
}

// Up applies all pending migrations.
func (m *Migrator) Up() error {
	mg, err := m.open()
	if err != nil {
		return err
	}
	defer mg.Close()

	if err := mg.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.logger.Info().Msg("database migrations: no change")
			return nil
		}
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	m.logger.Info().Msg("database migrations: applied successfully")
	return nil
}

// Down rolls back the last migration.
func (m *Migrator) Down() error {
	mg, err := m.open()
	if err != nil {
		return err
	}
	defer mg.Close()

	if err := mg.Steps(-1); err != nil {
		return fmt.Errorf("failed to rollback migration: %w", err)
	}

	m.logger.Info().Msg("database migrations: rolled back successfully")
	return nil
}

// Version reports the applied schema version.
func (m *Migrator) Version() (uint, bool, error) {
	mg, err := m.open()
	if err != nil {
		return 0, false, err
	}
	defer mg.Close()

	version, dirty, err := mg.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

// RunMigrations applies all pending migrations.
func RunMigrations(databaseURL, migrationsPath string, logger zerolog.Logger) error {
	return NewMigrator(databaseURL, migrationsPath, logger).Up()
}

// RunMigrationsDown rolls back the last migration.
func RunMigrationsDown(databaseURL, migrationsPath string, logger zerolog.Logger) error {
	return NewMigrator(databaseURL, migrationsPath, logger).Down()
}
