package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/iho/walletledger/internal/app"
	"github.com/iho/walletledger/internal/infrastructure/config"
	"github.com/iho/walletledger/internal/infrastructure/logger"
)

// cli carries state shared by every command.
type cli struct {
	cfg    *config.Config
	logger zerolog.Logger
	ledger *app.App

	backend     string
	databaseURL string
	logLevel    string
}

func main() {
	c := &cli{}
	if err := newRootCmd(c).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(c *cli) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "walletledger",
		Short:         "WalletLedger operator CLI",
		Long:          `A command line interface for operating the WalletLedger balance engine.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.ledger != nil {
				c.ledger.Close()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&c.backend, "backend", "", "Storage backend (postgres or memory), overrides STORAGE_BACKEND")
	rootCmd.PersistentFlags().StringVar(&c.databaseURL, "database-url", "", "PostgreSQL URL, overrides DATABASE_URL")
	rootCmd.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "Log level, overrides LOG_LEVEL")

	rootCmd.AddCommand(
		newMigrateCmd(c),
		newAccountCmd(c),
		newDepositCmd(c),
		newTransferCmd(c),
		newHistoryCmd(c),
		newReconcileCmd(c),
	)

	return rootCmd
}

// loadConfig reads the environment and applies flag overrides. A
// preconfigured cli is left alone.
func (c *cli) loadConfig(cmd *cobra.Command) error {
	if c.cfg != nil {
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if c.backend != "" {
		cfg.StorageBackend = c.backend
	}
	if c.databaseURL != "" {
		cfg.DatabaseURL = c.databaseURL
	}
	if c.logLevel != "" {
		cfg.LogLevel = c.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	c.cfg = cfg
	c.logger = logger.NewWithWriter(logger.Config{Level: cfg.LogLevel, Format: "console"}, cmd.ErrOrStderr())

	return nil
}

// app connects to storage on first use.
func (c *cli) app(ctx context.Context) (*app.App, error) {
	if c.ledger != nil {
		return c.ledger, nil
	}

	ledger, err := app.New(ctx, c.cfg, c.logger, nil)
	if err != nil {
		return nil, err
	}
	c.ledger = ledger

	return ledger, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
