package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/infrastructure/config"
	"github.com/iho/walletledger/internal/infrastructure/postgres"
	"github.com/iho/walletledger/internal/usecase"
)

var errDiscrepancies = errors.New("reconciliation found discrepancies")

type accountView struct {
	ID        string       `json:"id"`
	Email     string       `json:"email"`
	Balance   domain.Money `json:"balance"`
	Version   int64        `json:"version"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func newAccountView(a *domain.Account) accountView {
	return accountView{
		ID:        a.ID,
		Email:     a.Email,
		Balance:   a.Balance,
		Version:   a.Version,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// validateIDs rejects malformed account ids before the ledger is opened.
func validateIDs(ids ...string) error {
	for _, id := range ids {
		if err := domain.ValidateAccountID(id); err != nil {
			return err
		}
	}
	return nil
}

func newMigrateCmd(c *cli) *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL schema",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := c.loadConfig(cmd); err != nil {
				return err
			}
			if c.cfg.StorageBackend != config.BackendPostgres {
				return fmt.Errorf("migrations require the %s backend", config.BackendPostgres)
			}
			return nil
		},
	}

	migrateCmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return postgres.RunMigrations(c.cfg.DatabaseURL, c.cfg.MigrationsPath, c.logger)
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return postgres.RunMigrationsDown(c.cfg.DatabaseURL, c.cfg.MigrationsPath, c.logger)
			},
		},
	)

	return migrateCmd
}

func newAccountCmd(c *cli) *cobra.Command {
	accountCmd := &cobra.Command{
		Use:   "account",
		Short: "Account operations",
	}

	var email string
	openCmd := &cobra.Command{
		Use:   "open",
		Short: "Open a zero-balance account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ledger, err := c.app(cmd.Context())
			if err != nil {
				return err
			}

			account, err := ledger.Accounts.OpenAccount(cmd.Context(), usecase.OpenAccountInput{Email: email})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), newAccountView(account))
		},
	}
	openCmd.Flags().StringVar(&email, "email", "", "Account owner email")
	openCmd.MarkFlagRequired("email")

	var byEmail string
	showCmd := &cobra.Command{
		Use:   "show [account-id]",
		Short: "Show an account and its balance",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (len(args) == 1) == (byEmail != "") {
				return errors.New("pass either an account id or --email")
			}
			if err := validateIDs(args...); err != nil {
				return err
			}

			ledger, err := c.app(cmd.Context())
			if err != nil {
				return err
			}

			var account *domain.Account
			if byEmail != "" {
				account, err = ledger.Accounts.GetAccountByEmail(cmd.Context(), byEmail)
			} else {
				account, err = ledger.Accounts.GetAccount(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), newAccountView(account))
		},
	}
	showCmd.Flags().StringVar(&byEmail, "email", "", "Look the account up by email")

	accountCmd.AddCommand(openCmd, showCmd)

	return accountCmd
}

func newDepositCmd(c *cli) *cobra.Command {
	var idempotencyKey string

	cmd := &cobra.Command{
		Use:   "deposit <account-id> <amount>",
		Short: "Credit an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateIDs(args[0]); err != nil {
				return err
			}
			amount, err := domain.ParseMoney(args[1])
			if err != nil {
				return err
			}

			ledger, err := c.app(cmd.Context())
			if err != nil {
				return err
			}

			result, err := ledger.Balance.Deposit(cmd.Context(), usecase.DepositInput{
				AccountID:      args[0],
				Amount:         amount,
				IdempotencyKey: idempotencyKey,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVar(&idempotencyKey, "idempotency-key", "", "Deduplicate retries of this request (requires REDIS_URL)")

	return cmd
}

func newTransferCmd(c *cli) *cobra.Command {
	var (
		toID           string
		toEmail        string
		idempotencyKey string
	)

	cmd := &cobra.Command{
		Use:   "transfer <from-account-id> <amount>",
		Short: "Move funds to another account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := []string{args[0]}
			if toID != "" {
				ids = append(ids, toID)
			}
			if err := validateIDs(ids...); err != nil {
				return err
			}
			amount, err := domain.ParseMoney(args[1])
			if err != nil {
				return err
			}

			ledger, err := c.app(cmd.Context())
			if err != nil {
				return err
			}

			var result *usecase.OperationResult
			if toEmail != "" {
				result, err = ledger.Balance.TransferToEmail(cmd.Context(), usecase.TransferToEmailInput{
					FromAccountID:  args[0],
					RecipientEmail: toEmail,
					Amount:         amount,
					IdempotencyKey: idempotencyKey,
				})
			} else {
				result, err = ledger.Balance.Transfer(cmd.Context(), usecase.TransferInput{
					FromAccountID:  args[0],
					ToAccountID:    toID,
					Amount:         amount,
					IdempotencyKey: idempotencyKey,
				})
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVar(&toID, "to", "", "Recipient account id")
	cmd.Flags().StringVar(&toEmail, "to-email", "", "Recipient email")
	cmd.Flags().StringVar(&idempotencyKey, "idempotency-key", "", "Deduplicate retries of this request (requires REDIS_URL)")
	cmd.MarkFlagsOneRequired("to", "to-email")
	cmd.MarkFlagsMutuallyExclusive("to", "to-email")

	return cmd
}

func newHistoryCmd(c *cli) *cobra.Command {
	var page, pageSize int

	cmd := &cobra.Command{
		Use:   "history <account-id>",
		Short: "List an account's ledger entries, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateIDs(args[0]); err != nil {
				return err
			}
			ledger, err := c.app(cmd.Context())
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("page-size") && c.cfg.HistoryDefaultPageSize > 0 {
				pageSize = c.cfg.HistoryDefaultPageSize
			}

			history, err := ledger.History.GetHistory(cmd.Context(), usecase.GetHistoryInput{
				AccountID: args[0],
				Page:      page,
				PageSize:  pageSize,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), history)
		},
	}
	cmd.Flags().IntVar(&page, "page", 0, "Zero-based page number")
	cmd.Flags().IntVar(&pageSize, "page-size", usecase.DefaultHistoryPageSize, "Entries per page")

	return cmd
}

func newReconcileCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile [account-id]",
		Short: "Check balances against the ledger",
		Long:  `Without an account id every account is checked and the command fails if any discrepancy is found.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateIDs(args...); err != nil {
				return err
			}
			ledger, err := c.app(cmd.Context())
			if err != nil {
				return err
			}

			if len(args) == 1 {
				result, err := ledger.Reconciliation.ReconcileAccount(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if err := printJSON(cmd.OutOrStdout(), result); err != nil {
					return err
				}
				if !result.IsReconciled {
					return errDiscrepancies
				}
				return nil
			}

			report, err := ledger.Reconciliation.GenerateReconciliationReport(cmd.Context())
			if err != nil {
				return err
			}
			if err := printJSON(cmd.OutOrStdout(), report); err != nil {
				return err
			}
			if len(report.Discrepancies) > 0 || !report.LedgerConsistent {
				return errDiscrepancies
			}
			return nil
		},
	}
}
