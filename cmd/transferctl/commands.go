package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/baharkarakas/insider-transfers/internal/auth"
	"github.com/baharkarakas/insider-transfers/internal/db"
	"github.com/baharkarakas/insider-transfers/internal/models"
	"github.com/baharkarakas/insider-transfers/internal/repository"
	"github.com/baharkarakas/insider-transfers/internal/services"
)

func (c *cli) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return db.RunMigrations(c.cfg.DatabaseURL)
		},
	}
}

func (c *cli) seedCmd() *cobra.Command {
	var (
		count    int
		balance  string
		password string
		domain   string
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Bulk insert demo accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			bal, err := decimal.NewFromString(balance)
			if err != nil {
				return fmt.Errorf("balance: %w", err)
			}
			accounts, err := seedAccounts(count, bal, password, domain)
			if err != nil {
				return err
			}

			pool, repos, err := c.store(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			n, err := repos.Accounts.BulkCreate(cmd.Context(), accounts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d accounts\n", n)
			return nil
		},
	}
	fs := cmd.Flags()
	fs.IntVar(&count, "count", 10, "Number of accounts")
	fs.StringVar(&balance, "balance", "100000", "Opening balance of each account")
	fs.StringVar(&password, "password", "password123", "Password shared by seeded accounts")
	fs.StringVar(&domain, "domain", "seed.local", "Email domain of seeded accounts")
	return cmd
}

// seedAccounts builds count accounts named user<N>@domain sharing one
// password hash.
func seedAccounts(count int, balance decimal.Decimal, password, domain string) ([]models.Account, error) {
	if count <= 0 {
		return nil, fmt.Errorf("count must be > 0")
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	out := make([]models.Account, 0, count)
	for i := 1; i <= count; i++ {
		a := models.Account{
			Email:         fmt.Sprintf("user%d@%s", i, domain),
			AccountNumber: services.NewAccountNumber(),
			PasswordHash:  hash,
			Role:          models.RoleUser,
			Balance:       balance.Round(models.MoneyScale),
		}
		if err := a.Validate(); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (c *cli) accountsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "accounts", Short: "Manage accounts"}

	var email, password, role, balance string
	create := &cobra.Command{
		Use:   "create",
		Short: "Provision an account with an opening balance",
		RunE: func(cmd *cobra.Command, args []string) error {
			bal, err := decimal.NewFromString(balance)
			if err != nil {
				return fmt.Errorf("balance: %w", err)
			}
			pool, repos, err := c.store(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			svc := services.NewAccountService(repos.Accounts, nil)
			a, err := svc.Provision(cmd.Context(), email, password, role, bal)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), a)
		},
	}
	fs := create.Flags()
	fs.StringVar(&email, "email", "", "Account email")
	fs.StringVar(&password, "password", "", "Account password")
	fs.StringVar(&role, "role", models.RoleUser, "Role (user|admin)")
	fs.StringVar(&balance, "balance", "0", "Opening balance")
	_ = create.MarkFlagRequired("email")
	_ = create.MarkFlagRequired("password")

	cmd.AddCommand(create)
	return cmd
}

func (c *cli) transfersCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "transfers", Short: "Inspect and decide transfer requests"}

	var accountID int64
	var limit, offset int
	list := &cobra.Command{
		Use:   "list",
		Short: "List transfers touching an account, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, repos, err := c.store(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			out, err := c.transferService(repos).ListTransfers(cmd.Context(), accountID, repository.Page{Limit: limit, Offset: offset})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	list.Flags().Int64Var(&accountID, "account-id", 0, "Account id")
	list.Flags().IntVar(&limit, "limit", 50, "Page size")
	list.Flags().IntVar(&offset, "offset", 0, "Page offset")
	_ = list.MarkFlagRequired("account-id")

	var from, to int64
	var amount string
	create := &cobra.Command{
		Use:   "create",
		Short: "Submit a transfer on behalf of an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			amt, err := models.ParseAmount(amount)
			if err != nil {
				return fmt.Errorf("amount: %w", err)
			}
			pool, repos, err := c.store(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			t, err := c.transferService(repos).CreateTransfer(cmd.Context(), from, to, amt)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), t)
		},
	}
	create.Flags().Int64Var(&from, "from", 0, "Origin account id")
	create.Flags().Int64Var(&to, "to", 0, "Destination account id")
	create.Flags().StringVar(&amount, "amount", "", "Amount, at most two decimals")
	_ = create.MarkFlagRequired("from")
	_ = create.MarkFlagRequired("to")
	_ = create.MarkFlagRequired("amount")

	cmd.AddCommand(
		list,
		create,
		c.decideCmd("approve", "Approve a pending transfer", (*services.TransferService).ApproveTransfer),
		c.decideCmd("reject", "Reject a pending transfer", (*services.TransferService).RejectTransfer),
	)
	return cmd
}

type decision func(*services.TransferService, context.Context, int64) (models.TransferRequest, error)

func (c *cli) decideCmd(use, short string, decide decision) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid transfer id %q", args[0])
			}
			pool, repos, err := c.store(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			t, err := decide(c.transferService(repos), cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), t)
		},
	}
}
