package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/Veraticus/ledgerly/internal/cli"
	"github.com/Veraticus/ledgerly/internal/common"
	"github.com/Veraticus/ledgerly/internal/model"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func accountsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "accounts",
		Aliases: []string{"account"},
		Short:   "Manage accounts",
		Long: `Create, list, rename and delete accounts.

Balances change only through transactions. An opening balance given to
"accounts add" is recorded as an adjustment dated today.`,
		Example: `  # Add a checking account with money already in it
  ledgerly accounts add Checking --opening 1250.00

  # Add a loan that is not counted in net worth
  ledgerly accounts add "Car loan" --type loan --exclude-net-worth

  # Check stored balances against the transaction history
  ledgerly accounts verify`,
	}

	cmd.AddCommand(listAccountsCmd())
	cmd.AddCommand(addAccountCmd())
	cmd.AddCommand(renameAccountCmd())
	cmd.AddCommand(deleteAccountCmd())
	cmd.AddCommand(verifyAccountsCmd())

	return cmd
}

func listAccountsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List accounts with their balances",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			out := cmd.OutOrStdout()
			result := s.store.GetAllAccounts(ctx)
			if result.Degraded() {
				return fmt.Errorf("failed to load accounts: %w", result.Err)
			}
			if len(result.Rows) == 0 {
				writeln(out, cli.SubtleStyle.Render("No accounts yet. Add one with: ledgerly accounts add <name>"))
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			writeln(w, strings.Join([]string{
				cli.BoldStyle.Render("ID"),
				cli.BoldStyle.Render("NAME"),
				cli.BoldStyle.Render("TYPE"),
				cli.BoldStyle.Render("BALANCE"),
				cli.BoldStyle.Render("NET WORTH"),
			}, "\t"))

			for i := range result.Rows {
				account := &result.Rows[i]
				included := "yes"
				if !account.IncludeInNetWorth {
					included = "no"
				}
				balance := model.FormatAmount(account.DisplayBalance(), account.Unit, account.Precision)
				writef(w, "%d\t%s\t%s\t%s\t%s\n",
					account.ID,
					account.Name,
					account.Type,
					cli.FormatSigned(account.Balance, balance),
					included)
			}
			if err := w.Flush(); err != nil {
				return fmt.Errorf("failed to write table: %w", err)
			}

			writef(out, "\nNet worth: %s\n", cli.BoldStyle.Render(formatAmount(s.engine.NetWorth(ctx))))
			return nil
		},
	}
}

func addAccountCmd() *cobra.Command {
	var (
		accountType string
		opening     string
		currency    string
		precision   int
		exclude     bool
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			account := settings.NewAccount(strings.TrimSpace(args[0]), model.AccountType(accountType))
			if currency != "" {
				account.Unit = strings.ToUpper(currency)
			}
			if cmd.Flags().Changed("precision") {
				account.Precision = precision
			}
			account.IncludeInNetWorth = !exclude

			amount := decimal.Zero
			if opening != "" {
				var err error
				if amount, err = parseAmount(opening); err != nil {
					return err
				}
			}

			s, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			id, err := s.engine.CreateAccount(ctx, account, amount)
			if err != nil {
				return mutationError("add account", err)
			}

			writeln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Added account %q (id %d) with balance %s",
				account.Name, id, model.FormatAmount(amount, account.Unit, account.Precision))))
			return nil
		},
	}

	cmd.Flags().StringVarP(&accountType, "type", "t", string(model.AccountTypeCash), "Account type (cash, loan, virtual)")
	cmd.Flags().StringVar(&opening, "opening", "", "Opening balance")
	cmd.Flags().StringVar(&currency, "currency", "", "ISO currency code (default from ledger.currency)")
	cmd.Flags().IntVar(&precision, "precision", 0, "Display precision (default from ledger.precision)")
	cmd.Flags().BoolVar(&exclude, "exclude-net-worth", false, "Leave this account out of net worth")

	return cmd
}

func renameAccountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <account> <new-name>",
		Short: "Rename an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			account, err := resolveAccount(ctx, s.store, args[0])
			if err != nil {
				return err
			}
			oldName := account.Name
			account.Name = strings.TrimSpace(args[1])

			if err := s.engine.UpdateAccount(ctx, *account); err != nil {
				return mutationError("rename account", err)
			}

			writeln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Renamed %q to %q", oldName, account.Name)))
			return nil
		},
	}
}

func deleteAccountCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <account>",
		Short: "Delete an account and every transaction touching it",
		Long: `Delete an account together with its transactions.

Transfers involving the account are removed as well, which restores the
balance of the other account involved.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			s, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			account, err := resolveAccount(ctx, s.store, args[0])
			if err != nil {
				return err
			}
			related := s.engine.GetTransactionsByAccount(ctx, account.ID)
			if related.Degraded() {
				return fmt.Errorf("failed to load transactions: %w", related.Err)
			}

			writef(out, "%s This will delete account %s and %d transaction(s).\n",
				cli.WarningStyle.Render(cli.WarningIcon),
				cli.InfoStyle.Render(account.Name),
				len(related.Rows))
			ok, err := confirm(cmd, force, "Continue?")
			if err != nil {
				return err
			}
			if !ok {
				writeln(out, cli.SubtleStyle.Render("Deletion cancelled."))
				return nil
			}

			if err := s.engine.DeleteAccount(ctx, account.ID); err != nil {
				return mutationError("delete account", err)
			}

			writeln(out, cli.FormatSuccess(fmt.Sprintf("Deleted account %q", account.Name)))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation prompt")

	return cmd
}

func verifyAccountsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Compare stored balances with the transaction history",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			s, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			drifts, err := s.engine.VerifyBalances(ctx)
			if err != nil {
				return err
			}
			if len(drifts) == 0 {
				writeln(out, cli.FormatSuccess("All balances match their transactions"))
				return nil
			}

			for _, d := range drifts {
				writeln(out, cli.FormatWarning(fmt.Sprintf("%s: stored %s, transactions say %s",
					d.Account.Name,
					model.FormatAmount(d.Stored, d.Account.Unit, d.Account.Precision),
					model.FormatAmount(d.Recomputed, d.Account.Unit, d.Account.Precision))))
			}
			return common.NewUserError(fmt.Sprintf("%d account balance(s) drifted", len(drifts)), nil)
		},
	}
}
