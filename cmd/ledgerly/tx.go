package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/Veraticus/ledgerly/internal/cli"
	"github.com/Veraticus/ledgerly/internal/common"
	"github.com/Veraticus/ledgerly/internal/ledger"
	"github.com/Veraticus/ledgerly/internal/model"
	"github.com/Veraticus/ledgerly/internal/service"
	"github.com/spf13/cobra"
)

func txCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tx",
		Aliases: []string{"transactions"},
		Short:   "Record, edit and list transactions",
		Example: `  # Lunch paid from the wallet
  ledgerly tx add --type expense --amount 12.50 --account Wallet --category Dining

  # Move savings
  ledgerly tx add --type transfer --amount 200 --account Checking --to Savings

  # Everything in January
  ledgerly tx list --from 2024-01-01 --to 2024-01-31`,
	}

	cmd.AddCommand(addTxCmd())
	cmd.AddCommand(editTxCmd())
	cmd.AddCommand(deleteTxCmd())
	cmd.AddCommand(listTxCmd())

	return cmd
}

// txFlags are shared by add and edit.
type txFlags struct {
	txType      string
	amount      string
	account     string
	to          string
	category    string
	description string
	date        string
}

func (f *txFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.txType, "type", "t", "", "income, expense, transfer, borrow, repay or adjust")
	cmd.Flags().StringVarP(&f.amount, "amount", "a", "", "Amount")
	cmd.Flags().StringVar(&f.account, "account", "", "Account id or name")
	cmd.Flags().StringVar(&f.to, "to", "", "Destination account for transfers")
	cmd.Flags().StringVarP(&f.category, "category", "c", "", "Category label")
	cmd.Flags().StringVarP(&f.description, "description", "d", "", "Free-form description")
	cmd.Flags().StringVar(&f.date, "date", "", "Date (default today)")
}

func addTxCmd() *cobra.Command {
	var flags txFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a transaction",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			amount, err := parseAmount(flags.amount)
			if err != nil {
				return err
			}

			s, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			account, err := resolveAccount(ctx, s.store, flags.account)
			if err != nil {
				return err
			}
			draft := ledger.Draft{
				Type:        model.TransactionType(flags.txType),
				Amount:      amount,
				AccountID:   account.ID,
				Category:    flags.category,
				Description: flags.description,
			}
			if flags.date != "" {
				draft.Date = flags.date
			}
			if flags.to != "" {
				to, err := resolveAccount(ctx, s.store, flags.to)
				if err != nil {
					return err
				}
				draft.ToAccountID = to.ID
			}

			id, err := s.engine.CreateTransaction(ctx, draft)
			if err != nil {
				return mutationError("record transaction", err)
			}

			writeln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Recorded %s of %s (id %d)",
				draft.Type, model.FormatAmount(amount, account.Unit, account.Precision), id)))
			return nil
		},
	}

	flags.register(cmd)
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("account")

	return cmd
}

func editTxCmd() *cobra.Command {
	var flags txFlags

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of a transaction",
		Long: `Change fields of a transaction. Only the flags given are changed;
balances are moved from the old values to the new ones in one step.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			s, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			txn, err := s.engine.GetTransactionByID(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to load transaction: %w", err)
			}
			if txn == nil {
				return common.NewUserError(fmt.Sprintf("transaction %d not found", id), common.ErrNotFound)
			}

			changed := cmd.Flags().Changed
			if changed("type") {
				txn.Type = model.TransactionType(flags.txType)
			}
			if changed("amount") {
				if txn.Amount, err = parseAmount(flags.amount); err != nil {
					return err
				}
			}
			if changed("account") {
				account, err := resolveAccount(ctx, s.store, flags.account)
				if err != nil {
					return err
				}
				txn.AccountID = account.ID
			}
			if changed("to") {
				to, err := resolveAccount(ctx, s.store, flags.to)
				if err != nil {
					return err
				}
				txn.ToAccountID = to.ID
				txn.PeerAccountID = 0
			}
			if changed("category") {
				txn.Category = flags.category
			}
			if changed("description") {
				txn.Description = flags.description
			}
			if changed("date") {
				txn.Date = flags.date
			}

			if err := s.engine.UpdateTransaction(ctx, *txn); err != nil {
				return mutationError("update transaction", err)
			}

			writeln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Updated transaction %d", id)))
			return nil
		},
	}

	flags.register(cmd)

	return cmd
}

func deleteTxCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a transaction and reverse its balance effects",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			s, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.engine.DeleteTransaction(ctx, id); err != nil {
				return mutationError("delete transaction", err)
			}

			writeln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Deleted transaction %d", id)))
			return nil
		},
	}
}

func listTxCmd() *cobra.Command {
	var (
		from     string
		to       string
		txType   string
		category string
		account  string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			s, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			var result service.QueryResult[model.Transaction]
			switch {
			case from != "" || to != "":
				if from == "" {
					from = to
				}
				if to == "" {
					to = from
				}
				result = s.engine.GetTransactionsByDateRange(ctx, from, to)
			case txType != "":
				result = s.engine.GetTransactionsByType(ctx, model.TransactionType(txType))
			case category != "":
				result = s.engine.GetTransactionsByCategory(ctx, category)
			default:
				result = s.engine.GetAllTransactions(ctx)
			}
			if result.Degraded() {
				writeln(out, cli.FormatWarning("Transactions could not be read: "+result.Err.Error()))
				return nil
			}

			var accountID int64
			if account != "" {
				acct, err := resolveAccount(ctx, s.store, account)
				if err != nil {
					return err
				}
				accountID = acct.ID
			}

			names := make(map[int64]string)
			for _, a := range s.store.GetAllAccounts(ctx).Rows {
				names[a.ID] = a.Name
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			writeln(w, strings.Join([]string{
				cli.BoldStyle.Render("ID"),
				cli.BoldStyle.Render("DATE"),
				cli.BoldStyle.Render("TYPE"),
				cli.BoldStyle.Render("AMOUNT"),
				cli.BoldStyle.Render("ACCOUNT"),
				cli.BoldStyle.Render("CATEGORY"),
				cli.BoldStyle.Render("DESCRIPTION"),
			}, "\t"))

			shown := 0
			for i := range result.Rows {
				txn := &result.Rows[i]
				if txType != "" && string(txn.Type) != txType {
					continue
				}
				if category != "" && txn.Category != category {
					continue
				}
				if accountID != 0 && !txn.References(accountID) {
					continue
				}

				accountLabel := names[txn.AccountID]
				if txn.Type == model.TypeTransfer {
					accountLabel += " → " + names[txn.Destination()]
				}
				writef(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
					txn.ID, txn.Date, txn.Type, formatAmount(txn.Amount), accountLabel, txn.Category, txn.Description)
				shown++
			}
			if err := w.Flush(); err != nil {
				return fmt.Errorf("failed to write table: %w", err)
			}

			writeln(out, cli.SubtleStyle.Render(fmt.Sprintf("%d transaction(s)", shown)))
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "First day to include")
	cmd.Flags().StringVar(&to, "to", "", "Last day to include")
	cmd.Flags().StringVarP(&txType, "type", "t", "", "Only this transaction type")
	cmd.Flags().StringVarP(&category, "category", "c", "", "Only this category")
	cmd.Flags().StringVar(&account, "account", "", "Only transactions touching this account")

	return cmd
}
