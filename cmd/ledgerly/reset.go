package main

import (
	"errors"
	"fmt"

	"github.com/Veraticus/ledgerly/internal/cli"
	"github.com/Veraticus/ledgerly/internal/storage"
	"github.com/spf13/cobra"
)

func resetCmd() *cobra.Command {
	var (
		force        bool
		noCheckpoint bool
	)

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all accounts, transactions and categories",
		Long: `Reset empties the ledger and restores the default categories.

This is a destructive operation. An automatic checkpoint is taken first
unless --no-checkpoint is given; restore it with "ledgerly checkpoint restore".`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			count, err := store.CountTransactions(ctx)
			if err != nil {
				return fmt.Errorf("failed to count transactions: %w", err)
			}
			accounts := store.GetAllAccounts(ctx)

			writef(out, "%s This will delete %d account(s) and %d transaction(s).\n",
				cli.WarningStyle.Render(cli.WarningIcon), len(accounts.Rows), count)
			ok, err := confirm(cmd, force, "Are you sure you want to continue?")
			if err != nil {
				return err
			}
			if !ok {
				writeln(out, cli.SubtleStyle.Render("Reset canceled."))
				return nil
			}

			if !noCheckpoint {
				manager, err := store.NewCheckpointManager()
				switch {
				case errors.Is(err, storage.ErrInMemoryDatabase):
				case err != nil:
					return fmt.Errorf("failed to create checkpoint manager: %w", err)
				default:
					info, err := manager.AutoCheckpoint(ctx, "reset")
					if err != nil {
						return err
					}
					writeln(out, cli.FormatInfo("Saved checkpoint "+info.ID))
				}
			}

			if err := store.ClearAll(ctx); err != nil {
				return fmt.Errorf("failed to reset ledger: %w", err)
			}

			writeln(out, cli.FormatSuccess("Ledger reset; default categories restored"))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation prompt")
	cmd.Flags().BoolVar(&noCheckpoint, "no-checkpoint", false, "Do not take a checkpoint first")

	return cmd
}
