package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Veraticus/ledgerly/internal/cli"
	"github.com/Veraticus/ledgerly/internal/ofx"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import transactions from bank files",
	}

	cmd.AddCommand(importOFXCmd())

	return cmd
}

func importOFXCmd() *cobra.Command {
	var (
		account string
		dryRun  bool
	)

	cmd := &cobra.Command{
		Use:   "ofx <files...>",
		Short: "Import transactions from OFX/QFX files",
		Long: `Import statement entries from OFX or QFX (Quicken) files exported from
your bank. Credits become income and debits become expenses on the
chosen account. Entries already on record are skipped.`,
		Example: `  # Import a single file
  ledgerly import ofx ~/Downloads/chase_jan_2024.qfx --account Checking

  # Import all QFX files in a directory
  ledgerly import ofx ~/Downloads/*.qfx --account Checking`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			files, err := expandFiles(args)
			if err != nil {
				return err
			}

			parser := ofx.NewParser()
			var entries []ofx.Entry
			for _, path := range files {
				f, err := os.Open(path)
				if err != nil {
					return fmt.Errorf("failed to open %s: %w", path, err)
				}
				parsed, err := parser.ParseFile(cmd.Context(), f)
				_ = f.Close()
				if err != nil {
					return fmt.Errorf("%s: %w", filepath.Base(path), err)
				}
				slog.Info("Processed file", "file", filepath.Base(path), "entries", len(parsed))
				entries = append(entries, parsed...)
			}

			if len(entries) == 0 {
				writeln(out, cli.FormatWarning("No transactions found in any file"))
				return nil
			}

			if dryRun {
				for _, e := range entries {
					d := e.ToDraft(0)
					writef(out, "%s  %-8s %12s  %s\n", e.Date, d.Type, formatAmount(d.Amount), d.Description)
				}
				writeln(out, cli.FormatInfo(fmt.Sprintf("Dry run: %d entries would be imported", len(entries))))
				return nil
			}

			interrupts := cli.NewInterruptHandler(out, "Import", "Entries recorded so far are kept; run the import again to finish.")
			ctx, stop := interrupts.HandleInterrupts(cmd.Context())
			defer stop()

			s, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			target, err := resolveAccount(ctx, s.store, account)
			if err != nil {
				return err
			}

			bar := progressbar.NewOptions(len(entries),
				progressbar.OptionSetWriter(cmd.ErrOrStderr()),
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowCount(),
				progressbar.OptionSetWidth(40),
				progressbar.OptionSetDescription("[cyan][bold]Importing transactions...[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
			)

			result, err := ofx.Import(ctx, s.engine, target.ID, entries, func() {
				if err := bar.Add(1); err != nil {
					slog.Warn("Failed to update progress bar", "error", err)
				}
			})
			_ = bar.Finish()
			writeln(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			writeln(out, cli.FormatSuccess(fmt.Sprintf("Imported %d transaction(s) into %s, skipped %d",
				result.Imported, target.Name, result.Skipped)))
			return nil
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "Account to import into (id or name)")
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Preview import without saving")
	_ = cmd.MarkFlagRequired("account")

	return cmd
}

// expandFiles resolves glob patterns, keeping plain paths that exist.
func expandFiles(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			if _, err := os.Stat(pattern); err == nil {
				files = append(files, pattern)
			} else {
				slog.Warn("No files found matching pattern", "pattern", pattern)
			}
			continue
		}
		files = append(files, matches...)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no files found to import")
	}
	return files, nil
}
