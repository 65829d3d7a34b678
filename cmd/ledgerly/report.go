package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/ledgerly/internal/cli"
	"github.com/Veraticus/ledgerly/internal/datekey"
	"github.com/Veraticus/ledgerly/internal/ledger"
	"github.com/spf13/cobra"
)

func reportCmd() *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize income and expenses by category",
		Long: `Summarize income and expenses by category for a date range.
The range defaults to the current month up to today.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if from == "" {
				now := time.Now()
				from = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.Local).Format(datekey.Layout)
			}
			if to == "" {
				to = datekey.Today()
			}
			if _, ok := datekey.ParseKey(from); !ok {
				return fmt.Errorf("invalid --from date %q", from)
			}
			if _, ok := datekey.ParseKey(to); !ok {
				return fmt.Errorf("invalid --to date %q", to)
			}

			s, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			summary := s.engine.SummarizeByCategory(ctx, from, to)
			writeln(cmd.OutOrStdout(), renderSummary(summary))
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "First day (default first of this month)")
	cmd.Flags().StringVar(&to, "to", "", "Last day (default today)")

	return cmd
}

func renderSummary(summary ledger.Summary) string {
	var b strings.Builder

	section := func(title string, totals []ledger.CategoryTotal) {
		b.WriteString(cli.BoldStyle.Render(title) + "\n")
		if len(totals) == 0 {
			b.WriteString(cli.SubtleStyle.Render("  none") + "\n")
			return
		}
		for _, ct := range totals {
			fmt.Fprintf(&b, "  %-22s %14s  %s\n", ct.Category, formatAmount(ct.Amount), cli.SubtleStyle.Render(fmt.Sprintf("(%d)", ct.Count)))
		}
	}

	section("Income", summary.Income)
	b.WriteString("\n")
	section("Expenses", summary.Expenses)
	b.WriteString("\n")

	fmt.Fprintf(&b, "%-24s %14s\n", "Total income", formatAmount(summary.TotalIncome))
	fmt.Fprintf(&b, "%-24s %14s\n", "Total expenses", formatAmount(summary.TotalExpenses))
	fmt.Fprintf(&b, "%-24s %s\n", "Net", cli.FormatSigned(summary.Net, fmt.Sprintf("%14s", formatAmount(summary.Net))))
	if !summary.TransferTotal.IsZero() {
		fmt.Fprintf(&b, "%-24s %14s\n", "Transferred", formatAmount(summary.TransferTotal))
	}
	if summary.Degraded {
		b.WriteString("\n" + cli.FormatWarning("Transactions could not be read; totals may be incomplete"))
	}

	title := fmt.Sprintf("%s %s to %s", cli.ChartIcon, summary.Start, summary.End)
	return cli.RenderBox(title, strings.TrimRight(b.String(), "\n"))
}
