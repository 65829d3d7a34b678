package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/ledgerly/internal/cli"
	"github.com/Veraticus/ledgerly/internal/common"
	"github.com/Veraticus/ledgerly/internal/events"
	"github.com/Veraticus/ledgerly/internal/ledger"
	"github.com/Veraticus/ledgerly/internal/model"
	"github.com/Veraticus/ledgerly/internal/service"
	"github.com/Veraticus/ledgerly/internal/storage"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var openRetry = service.RetryOptions{
	MaxAttempts:  3,
	InitialDelay: 100 * time.Millisecond,
	MaxDelay:     time.Second,
	Multiplier:   2,
}

// openStorage opens the configured database without migrating it.
func openStorage() (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(settings.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return store, nil
}

// initStorage opens the configured database and brings its schema up to
// date. A database locked by another process is retried briefly.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	store, err := openStorage()
	if err != nil {
		return nil, err
	}

	err = common.WithRetry(ctx, func() error {
		return store.Migrate(ctx)
	}, openRetry)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// session bundles what most commands need.
type session struct {
	store  *storage.SQLiteStorage
	bus    *events.Bus
	engine *ledger.Engine
}

func openSession(ctx context.Context) (*session, error) {
	store, err := initStorage(ctx)
	if err != nil {
		return nil, err
	}

	bus := events.NewBus()
	bus.Subscribe(events.KindDataRefreshed, func(events.Event) {
		slog.Debug("Ledger data refreshed")
	})

	return &session{
		store:  store,
		bus:    bus,
		engine: ledger.New(store, bus),
	}, nil
}

func (s *session) Close() {
	s.bus.Clear()
	if err := s.store.Close(); err != nil {
		slog.Warn("Failed to close database", "error", err)
	}
}

// resolveAccount finds an account by id or by case-insensitive name.
func resolveAccount(ctx context.Context, store service.Storage, ref string) (*model.Account, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, common.NewUserError("an account is required", common.ErrInvalidReference)
	}

	result := store.GetAllAccounts(ctx)
	if result.Degraded() {
		return nil, fmt.Errorf("failed to load accounts: %w", result.Err)
	}

	id, idErr := strconv.ParseInt(ref, 10, 64)
	for i := range result.Rows {
		account := &result.Rows[i]
		if idErr == nil && account.ID == id {
			return account, nil
		}
		if strings.EqualFold(account.Name, ref) {
			return account, nil
		}
	}
	return nil, common.NewUserError(fmt.Sprintf("account %q not found", ref), common.ErrNotFound)
}

func parseAmount(s string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, common.NewUserError(fmt.Sprintf("%q is not an amount", s), common.ErrInvalidAmount)
	}
	return amount, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, common.NewUserError(fmt.Sprintf("%q is not a valid id", s), common.ErrNotFound)
	}
	return id, nil
}

// confirm asks on the command's streams unless force is set.
func confirm(cmd *cobra.Command, force bool, question string) (bool, error) {
	if force {
		return true, nil
	}
	ok, err := cli.Confirm(cmd.Context(), cli.NewNonBlockingReader(cmd.InOrStdin()), cmd.OutOrStdout(), question)
	if errors.Is(err, cli.ErrInputCancelled) {
		return false, nil
	}
	return ok, err
}

// formatAmount renders amount in the configured ledger currency.
func formatAmount(amount decimal.Decimal) string {
	return model.FormatAmount(amount, settings.Ledger.Currency, settings.Ledger.Precision)
}

func writeln(w io.Writer, a ...any) {
	if _, err := fmt.Fprintln(w, a...); err != nil {
		slog.Error("failed to write output", "error", err)
	}
}

func writef(w io.Writer, format string, a ...any) {
	if _, err := fmt.Fprintf(w, format, a...); err != nil {
		slog.Error("failed to write output", "error", err)
	}
}

func formatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}

func formatRelativeTime(t time.Time) string {
	duration := time.Since(t)

	switch {
	case duration < time.Minute:
		return "just now"
	case duration < time.Hour:
		minutes := int(duration.Minutes())
		if minutes == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", minutes)
	case duration < 24*time.Hour:
		hours := int(duration.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	case duration < 7*24*time.Hour:
		days := int(duration.Hours() / 24)
		if days == 1 {
			return "yesterday"
		}
		return fmt.Sprintf("%d days ago", days)
	default:
		return t.Format("2006-01-02 15:04")
	}
}

// mutationError reports a failed write. Rejected input keeps its detail;
// anything else asks the user to retry.
func mutationError(action string, err error) error {
	if common.IsValidationError(err) ||
		errors.Is(err, common.ErrImmutableRecord) ||
		errors.Is(err, common.ErrNotFound) {
		return fmt.Errorf("failed to %s: %w", action, err)
	}
	return common.NewUserError("operation failed, please retry", fmt.Errorf("%s: %w", action, err))
}
