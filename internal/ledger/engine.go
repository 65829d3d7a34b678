// Package ledger keeps account balances consistent with the transactions
// recorded against them.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/ledgerly/internal/common"
	"github.com/Veraticus/ledgerly/internal/events"
	"github.com/Veraticus/ledgerly/internal/service"
)

// Engine applies transaction mutations and their balance effects as one
// unit of work. Callers serialize mutating calls.
type Engine struct {
	store service.Storage
	bus   *events.Bus
	now   func() time.Time
	retry service.RetryOptions
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces the clock used for timestamps and the default date.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithRetry sets the retry policy applied when the database is busy.
func WithRetry(opts service.RetryOptions) Option {
	return func(e *Engine) {
		e.retry = opts
	}
}

// New creates an engine over store. bus may be nil, in which case nothing
// is published.
func New(store service.Storage, bus *events.Bus, opts ...Option) *Engine {
	e := &Engine{
		store: store,
		bus:   bus,
		now:   time.Now,
		retry: service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: 50 * time.Millisecond,
			MaxDelay:     time.Second,
			Multiplier:   2,
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// inTx runs fn inside a store transaction and commits it. Any error rolls
// back every write fn made. Busy databases are retried from scratch.
func (e *Engine) inTx(ctx context.Context, fn func(tx service.Transaction) error) error {
	return common.WithRetry(ctx, func() error {
		tx, err := e.store.BeginTx(ctx)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}

		committed := false
		defer func() {
			if !committed {
				if rbErr := tx.Rollback(); rbErr != nil {
					slog.Debug("rollback after failure", "error", rbErr)
				}
			}
		}()

		if err := fn(tx); err != nil {
			return err
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}
		committed = true
		return nil
	}, e.retry)
}

func (e *Engine) publish(evts ...events.Event) {
	if e.bus == nil {
		return
	}
	for _, evt := range evts {
		e.bus.Publish(evt)
	}
}
