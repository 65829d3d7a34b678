// Package events is the in-process change notification channel. Dispatch is
// synchronous: handlers run in registration order, each to completion,
// before Publish returns.
package events

import (
	"fmt"
	"sync"

	"github.com/Veraticus/ledgerly/internal/model"
)

// Kind enumerates the events the ledger announces.
type Kind int

const (
	// KindTransactionAdded follows a committed create.
	KindTransactionAdded Kind = iota + 1
	// KindTransactionUpdated follows a committed update.
	KindTransactionUpdated
	// KindTransactionDeleted follows a committed delete.
	KindTransactionDeleted
	// KindAccountUpdated follows an edit of account metadata.
	KindAccountUpdated
	// KindDataRefreshed follows any balance-affecting change.
	KindDataRefreshed
)

func (k Kind) String() string {
	switch k {
	case KindTransactionAdded:
		return "transaction.added"
	case KindTransactionUpdated:
		return "transaction.updated"
	case KindTransactionDeleted:
		return "transaction.deleted"
	case KindAccountUpdated:
		return "account.updated"
	case KindDataRefreshed:
		return "data.refreshed"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Event is implemented by every payload type.
type Event interface {
	Kind() Kind
}

// TransactionAdded carries the stored record and its new id.
type TransactionAdded struct {
	Transaction model.Transaction
	ID          int64
}

// TransactionUpdated carries the record as persisted after the update.
type TransactionUpdated struct {
	Transaction model.Transaction
}

// TransactionDeleted carries the id of the removed record.
type TransactionDeleted struct {
	ID int64
}

// AccountUpdated carries the account after a metadata edit.
type AccountUpdated struct {
	Account model.Account
}

// DataRefreshed tells views to re-fetch everything.
type DataRefreshed struct{}

// Kind implements Event.
func (TransactionAdded) Kind() Kind { return KindTransactionAdded }

// Kind implements Event.
func (TransactionUpdated) Kind() Kind { return KindTransactionUpdated }

// Kind implements Event.
func (TransactionDeleted) Kind() Kind { return KindTransactionDeleted }

// Kind implements Event.
func (AccountUpdated) Kind() Kind { return KindAccountUpdated }

// Kind implements Event.
func (DataRefreshed) Kind() Kind { return KindDataRefreshed }

// Handler receives published events.
type Handler func(Event)

// Subscription identifies a registered handler.
type Subscription struct {
	kind Kind
	id   uint64
}

type registration struct {
	handler Handler
	id      uint64
}

// Bus is a synchronous publish/subscribe channel. The zero value is not
// usable; construct it with NewBus.
type Bus struct {
	handlers map[Kind][]registration
	nextID   uint64
	mu       sync.Mutex
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{handlers: make(map[Kind][]registration)}
}

// Subscribe registers h for events of kind k.
func (b *Bus) Subscribe(k Kind, h Handler) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	b.handlers[k] = append(b.handlers[k], registration{id: b.nextID, handler: h})
	return Subscription{kind: k, id: b.nextID}
}

// Unsubscribe removes a handler. Unknown subscriptions are ignored.
func (b *Bus) Unsubscribe(s Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	regs := b.handlers[s.kind]
	for i, r := range regs {
		if r.id == s.id {
			// Copy so an in-flight Publish keeps iterating its own snapshot.
			next := make([]registration, 0, len(regs)-1)
			next = append(next, regs[:i]...)
			next = append(next, regs[i+1:]...)
			b.handlers[s.kind] = next
			return
		}
	}
}

// Publish delivers e to every handler subscribed to its kind.
func (b *Bus) Publish(e Event) {
	b.mu.Lock()
	regs := b.handlers[e.Kind()]
	b.mu.Unlock()

	for _, r := range regs {
		r.handler(e)
	}
}

// Clear removes every subscription.
func (b *Bus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = make(map[Kind][]registration)
}
