package events

import (
	"context"
	"sync"

	"github.com/Shaxten/nhl-app/models"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChange       EventType = "balance_change"
	EventTypeAccountCreated      EventType = "account_created"
	EventTypeWagerPlaced         EventType = "wager_placed"
	EventTypeWagerSettled        EventType = "wager_settled"
	EventTypeSettlementCompleted EventType = "settlement_completed"
)

// AllEventTypes lists every type the ledger emits
var AllEventTypes = []EventType{
	EventTypeBalanceChange,
	EventTypeAccountCreated,
	EventTypeWagerPlaced,
	EventTypeWagerSettled,
	EventTypeSettlementCompleted,
}

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BalanceChangeEvent represents a balance change that occurred
type BalanceChangeEvent struct {
	UserID          string                 `json:"user_id"`
	OldBalance      int64                  `json:"old_balance"`
	NewBalance      int64                  `json:"new_balance"`
	TransactionType models.TransactionType `json:"transaction_type"`
	ChangeAmount    int64                  `json:"change_amount"`
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// AccountCreatedEvent represents a new account opened by the sign-up hook
type AccountCreatedEvent struct {
	UserID         string `json:"user_id"`
	DisplayName    string `json:"display_name"`
	InitialBalance int64  `json:"initial_balance"`
}

func (e AccountCreatedEvent) Type() EventType {
	return EventTypeAccountCreated
}

// WagerPlacedEvent represents a bet, parlay or staked prediction accepted by intake
type WagerPlacedEvent struct {
	Kind   models.WagerKind `json:"kind"`
	ID     int64            `json:"id"`
	UserID string           `json:"user_id"`
	Amount int64            `json:"amount"`
}

func (e WagerPlacedEvent) Type() EventType {
	return EventTypeWagerPlaced
}

// WagerSettledEvent represents a wager leaving pending
type WagerSettledEvent struct {
	Kind   models.WagerKind   `json:"kind"`
	ID     int64              `json:"id"`
	UserID string             `json:"user_id"`
	Status models.WagerStatus `json:"status"`
	Payout int64              `json:"payout"`
}

func (e WagerSettledEvent) Type() EventType {
	return EventTypeWagerSettled
}

// SettlementCompletedEvent summarises one settlement pass
type SettlementCompletedEvent struct {
	Settled    int     `json:"settled"`
	Refunded   int     `json:"refunded"`
	Deferred   int     `json:"deferred"`
	Conflicts  int     `json:"conflicts"`
	Failures   int     `json:"failures"`
	PaidOut    int64   `json:"paid_out"`
	DurationMs float64 `json:"duration_ms"`
}

func (e SettlementCompletedEvent) Type() EventType {
	return EventTypeSettlementCompleted
}

// NewSettlementCompletedEvent copies the counters of a finished report
func NewSettlementCompletedEvent(report *models.ResolveReport) SettlementCompletedEvent {
	return SettlementCompletedEvent{
		Settled:    report.Settled,
		Refunded:   report.Refunded,
		Deferred:   report.Deferred,
		Conflicts:  report.Conflicts,
		Failures:   report.Failures,
		PaidOut:    report.PaidOut,
		DurationMs: float64(report.FinishedAt.Sub(report.StartedAt).Microseconds()) / 1000,
	}
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	wg       sync.WaitGroup
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Publish lets the bus itself serve as an EventPublisher outside a unit of work
func (b *Bus) Publish(event Event) {
	b.Emit(context.Background(), event)
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event to handlers")

	// Handlers run asynchronously so a slow subscriber never holds up a request
	for i, handler := range handlers {
		b.wg.Add(1)
		go func(h Handler, handlerIndex int) {
			defer b.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// Wait blocks until every handler started so far has returned
func (b *Bus) Wait() {
	b.wg.Wait()
}

// A transactional event bus for holding pending events coupled to the Unit of Work.
// Flushes to the underlying event bus.
type TransactionalBus struct {
	real    *Bus
	pending []Event // stashed until Flush
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	log.WithFields(log.Fields{
		"eventType":    e.Type(),
		"pendingCount": len(b.pending),
	}).Debug("Adding event to transactional bus pending queue")
	b.pending = append(b.pending, e)
}

// Pending returns the events queued so far
func (b *TransactionalBus) Pending() []Event {
	return b.pending
}

// called after successful DB commit
func (b *TransactionalBus) Flush(ctx context.Context) {
	log.WithFields(log.Fields{
		"pendingEventCount": len(b.pending),
	}).Debug("Flushing pending events from transactional bus")

	// Handlers outlive the request that committed the transaction
	eventCtx := context.WithoutCancel(ctx)

	if b.real != nil {
		for _, ev := range b.pending {
			b.real.Emit(eventCtx, ev)
		}
	}
	b.pending = nil
}

// called after db rollback or to clear state.
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
