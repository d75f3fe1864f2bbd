// Package orderlog records placed orders outside the conversation.
//
// Conversations are stateless on the server: the caller round-trips the
// session context every turn. Once an order is placed, the dialogue engine
// hands a [Placed] record to a [Sink] so that kitchens, analytics and audits
// see it. Sinks are best-effort; a failing sink never changes the reply the
// customer gets.
//
// Implementations:
//
//   - [MemSink] keeps records in memory (tests, demos).
//   - orderlog/postgres appends to a PostgreSQL ledger table.
//   - orderlog/kafka publishes order-placed events to a Kafka topic.
package orderlog

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrWong99/orderbot/internal/order"
	"github.com/MrWong99/orderbot/internal/resilience"
)

// Placed is a confirmed order.
type Placed struct {
	// ID uniquely identifies the record.
	ID uuid.UUID `json:"id"`

	// OrderID is the identifier shown to the customer, e.g. "ORDER12345".
	OrderID string `json:"order_id"`

	// Restaurant is the restaurant key.
	Restaurant string `json:"restaurant"`

	Lines         []order.Line `json:"lines"`
	Total         int          `json:"total"`
	PaymentMethod string       `json:"payment_method"`
	Address       string       `json:"address"`
	PlacedAt      time.Time    `json:"placed_at"`
}

// NewPlaced builds a record with a fresh ID and the current time. The lines
// are copied and the total is computed from them.
func NewPlaced(orderID, restaurant string, lines []order.Line, paymentMethod, address string) Placed {
	return Placed{
		ID:            uuid.New(),
		OrderID:       orderID,
		Restaurant:    restaurant,
		Lines:         slices.Clone(lines),
		Total:         order.Total(lines),
		PaymentMethod: paymentMethod,
		Address:       address,
		PlacedAt:      time.Now().UTC(),
	}
}

// Sink receives placed orders. Implementations must be safe for concurrent
// use.
type Sink interface {
	// Record stores p.
	Record(ctx context.Context, p Placed) error

	// Ping reports whether the sink can currently accept records.
	Ping(ctx context.Context) error

	// Close releases resources held by the sink.
	Close() error
}

// MemSink is an in-memory [Sink].
type MemSink struct {
	mu      sync.Mutex
	records []Placed

	// Err, if set, is returned by Record and Ping.
	Err error
}

var _ Sink = (*MemSink)(nil)

// Record implements [Sink].
func (m *MemSink) Record(_ context.Context, p Placed) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.records = append(m.records, p)
	return nil
}

// Ping implements [Sink].
func (m *MemSink) Ping(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Err
}

// Close implements [Sink].
func (m *MemSink) Close() error { return nil }

// Records returns a copy of the stored records in arrival order.
func (m *MemSink) Records() []Placed {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.records)
}

// Guarded wraps a [Sink] in a circuit breaker so a dead backend is not hit on
// every placed order.
type Guarded struct {
	sink    Sink
	breaker *resilience.CircuitBreaker
}

var _ Sink = (*Guarded)(nil)

// Guard returns s behind a breaker configured by cfg.
func Guard(s Sink, cfg resilience.CircuitBreakerConfig) *Guarded {
	return &Guarded{sink: s, breaker: resilience.NewCircuitBreaker(cfg)}
}

// Record implements [Sink]. It returns [resilience.ErrCircuitOpen] while the
// breaker is open.
func (g *Guarded) Record(ctx context.Context, p Placed) error {
	if err := g.breaker.Execute(ctx, func(ctx context.Context) error {
		return g.sink.Record(ctx, p)
	}); err != nil {
		return fmt.Errorf("orderlog: record %s: %w", p.OrderID, err)
	}
	return nil
}

// Ping implements [Sink]. An open breaker reports unhealthy without touching
// the backend.
func (g *Guarded) Ping(ctx context.Context) error {
	if g.breaker.State() == resilience.StateOpen {
		return resilience.ErrCircuitOpen
	}
	return g.sink.Ping(ctx)
}

// Close implements [Sink].
func (g *Guarded) Close() error { return g.sink.Close() }

// State returns the breaker state.
func (g *Guarded) State() resilience.State { return g.breaker.State() }
