// Package postgres stores placed orders in a PostgreSQL ledger table.
//
// Usage:
//
//	store, err := postgres.New(ctx, dsn)
//	if err != nil { … }
//	defer store.Close()
//	_ = store.Record(ctx, placed)
package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MrWong99/orderbot/internal/orderlog"
)

const ddlPlacedOrders = `
CREATE TABLE IF NOT EXISTS placed_orders (
    id             UUID         PRIMARY KEY,
    order_id       TEXT         NOT NULL,
    restaurant     TEXT         NOT NULL,
    lines          JSONB        NOT NULL,
    total          INTEGER      NOT NULL,
    payment_method TEXT         NOT NULL DEFAULT '',
    address        TEXT         NOT NULL DEFAULT '',
    placed_at      TIMESTAMPTZ  NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_placed_orders_order_id
    ON placed_orders (order_id);

CREATE INDEX IF NOT EXISTS idx_placed_orders_restaurant_placed_at
    ON placed_orders (restaurant, placed_at DESC);
`

// Migrate creates the ledger table and its indexes. It is idempotent.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, ddlPlacedOrders); err != nil {
		return fmt.Errorf("postgres migrate: %w", err)
	}
	return nil
}

// Store is an [orderlog.Sink] writing to the placed_orders table. It is safe
// for concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

var _ orderlog.Sink = (*Store)(nil)

// New connects to dsn, checks the connection and runs [Migrate].
func New(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres orderlog: parse dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres orderlog: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres orderlog: ping: %w", err)
	}
	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres orderlog: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Record implements [orderlog.Sink].
func (s *Store) Record(ctx context.Context, p orderlog.Placed) error {
	const q = `
		INSERT INTO placed_orders
		    (id, order_id, restaurant, lines, total, payment_method, address, placed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	lines, err := json.Marshal(p.Lines)
	if err != nil {
		return fmt.Errorf("postgres orderlog: marshal lines: %w", err)
	}
	_, err = s.pool.Exec(ctx, q,
		p.ID,
		p.OrderID,
		p.Restaurant,
		lines,
		p.Total,
		p.PaymentMethod,
		p.Address,
		p.PlacedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres orderlog: record %s: %w", p.OrderID, err)
	}
	return nil
}

// Recent returns up to limit records for restaurant, newest first. An empty
// restaurant matches all.
func (s *Store) Recent(ctx context.Context, restaurant string, limit int) ([]orderlog.Placed, error) {
	const q = `
		SELECT id, order_id, restaurant, lines, total, payment_method, address, placed_at
		FROM   placed_orders
		WHERE  $1 = '' OR restaurant = $1
		ORDER  BY placed_at DESC
		LIMIT  $2`

	rows, err := s.pool.Query(ctx, q, restaurant, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres orderlog: recent: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (orderlog.Placed, error) {
		var (
			p     orderlog.Placed
			lines []byte
		)
		if err := row.Scan(&p.ID, &p.OrderID, &p.Restaurant, &lines, &p.Total,
			&p.PaymentMethod, &p.Address, &p.PlacedAt); err != nil {
			return p, err
		}
		if err := json.Unmarshal(lines, &p.Lines); err != nil {
			return p, fmt.Errorf("decode lines: %w", err)
		}
		return p, nil
	})
	if err != nil {
		return nil, fmt.Errorf("postgres orderlog: recent: %w", err)
	}
	return out, nil
}

// Ping implements [orderlog.Sink].
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres orderlog: ping: %w", err)
	}
	return nil
}

// Close implements [orderlog.Sink].
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
