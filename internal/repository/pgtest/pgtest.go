// Package pgtest provides the shared Postgres fixture for repository integration tests.
package pgtest

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"printshop-commerce/internal/migrate"
)

// Pool connects to TEST_DB_DSN, applies migrations and truncates every table. Tests
// are skipped when TEST_DB_DSN is unset.
func Pool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	Reset(ctx, t, pool)
	return pool
}

// Reset empties all application tables.
func Reset(ctx context.Context, t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	const q = `
TRUNCATE order_events, order_adjustments, order_lines, orders, document_sequences,
         offer_usages, offer_products, offers,
         cart_adjustments, cart_lines, carts,
         guest_customers, customers, anonymous_sessions,
         shipping_methods, tax_rates, product_rolls, rolls, products
RESTART IDENTITY CASCADE`
	if _, err := pool.Exec(ctx, q); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}
