// Package store runs repository work inside a single database transaction.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"printshop-commerce/internal/db"
	"printshop-commerce/internal/repository/cart"
	"printshop-commerce/internal/repository/catalog"
	"printshop-commerce/internal/repository/customer"
	"printshop-commerce/internal/repository/offer"
	"printshop-commerce/internal/repository/order"
)

// Tx exposes repositories bound to one transaction.
type Tx interface {
	Carts() cart.Repository
	Catalog() catalog.Repository
	Offers() offer.Repository
	Orders() order.Repository
	Customers() customer.Repository
}

// Store is the unit of work. fn's repositories share one transaction that commits when
// fn returns nil and rolls back otherwise.
type Store interface {
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

type postgresStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresStore{pool: pool, logger: logger}
}

type pgTx struct {
	tx     pgx.Tx
	logger *zap.Logger
}

func (t pgTx) Carts() cart.Repository         { return cart.NewPostgres(t.tx, t.logger) }
func (t pgTx) Catalog() catalog.Repository    { return catalog.NewPostgres(t.tx, t.logger) }
func (t pgTx) Offers() offer.Repository       { return offer.NewPostgres(t.tx, t.logger) }
func (t pgTx) Orders() order.Repository       { return order.NewPostgres(t.tx, t.logger) }
func (t pgTx) Customers() customer.Repository { return customer.NewPostgres(t.tx, t.logger) }

func (s *postgresStore) InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			s.logger.Warn("store: rollback", zap.Error(rbErr))
		}
	}()

	if err := fn(ctx, pgTx{tx: tx, logger: s.logger}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", db.Translate(err))
	}
	return nil
}
