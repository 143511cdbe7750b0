// Package product serves the read-only catalog: products, the rolls each one can be cut
// from, and the shipping methods on offer.
package product

import (
	"context"
	"fmt"

	"printshop-commerce/internal/domain"
	"printshop-commerce/internal/repository/store"
)

type Service struct {
	store store.Store
}

func New(st store.Store) *Service {
	return &Service{store: st}
}

// Detail is a product with its assignable rolls.
type Detail struct {
	domain.Product
	Rolls []domain.Roll `json:"rolls"`
}

func (s *Service) List(ctx context.Context) ([]domain.Product, error) {
	var out []domain.Product
	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		out, err = tx.Catalog().ListProducts(ctx, true)
		return err
	})
	if out == nil {
		out = []domain.Product{}
	}
	return out, err
}

// Get returns an active product. Inactive products are reported as not found.
func (s *Service) Get(ctx context.Context, id string) (*Detail, error) {
	var out *Detail
	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		p, err := tx.Catalog().GetProduct(ctx, id)
		if err != nil {
			return err
		}
		if !p.Active {
			return domain.ErrNotFound
		}
		rolls, err := tx.Catalog().ListRollsForProduct(ctx, id)
		if err != nil {
			return fmt.Errorf("list rolls: %w", err)
		}
		if rolls == nil {
			rolls = []domain.Roll{}
		}
		out = &Detail{Product: *p, Rolls: rolls}
		return nil
	})
	return out, err
}

func (s *Service) ShippingMethods(ctx context.Context) ([]domain.ShippingMethod, error) {
	var out []domain.ShippingMethod
	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		out, err = tx.Catalog().ListShippingMethods(ctx)
		return err
	})
	if out == nil {
		out = []domain.ShippingMethod{}
	}
	return out, err
}
