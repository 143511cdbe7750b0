// Package memory is an in-process Store used by service tests and local development.
// Every transaction holds one store-wide lock and works on a private copy that is
// swapped in on commit, so concurrent callers observe the same serialization a
// row-locking database would give them.
package memory

import (
	"context"
	"sync"

	"printshop-commerce/internal/domain"
	"printshop-commerce/internal/repository/cart"
	"printshop-commerce/internal/repository/catalog"
	"printshop-commerce/internal/repository/customer"
	"printshop-commerce/internal/repository/offer"
	"printshop-commerce/internal/repository/order"
	"printshop-commerce/internal/repository/store"
)

type state struct {
	products  map[string]domain.Product
	rolls     map[string]domain.Roll
	taxRates  map[string]domain.TaxRate
	shipping  map[string]domain.ShippingMethod
	customers map[string]domain.Customer
	guests    map[string]domain.Guest
	carts     map[string]domain.Cart
	offers    map[string]domain.Offer
	usages    map[usageKey]domain.OfferUsage
	orders    map[string]domain.Order
	events    []domain.OrderEvent
	sequences map[string]int
}

type usageKey struct {
	offerID  string
	identity string
}

func newState() *state {
	return &state{
		products:  map[string]domain.Product{},
		rolls:     map[string]domain.Roll{},
		taxRates:  map[string]domain.TaxRate{},
		shipping:  map[string]domain.ShippingMethod{},
		customers: map[string]domain.Customer{},
		guests:    map[string]domain.Guest{},
		carts:     map[string]domain.Cart{},
		offers:    map[string]domain.Offer{},
		usages:    map[usageKey]domain.OfferUsage{},
		orders:    map[string]domain.Order{},
		sequences: map[string]int{},
	}
}

func (s *state) clone() *state {
	out := newState()
	for k, v := range s.products {
		out.products[k] = copyProduct(v)
	}
	for k, v := range s.rolls {
		out.rolls[k] = v
	}
	for k, v := range s.taxRates {
		out.taxRates[k] = v
	}
	for k, v := range s.shipping {
		out.shipping[k] = v
	}
	for k, v := range s.customers {
		out.customers[k] = v
	}
	for k, v := range s.guests {
		out.guests[k] = v
	}
	for k, v := range s.carts {
		out.carts[k] = copyCart(v)
	}
	for k, v := range s.offers {
		out.offers[k] = copyOffer(v)
	}
	for k, v := range s.usages {
		out.usages[k] = v
	}
	for k, v := range s.orders {
		out.orders[k] = copyOrder(v)
	}
	out.events = append([]domain.OrderEvent(nil), s.events...)
	for k, v := range s.sequences {
		out.sequences[k] = v
	}
	return out
}

// Store implements store.Store in memory.
type Store struct {
	mu sync.Mutex
	st *state
}

func New() *Store {
	return &Store{st: newState()}
}

var _ store.Store = (*Store)(nil)

func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	work := s.st.clone()
	if err := fn(ctx, &memTx{st: work}); err != nil {
		return err
	}
	s.st = work
	return nil
}

// DeleteProduct removes a product outside any transaction, the way the catalog owner
// might while carts still reference it.
func (s *Store) DeleteProduct(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.st.products, id)
}

type memTx struct {
	st *state
}

func (t *memTx) Carts() cart.Repository         { return cartRepo{t.st} }
func (t *memTx) Catalog() catalog.Repository    { return catalogRepo{t.st} }
func (t *memTx) Offers() offer.Repository       { return offerRepo{t.st} }
func (t *memTx) Orders() order.Repository       { return orderRepo{t.st} }
func (t *memTx) Customers() customer.Repository { return customerRepo{t.st} }

func copyProduct(p domain.Product) domain.Product {
	p.RollIDs = append([]string(nil), p.RollIDs...)
	return p
}

func copyOffer(o domain.Offer) domain.Offer {
	o.ProductIDs = append([]string(nil), o.ProductIDs...)
	return o
}

func copyCart(c domain.Cart) domain.Cart {
	c.Lines = append([]domain.CartLine(nil), c.Lines...)
	c.Adjustments = append([]domain.Adjustment(nil), c.Adjustments...)
	return c
}

func copyOrder(o domain.Order) domain.Order {
	o.Lines = append([]domain.OrderLine(nil), o.Lines...)
	o.Adjustments = append([]domain.OrderAdjustment(nil), o.Adjustments...)
	return o
}
