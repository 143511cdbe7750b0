package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"printshop-commerce/internal/domain"
)

type cartRepo struct{ st *state }

func (r cartRepo) GetOpen(_ context.Context, owner domain.CartOwner) (*domain.Cart, error) {
	if owner.IsZero() {
		return nil, domain.ErrNotFound
	}
	for _, c := range r.st.carts {
		if c.Status == domain.CartOpen && c.Owner.Equal(owner) {
			out := copyCart(c)
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r cartRepo) GetOrCreateOpen(ctx context.Context, owner domain.CartOwner, currency string) (*domain.Cart, error) {
	if owner.IsZero() {
		return nil, fmt.Errorf("%w: cart owner required", domain.ErrConflict)
	}
	c, err := r.GetOpen(ctx, owner)
	if err == nil {
		return c, nil
	}
	now := time.Now().UTC()
	created := domain.Cart{
		ID:        uuid.NewString(),
		Owner:     owner,
		Currency:  currency,
		Status:    domain.CartOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.st.carts[created.ID] = created
	out := copyCart(created)
	return &out, nil
}

func (r cartRepo) Save(_ context.Context, c *domain.Cart) error {
	if _, ok := r.st.carts[c.ID]; !ok {
		return domain.ErrNotFound
	}
	if c.Status == domain.CartOpen {
		for id, other := range r.st.carts {
			if id != c.ID && other.Status == domain.CartOpen && other.Owner.Equal(c.Owner) {
				return fmt.Errorf("%w: open cart for owner", domain.ErrAlreadyExists)
			}
		}
	}
	now := time.Now().UTC()
	// Re-parented rows leave their previous cart.
	for id, other := range r.st.carts {
		if id == c.ID {
			continue
		}
		changed := false
		kept := other.Lines[:0:0]
		for _, l := range other.Lines {
			if c.Line(l.ID) != nil {
				changed = true
				continue
			}
			kept = append(kept, l)
		}
		keptAdj := other.Adjustments[:0:0]
		for _, a := range other.Adjustments {
			if hasAdjustment(c, a.ID) {
				changed = true
				continue
			}
			keptAdj = append(keptAdj, a)
		}
		if changed {
			other.Lines = kept
			other.Adjustments = keptAdj
			r.st.carts[id] = other
		}
	}
	for i := range c.Lines {
		c.Lines[i].CartID = c.ID
		if c.Lines[i].CreatedAt.IsZero() {
			c.Lines[i].CreatedAt = now
		}
		c.Lines[i].UpdatedAt = now
	}
	for i := range c.Adjustments {
		c.Adjustments[i].CartID = c.ID
		if c.Adjustments[i].CreatedAt.IsZero() {
			c.Adjustments[i].CreatedAt = now
		}
	}
	c.UpdatedAt = now
	r.st.carts[c.ID] = copyCart(*c)
	return nil
}

func hasAdjustment(c *domain.Cart, id string) bool {
	for _, a := range c.Adjustments {
		if a.ID == id {
			return true
		}
	}
	return false
}

func (r cartRepo) LineCartID(_ context.Context, lineID string) (string, error) {
	for _, c := range r.st.carts {
		if c.Line(lineID) != nil {
			return c.ID, nil
		}
	}
	return "", domain.ErrNotFound
}

type catalogRepo struct{ st *state }

func (r catalogRepo) ListProducts(_ context.Context, activeOnly bool) ([]domain.Product, error) {
	var out []domain.Product
	for _, p := range r.st.products {
		if activeOnly && !p.Active {
			continue
		}
		out = append(out, copyProduct(p))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r catalogRepo) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	p, ok := r.st.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := copyProduct(p)
	return &out, nil
}

func (r catalogRepo) GetRoll(_ context.Context, id string) (*domain.Roll, error) {
	roll, ok := r.st.rolls[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &roll, nil
}

func (r catalogRepo) ListRollsForProduct(_ context.Context, productID string) ([]domain.Roll, error) {
	p, ok := r.st.products[productID]
	if !ok {
		return nil, nil
	}
	var out []domain.Roll
	for _, id := range p.RollIDs {
		if roll, ok := r.st.rolls[id]; ok {
			out = append(out, roll)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WidthIn.LessThan(out[j].WidthIn) })
	return out, nil
}

func (r catalogRepo) ActiveTaxRates(_ context.Context) ([]domain.TaxRate, error) {
	var out []domain.TaxRate
	for _, t := range r.st.taxRates {
		if t.Active {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r catalogRepo) GetShippingMethod(_ context.Context, code string) (*domain.ShippingMethod, error) {
	m, ok := r.st.shipping[code]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &m, nil
}

func (r catalogRepo) ListShippingMethods(_ context.Context) ([]domain.ShippingMethod, error) {
	var out []domain.ShippingMethod
	for _, m := range r.st.shipping {
		if m.Active {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r catalogRepo) UpsertProduct(_ context.Context, p domain.Product) (*domain.Product, error) {
	for id, existing := range r.st.products {
		if existing.SKU == p.SKU {
			p.ID = id
			p.RollIDs = existing.RollIDs
			p.CreatedAt = existing.CreatedAt
		}
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
		p.CreatedAt = time.Now().UTC()
	}
	if p.PricingMethod == "" {
		p.PricingMethod = domain.PricingStandard
	}
	r.st.products[p.ID] = copyProduct(p)
	out := copyProduct(p)
	return &out, nil
}

func (r catalogRepo) UpsertRoll(_ context.Context, roll domain.Roll) (*domain.Roll, error) {
	for id, existing := range r.st.rolls {
		if existing.Name == roll.Name {
			roll.ID = id
			roll.CreatedAt = existing.CreatedAt
		}
	}
	if roll.ID == "" {
		roll.ID = uuid.NewString()
		roll.CreatedAt = time.Now().UTC()
	}
	r.st.rolls[roll.ID] = roll
	return &roll, nil
}

func (r catalogRepo) AssignRoll(_ context.Context, productID, rollID string) error {
	p, ok := r.st.products[productID]
	if !ok {
		return domain.ErrIntegrity
	}
	if _, ok := r.st.rolls[rollID]; !ok {
		return domain.ErrIntegrity
	}
	if p.AcceptsRoll(rollID) {
		return nil
	}
	p.RollIDs = append(append([]string(nil), p.RollIDs...), rollID)
	r.st.products[productID] = p
	return nil
}

func (r catalogRepo) UpsertTaxRate(_ context.Context, rate domain.TaxRate) error {
	if existing, ok := r.st.taxRates[rate.Name]; ok {
		rate.ID = existing.ID
	}
	if rate.ID == "" {
		rate.ID = uuid.NewString()
	}
	r.st.taxRates[rate.Name] = rate
	return nil
}

func (r catalogRepo) UpsertShippingMethod(_ context.Context, m domain.ShippingMethod) error {
	r.st.shipping[m.Code] = m
	return nil
}

type offerRepo struct{ st *state }

func (r offerRepo) GetByCode(_ context.Context, code string) (*domain.Offer, error) {
	o, ok := r.st.offers[domain.NormalizeOfferCode(code)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := copyOffer(o)
	return &out, nil
}

func (r offerRepo) LockUsage(_ context.Context, offerID, identity string) (*domain.OfferUsage, error) {
	key := usageKey{offerID, identity}
	u, ok := r.st.usages[key]
	if !ok {
		u = domain.OfferUsage{OfferID: offerID, Identity: identity, UpdatedAt: time.Now().UTC()}
		r.st.usages[key] = u
	}
	return &u, nil
}

func (r offerRepo) IncrementUsage(ctx context.Context, offerID, identity string) (*domain.OfferUsage, error) {
	u, _ := r.LockUsage(ctx, offerID, identity)
	u.TimesUsed++
	u.UpdatedAt = time.Now().UTC()
	r.st.usages[usageKey{offerID, identity}] = *u
	return u, nil
}

func (r offerRepo) Upsert(_ context.Context, o domain.Offer) (*domain.Offer, error) {
	o.Code = domain.NormalizeOfferCode(o.Code)
	if existing, ok := r.st.offers[o.Code]; ok {
		o.ID = existing.ID
		o.CreatedAt = existing.CreatedAt
	}
	if o.ID == "" {
		o.ID = uuid.NewString()
		o.CreatedAt = time.Now().UTC()
	}
	if o.Status == "" {
		o.Status = domain.OfferActive
	}
	r.st.offers[o.Code] = copyOffer(o)
	out := copyOffer(o)
	return &out, nil
}

type orderRepo struct{ st *state }

func (r orderRepo) NextSequence(_ context.Context, prefix string, day time.Time, start int, _ time.Duration) (int, error) {
	key := prefix + "|" + day.Format("2006-01-02")
	last, ok := r.st.sequences[key]
	next := start
	if ok {
		next = last + 1
	}
	r.st.sequences[key] = next
	return next, nil
}

func (r orderRepo) Create(_ context.Context, o *domain.Order) error {
	for _, existing := range r.st.orders {
		if existing.DocumentNumber == o.DocumentNumber {
			return fmt.Errorf("%w: document number %s", domain.ErrAlreadyExists, o.DocumentNumber)
		}
	}
	now := time.Now().UTC()
	o.CreatedAt = now
	o.UpdatedAt = now
	for i := range o.Lines {
		o.Lines[i].OrderID = o.ID
	}
	for i := range o.Adjustments {
		o.Adjustments[i].OrderID = o.ID
	}
	r.st.orders[o.ID] = copyOrder(*o)
	return nil
}

func (r orderRepo) GetByID(_ context.Context, id string) (*domain.Order, error) {
	o, ok := r.st.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := copyOrder(o)
	return &out, nil
}

func (r orderRepo) GetForUpdate(ctx context.Context, id string) (*domain.Order, error) {
	return r.GetByID(ctx, id)
}

func (r orderRepo) UpdateStatus(_ context.Context, id string, status domain.DocumentStatus) error {
	o, ok := r.st.orders[id]
	if !ok {
		return domain.ErrNotFound
	}
	o.Status = status
	o.UpdatedAt = time.Now().UTC()
	r.st.orders[id] = o
	return nil
}

func (r orderRepo) AddEvent(_ context.Context, ev domain.OrderEvent) error {
	r.st.events = append(r.st.events, ev)
	return nil
}

func (r orderRepo) ListEvents(_ context.Context, orderID string) ([]domain.OrderEvent, error) {
	var out []domain.OrderEvent
	for _, ev := range r.st.events {
		if ev.OrderID == orderID {
			out = append(out, ev)
		}
	}
	return out, nil
}

type customerRepo struct{ st *state }

func (r customerRepo) Create(_ context.Context, c domain.Customer) (*domain.Customer, error) {
	c.Email = strings.ToLower(c.Email)
	for _, existing := range r.st.customers {
		if existing.Email == c.Email {
			return nil, domain.ErrAlreadyExists
		}
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Role == "" {
		c.Role = domain.RoleCustomer
	}
	c.CreatedAt = time.Now().UTC()
	r.st.customers[c.ID] = c
	return &c, nil
}

func (r customerRepo) GetByEmail(_ context.Context, email string) (*domain.Customer, error) {
	for _, c := range r.st.customers {
		if strings.EqualFold(c.Email, email) {
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r customerRepo) GetByID(_ context.Context, id string) (*domain.Customer, error) {
	c, ok := r.st.customers[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

func (r customerRepo) CreateGuest(_ context.Context, g domain.Guest) (*domain.Guest, error) {
	g.ID = uuid.NewString()
	g.Email = strings.ToLower(g.Email)
	g.CreatedAt = time.Now().UTC()
	r.st.guests[g.ID] = g
	return &g, nil
}

func (r customerRepo) GetGuest(_ context.Context, id string) (*domain.Guest, error) {
	g, ok := r.st.guests[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &g, nil
}
