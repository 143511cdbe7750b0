// Package checkout converts carts and staff-assembled line lists into numbered orders
// and estimates, and moves those documents through their audited statuses.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"printshop-commerce/internal/domain"
	"printshop-commerce/internal/pricing"
	"printshop-commerce/internal/repository/store"
	offersvc "printshop-commerce/internal/service/offer"
)

type Config struct {
	OrderPrefix    string
	EstimatePrefix string
	// SequenceStart is the first number handed out each day.
	SequenceStart int
	// LockTimeout bounds the wait for the day's sequence row.
	LockTimeout time.Duration
	// Location decides which calendar day a document is numbered under.
	Location *time.Location
	Currency string
}

func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.OrderPrefix) == "" {
		c.OrderPrefix = "ORD"
	}
	if strings.TrimSpace(c.EstimatePrefix) == "" {
		c.EstimatePrefix = "EST"
	}
	if c.SequenceStart < 1 {
		c.SequenceStart = 1
	}
	if c.LockTimeout <= 0 {
		c.LockTimeout = 5 * time.Second
	}
	if c.Location == nil {
		c.Location = time.UTC
	}
	if strings.TrimSpace(c.Currency) == "" {
		c.Currency = "USD"
	}
	return c
}

type Service struct {
	store  store.Store
	offers *offersvc.Service
	cfg    Config
	logger *zap.Logger
	now    func() time.Time
}

func New(st store.Store, offers *offersvc.Service, cfg Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if offers == nil {
		offers = offersvc.New(logger)
	}
	return &Service{
		store:  st,
		offers: offers,
		cfg:    cfg.withDefaults(),
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

type GuestInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type Input struct {
	Kind   domain.DocumentKind `json:"kind,omitempty"`
	Intent domain.Intent       `json:"intent,omitempty"`
	// GrandTotal is what the client believes the total is. It is only compared.
	GrandTotal *decimal.Decimal `json:"grand_total,omitempty"`
	Notes      string           `json:"notes,omitempty"`
	Guest      *GuestInput      `json:"guest,omitempty"`
}

type Result struct {
	OrderID        string        `json:"order_id"`
	DocumentNumber string        `json:"document_number"`
	Totals         domain.Totals `json:"totals"`
}

// Checkout converts the caller's open cart. Every line is priced again from the current
// catalog, shipping and offers are re-validated, and the order, its number and the
// emptied cart are written in one transaction.
func (s *Service) Checkout(ctx context.Context, actor domain.Actor, in Input) (*Result, error) {
	kind, status, err := parseIntent(in.Kind, in.Intent)
	if err != nil {
		return nil, err
	}
	if actor.Owner.IsZero() {
		return nil, fmt.Errorf("%w: checkout needs a cart owner", domain.ErrConflict)
	}

	var result *Result
	err = s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		c, err := tx.Carts().GetOpen(ctx, actor.Owner)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NewValidationError("cart", "cart is empty")
		}
		if err != nil {
			return fmt.Errorf("load cart: %w", err)
		}
		if len(c.Lines) == 0 {
			return domain.NewValidationError("cart", "cart is empty")
		}

		products, err := s.repriceCart(ctx, tx, c)
		if err != nil {
			return err
		}
		if err := s.revalidateShipping(ctx, tx, c); err != nil {
			return err
		}
		if err := s.offers.Revalidate(ctx, tx, c); err != nil {
			return err
		}
		rates, err := tx.Catalog().ActiveTaxRates(ctx)
		if err != nil {
			return fmt.Errorf("load tax rates: %w", err)
		}
		totals := c.Recompute(rates)
		if in.GrandTotal != nil && !in.GrandTotal.Equal(totals.GrandTotal) {
			s.logger.Warn("checkout: client total differs from computed total",
				zap.String("cart_id", c.ID),
				zap.String("client_total", in.GrandTotal.String()),
				zap.String("computed_total", totals.GrandTotal.StringFixed(2)),
			)
		}

		customer, err := s.cartCustomer(ctx, tx, actor, in.Guest)
		if err != nil {
			return err
		}

		order := snapshot(c, products, totals)
		order.Kind = kind
		order.Status = status
		order.Customer = customer
		order.SourceCartID = &c.ID
		order.Notes = strings.TrimSpace(in.Notes)
		if id, ok := actor.Owner.UserID(); ok {
			order.CreatedBy = &id
		}
		if err := s.persist(ctx, tx, order, actor, "checkout"); err != nil {
			return err
		}

		c.Status = domain.CartConverted
		c.ClearItems()
		c.Recompute(rates)
		if err := tx.Carts().Save(ctx, c); err != nil {
			return fmt.Errorf("save converted cart: %w", err)
		}

		result = &Result{OrderID: order.ID, DocumentNumber: order.DocumentNumber, Totals: order.Totals}
		return nil
	})
	if err != nil {
		s.logFailure("checkout failed", err)
		return nil, err
	}
	s.logger.Info("checkout completed",
		zap.String("order_id", result.OrderID),
		zap.String("document_number", result.DocumentNumber),
		zap.String("grand_total", result.Totals.GrandTotal.StringFixed(2)),
	)
	return result, nil
}

// repriceCart prices every line against the catalog as it is now and returns the
// products by id. Validation problems are collected per line.
func (s *Service) repriceCart(ctx context.Context, tx store.Tx, c *domain.Cart) (map[string]domain.Product, error) {
	products := make(map[string]domain.Product, len(c.Lines))
	verr := &domain.ValidationError{}
	for i := range c.Lines {
		line := &c.Lines[i]
		product, roll, err := catalogFor(ctx, tx, line.LineIdentity)
		if err != nil {
			return nil, err
		}
		price, err := pricing.PriceLine(*product, roll, line.LineIdentity, line.PriceOverride)
		if err != nil {
			if ve, ok := domain.IsValidation(err); ok {
				for k, v := range ve.Prefixed(fmt.Sprintf("lines[%d]", i)).Fields {
					verr.Add(k, v)
				}
				continue
			}
			return nil, err
		}
		line.ApplyPrice(price.UnitPrice, price.Roll)
		if err := pricing.CheckLine(*line); err != nil {
			if ve, ok := domain.IsValidation(err); ok {
				for k, v := range ve.Prefixed(fmt.Sprintf("lines[%d]", i)).Fields {
					verr.Add(k, v)
				}
				continue
			}
			return nil, err
		}
		products[product.ID] = *product
	}
	if verr.HasErrors() {
		return nil, verr
	}
	return products, nil
}

// catalogFor loads the product and roll a stored line references. Either one missing
// means the catalog changed underneath the cart.
func catalogFor(ctx context.Context, tx store.Tx, id domain.LineIdentity) (*domain.Product, *domain.Roll, error) {
	product, err := tx.Catalog().GetProduct(ctx, id.ProductID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil, fmt.Errorf("%w: product %s no longer exists", domain.ErrIntegrity, id.ProductID)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load product: %w", err)
	}
	if id.RollID == nil {
		return product, nil, nil
	}
	roll, err := tx.Catalog().GetRoll(ctx, *id.RollID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil, fmt.Errorf("%w: roll %s no longer exists", domain.ErrIntegrity, *id.RollID)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load roll: %w", err)
	}
	return product, roll, nil
}

func (s *Service) revalidateShipping(ctx context.Context, tx store.Tx, c *domain.Cart) error {
	adj := c.ShippingAdjustment()
	if adj == nil {
		return nil
	}
	code, _ := adj.Metadata["code"].(string)
	if code == "" {
		return domain.NewValidationError("shipping_method", "shipping method is no longer available")
	}
	method, err := tx.Catalog().GetShippingMethod(ctx, code)
	if errors.Is(err, domain.ErrNotFound) || (err == nil && !method.Active) {
		return domain.NewValidationError("shipping_method", "shipping method is no longer available")
	}
	if err != nil {
		return fmt.Errorf("load shipping method: %w", err)
	}
	c.SetShipping(adj.ID, method.Amount, adj.Metadata, s.now())
	return nil
}

func (s *Service) cartCustomer(ctx context.Context, tx store.Tx, actor domain.Actor, guest *GuestInput) (domain.CustomerRef, error) {
	if id, ok := actor.Owner.UserID(); ok {
		return domain.RegisteredCustomer(id), nil
	}
	return createGuest(ctx, tx, guest)
}

func createGuest(ctx context.Context, tx store.Tx, in *GuestInput) (domain.CustomerRef, error) {
	g := domain.Guest{}
	if in != nil {
		g.Name = strings.TrimSpace(in.Name)
		g.Email = strings.TrimSpace(in.Email)
		g.Phone = strings.TrimSpace(in.Phone)
	}
	if g.Email != "" && !strings.Contains(g.Email, "@") {
		return domain.CustomerRef{}, domain.NewValidationError("guest.email", "invalid email")
	}
	created, err := tx.Customers().CreateGuest(ctx, g)
	if err != nil {
		return domain.CustomerRef{}, fmt.Errorf("create guest: %w", err)
	}
	return domain.GuestCustomer(created.ID), nil
}

// persist numbers the document, writes it and its creation event.
func (s *Service) persist(ctx context.Context, tx store.Tx, order *domain.Order, actor domain.Actor, reason string) error {
	number, err := s.allocate(ctx, tx, order.Kind)
	if err != nil {
		return err
	}
	order.ID = uuid.NewString()
	order.DocumentNumber = number
	order.Currency = s.currencyOf(order)
	if err := tx.Orders().Create(ctx, order); err != nil {
		return fmt.Errorf("create %s: %w", order.Kind, err)
	}
	return tx.Orders().AddEvent(ctx, domain.OrderEvent{
		ID:        uuid.NewString(),
		OrderID:   order.ID,
		Actor:     actor.Name(),
		ToStatus:  order.Status,
		Reason:    reason,
		CreatedAt: s.now(),
	})
}

func (s *Service) currencyOf(order *domain.Order) string {
	if order.Currency != "" {
		return order.Currency
	}
	return s.cfg.Currency
}

// allocate hands out the next PREFIX-YYYYMMDD-NNNN for today. The counter row stays
// locked until the surrounding transaction ends.
func (s *Service) allocate(ctx context.Context, tx store.Tx, kind domain.DocumentKind) (string, error) {
	prefix := s.cfg.OrderPrefix
	if kind == domain.KindEstimate {
		prefix = s.cfg.EstimatePrefix
	}
	local := s.now().In(s.cfg.Location)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
	seq, err := tx.Orders().NextSequence(ctx, prefix, day, s.cfg.SequenceStart, s.cfg.LockTimeout)
	if err != nil {
		return "", fmt.Errorf("allocate document number: %w", err)
	}
	return domain.FormatDocumentNumber(prefix, day, seq), nil
}

// snapshot freezes the priced cart into an order. products must hold every line's product.
func snapshot(c *domain.Cart, products map[string]domain.Product, totals domain.Totals) *domain.Order {
	order := &domain.Order{
		Currency:        c.Currency,
		Totals:          totals,
		ShippingAddress: c.ShippingAddress,
		BillingAddress:  c.BillingAddress,
		Lines:           make([]domain.OrderLine, 0, len(c.Lines)),
		Adjustments:     make([]domain.OrderAdjustment, 0, len(c.Adjustments)),
	}
	for i, l := range c.Lines {
		p := products[l.ProductID]
		order.Lines = append(order.Lines, domain.OrderLine{
			ID:            uuid.NewString(),
			Position:      i + 1,
			LineIdentity:  l.LineIdentity,
			ProductName:   p.Name,
			SKU:           p.SKU,
			Quantity:      l.Quantity,
			UnitPrice:     l.UnitPrice,
			LineTotal:     l.LineTotal,
			PriceOverride: l.PriceOverride,
			Roll:          l.Roll,
		})
	}
	for _, a := range c.Adjustments {
		order.Adjustments = append(order.Adjustments, domain.OrderAdjustment{
			ID:       uuid.NewString(),
			Kind:     a.Kind,
			Amount:   a.Amount,
			Code:     a.Code,
			Metadata: a.Metadata,
		})
	}
	return order
}

func parseIntent(kind domain.DocumentKind, intent domain.Intent) (domain.DocumentKind, domain.DocumentStatus, error) {
	verr := &domain.ValidationError{}
	if kind == "" {
		kind = domain.KindOrder
	}
	if !kind.Valid() {
		verr.Add("kind", "must be order or estimate")
	}
	status, ok := domain.Intent(strings.ToLower(string(intent))).Status()
	if !ok {
		verr.Add("intent", "must be draft or publish")
	}
	if verr.HasErrors() {
		return "", "", verr
	}
	return kind, status, nil
}

func (s *Service) logFailure(msg string, err error) {
	switch {
	case errors.Is(err, domain.ErrIntegrity), errors.Is(err, domain.ErrConcurrency):
		s.logger.Error(msg, zap.Error(err))
	default:
		if _, ok := domain.IsValidation(err); ok {
			s.logger.Info(msg, zap.Error(err))
			return
		}
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrForbidden) || errors.Is(err, domain.ErrConflict) {
			s.logger.Info(msg, zap.Error(err))
			return
		}
		s.logger.Error(msg, zap.Error(err))
	}
}
