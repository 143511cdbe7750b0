// Package cart implements the cart mutations. Each one runs in a single transaction:
// load and lock the owner's open cart, change it, refresh discounts, recompute totals
// and save.
package cart

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

type Service struct {
	store    store.Store
	offers   *offersvc.Service
	logger   *zap.Logger
	currency string
	now      func() time.Time
}

func New(st store.Store, offers *offersvc.Service, currency string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if offers == nil {
		offers = offersvc.New(logger)
	}
	if strings.TrimSpace(currency) == "" {
		currency = "USD"
	}
	return &Service{
		store:    st,
		offers:   offers,
		logger:   logger,
		currency: strings.ToUpper(strings.TrimSpace(currency)),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type UpdateLineInput struct {
	Quantity      *int             `json:"quantity,omitempty"`
	PriceOverride *decimal.Decimal `json:"price_override,omitempty"`
}

type AddressesInput struct {
	Shipping *domain.Address `json:"shipping_address"`
	Billing  *domain.Address `json:"billing_address"`
}

// Get returns the caller's open cart, creating an empty one on first access.
func (s *Service) Get(ctx context.Context, actor domain.Actor) (*domain.Cart, error) {
	var out *domain.Cart
	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		c, err := tx.Carts().GetOrCreateOpen(ctx, actor.Owner, s.currency)
		if err != nil {
			return fmt.Errorf("load cart: %w", err)
		}
		if err := recompute(ctx, tx, c); err != nil {
			return err
		}
		out = c
		return nil
	})
	return out, err
}

// AddLine adds a configuration to the cart. A line with the same fingerprint absorbs
// the quantity and is re-priced; otherwise a new line is created.
func (s *Service) AddLine(ctx context.Context, actor domain.Actor, req pricing.LineRequest) (*domain.Cart, error) {
	identity, err := req.Identity()
	if err != nil {
		return nil, err
	}
	if err := checkOverride(actor, req.PriceOverride); err != nil {
		return nil, err
	}
	fp, err := pricing.Fingerprint(identity)
	if err != nil {
		return nil, err
	}

	return s.mutate(ctx, actor.Owner, func(ctx context.Context, tx store.Tx, c *domain.Cart) error {
		line := c.LineByFingerprint(fp)
		if line == nil {
			c.Lines = append(c.Lines, domain.CartLine{
				ID:           uuid.NewString(),
				CartID:       c.ID,
				LineIdentity: identity,
				Fingerprint:  fp,
			})
			line = &c.Lines[len(c.Lines)-1]
		}
		if line.Quantity+req.Quantity > pricing.MaxLineQuantity {
			return domain.NewValidationError("quantity", fmt.Sprintf("line would exceed %d", pricing.MaxLineQuantity))
		}
		line.Quantity += req.Quantity
		if req.PriceOverride != nil {
			line.PriceOverride = req.PriceOverride
		}
		return s.reprice(ctx, tx, line)
	})
}

// UpdateLine changes quantity or override of one line. Quantity 0 removes the line.
func (s *Service) UpdateLine(ctx context.Context, actor domain.Actor, lineID string, in UpdateLineInput) (*domain.Cart, error) {
	if in.Quantity == nil && in.PriceOverride == nil {
		return nil, domain.NewValidationError("quantity", "nothing to update")
	}
	if in.Quantity != nil && *in.Quantity != 0 {
		if err := pricing.CheckQuantity(*in.Quantity); err != nil {
			return nil, err
		}
	}
	if err := checkOverride(actor, in.PriceOverride); err != nil {
		return nil, err
	}

	return s.mutate(ctx, actor.Owner, func(ctx context.Context, tx store.Tx, c *domain.Cart) error {
		line := c.Line(lineID)
		if line == nil {
			return lineNotInCart(ctx, tx, c, lineID)
		}
		if in.Quantity != nil && *in.Quantity == 0 {
			c.RemoveLine(lineID)
			return nil
		}
		if in.Quantity != nil {
			line.Quantity = *in.Quantity
		}
		if in.PriceOverride != nil {
			line.PriceOverride = in.PriceOverride
		}
		return s.reprice(ctx, tx, line)
	})
}

func (s *Service) RemoveLine(ctx context.Context, actor domain.Actor, lineID string) (*domain.Cart, error) {
	return s.mutate(ctx, actor.Owner, func(ctx context.Context, tx store.Tx, c *domain.Cart) error {
		if !c.RemoveLine(lineID) {
			return lineNotInCart(ctx, tx, c, lineID)
		}
		return nil
	})
}

// Clear empties the cart of lines and adjustments. The cart itself stays open.
func (s *Service) Clear(ctx context.Context, actor domain.Actor) (*domain.Cart, error) {
	return s.mutate(ctx, actor.Owner, func(_ context.Context, _ store.Tx, c *domain.Cart) error {
		c.ClearItems()
		return nil
	})
}

// SetShippingMethod writes the single shipping adjustment from the configured method.
func (s *Service) SetShippingMethod(ctx context.Context, actor domain.Actor, code string) (*domain.Cart, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, domain.NewValidationError("shipping_method", "required")
	}
	return s.mutate(ctx, actor.Owner, func(ctx context.Context, tx store.Tx, c *domain.Cart) error {
		method, err := tx.Catalog().GetShippingMethod(ctx, code)
		if errors.Is(err, domain.ErrNotFound) || (err == nil && !method.Active) {
			return domain.NewValidationError("shipping_method", "unknown shipping method")
		}
		if err != nil {
			return fmt.Errorf("load shipping method: %w", err)
		}
		c.SetShipping(uuid.NewString(), method.Amount, shippingMetadata(*method), s.now())
		return nil
	})
}

func (s *Service) ApplyOffer(ctx context.Context, actor domain.Actor, code string) (*domain.Cart, error) {
	return s.mutate(ctx, actor.Owner, func(ctx context.Context, tx store.Tx, c *domain.Cart) error {
		_, err := s.offers.Apply(ctx, tx, c, code)
		return err
	})
}

// RemoveOffer drops the discount for code. Usage already counted is not refunded.
func (s *Service) RemoveOffer(ctx context.Context, actor domain.Actor, code string) (*domain.Cart, error) {
	code = domain.NormalizeOfferCode(code)
	if code == "" {
		return nil, domain.NewValidationError("code", "required")
	}
	return s.mutate(ctx, actor.Owner, func(_ context.Context, _ store.Tx, c *domain.Cart) error {
		if !c.RemoveDiscount(code) {
			return fmt.Errorf("offer %s on cart: %w", code, domain.ErrNotFound)
		}
		return nil
	})
}

func (s *Service) SetAddresses(ctx context.Context, actor domain.Actor, in AddressesInput) (*domain.Cart, error) {
	return s.mutate(ctx, actor.Owner, func(_ context.Context, _ store.Tx, c *domain.Cart) error {
		c.ShippingAddress = in.Shipping
		c.BillingAddress = in.Billing
		return nil
	})
}

type mutation func(ctx context.Context, tx store.Tx, c *domain.Cart) error

func (s *Service) mutate(ctx context.Context, owner domain.CartOwner, fn mutation) (*domain.Cart, error) {
	var out *domain.Cart
	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		c, err := tx.Carts().GetOrCreateOpen(ctx, owner, s.currency)
		if err != nil {
			return fmt.Errorf("load cart: %w", err)
		}
		if err := fn(ctx, tx, c); err != nil {
			return err
		}
		if err := s.offers.Refresh(ctx, tx, c); err != nil {
			return err
		}
		if err := recompute(ctx, tx, c); err != nil {
			return err
		}
		if err := tx.Carts().Save(ctx, c); err != nil {
			return fmt.Errorf("save cart: %w", err)
		}
		out = c
		return nil
	})
	if err != nil {
		s.logError("cart mutation failed", owner, err)
		return nil, err
	}
	return out, nil
}

// reprice re-derives the unit price of line from the catalog as it is now.
func (s *Service) reprice(ctx context.Context, tx store.Tx, line *domain.CartLine) error {
	product, roll, err := loadCatalog(ctx, tx, line.LineIdentity)
	if err != nil {
		return err
	}
	price, err := pricing.PriceLine(*product, roll, line.LineIdentity, line.PriceOverride)
	if err != nil {
		return err
	}
	line.PriceOverride = price.Override
	line.ApplyPrice(price.UnitPrice, price.Roll)
	return pricing.CheckLine(*line)
}

func (s *Service) logError(msg string, owner domain.CartOwner, err error) {
	if _, ok := domain.IsValidation(err); ok {
		s.logger.Info(msg, zap.Stringer("owner", owner), zap.Error(err))
		return
	}
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrConflict) {
		s.logger.Info(msg, zap.Stringer("owner", owner), zap.Error(err))
		return
	}
	s.logger.Error(msg, zap.Stringer("owner", owner), zap.Error(err))
}

func loadCatalog(ctx context.Context, tx store.Tx, id domain.LineIdentity) (*domain.Product, *domain.Roll, error) {
	product, err := tx.Catalog().GetProduct(ctx, id.ProductID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil, domain.NewValidationError("product_id", "unknown product")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load product: %w", err)
	}
	if id.RollID == nil {
		return product, nil, nil
	}
	roll, err := tx.Catalog().GetRoll(ctx, *id.RollID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil, domain.NewValidationError("roll_id", "unknown roll")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load roll: %w", err)
	}
	return product, roll, nil
}

func recompute(ctx context.Context, tx store.Tx, c *domain.Cart) error {
	rates, err := tx.Catalog().ActiveTaxRates(ctx)
	if err != nil {
		return fmt.Errorf("load tax rates: %w", err)
	}
	c.Recompute(rates)
	return nil
}

// lineNotInCart distinguishes a line owned by someone else from one that does not exist.
func lineNotInCart(ctx context.Context, tx store.Tx, c *domain.Cart, lineID string) error {
	cartID, err := tx.Carts().LineCartID(ctx, lineID)
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("line %s: %w", lineID, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("look up line: %w", err)
	}
	if cartID != c.ID {
		return fmt.Errorf("line %s belongs to another cart: %w", lineID, domain.ErrConflict)
	}
	return fmt.Errorf("line %s: %w", lineID, domain.ErrNotFound)
}

func checkOverride(actor domain.Actor, override *decimal.Decimal) error {
	if override != nil && !actor.IsStaff() {
		return domain.NewValidationError("price_override", "not permitted")
	}
	return nil
}

func shippingMetadata(m domain.ShippingMethod) map[string]any {
	return map[string]any{"code": m.Code, "name": m.Name}
}
