// Package offer resolves offer codes into cart discounts and keeps the per-customer
// usage counters.
package offer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"printshop-commerce/internal/domain"
	"printshop-commerce/internal/pricing"
	"printshop-commerce/internal/repository/store"
)

type Service struct {
	logger *zap.Logger
	now    func() time.Time
}

func New(logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Apply evaluates code against cart and writes the resulting discount. A code already
// on the cart is re-evaluated and replaced without counting another use; a new code is
// checked against the owner's usage and counted inside the caller's transaction.
func (s *Service) Apply(ctx context.Context, tx store.Tx, cart *domain.Cart, code string) (*domain.Offer, error) {
	code = domain.NormalizeOfferCode(code)
	if code == "" {
		return nil, domain.NewValidationError("code", "required")
	}
	offer, err := tx.Offers().GetByCode(ctx, code)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NewValidationError("code", "unknown offer code")
	}
	if err != nil {
		return nil, fmt.Errorf("load offer: %w", err)
	}

	amount, err := pricing.EvaluateOffer(*offer, cart.Lines, cart.ShippingAmount(), s.now())
	if err != nil {
		return nil, err
	}

	if cart.Discount(offer.Code) == nil {
		identity := cart.Owner.UsageIdentity()
		usage, err := tx.Offers().LockUsage(ctx, offer.ID, identity)
		if err != nil {
			return nil, fmt.Errorf("lock offer usage: %w", err)
		}
		if usage.Exhausted(offer.PerCustomerLimit) {
			return nil, domain.NewValidationError("code", "offer usage limit reached")
		}
		if _, err := tx.Offers().IncrementUsage(ctx, offer.ID, identity); err != nil {
			return nil, fmt.Errorf("count offer usage: %w", err)
		}
	}

	cart.PutDiscount(uuid.NewString(), offer.Code, amount, discountMetadata(*offer), s.now())
	s.logger.Info("offer applied",
		zap.String("cart_id", cart.ID),
		zap.String("code", offer.Code),
		zap.String("amount", amount.StringFixed(2)),
	)
	return offer, nil
}

// Refresh re-derives every discount amount from its offer against the current lines
// and shipping. Eligibility is not checked and no usage is counted; a discount whose
// offer has been removed from the catalog keeps its previous amount.
func (s *Service) Refresh(ctx context.Context, tx store.Tx, cart *domain.Cart) error {
	for _, adj := range cart.Discounts() {
		offer, err := tx.Offers().GetByCode(ctx, adj.CodeValue())
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("load offer %s: %w", adj.CodeValue(), err)
		}
		eligible := pricing.EligibleSubtotal(*offer, cart.Lines)
		amount := pricing.OfferDiscount(*offer, eligible, cart.ShippingAmount())
		cart.PutDiscount(adj.ID, offer.Code, amount, adj.Metadata, s.now())
	}
	return nil
}

// Revalidate runs the full activity and minimum purchase checks for every discount on
// the cart and rewrites the amounts. Problems are reported per code.
func (s *Service) Revalidate(ctx context.Context, tx store.Tx, cart *domain.Cart) error {
	verr := &domain.ValidationError{}
	for _, adj := range cart.Discounts() {
		code := adj.CodeValue()
		field := "offers." + code
		offer, err := tx.Offers().GetByCode(ctx, code)
		if errors.Is(err, domain.ErrNotFound) {
			verr.Add(field, "offer is no longer available")
			continue
		}
		if err != nil {
			return fmt.Errorf("load offer %s: %w", code, err)
		}
		amount, err := pricing.EvaluateOffer(*offer, cart.Lines, cart.ShippingAmount(), s.now())
		if err != nil {
			if ve, ok := domain.IsValidation(err); ok {
				verr.Add(field, ve.Fields["code"])
				continue
			}
			return err
		}
		cart.PutDiscount(adj.ID, offer.Code, amount, adj.Metadata, s.now())
	}
	if verr.HasErrors() {
		return verr
	}
	return nil
}

func discountMetadata(o domain.Offer) map[string]any {
	return map[string]any{
		"offerId": o.ID,
		"type":    string(o.Type),
	}
}
