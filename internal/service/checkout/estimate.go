package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"printshop-commerce/internal/domain"
	"printshop-commerce/internal/pricing"
	"printshop-commerce/internal/repository/store"
)

// EstimateInput is a manually assembled quote. Exactly one of UserID and Guest names
// the customer.
type EstimateInput struct {
	Kind           domain.DocumentKind   `json:"kind,omitempty"`
	Intent         domain.Intent         `json:"intent,omitempty"`
	UserID         string                `json:"user_id,omitempty"`
	Guest          *GuestInput           `json:"guest,omitempty"`
	Lines          []pricing.LineRequest `json:"lines"`
	ShippingMethod string                `json:"shipping_method,omitempty"`
	Notes          string                `json:"notes,omitempty"`
	ShippingAddr   *domain.Address       `json:"shipping_address,omitempty"`
	BillingAddr    *domain.Address       `json:"billing_address,omitempty"`
}

// CreateEstimate prices a staff-assembled line list and writes it as a numbered
// document. It defaults to an estimate; staff may also write an order directly.
func (s *Service) CreateEstimate(ctx context.Context, actor domain.Actor, in EstimateInput) (*Result, error) {
	if !actor.IsStaff() {
		return nil, domain.ErrForbidden
	}
	if in.Kind == "" {
		in.Kind = domain.KindEstimate
	}
	kind, status, err := parseIntent(in.Kind, in.Intent)
	if err != nil {
		return nil, err
	}
	if len(in.Lines) == 0 {
		return nil, domain.NewValidationError("lines", "at least one line is required")
	}
	userID := strings.TrimSpace(in.UserID)
	if (userID == "") == (in.Guest == nil) {
		return nil, domain.NewValidationError("customer", "give either user_id or guest")
	}

	var result *Result
	err = s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		draft := &domain.Cart{
			Currency:        s.cfg.Currency,
			ShippingAddress: in.ShippingAddr,
			BillingAddress:  in.BillingAddr,
		}
		products, err := s.priceRequests(ctx, tx, draft, in.Lines)
		if err != nil {
			return err
		}
		if code := strings.TrimSpace(in.ShippingMethod); code != "" {
			method, err := tx.Catalog().GetShippingMethod(ctx, code)
			if errors.Is(err, domain.ErrNotFound) || (err == nil && !method.Active) {
				return domain.NewValidationError("shipping_method", "unknown shipping method")
			}
			if err != nil {
				return fmt.Errorf("load shipping method: %w", err)
			}
			draft.SetShipping(uuid.NewString(), method.Amount, map[string]any{"code": method.Code, "name": method.Name}, s.now())
		}
		rates, err := tx.Catalog().ActiveTaxRates(ctx)
		if err != nil {
			return fmt.Errorf("load tax rates: %w", err)
		}
		totals := draft.Recompute(rates)

		var customer domain.CustomerRef
		if userID != "" {
			if _, err := tx.Customers().GetByID(ctx, userID); err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					return domain.NewValidationError("user_id", "unknown customer")
				}
				return fmt.Errorf("load customer: %w", err)
			}
			customer = domain.RegisteredCustomer(userID)
		} else {
			customer, err = createGuest(ctx, tx, in.Guest)
			if err != nil {
				return err
			}
		}

		order := snapshot(draft, products, totals)
		order.Kind = kind
		order.Status = status
		order.Customer = customer
		order.Notes = strings.TrimSpace(in.Notes)
		if id, ok := actor.Owner.UserID(); ok {
			order.CreatedBy = &id
		}
		if err := s.persist(ctx, tx, order, actor, "manual"); err != nil {
			return err
		}
		result = &Result{OrderID: order.ID, DocumentNumber: order.DocumentNumber, Totals: order.Totals}
		return nil
	})
	if err != nil {
		s.logFailure("create estimate failed", err)
		return nil, err
	}
	s.logger.Info("estimate created",
		zap.String("order_id", result.OrderID),
		zap.String("document_number", result.DocumentNumber),
		zap.String("actor", actor.Name()),
	)
	return result, nil
}

// priceRequests turns submitted lines into priced cart lines on draft. Lines with the
// same configuration are kept apart, as entered.
func (s *Service) priceRequests(ctx context.Context, tx store.Tx, draft *domain.Cart, reqs []pricing.LineRequest) (map[string]domain.Product, error) {
	products := make(map[string]domain.Product, len(reqs))
	verr := &domain.ValidationError{}
	collect := func(i int, err error) error {
		ve, ok := domain.IsValidation(err)
		if !ok {
			return err
		}
		for k, v := range ve.Prefixed(fmt.Sprintf("lines[%d]", i)).Fields {
			verr.Add(k, v)
		}
		return nil
	}

	for i, req := range reqs {
		identity, err := req.Identity()
		if err != nil {
			if err := collect(i, err); err != nil {
				return nil, err
			}
			continue
		}
		product, err := tx.Catalog().GetProduct(ctx, identity.ProductID)
		if errors.Is(err, domain.ErrNotFound) {
			verr.Add(fmt.Sprintf("lines[%d].product_id", i), "unknown product")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load product: %w", err)
		}
		var roll *domain.Roll
		if identity.RollID != nil {
			roll, err = tx.Catalog().GetRoll(ctx, *identity.RollID)
			if errors.Is(err, domain.ErrNotFound) {
				verr.Add(fmt.Sprintf("lines[%d].roll_id", i), "unknown roll")
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("load roll: %w", err)
			}
		}
		price, err := pricing.PriceLine(*product, roll, identity, req.PriceOverride)
		if err != nil {
			if err := collect(i, err); err != nil {
				return nil, err
			}
			continue
		}
		line := domain.CartLine{
			ID:            uuid.NewString(),
			LineIdentity:  identity,
			Quantity:      req.Quantity,
			PriceOverride: price.Override,
		}
		line.ApplyPrice(price.UnitPrice, price.Roll)
		if err := pricing.CheckLine(line); err != nil {
			if err := collect(i, err); err != nil {
				return nil, err
			}
			continue
		}
		draft.Lines = append(draft.Lines, line)
		products[product.ID] = *product
	}
	if verr.HasErrors() {
		return nil, verr
	}
	return products, nil
}
