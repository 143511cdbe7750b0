package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"printshop-commerce/internal/domain"
	"printshop-commerce/internal/pricing"
	"printshop-commerce/internal/repository/store"
)

// Merge folds the open cart of an anonymous session into the user's open cart after
// login. Without a user cart the guest cart is re-owned as is. Otherwise matching lines
// add up and take the guest unit price, other lines and discounts move across, and the
// guest cart is left abandoned. A second call finds no open guest cart and only
// returns the user's cart.
func (s *Service) Merge(ctx context.Context, sessionToken, userID string) (*domain.Cart, error) {
	guestOwner := domain.AnonymousOwner(sessionToken)
	userOwner := domain.UserOwner(userID)
	if guestOwner.IsZero() {
		return nil, domain.NewValidationError("anonymous_token", "required")
	}
	if userOwner.IsZero() {
		return nil, fmt.Errorf("%w: merge needs an authenticated user", domain.ErrConflict)
	}

	var out *domain.Cart
	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		guest, err := tx.Carts().GetOpen(ctx, guestOwner)
		if errors.Is(err, domain.ErrNotFound) {
			out, err = tx.Carts().GetOrCreateOpen(ctx, userOwner, s.currency)
			if err != nil {
				return fmt.Errorf("load user cart: %w", err)
			}
			return recompute(ctx, tx, out)
		}
		if err != nil {
			return fmt.Errorf("load guest cart: %w", err)
		}

		user, err := tx.Carts().GetOpen(ctx, userOwner)
		if errors.Is(err, domain.ErrNotFound) {
			guest.Owner = userOwner
			if err := s.finish(ctx, tx, guest); err != nil {
				return err
			}
			s.logger.Info("cart re-owned on login", zap.String("cart_id", guest.ID), zap.String("user_id", userID))
			out = guest
			return nil
		}
		if err != nil {
			return fmt.Errorf("load user cart: %w", err)
		}

		moved, skipped, err := foldInto(user, guest)
		if err != nil {
			return err
		}
		if err := s.finish(ctx, tx, user); err != nil {
			return err
		}

		guest.Lines = nil
		guest.Adjustments = skipped
		guest.Status = domain.CartAbandoned
		if err := recompute(ctx, tx, guest); err != nil {
			return err
		}
		if err := tx.Carts().Save(ctx, guest); err != nil {
			return fmt.Errorf("save guest cart: %w", err)
		}
		s.logger.Info("carts merged on login",
			zap.String("guest_cart_id", guest.ID),
			zap.String("cart_id", user.ID),
			zap.Int("moved_lines", moved),
			zap.Int("skipped_adjustments", len(skipped)),
		)
		out = user
		return nil
	})
	if err != nil {
		s.logError("cart merge failed", userOwner, err)
		return nil, err
	}
	return out, nil
}

// finish refreshes discounts, recomputes once and saves.
func (s *Service) finish(ctx context.Context, tx store.Tx, c *domain.Cart) error {
	if err := s.offers.Refresh(ctx, tx, c); err != nil {
		return err
	}
	if err := recompute(ctx, tx, c); err != nil {
		return err
	}
	if err := tx.Carts().Save(ctx, c); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

// foldInto moves guest lines and adjustments onto dst. It returns how many lines were
// re-parented and the adjustments that stay behind on the guest cart. A matched line
// takes the guest unit price, except that an override on the user line holds unless
// the guest line carries its own.
func foldInto(dst, guest *domain.Cart) (int, []domain.Adjustment, error) {
	moved := 0
	for _, gl := range guest.Lines {
		if match := dst.LineByFingerprint(gl.Fingerprint); match != nil {
			if match.Quantity+gl.Quantity > pricing.MaxLineQuantity {
				return 0, nil, domain.NewValidationError("quantity", fmt.Sprintf("merged line would exceed %d", pricing.MaxLineQuantity))
			}
			match.Quantity += gl.Quantity
			switch {
			case gl.PriceOverride != nil:
				match.PriceOverride = gl.PriceOverride
				match.ApplyPrice(gl.UnitPrice, gl.Roll)
			case match.PriceOverride != nil:
				match.ApplyPrice(match.UnitPrice, match.Roll)
			default:
				match.ApplyPrice(gl.UnitPrice, gl.Roll)
			}
			continue
		}
		gl.CartID = dst.ID
		dst.Lines = append(dst.Lines, gl)
		moved++
	}

	var skipped []domain.Adjustment
	for _, adj := range guest.Adjustments {
		switch adj.Kind {
		case domain.AdjustmentDiscount:
			if dst.Discount(adj.CodeValue()) != nil || strings.TrimSpace(adj.CodeValue()) == "" {
				skipped = append(skipped, adj)
				continue
			}
		case domain.AdjustmentShipping:
			if dst.ShippingAdjustment() != nil {
				skipped = append(skipped, adj)
				continue
			}
		}
		adj.CartID = dst.ID
		dst.Adjustments = append(dst.Adjustments, adj)
	}
	return moved, skipped, nil
}
