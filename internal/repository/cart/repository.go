package cart

import (
	"context"

	"printshop-commerce/internal/domain"
)

// Repository persists cart aggregates. Loads lock the cart row until the surrounding
// transaction ends; totals are never read back, callers recompute them.
type Repository interface {
	// GetOpen returns the owner's open cart or domain.ErrNotFound.
	GetOpen(ctx context.Context, owner domain.CartOwner) (*domain.Cart, error)
	// GetOrCreateOpen returns the owner's open cart, creating an empty one if needed.
	GetOrCreateOpen(ctx context.Context, owner domain.CartOwner, currency string) (*domain.Cart, error)
	// Save writes the cart row, its lines and adjustments. Rows missing from the
	// aggregate are deleted; rows with ids from another cart are re-parented.
	Save(ctx context.Context, cart *domain.Cart) error
	// LineCartID returns the cart a line belongs to.
	LineCartID(ctx context.Context, lineID string) (string, error)
}
