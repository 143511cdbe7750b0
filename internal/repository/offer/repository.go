package offer

import (
	"context"

	"printshop-commerce/internal/domain"
)

type Repository interface {
	// GetByCode looks up an offer by its normalized code.
	GetByCode(ctx context.Context, code string) (*domain.Offer, error)
	// LockUsage returns the usage row for (offer, identity), creating it at zero on the
	// first attempt, and locks it for the rest of the transaction.
	LockUsage(ctx context.Context, offerID, identity string) (*domain.OfferUsage, error)
	IncrementUsage(ctx context.Context, offerID, identity string) (*domain.OfferUsage, error)
	Upsert(ctx context.Context, o domain.Offer) (*domain.Offer, error)
}
