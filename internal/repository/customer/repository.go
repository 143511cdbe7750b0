package customer

import (
	"context"

	"printshop-commerce/internal/domain"
)

// Repository persists registered customers and walk-in guests.
type Repository interface {
	Create(ctx context.Context, c domain.Customer) (*domain.Customer, error)
	GetByEmail(ctx context.Context, email string) (*domain.Customer, error)
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
	CreateGuest(ctx context.Context, g domain.Guest) (*domain.Guest, error)
	GetGuest(ctx context.Context, id string) (*domain.Guest, error)
}
