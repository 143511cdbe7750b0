package order

import (
	"context"
	"time"

	"printshop-commerce/internal/domain"
)

type Repository interface {
	// NextSequence allocates the next number for (prefix, day). The counter row stays
	// locked until the transaction ends, so concurrent allocators queue behind it.
	// start is the first number handed out for a new day.
	NextSequence(ctx context.Context, prefix string, day time.Time, start int, lockTimeout time.Duration) (int, error)
	Create(ctx context.Context, o *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	// GetForUpdate loads the order header and locks it.
	GetForUpdate(ctx context.Context, id string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus) error
	AddEvent(ctx context.Context, ev domain.OrderEvent) error
	ListEvents(ctx context.Context, orderID string) ([]domain.OrderEvent, error)
}
