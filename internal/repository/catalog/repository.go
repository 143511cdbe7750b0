package catalog

import (
	"context"

	"printshop-commerce/internal/domain"
)

// Repository reads the catalog data the pricer consumes. The write methods exist for
// the importer and seed commands only.
type Repository interface {
	ListProducts(ctx context.Context, activeOnly bool) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	GetRoll(ctx context.Context, id string) (*domain.Roll, error)
	ListRollsForProduct(ctx context.Context, productID string) ([]domain.Roll, error)
	ActiveTaxRates(ctx context.Context) ([]domain.TaxRate, error)
	GetShippingMethod(ctx context.Context, code string) (*domain.ShippingMethod, error)
	ListShippingMethods(ctx context.Context) ([]domain.ShippingMethod, error)

	UpsertProduct(ctx context.Context, p domain.Product) (*domain.Product, error)
	UpsertRoll(ctx context.Context, r domain.Roll) (*domain.Roll, error)
	AssignRoll(ctx context.Context, productID, rollID string) error
	UpsertTaxRate(ctx context.Context, rate domain.TaxRate) error
	UpsertShippingMethod(ctx context.Context, m domain.ShippingMethod) error
}
