package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"printshop-commerce/internal/domain"
	"printshop-commerce/internal/repository/store"
	customersvc "printshop-commerce/internal/service/customer"
)

// StaffCreator registers counter staff accounts.
type StaffCreator interface {
	CreateStaff(ctx context.Context, in customersvc.SignupInput) (*domain.Customer, error)
}

// Staff is the account created for the print counter. Empty fields skip it.
type Staff struct {
	Email    string
	Password string
}

type productSeed struct {
	SKU          string
	Name         string
	Method       domain.PricingMethod
	Price        string
	PricePerSqFt string
	Unit         string
	Rolls        []string
}

var (
	demoRolls = []domain.Roll{
		{Name: "Vinyl 54in", WidthIn: decimal.RequireFromString("54"), OffcutPrice: decimal.RequireFromString("3.25")},
		{Name: "Vinyl 38in", WidthIn: decimal.RequireFromString("38"), OffcutPrice: decimal.RequireFromString("2.10")},
		{Name: "Photo Satin 24in", WidthIn: decimal.RequireFromString("24"), OffcutPrice: decimal.RequireFromString("4.00")},
	}

	demoProducts = []productSeed{
		{SKU: "BAN-13OZ", Name: "13oz Vinyl Banner", Method: domain.PricingRoll, PricePerSqFt: "4.50", Unit: "sqft", Rolls: []string{"Vinyl 54in", "Vinyl 38in"}},
		{SKU: "POS-SATIN", Name: "Satin Poster", Method: domain.PricingRoll, PricePerSqFt: "6.00", Unit: "sqft", Rolls: []string{"Photo Satin 24in"}},
		{SKU: "BC-100", Name: "Business Cards (100)", Method: domain.PricingStandard, Price: "29.99", Unit: "box"},
		{SKU: "FLY-A5-250", Name: "A5 Flyers (250)", Method: domain.PricingStandard, Price: "64.00", Unit: "pack"},
	}

	demoShipping = []domain.ShippingMethod{
		{Code: "pickup", Name: "Counter pickup", Amount: decimal.Zero, Active: true},
		{Code: "courier", Name: "Local courier", Amount: decimal.RequireFromString("12.50"), Active: true},
	}

	demoTax = domain.TaxRate{Name: "Sales tax", Rate: decimal.RequireFromString("0.0825"), Active: true}
)

func demoOffers() []domain.Offer {
	once := 1
	return []domain.Offer{
		{Code: "WELCOME10", Type: domain.OfferPercent, Value: decimal.NewFromInt(10), Status: domain.OfferActive, PerCustomerLimit: &once},
		{Code: "SHIPFREE", Type: domain.OfferFreeShipping, MinPurchase: decimal.NewFromInt(100), Status: domain.OfferActive},
		{Code: "BANNER20", Type: domain.OfferFixed, Value: decimal.NewFromInt(20), MinPurchase: decimal.NewFromInt(150), Status: domain.OfferActive},
	}
}

// Apply installs the demo catalog, pricing data and staff account. Running it again
// updates the rows in place.
func Apply(ctx context.Context, st store.Store, staffSvc StaffCreator, staff Staff, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	err := st.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		catalog := tx.Catalog()
		rollIDs := make(map[string]string, len(demoRolls))
		for _, r := range demoRolls {
			saved, err := catalog.UpsertRoll(ctx, r)
			if err != nil {
				return fmt.Errorf("upsert roll %s: %w", r.Name, err)
			}
			rollIDs[saved.Name] = saved.ID
		}
		for _, p := range demoProducts {
			if err := upsertProduct(ctx, tx, p, rollIDs); err != nil {
				return fmt.Errorf("upsert product %s: %w", p.SKU, err)
			}
		}
		for _, m := range demoShipping {
			if err := catalog.UpsertShippingMethod(ctx, m); err != nil {
				return fmt.Errorf("upsert shipping %s: %w", m.Code, err)
			}
		}
		if err := catalog.UpsertTaxRate(ctx, demoTax); err != nil {
			return fmt.Errorf("upsert tax rate: %w", err)
		}
		for _, o := range demoOffers() {
			if _, err := tx.Offers().Upsert(ctx, o); err != nil {
				return fmt.Errorf("upsert offer %s: %w", o.Code, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	logger.Info("seed: catalog installed",
		zap.Int("products", len(demoProducts)),
		zap.Int("rolls", len(demoRolls)),
		zap.Int("offers", len(demoOffers())),
	)

	if staff.Email == "" || staff.Password == "" || staffSvc == nil {
		return nil
	}
	_, err = staffSvc.CreateStaff(ctx, customersvc.SignupInput{Email: staff.Email, Password: staff.Password, FirstName: "Print", LastName: "Counter"})
	switch {
	case errors.Is(err, domain.ErrAlreadyExists):
		logger.Info("seed: staff account exists", zap.String("email", staff.Email))
	case err != nil:
		return fmt.Errorf("create staff: %w", err)
	default:
		logger.Info("seed: staff account created", zap.String("email", staff.Email))
	}
	return nil
}

func upsertProduct(ctx context.Context, tx store.Tx, p productSeed, rollIDs map[string]string) error {
	product := domain.Product{
		SKU:           p.SKU,
		Name:          p.Name,
		PricingMethod: p.Method,
		UnitOfMeasure: p.Unit,
		Active:        true,
	}
	if p.Price != "" {
		product.Price = decimal.RequireFromString(p.Price)
	}
	if p.PricePerSqFt != "" {
		product.PricePerSqFt = decimal.RequireFromString(p.PricePerSqFt)
	}
	saved, err := tx.Catalog().UpsertProduct(ctx, product)
	if err != nil {
		return err
	}
	for _, name := range p.Rolls {
		if err := tx.Catalog().AssignRoll(ctx, saved.ID, rollIDs[name]); err != nil {
			return fmt.Errorf("assign roll %s: %w", name, err)
		}
	}
	return nil
}
