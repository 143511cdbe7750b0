package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PricingMethod decides how a product's unit price is derived.
type PricingMethod string

const (
	PricingStandard PricingMethod = "standard"
	PricingRoll     PricingMethod = "roll"
)

func (m PricingMethod) Valid() bool {
	return m == PricingStandard || m == PricingRoll
}

// Product holds the read-only catalog fields the pricer consumes.
type Product struct {
	ID            string          `json:"id"`
	SKU           string          `json:"sku"`
	Name          string          `json:"name"`
	PricingMethod PricingMethod   `json:"pricingMethod"`
	Price         decimal.Decimal `json:"price"`
	PricePerSqFt  decimal.Decimal `json:"pricePerSqft"`
	UnitOfMeasure string          `json:"unitOfMeasure,omitempty"`
	Active        bool            `json:"active"`
	RollIDs       []string        `json:"rollIds,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// AcceptsRoll reports whether rollID is assigned to the product.
func (p Product) AcceptsRoll(rollID string) bool {
	for _, id := range p.RollIDs {
		if id == rollID {
			return true
		}
	}
	return false
}

// Roll is a fixed-width material supply. Width is stored in inches.
type Roll struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	WidthIn     decimal.Decimal `json:"widthIn"`
	OffcutPrice decimal.Decimal `json:"offcutPrice"`
	CreatedAt   time.Time       `json:"createdAt"`
}

type ShippingMethod struct {
	Code   string          `json:"code"`
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
	Active bool            `json:"active"`
}

type TaxRate struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Rate   decimal.Decimal `json:"rate"`
	Active bool            `json:"active"`
}
