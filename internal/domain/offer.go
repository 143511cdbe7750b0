package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type OfferType string

const (
	OfferPercent      OfferType = "percent"
	OfferFixed        OfferType = "fixed"
	OfferFreeShipping OfferType = "free_shipping"
	OfferBOGO         OfferType = "bogo"
	OfferBundle       OfferType = "bundle"
)

func (t OfferType) Valid() bool {
	switch t {
	case OfferPercent, OfferFixed, OfferFreeShipping, OfferBOGO, OfferBundle:
		return true
	}
	return false
}

type OfferStatus string

const (
	OfferActive   OfferStatus = "active"
	OfferInactive OfferStatus = "inactive"
)

type Offer struct {
	ID               string          `json:"id"`
	Code             string          `json:"code"`
	Type             OfferType       `json:"type"`
	Value            decimal.Decimal `json:"value"`
	MinPurchase      decimal.Decimal `json:"minPurchase"`
	Status           OfferStatus     `json:"status"`
	StartsAt         *time.Time      `json:"startsAt,omitempty"`
	EndsAt           *time.Time      `json:"endsAt,omitempty"`
	ProductIDs       []string        `json:"productIds,omitempty"`
	PerCustomerLimit *int            `json:"perCustomerLimit,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
}

// NormalizeOfferCode is the canonical form used for storage and lookup.
func NormalizeOfferCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ActiveAt reports whether the offer is switched on and now falls within its window.
// Open bounds are unbounded.
func (o Offer) ActiveAt(now time.Time) bool {
	if o.Status != OfferActive {
		return false
	}
	if o.StartsAt != nil && now.Before(*o.StartsAt) {
		return false
	}
	if o.EndsAt != nil && now.After(*o.EndsAt) {
		return false
	}
	return true
}

// Scoped reports whether the offer only applies to specific products.
func (o Offer) Scoped() bool {
	return len(o.ProductIDs) > 0
}

func (o Offer) Covers(productID string) bool {
	if !o.Scoped() {
		return true
	}
	for _, id := range o.ProductIDs {
		if id == productID {
			return true
		}
	}
	return false
}

type OfferUsage struct {
	OfferID   string    `json:"offerId"`
	Identity  string    `json:"identity"`
	TimesUsed int       `json:"timesUsed"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Exhausted reports whether another redemption would exceed limit. A nil limit never exhausts.
func (u OfferUsage) Exhausted(limit *int) bool {
	return limit != nil && u.TimesUsed >= *limit
}
