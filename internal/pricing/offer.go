package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"printshop-commerce/internal/domain"
)

// EligibleSubtotal sums the line totals the offer applies to. Unscoped offers cover
// the whole cart.
func EligibleSubtotal(offer domain.Offer, lines []domain.CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		if offer.Covers(l.ProductID) {
			total = total.Add(l.LineTotal)
		}
	}
	return total
}

// OfferDiscount computes the positive amount an offer takes off. It never exceeds
// the eligible subtotal, except free shipping which mirrors the shipping amount.
// bogo and bundle evaluate to zero.
func OfferDiscount(offer domain.Offer, eligible, shipping decimal.Decimal) decimal.Decimal {
	var amount decimal.Decimal
	switch offer.Type {
	case domain.OfferPercent:
		amount = domain.Percent(eligible, offer.Value)
		if amount.GreaterThan(eligible) {
			amount = eligible
		}
	case domain.OfferFixed:
		amount = decimal.Min(offer.Value, eligible)
	case domain.OfferFreeShipping:
		amount = shipping
	default:
		amount = decimal.Zero
	}
	if amount.IsNegative() {
		return decimal.Zero
	}
	return domain.RoundMoney(amount)
}

// EvaluateOffer checks activity and minimum purchase, then prices the discount.
// Usage limits are checked by the caller, which owns the usage counter.
func EvaluateOffer(offer domain.Offer, lines []domain.CartLine, shipping decimal.Decimal, now time.Time) (decimal.Decimal, error) {
	if !offer.ActiveAt(now) {
		return decimal.Zero, domain.NewValidationError("code", "offer is not active")
	}
	eligible := EligibleSubtotal(offer, lines)
	if eligible.LessThan(offer.MinPurchase) {
		return decimal.Zero, domain.NewValidationError("code",
			"minimum purchase of "+offer.MinPurchase.StringFixed(2)+" not met")
	}
	return OfferDiscount(offer, eligible, shipping), nil
}
