package pricing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"printshop-commerce/internal/domain"
)

func pricedLine(productID, total string) domain.CartLine {
	return domain.CartLine{LineIdentity: domain.LineIdentity{ProductID: productID}, Quantity: 1, LineTotal: d(total)}
}

func TestOfferDiscount(t *testing.T) {
	tests := []struct {
		name     string
		offer    domain.Offer
		eligible string
		shipping string
		want     string
	}{
		{name: "percent", offer: domain.Offer{Type: domain.OfferPercent, Value: d("15")}, eligible: "200", want: "30.00"},
		{name: "percent rounds", offer: domain.Offer{Type: domain.OfferPercent, Value: d("12.5")}, eligible: "33.33", want: "4.17"},
		{name: "percent over hundred capped", offer: domain.Offer{Type: domain.OfferPercent, Value: d("150")}, eligible: "40", want: "40.00"},
		{name: "fixed capped at eligible", offer: domain.Offer{Type: domain.OfferFixed, Value: d("5000")}, eligible: "3000", want: "3000.00"},
		{name: "fixed below eligible", offer: domain.Offer{Type: domain.OfferFixed, Value: d("25")}, eligible: "3000", want: "25.00"},
		{name: "free shipping", offer: domain.Offer{Type: domain.OfferFreeShipping}, eligible: "10", shipping: "12.5", want: "12.50"},
		{name: "free shipping without method", offer: domain.Offer{Type: domain.OfferFreeShipping}, eligible: "10", want: "0.00"},
		{name: "bogo is a no-op", offer: domain.Offer{Type: domain.OfferBOGO, Value: d("1")}, eligible: "10", want: "0.00"},
		{name: "bundle is a no-op", offer: domain.Offer{Type: domain.OfferBundle, Value: d("1")}, eligible: "10", want: "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shipping := decimal.Zero
			if tt.shipping != "" {
				shipping = d(tt.shipping)
			}
			got := OfferDiscount(tt.offer, d(tt.eligible), shipping)
			assert.Equal(t, tt.want, got.StringFixed(2))
		})
	}
}

func TestEligibleSubtotalRespectsScope(t *testing.T) {
	lines := []domain.CartLine{pricedLine("a", "10"), pricedLine("b", "20"), pricedLine("c", "5.5")}

	assert.Equal(t, "35.50", EligibleSubtotal(domain.Offer{}, lines).StringFixed(2))
	assert.Equal(t, "15.50", EligibleSubtotal(domain.Offer{ProductIDs: []string{"a", "c"}}, lines).StringFixed(2))
	assert.True(t, EligibleSubtotal(domain.Offer{ProductIDs: []string{"z"}}, lines).IsZero())
}

func TestEvaluateOffer(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-48 * time.Hour)
	future := now.Add(48 * time.Hour)
	lines := []domain.CartLine{pricedLine("a", "100")}

	t.Run("active within window", func(t *testing.T) {
		offer := domain.Offer{Type: domain.OfferPercent, Value: d("10"), Status: domain.OfferActive, StartsAt: &past, EndsAt: &future}
		got, err := EvaluateOffer(offer, lines, decimal.Zero, now)
		require.NoError(t, err)
		assert.Equal(t, "10.00", got.StringFixed(2))
	})

	t.Run("not started", func(t *testing.T) {
		offer := domain.Offer{Type: domain.OfferPercent, Value: d("10"), Status: domain.OfferActive, StartsAt: &future}
		_, err := EvaluateOffer(offer, lines, decimal.Zero, now)
		_, ok := domain.IsValidation(err)
		assert.True(t, ok)
	})

	t.Run("expired", func(t *testing.T) {
		offer := domain.Offer{Type: domain.OfferPercent, Value: d("10"), Status: domain.OfferActive, EndsAt: &past}
		_, err := EvaluateOffer(offer, lines, decimal.Zero, now)
		_, ok := domain.IsValidation(err)
		assert.True(t, ok)
	})

	t.Run("switched off", func(t *testing.T) {
		offer := domain.Offer{Type: domain.OfferPercent, Value: d("10"), Status: domain.OfferInactive}
		_, err := EvaluateOffer(offer, lines, decimal.Zero, now)
		_, ok := domain.IsValidation(err)
		assert.True(t, ok)
	})

	t.Run("below minimum purchase", func(t *testing.T) {
		offer := domain.Offer{Type: domain.OfferFixed, Value: d("10"), Status: domain.OfferActive, MinPurchase: d("100.01")}
		_, err := EvaluateOffer(offer, lines, decimal.Zero, now)
		ve, ok := domain.IsValidation(err)
		require.True(t, ok)
		assert.Contains(t, ve.Fields["code"], "100.01")
	})

	t.Run("minimum met exactly", func(t *testing.T) {
		offer := domain.Offer{Type: domain.OfferFixed, Value: d("10"), Status: domain.OfferActive, MinPurchase: d("100")}
		got, err := EvaluateOffer(offer, lines, decimal.Zero, now)
		require.NoError(t, err)
		assert.Equal(t, "10.00", got.StringFixed(2))
	})
}
