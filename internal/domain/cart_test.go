package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func money(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func TestCartDiscountReplacesPerCode(t *testing.T) {
	cart := &Cart{ID: "c1"}
	now := time.Now()

	cart.PutDiscount("a1", "SPRING", money("10"), nil, now)
	cart.PutDiscount("a2", "SPRING", money("12.5"), nil, now)
	cart.PutDiscount("a3", "VIP", money("-3"), nil, now)

	require.Len(t, cart.Discounts(), 2)
	assert.Equal(t, "-12.50", cart.Discount("SPRING").Amount.StringFixed(2))
	assert.Equal(t, "a1", cart.Discount("SPRING").ID)
	assert.Equal(t, "-3.00", cart.Discount("VIP").Amount.StringFixed(2))

	assert.True(t, cart.RemoveDiscount("SPRING"))
	assert.False(t, cart.RemoveDiscount("SPRING"))
	assert.Nil(t, cart.Discount("SPRING"))
	assert.NotNil(t, cart.Discount("VIP"))
}

func TestCartSingleShippingAdjustment(t *testing.T) {
	cart := &Cart{ID: "c1"}
	now := time.Now()

	cart.SetShipping("s1", money("9.99"), map[string]any{"method": "ground"}, now)
	cart.SetShipping("s2", money("-4"), map[string]any{"method": "pickup"}, now)

	count := 0
	for _, a := range cart.Adjustments {
		if a.Kind == AdjustmentShipping {
			count++
		}
	}
	assert.Equal(t, 1, count)
	assert.True(t, cart.ShippingAmount().IsZero())
	assert.Equal(t, "pickup", cart.ShippingAdjustment().Metadata["method"])
}

func TestRecomputeIsOnlyTotalsWriter(t *testing.T) {
	cart := &Cart{ID: "c1"}
	line := CartLine{ID: "l1", Quantity: 2}
	line.ApplyPrice(money("50"), nil)
	cart.Lines = append(cart.Lines, line)

	assert.True(t, cart.Totals().GrandTotal.IsZero(), "totals stay zero until recompute")

	rates := []TaxRate{{Name: "state", Rate: money("0.1"), Active: true}}
	first := cart.Recompute(rates)
	second := cart.Recompute(rates)

	assert.True(t, first.Equal(second))
	assert.Equal(t, "110.00", cart.Totals().GrandTotal.StringFixed(2))
	require.Len(t, first.Taxes, 1)
	assert.Equal(t, "10.00", first.Taxes[0].Amount.StringFixed(2))
}

func TestComputeTotalsRoundsEachTaxComponent(t *testing.T) {
	line := CartLine{Quantity: 1}
	line.ApplyPrice(money("10.05"), nil)

	got := ComputeTotals([]CartLine{line}, nil, []TaxRate{
		{Rate: money("0.05"), Active: true},
		{Rate: money("0.05"), Active: true},
	})

	// 10.05 * 0.05 = 0.5025 rounds to 0.50 per rate
	assert.Equal(t, "1.00", got.Tax.StringFixed(2))
	assert.Equal(t, "11.05", got.GrandTotal.StringFixed(2))
}

func TestApplyPriceDerivesLineTotal(t *testing.T) {
	line := CartLine{Quantity: 3}
	line.ApplyPrice(money("19.999"), nil)

	assert.Equal(t, "20.00", line.UnitPrice.StringFixed(2))
	assert.Equal(t, "60.00", line.LineTotal.StringFixed(2))
}

func TestCartLineLookups(t *testing.T) {
	cart := &Cart{Lines: []CartLine{
		{ID: "l1", Fingerprint: "fp1", Quantity: 1},
		{ID: "l2", Fingerprint: "fp2", Quantity: 4},
	}}

	assert.Equal(t, "l2", cart.LineByFingerprint("fp2").ID)
	assert.Nil(t, cart.LineByFingerprint(""))
	assert.Equal(t, 5, cart.ItemQuantity())

	cart.Line("l1").Quantity = 7
	assert.Equal(t, 7, cart.Lines[0].Quantity)

	assert.True(t, cart.RemoveLine("l1"))
	assert.Nil(t, cart.Line("l1"))
	assert.Len(t, cart.Lines, 1)

	cart.ClearItems()
	assert.Empty(t, cart.Lines)
	assert.Empty(t, cart.Adjustments)
}

func TestCartMarshalIncludesTotals(t *testing.T) {
	cart := &Cart{ID: "c1", Owner: AnonymousOwner("secret-token"), Status: CartOpen}
	line := CartLine{ID: "l1", Quantity: 1, LineIdentity: LineIdentity{ProductID: "p"}}
	line.ApplyPrice(money("5"), nil)
	cart.Lines = []CartLine{line}
	cart.Recompute(nil)

	raw, err := json.Marshal(cart)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "c1", body["id"])
	assert.Equal(t, "5", body["totals"].(map[string]any)["grandTotal"])
	assert.NotContains(t, string(raw), "secret-token")
	assert.Equal(t, []any{}, body["adjustments"])
}

func TestOwnerUsageIdentity(t *testing.T) {
	user := UserOwner("u-1")
	anon := AnonymousOwner("tok")

	assert.Equal(t, "user:u-1", user.UsageIdentity())
	assert.Equal(t, anon.UsageIdentity(), AnonymousOwner("tok").UsageIdentity())
	assert.NotContains(t, anon.UsageIdentity(), "tok")
	assert.False(t, user.Equal(anon))
	assert.True(t, CartOwner{}.IsZero())
}

func TestCustomerRefColumns(t *testing.T) {
	userID, guestID := RegisteredCustomer("u-1").Columns()
	require.NotNil(t, userID)
	assert.Nil(t, guestID)

	ref, err := CustomerRefFromColumns(nil, strPtr("g-1"))
	require.NoError(t, err)
	id, ok := ref.GuestID()
	assert.True(t, ok)
	assert.Equal(t, "g-1", id)

	_, err = CustomerRefFromColumns(strPtr("u"), strPtr("g"))
	assert.ErrorIs(t, err, ErrIntegrity)
}

func TestDocumentTransitions(t *testing.T) {
	assert.True(t, CanTransition(StatusDraft, StatusPublished))
	assert.True(t, CanTransition(StatusDraft, StatusCancelled))
	assert.True(t, CanTransition(StatusPublished, StatusCancelled))
	assert.False(t, CanTransition(StatusPublished, StatusDraft))
	assert.False(t, CanTransition(StatusCancelled, StatusPublished))

	day := time.Date(2026, 1, 5, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, "ORD-20260105-0042", FormatDocumentNumber("ORD", day, 42))
}

func TestValidationErrorPrefixed(t *testing.T) {
	err := NewValidationError("roll_id", "bad").Prefixed("lines[2]")
	assert.Equal(t, "validation failed: lines[2].roll_id: bad", err.Error())
}

func strPtr(v string) *string { return &v }
