package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"printshop-commerce/internal/domain"
)

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func vinylRoll() domain.Roll {
	return domain.Roll{ID: "roll-36", Name: "36in gloss vinyl", WidthIn: d("36"), OffcutPrice: d("2")}
}

func TestPriceRollReferenceCut(t *testing.T) {
	got, err := PriceRoll(RollCut{Width: d("24"), Height: d("48"), Unit: domain.UnitInches}, vinylRoll(), d("10"))
	require.NoError(t, err)

	assert.True(t, got.WidthFt.Equal(d("2")), "width ft %s", got.WidthFt)
	assert.True(t, got.HeightFt.Equal(d("4")), "height ft %s", got.HeightFt)
	assert.True(t, got.FixedAreaSqFt.Equal(d("8")), "fixed area %s", got.FixedAreaSqFt)
	assert.True(t, got.OffcutWidthIn.Equal(d("12")), "offcut width %s", got.OffcutWidthIn)
	assert.True(t, got.OffcutAreaSqFt.Equal(d("4")), "offcut area %s", got.OffcutAreaSqFt)
	assert.Equal(t, "88.00", got.UnitPrice.StringFixed(2))
	assert.Equal(t, "roll-36", got.RollID)
}

func TestPriceRoll(t *testing.T) {
	tests := []struct {
		name    string
		cut     RollCut
		want    string
		errKeys []string
	}{
		{name: "feet input", cut: RollCut{Width: d("2"), Height: d("4"), Unit: domain.UnitFeet}, want: "88.00"},
		{name: "full width has no offcut", cut: RollCut{Width: d("36"), Height: d("12"), Unit: domain.UnitInches}, want: "30.00"},
		{name: "rounds to cents", cut: RollCut{Width: d("10"), Height: d("7"), Unit: domain.UnitInches}, want: "7.39"},
		{name: "zero width", cut: RollCut{Width: d("0"), Height: d("10"), Unit: domain.UnitInches}, errKeys: []string{"width"}},
		{name: "negative height", cut: RollCut{Width: d("10"), Height: d("-1"), Unit: domain.UnitInches}, errKeys: []string{"height"}},
		{name: "both non-positive", cut: RollCut{Width: d("0"), Height: d("0"), Unit: domain.UnitInches}, errKeys: []string{"width", "height"}},
		{name: "wider than roll", cut: RollCut{Width: d("37"), Height: d("10"), Unit: domain.UnitInches}, errKeys: []string{"width"}},
		{name: "wider than roll in feet", cut: RollCut{Width: d("3.5"), Height: d("1"), Unit: domain.UnitFeet}, errKeys: []string{"width"}},
		{name: "unknown unit", cut: RollCut{Width: d("1"), Height: d("1"), Unit: "cm"}, errKeys: []string{"size_unit"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PriceRoll(tt.cut, vinylRoll(), d("10"))
			if len(tt.errKeys) > 0 {
				ve, ok := domain.IsValidation(err)
				require.True(t, ok, "expected validation error, got %v", err)
				for _, k := range tt.errKeys {
					assert.Contains(t, ve.Fields, k)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.UnitPrice.StringFixed(2))
		})
	}
}

func TestPriceLine(t *testing.T) {
	roll := vinylRoll()
	vinyl := domain.Product{
		ID: "vinyl", PricingMethod: domain.PricingRoll, PricePerSqFt: d("10"),
		Active: true, RollIDs: []string{"roll-36"},
	}
	cards := domain.Product{ID: "cards", PricingMethod: domain.PricingStandard, Price: d("49.5"), Active: true}

	t.Run("roll product", func(t *testing.T) {
		got, err := PriceLine(vinyl, &roll, domain.LineIdentity{
			ProductID: "vinyl", RollID: strPtr("roll-36"), Width: decPtr("24"), Height: decPtr("48"),
			SizeUnit: unitPtr(domain.UnitInches),
		}, nil)
		require.NoError(t, err)
		assert.Equal(t, "88.00", got.UnitPrice.StringFixed(2))
		require.NotNil(t, got.Roll)
	})

	t.Run("roll not assigned to product", func(t *testing.T) {
		other := domain.Roll{ID: "roll-54", WidthIn: d("54"), OffcutPrice: d("1")}
		_, err := PriceLine(vinyl, &other, domain.LineIdentity{
			ProductID: "vinyl", RollID: strPtr("roll-54"), Width: decPtr("24"), Height: decPtr("48"),
		}, nil)
		ve, ok := domain.IsValidation(err)
		require.True(t, ok)
		assert.Contains(t, ve.Fields, "roll_id")
	})

	t.Run("roll product without roll", func(t *testing.T) {
		_, err := PriceLine(vinyl, nil, domain.LineIdentity{ProductID: "vinyl", Width: decPtr("1"), Height: decPtr("1")}, nil)
		ve, ok := domain.IsValidation(err)
		require.True(t, ok)
		assert.Contains(t, ve.Fields, "roll_id")
	})

	t.Run("roll product without dimensions", func(t *testing.T) {
		_, err := PriceLine(vinyl, &roll, domain.LineIdentity{ProductID: "vinyl", RollID: strPtr("roll-36")}, nil)
		ve, ok := domain.IsValidation(err)
		require.True(t, ok)
		assert.Contains(t, ve.Fields, "width")
		assert.Contains(t, ve.Fields, "height")
	})

	t.Run("standard product uses catalog price", func(t *testing.T) {
		got, err := PriceLine(cards, nil, domain.LineIdentity{ProductID: "cards"}, nil)
		require.NoError(t, err)
		assert.Equal(t, "49.50", got.UnitPrice.StringFixed(2))
		assert.Nil(t, got.Roll)
	})

	t.Run("override wins and is clamped", func(t *testing.T) {
		got, err := PriceLine(cards, nil, domain.LineIdentity{ProductID: "cards"}, decPtr("-5"))
		require.NoError(t, err)
		assert.True(t, got.UnitPrice.IsZero())

		got, err = PriceLine(cards, nil, domain.LineIdentity{ProductID: "cards"}, decPtr("12.345"))
		require.NoError(t, err)
		assert.Equal(t, "12.35", got.UnitPrice.StringFixed(2))
	})

	t.Run("inactive product", func(t *testing.T) {
		inactive := cards
		inactive.Active = false
		_, err := PriceLine(inactive, nil, domain.LineIdentity{ProductID: "cards"}, nil)
		ve, ok := domain.IsValidation(err)
		require.True(t, ok)
		assert.Contains(t, ve.Fields, "product_id")
	})
}
