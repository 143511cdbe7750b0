package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"printshop-commerce/internal/domain"
)

func TestCheckQuantity(t *testing.T) {
	tests := []struct {
		qty int
		ok  bool
	}{
		{0, false},
		{-3, false},
		{1, true},
		{MaxLineQuantity, true},
		{MaxLineQuantity + 1, false},
	}
	for _, tt := range tests {
		err := CheckQuantity(tt.qty)
		if tt.ok {
			assert.NoError(t, err, "qty %d", tt.qty)
			continue
		}
		ve, ok := domain.IsValidation(err)
		require.True(t, ok, "qty %d", tt.qty)
		assert.Contains(t, ve.Fields, "quantity")
	}
}

func TestLineRequestIdentityRejectsHugeQuantity(t *testing.T) {
	_, err := LineRequest{ProductID: "p", Quantity: MaxLineQuantity + 1}.Identity()
	ve, ok := domain.IsValidation(err)
	require.True(t, ok)
	assert.Contains(t, ve.Fields, "quantity")
}

func TestCheckLineTotal(t *testing.T) {
	line := domain.CartLine{Quantity: 2}
	line.ApplyPrice(decimal.RequireFromString("4999999999.99"), nil)
	assert.NoError(t, CheckLine(line))

	line.Quantity = 3
	line.ApplyPrice(line.UnitPrice, nil)
	ve, ok := domain.IsValidation(CheckLine(line))
	require.True(t, ok)
	assert.Contains(t, ve.Fields, "quantity")
}
