package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"printshop-commerce/internal/domain"
)

// MaxLineQuantity caps the quantity of a single line, stacked or not.
const MaxLineQuantity = 100000

// maxMoney is the largest amount a NUMERIC(12,2) column holds.
var maxMoney = decimal.RequireFromString("9999999999.99")

// CheckQuantity rejects quantities outside 1..MaxLineQuantity.
func CheckQuantity(q int) error {
	if msg := quantityProblem(q); msg != "" {
		return domain.NewValidationError("quantity", msg)
	}
	return nil
}

func quantityProblem(q int) string {
	switch {
	case q < 1:
		return "must be at least 1"
	case q > MaxLineQuantity:
		return fmt.Sprintf("must be at most %d", MaxLineQuantity)
	}
	return ""
}

// CheckLine validates a priced line: its quantity and a line total that still fits
// a money column.
func CheckLine(line domain.CartLine) error {
	if err := CheckQuantity(line.Quantity); err != nil {
		return err
	}
	if line.LineTotal.GreaterThan(maxMoney) {
		return domain.NewValidationError("quantity", "line total is too large")
	}
	return nil
}
