package domain

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// RoundMoney rounds to cents, half away from zero.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

type TaxLine struct {
	Name   string          `json:"name"`
	Rate   decimal.Decimal `json:"rate"`
	Amount decimal.Decimal `json:"amount"`
}

type Totals struct {
	Subtotal   decimal.Decimal `json:"subtotal"`
	Discount   decimal.Decimal `json:"discount"`
	Shipping   decimal.Decimal `json:"shipping"`
	Tax        decimal.Decimal `json:"tax"`
	GrandTotal decimal.Decimal `json:"grandTotal"`
	Taxes      []TaxLine       `json:"taxes,omitempty"`
}

// Equal compares the money fields.
func (t Totals) Equal(o Totals) bool {
	return t.Subtotal.Equal(o.Subtotal) &&
		t.Discount.Equal(o.Discount) &&
		t.Shipping.Equal(o.Shipping) &&
		t.Tax.Equal(o.Tax) &&
		t.GrandTotal.Equal(o.GrandTotal)
}

// ComputeTotals derives totals from lines and adjustments in a fixed order:
// items, discount, shipping, tax on the clamped base, then the grand total.
// Every active rate applies to the same base; there is no jurisdiction model.
func ComputeTotals(lines []CartLine, adjustments []Adjustment, rates []TaxRate) Totals {
	items := decimal.Zero
	for _, l := range lines {
		items = items.Add(l.LineTotal)
	}

	discounts := decimal.Zero
	shipping := decimal.Zero
	for _, a := range adjustments {
		switch a.Kind {
		case AdjustmentDiscount:
			discounts = discounts.Add(a.Amount)
		case AdjustmentShipping:
			shipping = shipping.Add(a.Amount)
		}
	}
	discount := discounts.Abs()

	base := items.Sub(discount).Add(shipping)
	if base.IsNegative() {
		base = decimal.Zero
	}

	tax := decimal.Zero
	var taxLines []TaxLine
	for _, r := range rates {
		if !r.Active {
			continue
		}
		amount := RoundMoney(base.Mul(r.Rate))
		tax = tax.Add(amount)
		taxLines = append(taxLines, TaxLine{Name: r.Name, Rate: r.Rate, Amount: amount})
	}

	grand := RoundMoney(items.Sub(discount).Add(shipping).Add(tax))
	if grand.IsNegative() {
		grand = decimal.Zero
	}

	return Totals{
		Subtotal:   RoundMoney(items),
		Discount:   RoundMoney(discount),
		Shipping:   RoundMoney(shipping),
		Tax:        RoundMoney(tax),
		GrandTotal: grand,
		Taxes:      taxLines,
	}
}

// Recompute is the only writer of the cart totals.
func (c *Cart) Recompute(rates []TaxRate) Totals {
	c.totals = ComputeTotals(c.Lines, c.Adjustments, rates)
	return c.totals
}

// Percent returns value percent of amount, rounded to cents.
func Percent(amount, value decimal.Decimal) decimal.Decimal {
	return RoundMoney(amount.Mul(value).Div(hundred))
}
