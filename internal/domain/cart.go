package domain

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type CartStatus string

const (
	CartOpen      CartStatus = "open"
	CartAbandoned CartStatus = "abandoned"
	CartConverted CartStatus = "converted"
)

// SizeUnit tags cut dimensions.
type SizeUnit string

const (
	UnitInches SizeUnit = "in"
	UnitFeet   SizeUnit = "ft"
)

// ParseSizeUnit accepts the short and long spellings used by storefront forms.
func ParseSizeUnit(raw string) (SizeUnit, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "in", "inch", "inches":
		return UnitInches, true
	case "ft", "foot", "feet":
		return UnitFeet, true
	default:
		return "", false
	}
}

// LineIdentity is the set of attributes that decide whether two line requests are the
// same purchasable configuration.
type LineIdentity struct {
	ProductID    string           `json:"productId"`
	VariantID    *string          `json:"variantId,omitempty"`
	SubvariantID *string          `json:"subvariantId,omitempty"`
	VariantSKU   *string          `json:"variantSku,omitempty"`
	DesignRef    *string          `json:"designRef,omitempty"`
	RollID       *string          `json:"rollId,omitempty"`
	Width        *decimal.Decimal `json:"width,omitempty"`
	Height       *decimal.Decimal `json:"height,omitempty"`
	SizeUnit     *SizeUnit        `json:"sizeUnit,omitempty"`
	Options      map[string]any   `json:"options,omitempty"`
}

// RollBreakdown freezes how a roll line was priced.
type RollBreakdown struct {
	RollID             string          `json:"rollId"`
	RollWidthIn        decimal.Decimal `json:"rollWidthIn"`
	WidthFt            decimal.Decimal `json:"widthFt"`
	HeightFt           decimal.Decimal `json:"heightFt"`
	FixedAreaSqFt      decimal.Decimal `json:"fixedAreaSqft"`
	OffcutWidthIn      decimal.Decimal `json:"offcutWidthIn"`
	OffcutAreaSqFt     decimal.Decimal `json:"offcutAreaSqft"`
	PricePerSqFt       decimal.Decimal `json:"pricePerSqft"`
	OffcutPricePerSqFt decimal.Decimal `json:"offcutPricePerSqft"`
	UnitPrice          decimal.Decimal `json:"unitPrice"`
}

type CartLine struct {
	ID     string `json:"id"`
	CartID string `json:"cartId"`
	LineIdentity
	Quantity      int              `json:"quantity"`
	UnitPrice     decimal.Decimal  `json:"unitPrice"`
	LineTotal     decimal.Decimal  `json:"lineTotal"`
	PriceOverride *decimal.Decimal `json:"priceOverride,omitempty"`
	Roll          *RollBreakdown   `json:"rollPricing,omitempty"`
	Fingerprint   string           `json:"-"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

// ApplyPrice sets the unit price and derives the line total from the current quantity.
func (l *CartLine) ApplyPrice(unit decimal.Decimal, roll *RollBreakdown) {
	l.UnitPrice = RoundMoney(unit)
	l.LineTotal = RoundMoney(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	l.Roll = roll
}

type AdjustmentKind string

const (
	AdjustmentShipping AdjustmentKind = "shipping"
	AdjustmentDiscount AdjustmentKind = "discount"
)

// Adjustment is a signed ledger entry. Shipping is never negative, discounts never positive.
type Adjustment struct {
	ID        string          `json:"id"`
	CartID    string          `json:"cartId"`
	Kind      AdjustmentKind  `json:"kind"`
	Amount    decimal.Decimal `json:"amount"`
	Code      *string         `json:"code,omitempty"`
	Metadata  map[string]any  `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

func (a Adjustment) CodeValue() string {
	if a.Code == nil {
		return ""
	}
	return *a.Code
}

type Cart struct {
	ID              string       `json:"id"`
	Owner           CartOwner    `json:"owner"`
	Currency        string       `json:"currency"`
	Status          CartStatus   `json:"status"`
	ShippingAddress *Address     `json:"shippingAddress,omitempty"`
	BillingAddress  *Address     `json:"billingAddress,omitempty"`
	Lines           []CartLine   `json:"items"`
	Adjustments     []Adjustment `json:"adjustments"`
	CreatedAt       time.Time    `json:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt"`

	totals Totals
}

// Totals returns the totals written by the last Recompute.
func (c *Cart) Totals() Totals {
	return c.totals
}

func (c *Cart) MarshalJSON() ([]byte, error) {
	type plain Cart
	lines := c.Lines
	if lines == nil {
		lines = []CartLine{}
	}
	adjustments := c.Adjustments
	if adjustments == nil {
		adjustments = []Adjustment{}
	}
	p := plain(*c)
	p.Lines = lines
	p.Adjustments = adjustments
	return json.Marshal(struct {
		plain
		Totals Totals `json:"totals"`
	}{plain: p, Totals: c.totals})
}

// Line returns the line with id, or nil.
func (c *Cart) Line(id string) *CartLine {
	for i := range c.Lines {
		if c.Lines[i].ID == id {
			return &c.Lines[i]
		}
	}
	return nil
}

// LineByFingerprint returns the line matching fp, or nil.
func (c *Cart) LineByFingerprint(fp string) *CartLine {
	if fp == "" {
		return nil
	}
	for i := range c.Lines {
		if c.Lines[i].Fingerprint == fp {
			return &c.Lines[i]
		}
	}
	return nil
}

func (c *Cart) RemoveLine(id string) bool {
	for i := range c.Lines {
		if c.Lines[i].ID == id {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			return true
		}
	}
	return false
}

// ClearItems drops every line and adjustment.
func (c *Cart) ClearItems() {
	c.Lines = nil
	c.Adjustments = nil
}

// ShippingAdjustment returns the single shipping entry, or nil.
func (c *Cart) ShippingAdjustment() *Adjustment {
	for i := range c.Adjustments {
		if c.Adjustments[i].Kind == AdjustmentShipping {
			return &c.Adjustments[i]
		}
	}
	return nil
}

// ShippingAmount is 0 when no shipping method is set.
func (c *Cart) ShippingAmount() decimal.Decimal {
	if adj := c.ShippingAdjustment(); adj != nil {
		return adj.Amount
	}
	return decimal.Zero
}

// SetShipping replaces the shipping entry. Negative amounts are clamped to zero.
func (c *Cart) SetShipping(id string, amount decimal.Decimal, metadata map[string]any, now time.Time) {
	if amount.IsNegative() {
		amount = decimal.Zero
	}
	if adj := c.ShippingAdjustment(); adj != nil {
		adj.Amount = RoundMoney(amount)
		adj.Metadata = metadata
		return
	}
	c.Adjustments = append(c.Adjustments, Adjustment{
		ID:        id,
		CartID:    c.ID,
		Kind:      AdjustmentShipping,
		Amount:    RoundMoney(amount),
		Metadata:  metadata,
		CreatedAt: now,
	})
}

// Discount returns the discount entry for code, or nil.
func (c *Cart) Discount(code string) *Adjustment {
	for i := range c.Adjustments {
		adj := &c.Adjustments[i]
		if adj.Kind == AdjustmentDiscount && adj.CodeValue() == code {
			return adj
		}
	}
	return nil
}

// Discounts returns every discount entry in insertion order.
func (c *Cart) Discounts() []Adjustment {
	var out []Adjustment
	for _, adj := range c.Adjustments {
		if adj.Kind == AdjustmentDiscount {
			out = append(out, adj)
		}
	}
	return out
}

// PutDiscount writes or replaces the discount for code. amount is the positive value
// taken off; it is stored negated.
func (c *Cart) PutDiscount(id, code string, amount decimal.Decimal, metadata map[string]any, now time.Time) {
	stored := RoundMoney(amount.Abs()).Neg()
	if adj := c.Discount(code); adj != nil {
		adj.Amount = stored
		adj.Metadata = metadata
		return
	}
	codeCopy := code
	c.Adjustments = append(c.Adjustments, Adjustment{
		ID:        id,
		CartID:    c.ID,
		Kind:      AdjustmentDiscount,
		Amount:    stored,
		Code:      &codeCopy,
		Metadata:  metadata,
		CreatedAt: now,
	})
}

func (c *Cart) RemoveDiscount(code string) bool {
	for i := range c.Adjustments {
		adj := c.Adjustments[i]
		if adj.Kind == AdjustmentDiscount && adj.CodeValue() == code {
			c.Adjustments = append(c.Adjustments[:i], c.Adjustments[i+1:]...)
			return true
		}
	}
	return false
}

// ItemQuantity sums quantities across all lines.
func (c *Cart) ItemQuantity() int {
	total := 0
	for _, l := range c.Lines {
		total += l.Quantity
	}
	return total
}
