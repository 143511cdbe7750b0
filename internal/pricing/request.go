package pricing

import (
	"strings"

	"github.com/shopspring/decimal"

	"printshop-commerce/internal/domain"
)

// LineRequest is a line as submitted by a client, before normalization.
type LineRequest struct {
	ProductID     string           `json:"product_id"`
	VariantID     string           `json:"variant_id,omitempty"`
	SubvariantID  string           `json:"subvariant_id,omitempty"`
	VariantSKU    string           `json:"variant_sku,omitempty"`
	DesignRef     string           `json:"design_ref,omitempty"`
	RollID        string           `json:"roll_id,omitempty"`
	Width         *decimal.Decimal `json:"width,omitempty"`
	Height        *decimal.Decimal `json:"height,omitempty"`
	SizeUnit      string           `json:"size_unit,omitempty"`
	Options       map[string]any   `json:"options,omitempty"`
	Quantity      int              `json:"quantity"`
	PriceOverride *decimal.Decimal `json:"price_override,omitempty"`
}

// Identity validates the request and returns its normalized identity. Blank strings
// become absent values and dimensions without a unit are taken as inches.
func (r LineRequest) Identity() (domain.LineIdentity, error) {
	verr := &domain.ValidationError{}
	productID := strings.TrimSpace(r.ProductID)
	if productID == "" {
		verr.Add("product_id", "required")
	}
	if msg := quantityProblem(r.Quantity); msg != "" {
		verr.Add("quantity", msg)
	}

	id := domain.LineIdentity{
		ProductID:    productID,
		VariantID:    optional(r.VariantID),
		SubvariantID: optional(r.SubvariantID),
		VariantSKU:   optional(r.VariantSKU),
		DesignRef:    optional(r.DesignRef),
		RollID:       optional(r.RollID),
		Width:        r.Width,
		Height:       r.Height,
		Options:      r.Options,
	}
	if len(id.Options) == 0 {
		id.Options = nil
	}

	switch raw := strings.TrimSpace(r.SizeUnit); {
	case raw != "":
		unit, ok := domain.ParseSizeUnit(raw)
		if !ok {
			verr.Add("size_unit", "must be in or ft")
		} else {
			id.SizeUnit = &unit
		}
	case r.Width != nil || r.Height != nil:
		unit := domain.UnitInches
		id.SizeUnit = &unit
	}

	if verr.HasErrors() {
		return domain.LineIdentity{}, verr
	}
	return id, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
