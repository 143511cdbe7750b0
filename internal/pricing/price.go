package pricing

import (
	"github.com/shopspring/decimal"

	"printshop-commerce/internal/domain"
)

// LinePrice is the result of pricing one unit of a line configuration.
type LinePrice struct {
	UnitPrice decimal.Decimal
	Roll      *domain.RollBreakdown
	Override  *decimal.Decimal
}

// PriceLine re-derives the unit price of a line from current catalog data.
// roll must be the roll referenced by id.RollID, or nil when none is referenced.
// override is honoured only when the caller is privileged and is clamped to zero.
func PriceLine(product domain.Product, roll *domain.Roll, id domain.LineIdentity, override *decimal.Decimal) (LinePrice, error) {
	if !product.Active {
		return LinePrice{}, domain.NewValidationError("product_id", "product is not available")
	}
	if override != nil && override.IsNegative() {
		zero := decimal.Zero
		override = &zero
	}

	if id.RollID != nil {
		if roll == nil || roll.ID != *id.RollID || !product.AcceptsRoll(*id.RollID) {
			return LinePrice{}, domain.NewValidationError("roll_id", "roll is not available for this product")
		}
	}

	switch product.PricingMethod {
	case domain.PricingRoll:
		if roll == nil {
			return LinePrice{}, domain.NewValidationError("roll_id", "required for roll priced products")
		}
		cut, err := rollCut(id)
		if err != nil {
			return LinePrice{}, err
		}
		breakdown, err := PriceRoll(cut, *roll, product.PricePerSqFt)
		if err != nil {
			return LinePrice{}, err
		}
		unit := breakdown.UnitPrice
		if override != nil {
			unit = *override
		}
		return LinePrice{UnitPrice: domain.RoundMoney(unit), Roll: &breakdown, Override: override}, nil
	default:
		unit := product.Price
		if override != nil {
			unit = *override
		}
		return LinePrice{UnitPrice: domain.RoundMoney(unit), Override: override}, nil
	}
}

func rollCut(id domain.LineIdentity) (RollCut, error) {
	verr := &domain.ValidationError{}
	if id.Width == nil {
		verr.Add("width", "required for roll priced products")
	}
	if id.Height == nil {
		verr.Add("height", "required for roll priced products")
	}
	if verr.HasErrors() {
		return RollCut{}, verr
	}
	unit := domain.UnitInches
	if id.SizeUnit != nil {
		unit = *id.SizeUnit
	}
	return RollCut{Width: *id.Width, Height: *id.Height, Unit: unit}, nil
}
