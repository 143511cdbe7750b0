package pricing

import (
	"github.com/shopspring/decimal"

	"printshop-commerce/internal/domain"
)

var inchesPerFoot = decimal.NewFromInt(12)

// RollCut is a cut request against a roll.
type RollCut struct {
	Width  decimal.Decimal
	Height decimal.Decimal
	Unit   domain.SizeUnit
}

// ToInches converts a dimension to inches.
func ToInches(v decimal.Decimal, unit domain.SizeUnit) decimal.Decimal {
	if unit == domain.UnitFeet {
		return v.Mul(inchesPerFoot)
	}
	return v
}

// ToFeet converts a dimension to feet.
func ToFeet(v decimal.Decimal, unit domain.SizeUnit) decimal.Decimal {
	if unit == domain.UnitFeet {
		return v
	}
	return v.Div(inchesPerFoot)
}

// PriceRoll prices one unit of a cut. The cut area is billed at the product rate and
// the strip left beside the cut, across the roll width, at the roll's offcut rate.
func PriceRoll(cut RollCut, roll domain.Roll, pricePerSqFt decimal.Decimal) (domain.RollBreakdown, error) {
	verr := &domain.ValidationError{}
	if !cut.Width.IsPositive() {
		verr.Add("width", "must be greater than zero")
	}
	if !cut.Height.IsPositive() {
		verr.Add("height", "must be greater than zero")
	}
	if cut.Unit != domain.UnitInches && cut.Unit != domain.UnitFeet {
		verr.Add("size_unit", "must be in or ft")
	}
	if verr.HasErrors() {
		return domain.RollBreakdown{}, verr
	}

	widthIn := ToInches(cut.Width, cut.Unit)
	if widthIn.GreaterThan(roll.WidthIn) {
		return domain.RollBreakdown{}, domain.NewValidationError("width",
			"exceeds roll width of "+roll.WidthIn.String()+" in")
	}

	widthFt := ToFeet(cut.Width, cut.Unit)
	heightFt := ToFeet(cut.Height, cut.Unit)
	fixedArea := widthFt.Mul(heightFt)

	offcutWidthIn := roll.WidthIn.Sub(widthIn)
	if offcutWidthIn.IsNegative() {
		offcutWidthIn = decimal.Zero
	}
	offcutArea := offcutWidthIn.Div(inchesPerFoot).Mul(heightFt)

	unit := domain.RoundMoney(fixedArea.Mul(pricePerSqFt).Add(offcutArea.Mul(roll.OffcutPrice)))

	return domain.RollBreakdown{
		RollID:             roll.ID,
		RollWidthIn:        roll.WidthIn,
		WidthFt:            widthFt.Round(4),
		HeightFt:           heightFt.Round(4),
		FixedAreaSqFt:      fixedArea.Round(4),
		OffcutWidthIn:      offcutWidthIn.Round(4),
		OffcutAreaSqFt:     offcutArea.Round(4),
		PricePerSqFt:       pricePerSqFt,
		OffcutPricePerSqFt: roll.OffcutPrice,
		UnitPrice:          unit,
	}, nil
}
