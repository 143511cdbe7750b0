package pricing

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/cucumber/godog"
	"github.com/shopspring/decimal"

	"printshop-commerce/internal/domain"
)

type pricingTestContext struct {
	roll      domain.Roll
	ppsf      decimal.Decimal
	breakdown domain.RollBreakdown
	err       error

	cart   *domain.Cart
	rates  []domain.TaxRate
	totals domain.Totals
	again  domain.Totals
	seq    int
}

func (c *pricingTestContext) reset() {
	c.roll = domain.Roll{}
	c.ppsf = decimal.Zero
	c.breakdown = domain.RollBreakdown{}
	c.err = nil
	c.cart = &domain.Cart{ID: "cart-1", Status: domain.CartOpen}
	c.rates = nil
	c.totals = domain.Totals{}
	c.again = domain.Totals{}
	c.seq = 0
}

func (c *pricingTestContext) nextID() string {
	c.seq++
	return fmt.Sprintf("id-%d", c.seq)
}

func expectMoney(what string, got decimal.Decimal, want string) error {
	if got.StringFixed(2) != want {
		return fmt.Errorf("expected %s %s, got %s", what, want, got.StringFixed(2))
	}
	return nil
}

func (c *pricingTestContext) aRoll(id string, width, offcut string) error {
	c.roll = domain.Roll{ID: id, WidthIn: decimal.RequireFromString(width), OffcutPrice: decimal.RequireFromString(offcut)}
	return nil
}

func (c *pricingTestContext) aRollProductPricedAt(ppsf string) error {
	c.ppsf = decimal.RequireFromString(ppsf)
	return nil
}

func (c *pricingTestContext) iPriceACut(width, height, unit string) error {
	u, ok := domain.ParseSizeUnit(unit)
	if !ok {
		return fmt.Errorf("unknown unit %q", unit)
	}
	c.breakdown, c.err = PriceRoll(RollCut{
		Width:  decimal.RequireFromString(width),
		Height: decimal.RequireFromString(height),
		Unit:   u,
	}, c.roll, c.ppsf)
	return nil
}

func (c *pricingTestContext) theFixedAreaIs(area string) error {
	if c.err != nil {
		return c.err
	}
	if !c.breakdown.FixedAreaSqFt.Equal(decimal.RequireFromString(area)) {
		return fmt.Errorf("expected fixed area %s, got %s", area, c.breakdown.FixedAreaSqFt)
	}
	return nil
}

func (c *pricingTestContext) theOffcutAreaIs(area string) error {
	if c.err != nil {
		return c.err
	}
	if !c.breakdown.OffcutAreaSqFt.Equal(decimal.RequireFromString(area)) {
		return fmt.Errorf("expected offcut area %s, got %s", area, c.breakdown.OffcutAreaSqFt)
	}
	return nil
}

func (c *pricingTestContext) theUnitPriceIs(price string) error {
	if c.err != nil {
		return c.err
	}
	return expectMoney("unit price", c.breakdown.UnitPrice, price)
}

func (c *pricingTestContext) aQuantityTotals(qty int, total string) error {
	line := domain.CartLine{Quantity: qty}
	line.ApplyPrice(c.breakdown.UnitPrice, &c.breakdown)
	return expectMoney("line total", line.LineTotal, total)
}

func (c *pricingTestContext) theCutIsRejectedOn(field string) error {
	ve, ok := domain.IsValidation(c.err)
	if !ok {
		return fmt.Errorf("expected validation error, got %v", c.err)
	}
	if _, ok := ve.Fields[field]; !ok {
		return fmt.Errorf("expected error on %q, got %v", field, ve.Fields)
	}
	return nil
}

func (c *pricingTestContext) anEmptyCart() error {
	c.cart = &domain.Cart{ID: "cart-1", Status: domain.CartOpen}
	return nil
}

func (c *pricingTestContext) aLineOfAt(qty int, price string) error {
	line := domain.CartLine{ID: c.nextID(), CartID: c.cart.ID, Quantity: qty}
	line.ApplyPrice(decimal.RequireFromString(price), nil)
	c.cart.Lines = append(c.cart.Lines, line)
	return nil
}

func (c *pricingTestContext) shippingOf(amount string) error {
	c.cart.SetShipping(c.nextID(), decimal.RequireFromString(amount), nil, time.Now())
	return nil
}

func (c *pricingTestContext) aDiscountOf(code, amount string) error {
	c.cart.PutDiscount(c.nextID(), code, decimal.RequireFromString(amount), nil, time.Now())
	return nil
}

func (c *pricingTestContext) anActiveTaxRateOf(rate string) error {
	c.rates = append(c.rates, domain.TaxRate{ID: c.nextID(), Name: "rate", Rate: decimal.RequireFromString(rate), Active: true})
	return nil
}

func (c *pricingTestContext) anInactiveTaxRateOf(rate string) error {
	c.rates = append(c.rates, domain.TaxRate{ID: c.nextID(), Name: "rate", Rate: decimal.RequireFromString(rate)})
	return nil
}

func (c *pricingTestContext) theCartIsRecomputed() error {
	c.totals = c.cart.Recompute(c.rates)
	return nil
}

func (c *pricingTestContext) theCartIsRecomputedTwice() error {
	c.totals = c.cart.Recompute(c.rates)
	c.again = c.cart.Recompute(c.rates)
	return nil
}

func (c *pricingTestContext) bothComputationsAgree() error {
	if !c.totals.Equal(c.again) {
		return errors.New("recompute produced different totals")
	}
	if !c.cart.Totals().Equal(c.totals) {
		return errors.New("cart totals differ from computed totals")
	}
	return nil
}

func (c *pricingTestContext) theSubtotalIs(v string) error {
	return expectMoney("subtotal", c.totals.Subtotal, v)
}

func (c *pricingTestContext) theDiscountIs(v string) error {
	return expectMoney("discount", c.totals.Discount, v)
}

func (c *pricingTestContext) theTaxIs(v string) error {
	return expectMoney("tax", c.totals.Tax, v)
}

func (c *pricingTestContext) theGrandTotalIs(v string) error {
	return expectMoney("grand total", c.totals.GrandTotal, v)
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &pricingTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^a roll "([^"]*)" that is ([\d.]+) inches wide with an offcut price of ([\d.]+) per square foot$`, tc.aRoll)
	ctx.Step(`^a roll product priced at ([\d.]+) per square foot$`, tc.aRollProductPricedAt)
	ctx.Step(`^an empty cart$`, tc.anEmptyCart)
	ctx.Step(`^a line of (\d+) at ([\d.]+)$`, tc.aLineOfAt)
	ctx.Step(`^shipping of ([\d.]+)$`, tc.shippingOf)
	ctx.Step(`^a discount "([^"]*)" of ([\d.]+)$`, tc.aDiscountOf)
	ctx.Step(`^an active tax rate of ([\d.]+)$`, tc.anActiveTaxRateOf)
	ctx.Step(`^an inactive tax rate of ([\d.]+)$`, tc.anInactiveTaxRateOf)

	// When steps
	ctx.Step(`^I price a cut of ([\d.]+) by ([\d.]+) (in|ft)$`, tc.iPriceACut)
	ctx.Step(`^the cart is recomputed$`, tc.theCartIsRecomputed)
	ctx.Step(`^the cart is recomputed twice$`, tc.theCartIsRecomputedTwice)

	// Then steps
	ctx.Step(`^the fixed area is ([\d.]+) square feet$`, tc.theFixedAreaIs)
	ctx.Step(`^the offcut area is ([\d.]+) square feet$`, tc.theOffcutAreaIs)
	ctx.Step(`^the unit price is ([\d.]+)$`, tc.theUnitPriceIs)
	ctx.Step(`^a quantity of (\d+) totals ([\d.]+)$`, tc.aQuantityTotals)
	ctx.Step(`^the cut is rejected on "([^"]*)"$`, tc.theCutIsRejectedOn)
	ctx.Step(`^the subtotal is ([\d.]+)$`, tc.theSubtotalIs)
	ctx.Step(`^the discount is ([\d.]+)$`, tc.theDiscountIs)
	ctx.Step(`^the tax is ([\d.]+)$`, tc.theTaxIs)
	ctx.Step(`^the grand total is ([\d.]+)$`, tc.theGrandTotalIs)
	ctx.Step(`^both computations agree$`, tc.bothComputationsAgree)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
