package checkout

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"printshop-commerce/internal/domain"
	"printshop-commerce/internal/pricing"
)

func TestCreateEstimateForWalkIn(t *testing.T) {
	f := newFixture(t)
	res, err := f.svc.CreateEstimate(context.Background(), f.staff, EstimateInput{
		Intent: domain.IntentDraft,
		Guest:  &GuestInput{Name: "Counter Sale", Phone: "555-0100"},
		Lines: []pricing.LineRequest{
			{ProductID: f.flyers.ID, Quantity: 3},
			{ProductID: f.flyers.ID, Quantity: 1, PriceOverride: decPtr("20")},
		},
		ShippingMethod: "courier",
	})
	require.NoError(t, err)

	assert.Equal(t, "EST-20260314-0001", res.DocumentNumber)
	assertMoney(t, "170", res.Totals.Subtotal)
	assertMoney(t, "36", res.Totals.Tax)
	assertMoney(t, "216", res.Totals.GrandTotal)

	doc, err := f.svc.Get(context.Background(), f.staff, res.OrderID)
	require.NoError(t, err)
	assert.Equal(t, domain.KindEstimate, doc.Kind)
	assert.Len(t, doc.Lines, 2)
	assert.Nil(t, doc.SourceCartID)
	require.NotNil(t, doc.CreatedBy)
}

func TestCreateEstimateForRegisteredCustomer(t *testing.T) {
	f := newFixture(t)
	userID, _ := f.user.Owner.UserID()
	res, err := f.svc.CreateEstimate(context.Background(), f.staff, EstimateInput{
		UserID: userID,
		Lines:  []pricing.LineRequest{{ProductID: f.flyers.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	doc, err := f.svc.Get(context.Background(), f.user, res.OrderID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPublished, doc.Status)
}

func TestCreateEstimateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateEstimate(ctx, f.user, EstimateInput{})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.svc.CreateEstimate(ctx, f.staff, EstimateInput{
		Guest: &GuestInput{Name: "x"},
		Lines: []pricing.LineRequest{
			{ProductID: f.flyers.ID, Quantity: 1},
			{ProductID: "missing", Quantity: 1},
			{ProductID: f.banner.ID, RollID: f.narrow.ID, Width: decPtr("10"), Height: decPtr("10"), Quantity: 1},
			{ProductID: f.flyers.ID, Quantity: 0},
		},
	})
	verr, ok := domain.IsValidation(err)
	require.True(t, ok, "got %v", err)
	assert.Contains(t, verr.Fields, "lines[1].product_id")
	assert.Contains(t, verr.Fields, "lines[2].roll_id")
	assert.Contains(t, verr.Fields, "lines[3].quantity")
	assert.NotContains(t, verr.Fields, "lines[0].product_id")

	_, err = f.svc.CreateEstimate(ctx, f.staff, EstimateInput{
		Lines: []pricing.LineRequest{{ProductID: f.flyers.ID, Quantity: 1}},
	})
	verr, ok = domain.IsValidation(err)
	require.True(t, ok)
	assert.Contains(t, verr.Fields, "customer")
}

func TestTransitionIsAudited(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.fill(t, f.user)
	res, err := f.svc.Checkout(ctx, f.user, Input{Intent: domain.IntentDraft})
	require.NoError(t, err)

	_, err = f.svc.Transition(ctx, f.user, res.OrderID, TransitionInput{Status: domain.StatusPublished})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	doc, err := f.svc.Transition(ctx, f.staff, res.OrderID, TransitionInput{Status: "Published", Reason: "approved"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPublished, doc.Status)
	require.Len(t, doc.Events, 2)
	staffID, _ := f.staff.Owner.UserID()
	assert.Equal(t, staffID, doc.Events[1].Actor)
	assert.Equal(t, domain.StatusDraft, doc.Events[1].FromStatus)
	assert.Equal(t, "approved", doc.Events[1].Reason)
	assertMoney(t, "237.60", doc.Totals.GrandTotal)

	_, err = f.svc.Transition(ctx, f.staff, res.OrderID, TransitionInput{Status: domain.StatusDraft})
	verr, ok := domain.IsValidation(err)
	require.True(t, ok, "got %v", err)
	assert.Contains(t, verr.Fields, "status")

	doc, err = f.svc.Transition(ctx, f.staff, res.OrderID, TransitionInput{Status: domain.StatusCancelled})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, doc.Status)
	assert.Len(t, doc.Events, 3)
}

func TestGetHidesOtherCustomersDocuments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.fill(t, f.user)
	res, err := f.svc.Checkout(ctx, f.user, Input{})
	require.NoError(t, err)

	stranger := domain.Actor{Owner: domain.UserOwner("someone-else"), Role: domain.RoleCustomer}
	_, err = f.svc.Get(ctx, stranger, res.OrderID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.Get(ctx, f.staff, "no-such-order")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
