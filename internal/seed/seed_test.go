package seed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"printshop-commerce/internal/domain"
	"printshop-commerce/internal/repository/memory"
	"printshop-commerce/internal/repository/store"
	customersvc "printshop-commerce/internal/service/customer"
)

func TestApplyIsRepeatable(t *testing.T) {
	st := memory.New()
	ctx := context.Background()
	customers := customersvc.New(st, customersvc.NewTokenManager("secret", time.Hour), nil, nil)
	staff := Staff{Email: "counter@printshop.test", Password: "Counter123"}

	require.NoError(t, Apply(ctx, st, customers, staff, nil))
	require.NoError(t, Apply(ctx, st, customers, staff, nil))

	err := st.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		products, err := tx.Catalog().ListProducts(ctx, true)
		require.NoError(t, err)
		assert.Len(t, products, len(demoProducts))

		for _, p := range products {
			if p.SKU == "BAN-13OZ" {
				rolls, err := tx.Catalog().ListRollsForProduct(ctx, p.ID)
				require.NoError(t, err)
				assert.Len(t, rolls, 2)
			}
		}

		rates, err := tx.Catalog().ActiveTaxRates(ctx)
		require.NoError(t, err)
		assert.Len(t, rates, 1)

		offer, err := tx.Offers().GetByCode(ctx, "welcome10")
		require.NoError(t, err)
		assert.Equal(t, domain.OfferPercent, offer.Type)

		methods, err := tx.Catalog().ListShippingMethods(ctx)
		require.NoError(t, err)
		assert.Len(t, methods, 2)

		account, err := tx.Customers().GetByEmail(ctx, staff.Email)
		require.NoError(t, err)
		assert.True(t, account.IsStaff())
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(staff.Password)))
		return nil
	})
	require.NoError(t, err)
}

func TestApplyWithoutStaff(t *testing.T) {
	st := memory.New()
	require.NoError(t, Apply(context.Background(), st, nil, Staff{}, nil))
}
