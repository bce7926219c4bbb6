//go:build unit

package commands_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"checkout-core/internal/domain/coupon"
	reqdto "checkout-core/internal/handler/dto/request"
	"checkout-core/internal/pkg/errs"
	"checkout-core/tests/common/builder"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartCommands_AddAndRemove(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	userID := h.shopper(t)
	kettle := h.product(t, builder.NewProductBuilder())
	mug := h.product(t, builder.NewProductBuilder().WithPrice("149.00"))

	h.addToCart(t, userID, kettle.ID(), 1)
	h.addToCart(t, userID, mug.ID(), 2)
	c, err := h.carts.AddItem(ctx, userID, reqdto.AddCartItemRequest{ProductID: kettle.ID(), Quantity: 2})
	require.NoError(t, err)

	require.Len(t, c.Lines(), 2)
	assert.Equal(t, kettle.ID(), c.Lines()[0].ProductID)
	assert.Equal(t, 3, c.Lines()[0].Quantity)

	c, err = h.carts.RemoveItem(ctx, userID, mug.ID())
	require.NoError(t, err)
	require.Len(t, c.Lines(), 1)

	t.Run("removing an absent product is a no-op", func(t *testing.T) {
		c, err := h.carts.RemoveItem(ctx, userID, uuid.New())
		require.NoError(t, err)
		assert.Len(t, c.Lines(), 1)
	})

	t.Run("unknown product", func(t *testing.T) {
		_, err := h.carts.AddItem(ctx, userID, reqdto.AddCartItemRequest{ProductID: uuid.New(), Quantity: 1})
		assert.True(t, errs.Is(err, errs.ErrValidation))
		assert.True(t, errs.Is(err, errs.ErrProductNotFound))
	})
}

func TestCartCommands_ApplyCoupon(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	userID := h.shopper(t)

	_, err := h.carts.ApplyCoupon(ctx, userID, applyCoupon("SAVE10"))
	assert.True(t, errs.Is(err, errs.ErrValidation), "empty cart")

	p := h.product(t, builder.NewProductBuilder().WithCategory("kitchen"))
	h.addToCart(t, userID, p.ID(), 1)

	params := couponParams(h, 15)
	params.Categories = []string{"garden"}
	require.NoError(t, h.store.PutCoupon(params))

	_, err = h.carts.ApplyCoupon(ctx, userID, applyCoupon("SAVE10"))
	var couponErr *errs.CouponRejectedError
	require.True(t, errors.As(err, &couponErr))
	assert.ErrorIs(t, couponErr.Reason, coupon.ErrCouponCategoryMismatch)

	c, err := h.store.Carts().FindByUser(ctx, userID)
	require.NoError(t, err)
	assert.Nil(t, c.CouponCode(), "rejected coupon is not remembered")

	wildcard := couponParams(h, 15)
	wildcard.Code = "ANYTHING15"
	wildcard.Categories = []string{coupon.CategoryWildcard}
	require.NoError(t, h.store.PutCoupon(wildcard))

	c, err = h.carts.ApplyCoupon(ctx, userID, applyCoupon("ANYTHING15"))
	require.NoError(t, err)
	require.NotNil(t, c.CouponCode())
	assert.Equal(t, "ANYTHING15", *c.CouponCode())

	c, err = h.carts.RemoveCoupon(ctx, userID)
	require.NoError(t, err)
	assert.Nil(t, c.CouponCode())
}

func TestCartCommands_Reorder(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	userID := h.shopper(t)
	result, p := h.placeOrder(t, userID, 2)

	c, err := h.carts.Reorder(ctx, userID, result.OrderID)
	require.NoError(t, err)
	require.Len(t, c.Lines(), 1)
	assert.Equal(t, p.ID(), c.Lines()[0].ProductID)
	assert.Equal(t, 2, c.Lines()[0].Quantity)

	c, err = h.carts.Reorder(ctx, userID, result.OrderID)
	require.NoError(t, err)
	assert.Equal(t, 4, c.Lines()[0].Quantity, "reorder merges into the existing line")

	t.Run("another user's order", func(t *testing.T) {
		_, err := h.carts.Reorder(ctx, h.shopper(t), result.OrderID)
		assert.ErrorIs(t, err, errs.ErrOrderNotFound)
	})

	t.Run("unknown order", func(t *testing.T) {
		_, err := h.carts.Reorder(ctx, userID, "ORD-000000")
		assert.ErrorIs(t, err, errs.ErrOrderNotFound)
	})
}

func TestMaintenance_Sweep(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	now := h.clock.Now()

	ended := now.Add(-time.Hour)
	running := now.Add(time.Hour)
	lapsed := h.product(t, builder.NewProductBuilder().WithSale("399.00", &ended))
	live := h.product(t, builder.NewProductBuilder().WithSale("399.00", &running))

	stale := couponParams(h, 10)
	stale.Code = "OLD10"
	stale.StartsAt = now.Add(-48 * time.Hour)
	stale.ExpiresAt = now.Add(-time.Minute)
	require.NoError(t, h.store.PutCoupon(stale))
	require.NoError(t, h.store.PutCoupon(couponParams(h, 10)))

	report, err := h.maintenance.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), report.SalesEnded)
	assert.Equal(t, int64(1), report.CouponsDeactivated)

	found, err := h.store.Products().FindByIDs(ctx, []uuid.UUID{lapsed.ID(), live.ID()})
	require.NoError(t, err)
	for _, p := range found {
		switch p.ID() {
		case lapsed.ID():
			assert.Nil(t, p.SalePrice())
			assert.True(t, decimal.RequireFromString("499.00").Equal(p.UnitPriceAt(now)))
		case live.ID():
			require.NotNil(t, p.SalePrice())
		}
	}

	old, err := h.store.Coupons().FindByCode(ctx, "OLD10")
	require.NoError(t, err)
	assert.False(t, old.IsActive())

	t.Run("second sweep finds nothing", func(t *testing.T) {
		report, err := h.maintenance.Sweep(ctx)
		require.NoError(t, err)
		assert.Zero(t, report.SalesEnded)
		assert.Zero(t, report.CouponsDeactivated)
	})
}
