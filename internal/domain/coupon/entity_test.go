//go:build unit

package coupon_test

import (
	"testing"
	"time"

	"checkout-core/internal/domain/coupon"
	"checkout-core/tests/common/builder"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func eligible() coupon.Eligibility {
	return coupon.Eligibility{
		Now:        now,
		OrderTotal: decimal.NewFromInt(1000),
		Categories: []string{"kitchen"},
	}
}

func TestNewCoupon(t *testing.T) {
	t.Run("normalizes the code", func(t *testing.T) {
		c, err := builder.NewCouponBuilder(now).With(func(p *coupon.Params) { p.Code = " save10 " }).Build()
		require.NoError(t, err)
		assert.Equal(t, "SAVE10", c.Code().String())
	})

	cases := []struct {
		name   string
		mutate func(*coupon.Params)
		errIs  error
	}{
		{name: "code too short", mutate: func(p *coupon.Params) { p.Code = "AB" }, errIs: coupon.ErrInvalidCouponCode},
		{name: "unknown type", mutate: func(p *coupon.Params) { p.Type = "bogo" }, errIs: coupon.ErrInvalidCouponType},
		{name: "no discount", mutate: func(p *coupon.Params) { p.DiscountPct = nil }, errIs: coupon.ErrMissingDiscount},
		{name: "percent above 100", mutate: func(p *coupon.Params) {
			pct := decimal.NewFromInt(120)
			p.DiscountPct = &pct
		}, errIs: coupon.ErrInvalidDiscountPercent},
		{name: "zero max usage", mutate: func(p *coupon.Params) { p.MaxUsage = 0 }, errIs: coupon.ErrInvalidMaxUsage},
		{name: "inverted window", mutate: func(p *coupon.Params) { p.ExpiresAt = p.StartsAt }, errIs: coupon.ErrInvalidWindow},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := builder.NewCouponBuilder(now).With(tc.mutate).Build()
			assert.ErrorIs(t, err, tc.errIs)
		})
	}
}

func TestCoupon_Validate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*coupon.Params)
		elig   func(*coupon.Eligibility)
		errIs  error
	}{
		{name: "eligible"},
		{name: "inactive", mutate: func(p *coupon.Params) { p.Active = false }, errIs: coupon.ErrCouponInactive},
		{name: "not yet valid", mutate: func(p *coupon.Params) { p.StartsAt = now.Add(time.Minute) }, errIs: coupon.ErrCouponNotYetValid},
		{name: "expired", mutate: func(p *coupon.Params) { p.ExpiresAt = now.Add(-time.Minute) }, errIs: coupon.ErrCouponExpired},
		{name: "exhausted", mutate: func(p *coupon.Params) { p.MaxUsage, p.UsedCount = 1, 1 }, errIs: coupon.ErrCouponExhausted},
		{
			name:   "first order only",
			mutate: func(p *coupon.Params) { p.FirstOrderOnly = true },
			elig:   func(e *coupon.Eligibility) { e.CompletedPurchases = 2 },
			errIs:  coupon.ErrCouponFirstOrderOnly,
		},
		{name: "already used", elig: func(e *coupon.Eligibility) { e.UserRedemptions = 1 }, errIs: coupon.ErrCouponAlreadyUsed},
		{
			name:   "below minimum",
			mutate: func(p *coupon.Params) { p.MinOrderValue = decimal.NewFromInt(5000) },
			errIs:  coupon.ErrCouponBelowMinimum,
		},
		{
			name:   "category mismatch",
			mutate: func(p *coupon.Params) { p.Categories = []string{"electronics"} },
			errIs:  coupon.ErrCouponCategoryMismatch,
		},
		{
			name:   "categories compare literally",
			mutate: func(p *coupon.Params) { p.Categories = []string{"Kitchen"} },
			errIs:  coupon.ErrCouponCategoryMismatch,
		},
		{name: "wildcard category", mutate: func(p *coupon.Params) { p.Categories = []string{"books", coupon.CategoryWildcard} }},
		{
			name: "first failing rule wins",
			mutate: func(p *coupon.Params) {
				p.Active = false
				p.ExpiresAt = now.Add(-time.Minute)
				p.StartsAt = now.Add(-time.Hour)
			},
			errIs: coupon.ErrCouponInactive,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := builder.NewCouponBuilder(now)
			if tc.mutate != nil {
				b.With(tc.mutate)
			}
			c := b.MustBuild()
			e := eligible()
			if tc.elig != nil {
				tc.elig(&e)
			}

			err := c.Validate(e)
			if tc.errIs == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.errIs)
		})
	}
}

func TestDiscount_AmountFor(t *testing.T) {
	pct, err := coupon.NewPercentageDiscount(decimal.NewFromInt(15))
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("150").Equal(pct.AmountFor(decimal.NewFromInt(1000))))

	fixed, err := coupon.NewFixedDiscount(decimal.NewFromInt(300))
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(300).Equal(fixed.AmountFor(decimal.NewFromInt(1000))))
	assert.True(t, decimal.NewFromInt(200).Equal(fixed.AmountFor(decimal.NewFromInt(200))), "clamped to total")

	_, err = coupon.NewFixedDiscount(decimal.NewFromInt(-1))
	assert.ErrorIs(t, err, coupon.ErrInvalidDiscountAmount)
}
