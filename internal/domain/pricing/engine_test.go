//go:build unit

package pricing_test

import (
	"testing"
	"time"

	"checkout-core/internal/domain/coupon"
	"checkout-core/internal/domain/pricing"
	"checkout-core/tests/common/builder"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertMoney(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "%s: want %s, got %s", field, want, got)
}

func TestEngine_Quote(t *testing.T) {
	engine := pricing.NewEngine(pricing.DefaultPolicy())

	t.Run("percentage coupon on a taxed, shipped cart", func(t *testing.T) {
		p := builder.NewProductBuilder().WithPrice("8000").Build()
		req := &pricing.CouponRequest{Coupon: builder.NewCouponBuilder(now).MustBuild()}

		s, err := engine.Quote([]pricing.Item{{Product: p, Quantity: 1}}, req, now)
		require.NoError(t, err)

		assertMoney(t, "8000", s.Subtotal, "subtotal")
		assertMoney(t, "5", s.TaxRate, "tax rate")
		assertMoney(t, "400", s.Tax, "tax")
		assertMoney(t, "49", s.Shipping, "shipping")
		assertMoney(t, "8449", s.GrandTotal, "grand total")
		assertMoney(t, "844.90", s.Discount, "discount")
		assertMoney(t, "7604.10", s.FinalTotal, "final total")
		require.NotNil(t, s.AppliedCoupon)
		assert.Equal(t, "SAVE10", s.AppliedCoupon.Code)
		assert.Equal(t, coupon.TypePercentage, s.AppliedCoupon.Type)
	})

	t.Run("no coupon leaves final equal to grand", func(t *testing.T) {
		p := builder.NewProductBuilder().WithPrice("499").Build()

		s, err := engine.Quote([]pricing.Item{{Product: p, Quantity: 2}}, nil, now)
		require.NoError(t, err)

		assertMoney(t, "998", s.Subtotal, "subtotal")
		assertMoney(t, "49.90", s.Tax, "tax")
		assertMoney(t, "1096.90", s.GrandTotal, "grand total")
		assert.True(t, s.Discount.IsZero())
		assert.True(t, s.FinalTotal.Equal(s.GrandTotal))
		assert.Nil(t, s.AppliedCoupon)
	})

	t.Run("tax bands and free shipping boundaries", func(t *testing.T) {
		cases := []struct {
			price    string
			rate     string
			shipping string
		}{
			{price: "8999", rate: "5", shipping: "49"},
			{price: "9000", rate: "12", shipping: "49"},
			{price: "9999", rate: "12", shipping: "0"},
			{price: "15999", rate: "12", shipping: "0"},
			{price: "16000", rate: "18", shipping: "0"},
			{price: "35999", rate: "18", shipping: "0"},
			{price: "36000", rate: "28", shipping: "0"},
		}
		for _, tc := range cases {
			t.Run(tc.price, func(t *testing.T) {
				p := builder.NewProductBuilder().WithPrice(tc.price).Build()
				s, err := engine.Quote([]pricing.Item{{Product: p, Quantity: 1}}, nil, now)
				require.NoError(t, err)
				assertMoney(t, tc.rate, s.TaxRate, "rate")
				assertMoney(t, tc.shipping, s.Shipping, "shipping")
			})
		}
	})

	t.Run("live sale price wins, lapsed sale does not", func(t *testing.T) {
		later := now.Add(time.Hour)
		earlier := now.Add(-time.Hour)
		live := builder.NewProductBuilder().WithPrice("1000").WithSale("800", &later).Build()
		lapsed := builder.NewProductBuilder().WithPrice("1000").WithSale("800", &earlier).Build()

		s, err := engine.Quote([]pricing.Item{{Product: live, Quantity: 1}, {Product: lapsed, Quantity: 1}}, nil, now)
		require.NoError(t, err)
		assertMoney(t, "800", s.Lines[0].UnitPrice, "live sale")
		assertMoney(t, "1000", s.Lines[1].UnitPrice, "lapsed sale")
		assertMoney(t, "1800", s.Subtotal, "subtotal")
	})

	t.Run("fixed discount is clamped to the grand total", func(t *testing.T) {
		p := builder.NewProductBuilder().WithPrice("100").Build()
		req := &pricing.CouponRequest{Coupon: builder.NewCouponBuilder(now).WithFixed("5000").MustBuild()}

		s, err := engine.Quote([]pricing.Item{{Product: p, Quantity: 1}}, req, now)
		require.NoError(t, err)
		assert.True(t, s.Discount.Equal(s.GrandTotal))
		assert.True(t, s.FinalTotal.IsZero())
	})

	t.Run("rejected coupon fails the quote", func(t *testing.T) {
		p := builder.NewProductBuilder().WithPrice("100").Build()
		c := builder.NewCouponBuilder(now).With(func(p *coupon.Params) { p.FirstOrderOnly = true }).MustBuild()

		_, err := engine.Quote([]pricing.Item{{Product: p, Quantity: 1}},
			&pricing.CouponRequest{Coupon: c, CompletedPurchases: 1}, now)
		assert.ErrorIs(t, err, coupon.ErrCouponFirstOrderOnly)
	})

	t.Run("invalid input", func(t *testing.T) {
		_, err := engine.Quote(nil, nil, now)
		assert.ErrorIs(t, err, pricing.ErrNoItems)

		p := builder.NewProductBuilder().Build()
		_, err = engine.Quote([]pricing.Item{{Product: p, Quantity: 0}}, nil, now)
		assert.ErrorIs(t, err, pricing.ErrInvalidQuantity)
	})
}

func TestParseTaxBands(t *testing.T) {
	valid := []string{
		"8999:5,15999:12,35999:18,*:28",
		"*:0",
		" 100 : 1 , * : 2 ",
	}
	for _, s := range valid {
		_, err := pricing.ParseTaxBands(s)
		assert.NoError(t, err, s)
	}

	invalid := []string{
		"",
		"100:5",
		"*:5,100:10",
		"200:5,100:10,*:20",
		"100:-1,*:5",
		"abc:5,*:1",
		"100,*:5",
	}
	for _, s := range invalid {
		_, err := pricing.ParseTaxBands(s)
		assert.ErrorIs(t, err, pricing.ErrInvalidTaxBands, s)
	}
}
