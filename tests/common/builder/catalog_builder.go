//go:build unit || e2e

package builder

import (
	"time"

	"checkout-core/internal/domain/coupon"
	"checkout-core/internal/domain/product"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ProductBuilder struct {
	ID         uuid.UUID
	Title      string
	Price      decimal.Decimal
	SalePrice  *decimal.Decimal
	SaleEndsAt *time.Time
	Stock      int
	Category   string
}

func NewProductBuilder() *ProductBuilder {
	return &ProductBuilder{
		ID:       uuid.New(),
		Title:    "Steel Kettle",
		Price:    decimal.RequireFromString("499.00"),
		Stock:    10,
		Category: "kitchen",
	}
}

func (b *ProductBuilder) WithPrice(price string) *ProductBuilder {
	b.Price = decimal.RequireFromString(price)
	return b
}

func (b *ProductBuilder) WithSale(price string, endsAt *time.Time) *ProductBuilder {
	p := decimal.RequireFromString(price)
	b.SalePrice = &p
	b.SaleEndsAt = endsAt
	return b
}

func (b *ProductBuilder) WithStock(stock int) *ProductBuilder {
	b.Stock = stock
	return b
}

func (b *ProductBuilder) WithCategory(category string) *ProductBuilder {
	b.Category = category
	return b
}

func (b *ProductBuilder) Build() *product.Product {
	return product.Reconstruct(b.ID, b.Title, b.Price, b.SalePrice, b.SaleEndsAt, b.Stock, b.Category)
}

type CouponBuilder struct {
	params coupon.Params
}

// NewCouponBuilder returns a 10% coupon that is live around now.
func NewCouponBuilder(now time.Time) *CouponBuilder {
	pct := decimal.NewFromInt(10)
	return &CouponBuilder{params: coupon.Params{
		ID:          uuid.New(),
		Code:        "SAVE10",
		Type:        string(coupon.TypePercentage),
		DiscountPct: &pct,
		MaxUsage:    100,
		StartsAt:    now.Add(-24 * time.Hour),
		ExpiresAt:   now.Add(24 * time.Hour),
		Active:      true,
	}}
}

func (b *CouponBuilder) With(mutate func(*coupon.Params)) *CouponBuilder {
	mutate(&b.params)
	return b
}

func (b *CouponBuilder) WithFixed(amount string) *CouponBuilder {
	a := decimal.RequireFromString(amount)
	b.params.Type = string(coupon.TypeFixed)
	b.params.DiscountPct = nil
	b.params.DiscountAmount = &a
	return b
}

func (b *CouponBuilder) Build() (*coupon.Coupon, error) {
	return coupon.NewCoupon(b.params)
}

func (b *CouponBuilder) MustBuild() *coupon.Coupon {
	c, err := b.Build()
	if err != nil {
		panic(err)
	}
	return c
}
