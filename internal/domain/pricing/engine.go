package pricing

import (
	"errors"
	"time"

	"checkout-core/internal/domain/coupon"
	"checkout-core/internal/domain/product"
	"checkout-core/internal/pkg/money"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrNoItems         = errors.New("no items to price")
	ErrInvalidQuantity = errors.New("quantity must be positive")
)

var hundred = decimal.NewFromInt(100)

type Policy struct {
	TaxBands              TaxBands
	ShippingFee           decimal.Decimal
	FreeShippingThreshold decimal.Decimal
}

func DefaultPolicy() Policy {
	return Policy{
		TaxBands:              DefaultTaxBands(),
		ShippingFee:           decimal.NewFromInt(49),
		FreeShippingThreshold: decimal.NewFromInt(9999),
	}
}

type Item struct {
	Product  *product.Product
	Quantity int
}

type Line struct {
	ProductID uuid.UUID
	Title     string
	Category  string
	UnitPrice decimal.Decimal
	Quantity  int
}

func (l Line) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type AppliedCoupon struct {
	Code     string
	Discount decimal.Decimal
	Type     coupon.Type
}

type Summary struct {
	Lines         []Line
	Subtotal      decimal.Decimal
	TaxRate       decimal.Decimal
	Tax           decimal.Decimal
	Shipping      decimal.Decimal
	GrandTotal    decimal.Decimal
	Discount      decimal.Decimal
	FinalTotal    decimal.Decimal
	AppliedCoupon *AppliedCoupon
}

func (s Summary) Categories() []string {
	seen := make(map[string]struct{}, len(s.Lines))
	out := make([]string, 0, len(s.Lines))
	for _, l := range s.Lines {
		if _, ok := seen[l.Category]; ok {
			continue
		}
		seen[l.Category] = struct{}{}
		out = append(out, l.Category)
	}
	return out
}

// CouponRequest is the coupon plus the per-user facts needed to judge it.
type CouponRequest struct {
	Coupon             *coupon.Coupon
	CompletedPurchases int
	UserRedemptions    int
}

// Engine prices a set of items. It performs no I/O.
type Engine struct {
	policy Policy
}

func NewEngine(policy Policy) *Engine {
	return &Engine{policy: policy}
}

// Quote prices items at now and applies the coupon, if any. Every stage is
// rounded to two decimals. A rejected coupon fails the whole quote.
func (e *Engine) Quote(items []Item, req *CouponRequest, now time.Time) (Summary, error) {
	if len(items) == 0 {
		return Summary{}, ErrNoItems
	}

	lines := make([]Line, 0, len(items))
	subtotal := decimal.Zero
	for _, it := range items {
		if it.Quantity <= 0 {
			return Summary{}, ErrInvalidQuantity
		}
		line := Line{
			ProductID: it.Product.ID(),
			Title:     it.Product.Title(),
			Category:  it.Product.Category(),
			UnitPrice: money.Round(it.Product.UnitPriceAt(now)),
			Quantity:  it.Quantity,
		}
		lines = append(lines, line)
		subtotal = subtotal.Add(line.Total())
	}
	subtotal = money.Round(subtotal)

	rate := e.policy.TaxBands.RateFor(subtotal)
	tax := money.Round(subtotal.Mul(rate).Div(hundred))
	shipping := e.shippingFor(subtotal)
	grand := money.Round(subtotal.Add(tax).Add(shipping))

	summary := Summary{
		Lines:      lines,
		Subtotal:   subtotal,
		TaxRate:    rate,
		Tax:        tax,
		Shipping:   shipping,
		GrandTotal: grand,
		Discount:   decimal.Zero,
		FinalTotal: grand,
	}

	if req == nil || req.Coupon == nil {
		return summary, nil
	}

	c := req.Coupon
	err := c.Validate(coupon.Eligibility{
		Now:                now,
		CompletedPurchases: req.CompletedPurchases,
		UserRedemptions:    req.UserRedemptions,
		OrderTotal:         grand,
		Categories:         summary.Categories(),
	})
	if err != nil {
		return Summary{}, err
	}

	discount := money.Round(c.DiscountFor(grand))
	summary.Discount = discount
	summary.FinalTotal = money.Round(grand.Sub(discount))
	summary.AppliedCoupon = &AppliedCoupon{
		Code:     c.Code().String(),
		Discount: discount,
		Type:     c.Type(),
	}
	return summary, nil
}

func (e *Engine) shippingFor(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThanOrEqual(e.policy.FreeShippingThreshold) {
		return decimal.Zero
	}
	return money.Round(e.policy.ShippingFee)
}
