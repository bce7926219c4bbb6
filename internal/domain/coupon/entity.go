package coupon

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CategoryWildcard in a coupon's category list lifts the category restriction.
const CategoryWildcard = "ALL"

var (
	ErrCouponNotFound         = errors.New("coupon not found")
	ErrCouponInactive         = errors.New("coupon is not active")
	ErrCouponNotYetValid      = errors.New("coupon is not yet valid")
	ErrCouponExpired          = errors.New("coupon has expired")
	ErrCouponExhausted        = errors.New("coupon usage limit reached")
	ErrCouponFirstOrderOnly   = errors.New("coupon is valid only on first order")
	ErrCouponAlreadyUsed      = errors.New("coupon already used by this user")
	ErrCouponBelowMinimum     = errors.New("order total is below coupon minimum")
	ErrCouponCategoryMismatch = errors.New("coupon not applicable to cart categories")

	ErrInvalidMaxUsage = errors.New("max usage must be at least 1")
	ErrInvalidWindow   = errors.New("coupon window must start before it ends")
)

type Coupon struct {
	id             uuid.UUID
	code           Code
	typ            Type
	discount       Discount
	minOrderValue  decimal.Decimal
	categories     []string
	firstOrderOnly bool
	maxUsage       int
	usedCount      int
	startsAt       time.Time
	expiresAt      time.Time
	active         bool
}

type Params struct {
	ID             uuid.UUID
	Code           string
	Type           string
	DiscountPct    *decimal.Decimal
	DiscountAmount *decimal.Decimal
	MinOrderValue  decimal.Decimal
	Categories     []string
	FirstOrderOnly bool
	MaxUsage       int
	UsedCount      int
	StartsAt       time.Time
	ExpiresAt      time.Time
	Active         bool
}

func NewCoupon(p Params) (*Coupon, error) {
	code, err := NewCouponCode(p.Code)
	if err != nil {
		return nil, err
	}
	typ, err := NewType(p.Type)
	if err != nil {
		return nil, err
	}
	discount, err := NewDiscount(p.DiscountPct, p.DiscountAmount)
	if err != nil {
		return nil, err
	}
	if p.MaxUsage < 1 {
		return nil, ErrInvalidMaxUsage
	}
	if !p.StartsAt.Before(p.ExpiresAt) {
		return nil, ErrInvalidWindow
	}

	id := p.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	categories := make([]string, len(p.Categories))
	copy(categories, p.Categories)

	return &Coupon{
		id:             id,
		code:           code,
		typ:            typ,
		discount:       discount,
		minOrderValue:  p.MinOrderValue,
		categories:     categories,
		firstOrderOnly: p.FirstOrderOnly,
		maxUsage:       p.MaxUsage,
		usedCount:      p.UsedCount,
		startsAt:       p.StartsAt,
		expiresAt:      p.ExpiresAt,
		active:         p.Active,
	}, nil
}

// Eligibility carries the per-request facts a coupon is judged against.
type Eligibility struct {
	Now                time.Time
	CompletedPurchases int
	UserRedemptions    int
	OrderTotal         decimal.Decimal
	Categories         []string
}

// Validate applies the redemption rules in a fixed order and returns the
// first violated rule.
func (c *Coupon) Validate(e Eligibility) error {
	if !c.active {
		return ErrCouponInactive
	}
	if e.Now.Before(c.startsAt) {
		return ErrCouponNotYetValid
	}
	if e.Now.After(c.expiresAt) {
		return ErrCouponExpired
	}
	if c.usedCount >= c.maxUsage {
		return ErrCouponExhausted
	}
	if c.firstOrderOnly && e.CompletedPurchases > 0 {
		return ErrCouponFirstOrderOnly
	}
	if e.UserRedemptions > 0 {
		return ErrCouponAlreadyUsed
	}
	if e.OrderTotal.LessThan(c.minOrderValue) {
		return ErrCouponBelowMinimum
	}
	if !c.MatchesCategories(e.Categories) {
		return ErrCouponCategoryMismatch
	}
	return nil
}

// MatchesCategories compares category names literally.
func (c *Coupon) MatchesCategories(cartCategories []string) bool {
	if len(c.categories) == 0 {
		return true
	}
	allowed := make(map[string]struct{}, len(c.categories))
	for _, cat := range c.categories {
		if cat == CategoryWildcard {
			return true
		}
		allowed[cat] = struct{}{}
	}
	for _, cat := range cartCategories {
		if _, ok := allowed[cat]; ok {
			return true
		}
	}
	return false
}

func (c *Coupon) DiscountFor(total decimal.Decimal) decimal.Decimal {
	return c.discount.AmountFor(total)
}

// ExpiredAt is used by the maintenance sweep to deactivate stale coupons.
func (c *Coupon) ExpiredAt(t time.Time) bool {
	return t.After(c.expiresAt)
}

func (c *Coupon) ID() uuid.UUID                  { return c.id }
func (c *Coupon) Code() Code                     { return c.code }
func (c *Coupon) Type() Type                     { return c.typ }
func (c *Coupon) Discount() Discount             { return c.discount }
func (c *Coupon) MinOrderValue() decimal.Decimal { return c.minOrderValue }
func (c *Coupon) FirstOrderOnly() bool           { return c.firstOrderOnly }
func (c *Coupon) MaxUsage() int                  { return c.maxUsage }
func (c *Coupon) UsedCount() int                 { return c.usedCount }
func (c *Coupon) StartsAt() time.Time            { return c.startsAt }
func (c *Coupon) ExpiresAt() time.Time           { return c.expiresAt }
func (c *Coupon) IsActive() bool                 { return c.active }

func (c *Coupon) Categories() []string {
	out := make([]string, len(c.categories))
	copy(out, c.categories)
	return out
}
