package coupon

import (
	"errors"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidCouponCode      = errors.New("invalid coupon code format")
	ErrInvalidCouponType      = errors.New("invalid coupon type")
	ErrInvalidDiscountAmount  = errors.New("discount amount cannot be negative")
	ErrInvalidDiscountPercent = errors.New("percentage discount must be between 0 and 100")
	ErrMissingDiscount        = errors.New("discount must have either fixed amount or percentage")
)

var couponCodeRegex = regexp.MustCompile(`^[A-Z0-9_-]{3,32}$`)

type Code string

func NewCouponCode(code string) (Code, error) {
	code = strings.TrimSpace(strings.ToUpper(code))
	if !couponCodeRegex.MatchString(code) {
		return Code(""), ErrInvalidCouponCode
	}
	return Code(code), nil
}

func (c Code) String() string {
	return string(c)
}

type Type string

const (
	TypePercentage  Type = "percentage"
	TypeFixed       Type = "fixed"
	TypeConditional Type = "conditional"
)

func NewType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case TypePercentage, TypeFixed, TypeConditional:
		return t, nil
	default:
		return "", ErrInvalidCouponType
	}
}

func (t Type) String() string {
	return string(t)
}

var hundred = decimal.NewFromInt(100)

// Discount holds either a percentage or a fixed amount. When both are present
// the percentage wins.
type Discount struct {
	amountOff  *decimal.Decimal
	percentOff *decimal.Decimal
}

func NewFixedDiscount(amountOff decimal.Decimal) (Discount, error) {
	if amountOff.IsNegative() {
		return Discount{}, ErrInvalidDiscountAmount
	}
	return Discount{amountOff: &amountOff}, nil
}

func NewPercentageDiscount(percentOff decimal.Decimal) (Discount, error) {
	if percentOff.IsNegative() || percentOff.GreaterThan(hundred) {
		return Discount{}, ErrInvalidDiscountPercent
	}
	return Discount{percentOff: &percentOff}, nil
}

func NewDiscount(percentOff, amountOff *decimal.Decimal) (Discount, error) {
	if percentOff != nil && percentOff.IsPositive() {
		return NewPercentageDiscount(*percentOff)
	}
	if amountOff != nil {
		return NewFixedDiscount(*amountOff)
	}
	return Discount{}, ErrMissingDiscount
}

func (d Discount) IsPercentage() bool {
	return d.percentOff != nil
}

// AmountFor returns the discount on total, floored at zero and never above total.
// The result is not rounded.
func (d Discount) AmountFor(total decimal.Decimal) decimal.Decimal {
	var amount decimal.Decimal
	if d.IsPercentage() {
		amount = total.Mul(*d.percentOff).Div(hundred)
	} else if d.amountOff != nil {
		amount = *d.amountOff
	}

	if amount.IsNegative() {
		return decimal.Zero
	}
	if amount.GreaterThan(total) {
		return total
	}
	return amount
}
