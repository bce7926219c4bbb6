package cart

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrInvalidProduct  = errors.New("product id is required")
	ErrEmptyCouponCode = errors.New("coupon code is required")
)

type Line struct {
	ProductID uuid.UUID
	Quantity  int
}

// Cart is the single active basket of a user. Checkout clears it in place.
type Cart struct {
	userID     uuid.UUID
	lines      []Line
	couponCode *string
	updatedAt  time.Time
}

func NewCart(userID uuid.UUID, now time.Time) *Cart {
	return &Cart{userID: userID, updatedAt: now}
}

func Reconstruct(userID uuid.UUID, lines []Line, couponCode *string, updatedAt time.Time) *Cart {
	copied := make([]Line, len(lines))
	copy(copied, lines)
	return &Cart{
		userID:     userID,
		lines:      copied,
		couponCode: couponCode,
		updatedAt:  updatedAt,
	}
}

// AddItem merges quantities for a product already in the cart.
func (c *Cart) AddItem(productID uuid.UUID, qty int, now time.Time) error {
	if productID == uuid.Nil {
		return ErrInvalidProduct
	}
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			c.lines[i].Quantity += qty
			c.updatedAt = now
			return nil
		}
	}
	c.lines = append(c.lines, Line{ProductID: productID, Quantity: qty})
	c.updatedAt = now
	return nil
}

func (c *Cart) RemoveItem(productID uuid.UUID, now time.Time) bool {
	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			c.updatedAt = now
			return true
		}
	}
	return false
}

func (c *Cart) ApplyCoupon(code string, now time.Time) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return ErrEmptyCouponCode
	}
	c.couponCode = &code
	c.updatedAt = now
	return nil
}

func (c *Cart) RemoveCoupon(now time.Time) {
	c.couponCode = nil
	c.updatedAt = now
}

func (c *Cart) Clear(now time.Time) {
	c.lines = nil
	c.couponCode = nil
	c.updatedAt = now
}

func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) ProductIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(c.lines))
	for _, l := range c.lines {
		ids = append(ids, l.ProductID)
	}
	return ids
}

func (c *Cart) UserID() uuid.UUID    { return c.userID }
func (c *Cart) CouponCode() *string  { return c.couponCode }
func (c *Cart) UpdatedAt() time.Time { return c.updatedAt }
