package request

import (
	"strings"

	"checkout-core/internal/domain/order"
)

type ShippingAddressRequest struct {
	FullName   string `json:"fullName" binding:"required"`
	Street     string `json:"street" binding:"required"`
	City       string `json:"city" binding:"required"`
	State      string `json:"state" binding:"required"`
	PostalCode string `json:"postalCode" binding:"required"`
	Country    string `json:"country" binding:"required"`
	Phone      string `json:"phone" binding:"required"`
}

func (r ShippingAddressRequest) ToDomain() (order.ShippingAddress, error) {
	return order.NewShippingAddress(r.FullName, r.Street, r.City, r.State, r.PostalCode, r.Country, r.Phone)
}

type CheckoutRequest struct {
	ShippingAddress ShippingAddressRequest `json:"shippingAddress" binding:"required"`
	PaymentMethod   string                 `json:"paymentMethod" binding:"required"`
	CouponCode      *string                `json:"couponCode,omitempty"`
}

func (r CheckoutRequest) GetCouponCode() *string {
	return trimmedOrNil(r.CouponCode)
}

type PreviewTotalRequest struct {
	CouponCode *string `json:"couponCode,omitempty"`
}

func (r PreviewTotalRequest) GetCouponCode() *string {
	return trimmedOrNil(r.CouponCode)
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
