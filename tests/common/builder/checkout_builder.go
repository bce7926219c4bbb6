//go:build unit || e2e

package builder

import (
	reqdto "checkout-core/internal/handler/dto/request"
	"checkout-core/internal/usecase/commands"

	"github.com/shopspring/decimal"
)

type CheckoutBuilder struct {
	FullName      string
	Street        string
	City          string
	State         string
	PostalCode    string
	Country       string
	Phone         string
	PaymentMethod string
	CouponCode    *string
}

func NewCheckoutBuilder() *CheckoutBuilder {
	return &CheckoutBuilder{
		FullName:      "Asha Rao",
		Street:        "12 MG Road",
		City:          "Bengaluru",
		State:         "KA",
		PostalCode:    "560001",
		Country:       "IN",
		Phone:         "+919800000000",
		PaymentMethod: "card",
	}
}

func (b *CheckoutBuilder) With(mutate func(*CheckoutBuilder)) *CheckoutBuilder {
	mutate(b)
	return b
}

func (b *CheckoutBuilder) WithCoupon(code string) *CheckoutBuilder {
	b.CouponCode = &code
	return b
}

func (b *CheckoutBuilder) WithPostalCode(code string) *CheckoutBuilder {
	b.PostalCode = code
	return b
}

func (b *CheckoutBuilder) BuildRequestDTO() reqdto.CheckoutRequest {
	return reqdto.CheckoutRequest{
		ShippingAddress: reqdto.ShippingAddressRequest{
			FullName:   b.FullName,
			Street:     b.Street,
			City:       b.City,
			State:      b.State,
			PostalCode: b.PostalCode,
			Country:    b.Country,
			Phone:      b.Phone,
		},
		PaymentMethod: b.PaymentMethod,
		CouponCode:    b.CouponCode,
	}
}

func BuildCheckoutResult(orderID string) *commands.CheckoutResult {
	return &commands.CheckoutResult{
		OrderID:    orderID,
		PaymentURL: "https://pay.example/session/cs_test_1",
		Discount:   decimal.RequireFromString("100"),
		FinalTotal: decimal.RequireFromString("1072.00"),
	}
}
