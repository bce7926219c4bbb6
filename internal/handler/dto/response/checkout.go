package response

import (
	"checkout-core/internal/usecase/commands"

	"github.com/shopspring/decimal"
)

type CheckoutResponse struct {
	OrderID    string          `json:"orderId"`
	PaymentURL string          `json:"paymentUrl"`
	Discount   decimal.Decimal `json:"discount"`
	FinalTotal decimal.Decimal `json:"finalTotal"`
}

func FromCheckoutResult(r *commands.CheckoutResult) *CheckoutResponse {
	return &CheckoutResponse{
		OrderID:    r.OrderID,
		PaymentURL: r.PaymentURL,
		Discount:   r.Discount,
		FinalTotal: r.FinalTotal,
	}
}
