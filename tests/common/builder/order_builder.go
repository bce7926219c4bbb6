//go:build unit || e2e

package builder

import (
	"time"

	"checkout-core/internal/domain/order"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderBuilder struct {
	Params order.NewParams
}

// NewOrderBuilder returns a balanced two-kettle order placed at now.
func NewOrderBuilder(now time.Time) *OrderBuilder {
	return &OrderBuilder{Params: order.NewParams{
		CodePrefix: "ORD-",
		UserID:     uuid.New(),
		Items: []order.LineItem{{
			ProductID: uuid.New(),
			Title:     "Steel Kettle",
			Category:  "kitchen",
			UnitPrice: decimal.RequireFromString("499.00"),
			Quantity:  2,
		}},
		Totals: order.Totals{
			Subtotal:   decimal.RequireFromString("998.00"),
			Tax:        decimal.RequireFromString("49.90"),
			Shipping:   decimal.RequireFromString("49.00"),
			Discount:   decimal.Zero,
			GrandTotal: decimal.RequireFromString("1096.90"),
			FinalTotal: decimal.RequireFromString("1096.90"),
		},
		PaymentMethod: order.PaymentMethod("card"),
		Address: order.ShippingAddress{
			FullName:   "Asha Rao",
			Street:     "12 MG Road",
			City:       "Bengaluru",
			State:      "KA",
			PostalCode: "560001",
			Country:    "IN",
			Phone:      "+919800000000",
		},
		ExpectedDelivery: now.Add(72 * time.Hour),
		Now:              now,
	}}
}

func (b *OrderBuilder) With(mutate func(*order.NewParams)) *OrderBuilder {
	mutate(&b.Params)
	return b
}

func (b *OrderBuilder) ForUser(userID uuid.UUID) *OrderBuilder {
	b.Params.UserID = userID
	return b
}

func (b *OrderBuilder) Build() (*order.Order, error) {
	return order.New(b.Params)
}

func (b *OrderBuilder) MustBuild() *order.Order {
	o, err := b.Build()
	if err != nil {
		panic(err)
	}
	return o
}
