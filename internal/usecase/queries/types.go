package queries

//go:generate mockgen -destination=../../../tests/mock/queries/queries.go -package=queriesmock checkout-core/internal/usecase/queries CartQueries,OrderQueries,PricingQueries

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TrackingEntryView struct {
	Status    string    `json:"status"`
	Location  string    `json:"location"`
	Note      string    `json:"note"`
	Timestamp time.Time `json:"timestamp"`
}

// TrackingView lists the history newest first.
type TrackingView struct {
	OrderID          string              `json:"orderId"`
	Status           string              `json:"status"`
	PlacedOn         time.Time           `json:"placedOn"`
	ExpectedDelivery time.Time           `json:"expectedDelivery"`
	Tracking         []TrackingEntryView `json:"tracking"`
}

type OrderItemView struct {
	ProductID uuid.UUID       `json:"productId"`
	Title     string          `json:"title"`
	Category  string          `json:"category"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
}

type OrderListItem struct {
	ID               uuid.UUID       `json:"-"`
	OrderID          string          `json:"orderId"`
	Status           string          `json:"status"`
	PaymentStatus    string          `json:"paymentStatus"`
	FinalTotal       decimal.Decimal `json:"finalTotal"`
	Items            []OrderItemView `json:"items"`
	PlacedOn         time.Time       `json:"placedOn"`
	ExpectedDelivery time.Time       `json:"expectedDelivery"`
}

type PriceLineView struct {
	ProductID uuid.UUID       `json:"productId"`
	Title     string          `json:"title"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
	Total     decimal.Decimal `json:"total"`
}

type PriceView struct {
	Lines         []PriceLineView `json:"lines"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	TaxRate       decimal.Decimal `json:"taxRate"`
	Tax           decimal.Decimal `json:"tax"`
	Shipping      decimal.Decimal `json:"shipping"`
	GrandTotal    decimal.Decimal `json:"grandTotal"`
	Discount      decimal.Decimal `json:"discount"`
	FinalTotal    decimal.Decimal `json:"finalTotal"`
	AppliedCoupon *string         `json:"appliedCoupon,omitempty"`
}

type CartLineView struct {
	ProductID uuid.UUID       `json:"productId"`
	Title     string          `json:"title"`
	Category  string          `json:"category"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
	InStock   bool            `json:"inStock"`
}

type CartView struct {
	Lines      []CartLineView `json:"lines"`
	CouponCode *string        `json:"couponCode,omitempty"`
	ItemCount  int            `json:"itemCount"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}
