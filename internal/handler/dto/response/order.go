package response

import (
	"time"

	"checkout-core/internal/domain/order"
	"checkout-core/internal/usecase/commands"
	"checkout-core/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/shopspring/decimal"
)

type TrackingEntryResponse struct {
	Status    string    `json:"status"`
	Location  string    `json:"location"`
	Note      string    `json:"note"`
	Timestamp time.Time `json:"timestamp"`
}

type TrackingResponse struct {
	OrderID          string                  `json:"orderId"`
	Status           string                  `json:"status"`
	PlacedOn         time.Time               `json:"placedOn"`
	ExpectedDelivery time.Time               `json:"expectedDelivery"`
	Tracking         []TrackingEntryResponse `json:"tracking"`
}

type OrderItemResponse struct {
	ProductID string          `json:"productId"`
	Title     string          `json:"title"`
	Category  string          `json:"category"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
}

type OrderSummaryResponse struct {
	OrderID          string              `json:"orderId"`
	Status           string              `json:"status"`
	PaymentStatus    string              `json:"paymentStatus"`
	FinalTotal       decimal.Decimal     `json:"finalTotal"`
	Items            []OrderItemResponse `json:"items"`
	PlacedOn         time.Time           `json:"placedOn"`
	ExpectedDelivery time.Time           `json:"expectedDelivery"`
}

type OrderListResponse struct {
	Orders     []OrderSummaryResponse `json:"orders"`
	NextCursor *string                `json:"nextCursor,omitempty"`
}

type CancelOTPResponse struct {
	Message   string    `json:"message"`
	OrderID   string    `json:"orderId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type CancelledResponse struct {
	Message string `json:"message"`
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}

func FromTrackingView(v *queries.TrackingView) (*TrackingResponse, error) {
	var res TrackingResponse
	if err := copier.Copy(&res, v); err != nil {
		return nil, err
	}
	if res.Tracking == nil {
		res.Tracking = []TrackingEntryResponse{}
	}
	return &res, nil
}

var copyOption = copier.Option{
	Converters: []copier.TypeConverter{{
		SrcType: uuid.UUID{},
		DstType: copier.String,
		Fn: func(src any) (any, error) {
			return src.(uuid.UUID).String(), nil
		},
	}},
}

func FromOrderList(items []*queries.OrderListItem, next *queries.Cursor) (*OrderListResponse, error) {
	res := &OrderListResponse{Orders: make([]OrderSummaryResponse, 0, len(items))}
	for _, it := range items {
		var summary OrderSummaryResponse
		if err := copier.CopyWithOption(&summary, it, copyOption); err != nil {
			return nil, err
		}
		res.Orders = append(res.Orders, summary)
	}
	if next != nil && next.After != "" {
		after := next.After
		res.NextCursor = &after
	}
	return res, nil
}

func FromOTPIssued(issued *commands.OTPIssued) *CancelOTPResponse {
	return &CancelOTPResponse{
		Message:   "OTP sent to your registered email",
		OrderID:   issued.OrderID,
		ExpiresAt: issued.ExpiresAt,
	}
}

func FromCancelledOrder(o *order.Order) *CancelledResponse {
	return &CancelledResponse{
		Message: "Order cancelled successfully",
		OrderID: o.Code().String(),
		Status:  o.Status().String(),
	}
}
