package payment

// Amounts are in minor currency units.
type LineItem struct {
	Name      string
	UnitPrice int64
	Quantity  int64
}

type ShippingOption struct {
	DisplayName     string
	Amount          int64
	MinBusinessDays int
	MaxBusinessDays int
}

type SessionRequest struct {
	Currency        string
	LineItems       []LineItem
	DiscountAmount  int64
	ShippingOptions []ShippingOption
	SuccessURL      string
	CancelURL       string
	Metadata        map[string]string
	IdempotencyKey  string
}

type Session struct {
	ID  string
	URL string
}

type EventType string

const (
	EventCheckoutCompleted EventType = "checkout.session.completed"
	EventPaymentFailed     EventType = "payment_intent.payment_failed"
)

// Event is a verified provider notification reduced to the fields this
// service acts on.
type Event struct {
	ID            string
	Type          EventType
	SessionID     string
	TransactionID string
}
