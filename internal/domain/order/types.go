package order

import "errors"

var ErrInvalidStatus = errors.New("invalid order status")

type Status string

const (
	StatusProcessing     Status = "Processing"
	StatusPaid           Status = "Paid"
	StatusShipped        Status = "Shipped"
	StatusOutForDelivery Status = "Out for Delivery"
	StatusDelivered      Status = "Delivered"
	StatusCancelled      Status = "Cancelled"
)

var ranks = map[Status]int{
	StatusProcessing:     1,
	StatusPaid:           2,
	StatusShipped:        3,
	StatusOutForDelivery: 4,
	StatusDelivered:      5,
	StatusCancelled:      6,
}

// transitions is the single source of truth for allowed status changes.
// Every target outranks its source; Cancelled is reachable from every
// non-terminal state; Delivered and Cancelled are terminal.
var transitions = map[Status][]Status{
	StatusProcessing:     {StatusPaid, StatusShipped, StatusOutForDelivery, StatusDelivered, StatusCancelled},
	StatusPaid:           {StatusShipped, StatusOutForDelivery, StatusDelivered, StatusCancelled},
	StatusShipped:        {StatusOutForDelivery, StatusDelivered, StatusCancelled},
	StatusOutForDelivery: {StatusDelivered, StatusCancelled},
	StatusDelivered:      {},
	StatusCancelled:      {},
}

func NewStatus(s string) (Status, error) {
	st := Status(s)
	if !st.IsValid() {
		return "", ErrInvalidStatus
	}
	return st, nil
}

func (s Status) IsValid() bool {
	_, ok := ranks[s]
	return ok
}

func (s Status) Rank() int {
	return ranks[s]
}

func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

func (s Status) String() string {
	return string(s)
}

// CanTransition consults the transition table.
func CanTransition(from, to Status) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// AllowedTargets returns a copy of the targets reachable from s.
func AllowedTargets(s Status) []Status {
	out := make([]Status, len(transitions[s]))
	copy(out, transitions[s])
	return out
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "Pending"
	PaymentCompleted PaymentStatus = "Completed"
	PaymentFailed    PaymentStatus = "Failed"
)

func (p PaymentStatus) IsValid() bool {
	switch p {
	case PaymentPending, PaymentCompleted, PaymentFailed:
		return true
	default:
		return false
	}
}

func (p PaymentStatus) String() string {
	return string(p)
}
