package order

import (
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNoItems              = errors.New("order must have at least one item")
	ErrUnbalancedTotals     = errors.New("order totals do not balance")
	ErrTransitionRejected   = errors.New("status transition rejected")
	ErrPaymentAlreadyFailed = errors.New("payment already failed")
	ErrPaymentAlreadyPaid   = errors.New("payment already completed")
)

// Tracking locations and notes used by the built-in transitions.
const (
	LocationWarehouse   = "Warehouse"
	NoteOrderReceived   = "Order received and is being processed."
	LocationPayment     = "online payment"
	NotePaymentReceived = "Payment received via Stripe"
	NotePaymentFailed   = "Payment failed"
)

type Order struct {
	id               uuid.UUID
	code             Code
	userID           uuid.UUID
	items            []LineItem
	totals           Totals
	coupon           *AppliedCoupon
	status           Status
	payment          PaymentInfo
	address          ShippingAddress
	expectedDelivery time.Time
	tracking         []TrackingEntry
	createdAt        time.Time
	updatedAt        time.Time
}

type NewParams struct {
	ID               uuid.UUID
	CodePrefix       string
	UserID           uuid.UUID
	Items            []LineItem
	Totals           Totals
	Coupon           *AppliedCoupon
	PaymentMethod    PaymentMethod
	Address          ShippingAddress
	ExpectedDelivery time.Time
	Now              time.Time
}

// New builds a Processing order with its first tracking entry. The code is
// derived from the id; callers regenerate the id on code collision.
func New(p NewParams) (*Order, error) {
	if len(p.Items) == 0 {
		return nil, ErrNoItems
	}
	for _, it := range p.Items {
		if it.ProductID == uuid.Nil || it.Quantity <= 0 || it.UnitPrice.IsNegative() {
			return nil, ErrInvalidLineItem
		}
	}
	if err := p.Address.Validate(); err != nil {
		return nil, err
	}
	if p.PaymentMethod == "" {
		return nil, ErrInvalidPaymentMethod
	}
	if !p.Totals.Balanced() {
		return nil, ErrUnbalancedTotals
	}

	id := p.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	items := make([]LineItem, len(p.Items))
	copy(items, p.Items)

	return &Order{
		id:     id,
		code:   NewCode(p.CodePrefix, id),
		userID: p.UserID,
		items:  items,
		totals: p.Totals,
		coupon: p.Coupon,
		status: StatusProcessing,
		payment: PaymentInfo{
			Method: p.PaymentMethod,
			Status: PaymentPending,
		},
		address:          p.Address,
		expectedDelivery: p.ExpectedDelivery,
		tracking: []TrackingEntry{{
			Status:   StatusProcessing,
			Location: LocationWarehouse,
			Note:     NoteOrderReceived,
			At:       p.Now,
		}},
		createdAt: p.Now,
		updatedAt: p.Now,
	}, nil
}

type ReconstructParams struct {
	ID               uuid.UUID
	Code             Code
	UserID           uuid.UUID
	Items            []LineItem
	Totals           Totals
	Coupon           *AppliedCoupon
	Status           Status
	Payment          PaymentInfo
	Address          ShippingAddress
	ExpectedDelivery time.Time
	Tracking         []TrackingEntry
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func Reconstruct(p ReconstructParams) *Order {
	items := make([]LineItem, len(p.Items))
	copy(items, p.Items)
	tracking := make([]TrackingEntry, len(p.Tracking))
	copy(tracking, p.Tracking)
	return &Order{
		id:               p.ID,
		code:             p.Code,
		userID:           p.UserID,
		items:            items,
		totals:           p.Totals,
		coupon:           p.Coupon,
		status:           p.Status,
		payment:          p.Payment,
		address:          p.Address,
		expectedDelivery: p.ExpectedDelivery,
		tracking:         tracking,
		createdAt:        p.CreatedAt,
		updatedAt:        p.UpdatedAt,
	}
}

// Transition moves the order to target and appends a tracking entry. It is
// rejected without mutation when the transition table forbids it.
func (o *Order) Transition(target Status, location, note string, at time.Time) error {
	if !CanTransition(o.status, target) {
		return ErrTransitionRejected
	}
	o.status = target
	o.tracking = append(o.tracking, TrackingEntry{
		Status:   target,
		Location: location,
		Note:     note,
		At:       at,
	})
	o.updatedAt = at
	return nil
}

// MarkPaid records a completed payment and moves the order to Paid.
func (o *Order) MarkPaid(transactionID string, at time.Time) error {
	if o.payment.Status == PaymentCompleted {
		return ErrPaymentAlreadyPaid
	}
	if err := o.Transition(StatusPaid, LocationPayment, NotePaymentReceived, at); err != nil {
		return err
	}
	o.payment.Status = PaymentCompleted
	if transactionID != "" {
		o.payment.TransactionID = &transactionID
	}
	return nil
}

// MarkPaymentFailed records a failed payment and cancels the order when it
// is still cancellable.
func (o *Order) MarkPaymentFailed(at time.Time) error {
	switch o.payment.Status {
	case PaymentFailed:
		return ErrPaymentAlreadyFailed
	case PaymentCompleted:
		return ErrPaymentAlreadyPaid
	}
	if err := o.Transition(StatusCancelled, LocationPayment, NotePaymentFailed, at); err != nil {
		return err
	}
	o.payment.Status = PaymentFailed
	return nil
}

// Cancel preempts any non-terminal status. An unpaid order's payment is
// marked Failed; a completed payment is left untouched for refund handling.
func (o *Order) Cancel(location, note string, at time.Time) error {
	if err := o.Transition(StatusCancelled, location, note, at); err != nil {
		return err
	}
	if o.payment.Status == PaymentPending {
		o.payment.Status = PaymentFailed
	}
	return nil
}

func (o *Order) AttachSession(sessionID string, at time.Time) {
	o.payment.SessionID = &sessionID
	o.updatedAt = at
}

func (o *Order) IsOwnedBy(userID uuid.UUID) bool {
	return o.userID == userID
}

func (o *Order) ID() uuid.UUID                { return o.id }
func (o *Order) Code() Code                   { return o.code }
func (o *Order) UserID() uuid.UUID            { return o.userID }
func (o *Order) Totals() Totals               { return o.totals }
func (o *Order) Coupon() *AppliedCoupon       { return o.coupon }
func (o *Order) Status() Status               { return o.status }
func (o *Order) Payment() PaymentInfo         { return o.payment }
func (o *Order) Address() ShippingAddress     { return o.address }
func (o *Order) ExpectedDelivery() time.Time  { return o.expectedDelivery }
func (o *Order) CreatedAt() time.Time         { return o.createdAt }
func (o *Order) UpdatedAt() time.Time         { return o.updatedAt }

func (o *Order) Items() []LineItem {
	out := make([]LineItem, len(o.items))
	copy(out, o.items)
	return out
}

func (o *Order) Tracking() []TrackingEntry {
	out := make([]TrackingEntry, len(o.tracking))
	copy(out, o.tracking)
	return out
}

// TrackingNewestFirst orders the history for display.
func (o *Order) TrackingNewestFirst() []TrackingEntry {
	out := o.Tracking()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].At.After(out[j].At)
	})
	return out
}

func (o *Order) ProductIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(o.items))
	for _, it := range o.items {
		ids = append(ids, it.ProductID)
	}
	return ids
}
