package order

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAddress       = errors.New("shipping address is incomplete")
	ErrInvalidPaymentMethod = errors.New("payment method is required")
	ErrInvalidLineItem      = errors.New("invalid line item")
)

// Code is the human-readable order identifier shown to customers.
type Code string

// NewCode derives "<prefix>" + the last six hex digits of id, upper-cased.
func NewCode(prefix string, id uuid.UUID) Code {
	hex := strings.ReplaceAll(id.String(), "-", "")
	return Code(prefix + strings.ToUpper(hex[len(hex)-6:]))
}

func (c Code) String() string {
	return string(c)
}

type ShippingAddress struct {
	FullName   string `json:"fullName"`
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	Phone      string `json:"phone"`
}

func NewShippingAddress(fullName, street, city, state, postalCode, country, phone string) (ShippingAddress, error) {
	a := ShippingAddress{
		FullName:   strings.TrimSpace(fullName),
		Street:     strings.TrimSpace(street),
		City:       strings.TrimSpace(city),
		State:      strings.TrimSpace(state),
		PostalCode: strings.TrimSpace(postalCode),
		Country:    strings.TrimSpace(country),
		Phone:      strings.TrimSpace(phone),
	}
	if err := a.Validate(); err != nil {
		return ShippingAddress{}, err
	}
	return a, nil
}

func (a ShippingAddress) Validate() error {
	for _, v := range []string{a.FullName, a.Street, a.City, a.State, a.PostalCode, a.Country, a.Phone} {
		if v == "" {
			return ErrInvalidAddress
		}
	}
	return nil
}

type PaymentMethod string

func NewPaymentMethod(s string) (PaymentMethod, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrInvalidPaymentMethod
	}
	return PaymentMethod(s), nil
}

func (m PaymentMethod) String() string {
	return string(m)
}

// LineItem snapshots the unit price at checkout; it is never recomputed.
type LineItem struct {
	ProductID uuid.UUID       `json:"productId"`
	Title     string          `json:"title"`
	Category  string          `json:"category"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
}

func (l LineItem) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Totals struct {
	Subtotal   decimal.Decimal
	Tax        decimal.Decimal
	Shipping   decimal.Decimal
	Discount   decimal.Decimal
	GrandTotal decimal.Decimal
	FinalTotal decimal.Decimal
}

// Balanced reports FinalTotal == Subtotal + Tax + Shipping - Discount.
func (t Totals) Balanced() bool {
	return t.Subtotal.Add(t.Tax).Add(t.Shipping).Sub(t.Discount).Equal(t.FinalTotal)
}

type AppliedCoupon struct {
	Code     string          `json:"code"`
	Discount decimal.Decimal `json:"discount"`
	Type     string          `json:"type"`
}

type PaymentInfo struct {
	Method        PaymentMethod
	Status        PaymentStatus
	SessionID     *string
	TransactionID *string
}

type TrackingEntry struct {
	Status   Status    `json:"status"`
	Location string    `json:"location"`
	Note     string    `json:"note"`
	At       time.Time `json:"at"`
}
