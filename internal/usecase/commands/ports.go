package commands

//go:generate mockgen -destination=../../../tests/mock/commands/commands.go -package=commandsmock checkout-core/internal/usecase/commands CancellationCommands,CartCommands,CheckoutCommands,PaymentCommands

import (
	"context"
	"time"

	"checkout-core/internal/domain/cart"
	"checkout-core/internal/domain/coupon"
	"checkout-core/internal/domain/fulfillment"
	"checkout-core/internal/domain/order"
	"checkout-core/internal/domain/otp"
	"checkout-core/internal/domain/payment"
	"checkout-core/internal/domain/product"

	"github.com/google/uuid"
)

// Repositories. Lookups that miss return an infra.KindNotFound error.

type ProductRepository interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*product.Product, error)
	// DecrementStockIf removes qty only when at least qty is on hand. On
	// refusal it reports the stock that was available.
	DecrementStockIf(ctx context.Context, id uuid.UUID, qty int) (available int, ok bool, err error)
	IncrementStock(ctx context.Context, id uuid.UUID, qty int) error
	ClearExpiredSales(ctx context.Context, now time.Time) (int64, error)
}

type CouponRepository interface {
	FindByCode(ctx context.Context, code string) (*coupon.Coupon, error)
	CountUserRedemptions(ctx context.Context, couponID, userID uuid.UUID) (int, error)
	// Redeem bumps the global and per-user counters in one conditional step.
	// It returns coupon.ErrCouponExhausted or coupon.ErrCouponAlreadyUsed
	// when the claim loses.
	Redeem(ctx context.Context, couponID, userID uuid.UUID) error
	ReleaseRedemption(ctx context.Context, couponID, userID uuid.UUID) error
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}

type OrderRepository interface {
	// Create returns infra.KindDuplicateKey when the order code is taken.
	Create(ctx context.Context, o *order.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error)
	FindByCode(ctx context.Context, code string) (*order.Order, error)
	FindBySessionID(ctx context.Context, sessionID string) (*order.Order, error)
	CountCompletedPurchases(ctx context.Context, userID uuid.UUID) (int, error)
	AttachSession(ctx context.Context, id uuid.UUID, sessionID string, at time.Time) error
	// UpdateIfStatus persists o only if the stored status still equals
	// expected. false means another writer got there first.
	UpdateIfStatus(ctx context.Context, o *order.Order, expected order.Status) (bool, error)
}

type CartRepository interface {
	FindByUser(ctx context.Context, userID uuid.UUID) (*cart.Cart, error)
	Save(ctx context.Context, c *cart.Cart) error
}

type WishlistRepository interface {
	RemoveProducts(ctx context.Context, userID uuid.UUID, productIDs []uuid.UUID) error
}

type UserContact struct {
	UserID uuid.UUID
	Name   string
	Email  string
}

type UserDirectory interface {
	FindContact(ctx context.Context, userID uuid.UUID) (*UserContact, error)
}

type OTPRepository interface {
	Find(ctx context.Context, orderID, userID uuid.UUID) (*otp.CancellationOTP, error)
	Save(ctx context.Context, o *otp.CancellationOTP) error
	// UpdateAttempts stores o's attempt count if the stored count is still expected.
	UpdateAttempts(ctx context.Context, o *otp.CancellationOTP, expected int) (bool, error)
	Delete(ctx context.Context, orderID, userID uuid.UUID) error
}

type FulfillmentJobRepository interface {
	Enqueue(ctx context.Context, jobs []fulfillment.Job) error
	ListPending(ctx context.Context, limit int) ([]fulfillment.Job, error)
	MarkDone(ctx context.Context, id uuid.UUID, at time.Time) error
}

// Outbound collaborators.

type PaymentProvider interface {
	CreateCheckoutSession(ctx context.Context, req payment.SessionRequest) (*payment.Session, error)
}

type WebhookVerifier interface {
	Verify(payload []byte, signatureHeader string) (*payment.Event, error)
}

type Email struct {
	To      string
	Subject string
	Body    string
	Tags    map[string]string
}

type Mailer interface {
	Send(ctx context.Context, msg Email) error
}

const (
	EventOrderPlaced        = "order.placed"
	EventOrderStatusChanged = "order.status_changed"
)

type OrderEvent struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	OrderID    uuid.UUID         `json:"orderId"`
	OrderCode  string            `json:"orderCode"`
	UserID     uuid.UUID         `json:"userId"`
	Status     string            `json:"status"`
	OccurredAt time.Time         `json:"occurredAt"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

type EventPublisher interface {
	Publish(ctx context.Context, evt OrderEvent) error
}

// IdempotencyStore backs the optional Idempotency-Key on checkout.
type IdempotencyStore interface {
	// Reserve claims key. false means it was already claimed.
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Load returns the stored result; ok is false while still processing.
	Load(ctx context.Context, key string) (value []byte, ok bool, err error)
	Complete(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Release(ctx context.Context, key string) error
}

// EventDeduper remembers processed payment provider event ids.
type EventDeduper interface {
	IsProcessed(ctx context.Context, eventID string) (bool, error)
	MarkProcessed(ctx context.Context, eventID string) error
}

// JobScheduler arms in-process timers for persisted fulfillment jobs.
type JobScheduler interface {
	Schedule(jobs ...fulfillment.Job)
}
