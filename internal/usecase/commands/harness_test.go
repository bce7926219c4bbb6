//go:build unit

package commands_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"sync"
	"testing"
	"time"

	"checkout-core/internal/domain/coupon"
	"checkout-core/internal/domain/fulfillment"
	"checkout-core/internal/domain/order"
	"checkout-core/internal/domain/payment"
	"checkout-core/internal/domain/pricing"
	"checkout-core/internal/domain/product"
	reqdto "checkout-core/internal/handler/dto/request"
	"checkout-core/internal/infra/memstore"
	"checkout-core/internal/infra/stripe"
	"checkout-core/internal/pkg/clock"
	"checkout-core/internal/pkg/metrics"
	"checkout-core/internal/usecase/commands"
	"checkout-core/internal/usecase/shared"
	"checkout-core/tests/common/builder"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const webhookSecret = "whsec_unit"

var otpInBody = regexp.MustCompile(`Use (\d{6}) to confirm`)

type fakeProvider struct {
	mu       sync.Mutex
	requests []payment.SessionRequest
	err      error
}

func (p *fakeProvider) CreateCheckoutSession(_ context.Context, req payment.SessionRequest) (*payment.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	p.requests = append(p.requests, req)
	id := fmt.Sprintf("cs_test_%d", len(p.requests))
	return &payment.Session{ID: id, URL: "https://pay.example.test/" + id}, nil
}

func (p *fakeProvider) fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

func (p *fakeProvider) sessions() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.requests)
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []commands.Email
}

func (m *recordingMailer) Send(_ context.Context, msg commands.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

// lastOTP digs the passcode out of the most recent cancellation email.
func (m *recordingMailer) lastOTP(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.sent) - 1; i >= 0; i-- {
		if match := otpInBody.FindStringSubmatch(m.sent[i].Body); match != nil {
			return match[1]
		}
	}
	t.Fatal("no cancellation otp was mailed")
	return ""
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []commands.OrderEvent
}

func (p *recordingPublisher) Publish(_ context.Context, evt commands.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) count(typ string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e.Type == typ {
			n++
		}
	}
	return n
}

type recordingScheduler struct {
	mu   sync.Mutex
	jobs []fulfillment.Job
}

func (s *recordingScheduler) Schedule(jobs ...fulfillment.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, jobs...)
}

func (s *recordingScheduler) scheduled() []fulfillment.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]fulfillment.Job(nil), s.jobs...)
}

type harness struct {
	store     *memstore.Store
	clock     *clock.MockClock
	provider  *fakeProvider
	mailer    *recordingMailer
	publisher *recordingPublisher
	scheduler *recordingScheduler

	carts        commands.CartCommands
	checkout     commands.CheckoutCommands
	fulfillment  commands.FulfillmentCommands
	payments     commands.PaymentCommands
	cancellation commands.CancellationCommands
	maintenance  commands.MaintenanceCommands
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		store:     memstore.New(),
		clock:     clock.NewMockClock(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)),
		provider:  &fakeProvider{},
		mailer:    &recordingMailer{},
		publisher: &recordingPublisher{},
		scheduler: &recordingScheduler{},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.NewNop()
	s := h.store

	quoter := shared.NewQuoter(s.Products(), s.Coupons(), s.Orders(), pricing.NewEngine(pricing.DefaultPolicy()))
	inventory := commands.NewInventoryReserver(s.Products(), logger)
	notifier := commands.NewNotifier(s.Users(), h.mailer, h.publisher, h.clock, logger)
	eta := commands.FulfillmentPolicy{
		Resolver:  fulfillment.NewETAResolver([]string{"110001"}, 3, 7),
		DayLength: time.Hour,
	}

	h.fulfillment = commands.NewFulfillmentUseCase(s.Orders(), s.Jobs(), h.scheduler, inventory, notifier, eta, m, h.clock, logger)
	h.carts = commands.NewCartUseCase(s.Carts(), s.Products(), s.Orders(), quoter, h.clock, logger)
	h.checkout = commands.NewCheckoutUseCase(
		s.Carts(), s.Coupons(), s.Orders(), s.Wishlists(),
		quoter, inventory, h.provider, memstore.NewIdempotencyStore(h.clock), notifier,
		commands.CheckoutPolicy{
			SuccessURL:     "https://shop.example.test/success",
			CancelURL:      "https://shop.example.test/cancel",
			Currency:       "inr",
			OrderPrefix:    "ORD-",
			IdempotencyTTL: time.Hour,
		},
		eta, m, h.clock, logger,
	)
	h.payments = commands.NewPaymentUseCase(stripe.NewVerifier(webhookSecret, 5*time.Minute), memstore.NewEventDeduper(h.clock), h.fulfillment, m, logger)
	h.cancellation = commands.NewCancellationUseCase(s.Orders(), s.OTPs(), h.fulfillment, notifier,
		commands.OTPPolicy{TTL: 10 * time.Minute, MaxAttempts: 3}, h.clock, logger)
	h.maintenance = commands.NewMaintenanceUseCase(s.Products(), s.Coupons(), h.clock, logger)
	return h
}

func (h *harness) shopper(t *testing.T) uuid.UUID {
	t.Helper()
	id := uuid.New()
	h.store.PutUser(commands.UserContact{UserID: id, Name: "Asha Rao", Email: id.String()[:8] + "@example.test"})
	return id
}

func (h *harness) product(t *testing.T, b *builder.ProductBuilder) *product.Product {
	t.Helper()
	p := b.Build()
	h.store.PutProduct(p)
	return p
}

func (h *harness) addToCart(t *testing.T, userID, productID uuid.UUID, qty int) {
	t.Helper()
	_, err := h.carts.AddItem(context.Background(), userID, reqdto.AddCartItemRequest{ProductID: productID, Quantity: qty})
	require.NoError(t, err)
}

func (h *harness) stock(t *testing.T, productID uuid.UUID) int {
	t.Helper()
	found, err := h.store.Products().FindByIDs(context.Background(), []uuid.UUID{productID})
	require.NoError(t, err)
	require.Len(t, found, 1)
	return found[0].Stock()
}

func (h *harness) order(t *testing.T, code string) *order.Order {
	t.Helper()
	o, err := h.store.Orders().FindByCode(context.Background(), code)
	require.NoError(t, err)
	return o
}

// placeOrder checks out a cart holding qty units of a fresh product.
func (h *harness) placeOrder(t *testing.T, userID uuid.UUID, qty int) (*commands.CheckoutResult, *product.Product) {
	t.Helper()
	p := h.product(t, builder.NewProductBuilder().WithStock(10))
	h.addToCart(t, userID, p.ID(), qty)
	result, err := h.checkout.Checkout(context.Background(), builder.NewCheckoutBuilder().BuildRequestDTO(), userID, "")
	require.NoError(t, err)
	return result, p
}

func (h *harness) sessionOf(t *testing.T, code string) string {
	t.Helper()
	sid := h.order(t, code).Payment().SessionID
	require.NotNil(t, sid)
	return *sid
}

func (h *harness) webhook(t *testing.T, payload string) ([]byte, string) {
	t.Helper()
	body := []byte(payload)
	return body, stripe.Sign(webhookSecret, body, time.Now())
}

func completedEvent(eventID, sessionID string) string {
	return fmt.Sprintf(`{"id":%q,"type":"checkout.session.completed","data":{"object":{"id":%q,"payment_intent":"pi_%s"}}}`,
		eventID, sessionID, eventID)
}

func failedEvent(eventID, sessionID string) string {
	return fmt.Sprintf(`{"id":%q,"type":"payment_intent.payment_failed","data":{"object":{"id":"pi_%s","metadata":{"checkout_session_id":%q}}}}`,
		eventID, eventID, sessionID)
}

// couponParams describes a live SAVE10 coupon worth pct percent.
func couponParams(h *harness, pct int64) coupon.Params {
	discount := decimal.NewFromInt(pct)
	now := h.clock.Now()
	return coupon.Params{
		ID:          uuid.New(),
		Code:        "SAVE10",
		Type:        string(coupon.TypePercentage),
		DiscountPct: &discount,
		MaxUsage:    100,
		StartsAt:    now.Add(-24 * time.Hour),
		ExpiresAt:   now.Add(24 * time.Hour),
		Active:      true,
	}
}

func couponID(t *testing.T, h *harness) uuid.UUID {
	t.Helper()
	c, err := h.store.Coupons().FindByCode(context.Background(), "SAVE10")
	require.NoError(t, err)
	return c.ID()
}

func applyCoupon(code string) reqdto.ApplyCouponRequest {
	return reqdto.ApplyCouponRequest{Code: code}
}

var errProviderDown = errors.New("provider returned 503")
