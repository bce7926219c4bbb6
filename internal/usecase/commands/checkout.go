package commands

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"checkout-core/internal/domain/cart"
	"checkout-core/internal/domain/coupon"
	"checkout-core/internal/domain/fulfillment"
	"checkout-core/internal/domain/order"
	"checkout-core/internal/domain/payment"
	"checkout-core/internal/domain/pricing"
	reqdto "checkout-core/internal/handler/dto/request"
	"checkout-core/internal/infra"
	"checkout-core/internal/pkg/clock"
	"checkout-core/internal/pkg/errs"
	"checkout-core/internal/pkg/metrics"
	"checkout-core/internal/pkg/money"
	"checkout-core/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const maxOrderCodeAttempts = 5

var errEmptyCart = errs.New("cart is empty")

// CheckoutPolicy carries the provider redirect targets and order numbering.
type CheckoutPolicy struct {
	SuccessURL     string
	CancelURL      string
	Currency       string
	OrderPrefix    string
	IdempotencyTTL time.Duration
}

type CheckoutResult struct {
	OrderID    string          `json:"orderId"`
	PaymentURL string          `json:"paymentUrl"`
	Discount   decimal.Decimal `json:"discount"`
	FinalTotal decimal.Decimal `json:"finalTotal"`
	IsReplayed bool            `json:"-"`
}

type CheckoutCommands interface {
	// Checkout turns the user's cart into a Processing order with an open
	// payment session. idempotencyKey is optional.
	Checkout(ctx context.Context, req reqdto.CheckoutRequest, userID uuid.UUID, idempotencyKey string) (*CheckoutResult, error)
}

type checkoutUseCaseImpl struct {
	carts       CartRepository
	coupons     CouponRepository
	orders      OrderRepository
	wishlist    WishlistRepository
	quoter      *shared.Quoter
	inventory   *InventoryReserver
	provider    PaymentProvider
	idempotency IdempotencyStore
	notifier    *Notifier
	policy      CheckoutPolicy
	eta         FulfillmentPolicy
	metrics     *metrics.Metrics
	clock       clock.Clock
	logger      *slog.Logger
}

func NewCheckoutUseCase(
	carts CartRepository,
	coupons CouponRepository,
	orders OrderRepository,
	wishlist WishlistRepository,
	quoter *shared.Quoter,
	inventory *InventoryReserver,
	provider PaymentProvider,
	idempotency IdempotencyStore,
	notifier *Notifier,
	policy CheckoutPolicy,
	eta FulfillmentPolicy,
	m *metrics.Metrics,
	clk clock.Clock,
	logger *slog.Logger,
) CheckoutCommands {
	return &checkoutUseCaseImpl{
		carts:       carts,
		coupons:     coupons,
		orders:      orders,
		wishlist:    wishlist,
		quoter:      quoter,
		inventory:   inventory,
		provider:    provider,
		idempotency: idempotency,
		notifier:    notifier,
		policy:      policy,
		eta:         eta,
		metrics:     m,
		clock:       clk,
		logger:      logger,
	}
}

func (uc *checkoutUseCaseImpl) Checkout(
	ctx context.Context,
	req reqdto.CheckoutRequest,
	userID uuid.UUID,
	idempotencyKey string,
) (*CheckoutResult, error) {
	if idempotencyKey == "" {
		return uc.checkout(ctx, req, userID)
	}

	key := "checkout:" + userID.String() + ":" + idempotencyKey
	replayed, err := uc.claimIdempotencyKey(ctx, key)
	if err != nil || replayed != nil {
		return replayed, err
	}

	result, err := uc.checkout(ctx, req, userID)
	if err != nil {
		if relErr := uc.idempotency.Release(ctx, key); relErr != nil {
			uc.logger.Warn("failed to release idempotency key", "key", key, "error", relErr)
		}
		return nil, err
	}

	payload, _ := json.Marshal(result)
	if err := uc.idempotency.Complete(ctx, key, payload, uc.policy.IdempotencyTTL); err != nil {
		uc.logger.Warn("failed to store idempotent checkout result", "key", key, "error", err)
	}
	return result, nil
}

func (uc *checkoutUseCaseImpl) claimIdempotencyKey(ctx context.Context, key string) (*CheckoutResult, error) {
	claimed, err := uc.idempotency.Reserve(ctx, key, uc.policy.IdempotencyTTL)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	if claimed {
		return nil, nil
	}

	stored, ok, err := uc.idempotency.Load(ctx, key)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	if !ok {
		return nil, errs.ErrIdempotencyInProgress
	}
	var result CheckoutResult
	if err := json.Unmarshal(stored, &result); err != nil {
		return nil, errs.Wrap(err, "decode stored checkout result")
	}
	result.IsReplayed = true
	uc.metrics.CheckoutResult("replayed")
	return &result, nil
}

func (uc *checkoutUseCaseImpl) checkout(ctx context.Context, req reqdto.CheckoutRequest, userID uuid.UUID) (*CheckoutResult, error) {
	address, err := req.ShippingAddress.ToDomain()
	if err != nil {
		return nil, uc.reject("validation", errs.Mark(err, errs.ErrValidation))
	}
	method, err := order.NewPaymentMethod(req.PaymentMethod)
	if err != nil {
		return nil, uc.reject("validation", errs.Mark(err, errs.ErrValidation))
	}

	c, err := uc.loadCart(ctx, userID)
	if err != nil {
		return nil, uc.reject("validation", err)
	}
	lines := c.Lines()

	items, err := uc.quoter.Items(ctx, lines)
	if err != nil {
		return nil, uc.reject("validation", err)
	}
	code := req.GetCouponCode()
	if code == nil {
		code = c.CouponCode()
	}
	couponReq, err := uc.quoter.CouponRequest(ctx, code, userID)
	if err != nil {
		return nil, uc.reject("coupon_rejected", err)
	}

	reservation, err := uc.inventory.Reserve(ctx, lines)
	if err != nil {
		return nil, uc.reject("insufficient_stock", err)
	}

	now := uc.clock.Now()
	summary, err := uc.quoter.Quote(items, couponReq, now)
	if err != nil {
		uc.inventory.Release(ctx, reservation)
		return nil, uc.reject("coupon_rejected", err)
	}

	var claimed *coupon.Coupon
	if summary.AppliedCoupon != nil {
		claimed = couponReq.Coupon
		if err := uc.coupons.Redeem(ctx, claimed.ID(), userID); err != nil {
			uc.inventory.Release(ctx, reservation)
			if shared.IsCouponRule(err) {
				return nil, uc.reject("coupon_rejected", &errs.CouponRejectedError{Reason: err})
			}
			return nil, uc.reject("error", errs.Mark(err, errs.ErrDatabaseOperationFailed))
		}
	}

	o, err := uc.persistOrder(ctx, userID, summary, method, address, now)
	if err != nil {
		uc.releaseCoupon(ctx, claimed, userID)
		uc.inventory.Release(ctx, reservation)
		return nil, uc.reject("error", err)
	}

	// From here on the order exists and stays Processing on failure. The
	// coupon slot is only kept once a session is open.
	session, err := uc.provider.CreateCheckoutSession(ctx, uc.sessionRequest(o, summary, userID))
	if err != nil {
		uc.logger.Error("failed to open payment session",
			"order_code", o.Code().String(),
			"error", err)
		uc.releaseCoupon(ctx, claimed, userID)
		return nil, uc.reject("payment_error", errs.Mark(err, errs.ErrPaymentProvider))
	}
	if err := uc.orders.AttachSession(ctx, o.ID(), session.ID, uc.clock.Now()); err != nil {
		return nil, uc.reject("error", errs.Mark(err, errs.ErrDatabaseOperationFailed))
	}

	uc.clearCart(ctx, c, o)
	uc.notifier.OrderPlaced(ctx, o, session.URL)
	uc.metrics.CheckoutResult("placed")

	uc.logger.Info("order placed",
		"order_code", o.Code().String(),
		"user_id", userID,
		"final_total", money.Format(summary.FinalTotal))

	return &CheckoutResult{
		OrderID:    o.Code().String(),
		PaymentURL: session.URL,
		Discount:   summary.Discount,
		FinalTotal: summary.FinalTotal,
	}, nil
}

// releaseCoupon gives back a redemption claimed earlier in the same checkout.
func (uc *checkoutUseCaseImpl) releaseCoupon(ctx context.Context, claimed *coupon.Coupon, userID uuid.UUID) {
	if claimed == nil {
		return
	}
	if err := uc.coupons.ReleaseRedemption(ctx, claimed.ID(), userID); err != nil {
		uc.logger.Error("failed to release coupon redemption",
			"coupon_code", claimed.Code().String(),
			"user_id", userID,
			"error", err)
	}
}

func (uc *checkoutUseCaseImpl) loadCart(ctx context.Context, userID uuid.UUID) (*cart.Cart, error) {
	c, err := uc.carts.FindByUser(ctx, userID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.Mark(errEmptyCart, errs.ErrValidation)
		}
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	if c.IsEmpty() {
		return nil, errs.Mark(errEmptyCart, errs.ErrValidation)
	}
	return c, nil
}

// persistOrder writes the order, drawing a fresh id when the derived code
// collides with an existing order.
func (uc *checkoutUseCaseImpl) persistOrder(
	ctx context.Context,
	userID uuid.UUID,
	summary pricing.Summary,
	method order.PaymentMethod,
	address order.ShippingAddress,
	now time.Time,
) (*order.Order, error) {
	items := make([]order.LineItem, 0, len(summary.Lines))
	for _, l := range summary.Lines {
		items = append(items, order.LineItem{
			ProductID: l.ProductID,
			Title:     l.Title,
			Category:  l.Category,
			UnitPrice: l.UnitPrice,
			Quantity:  l.Quantity,
		})
	}
	var applied *order.AppliedCoupon
	if ac := summary.AppliedCoupon; ac != nil {
		applied = &order.AppliedCoupon{Code: ac.Code, Discount: ac.Discount, Type: ac.Type.String()}
	}
	tier := uc.eta.Resolver.TierFor(address.PostalCode)

	for attempt := 0; attempt < maxOrderCodeAttempts; attempt++ {
		o, err := order.New(order.NewParams{
			ID:         uuid.New(),
			CodePrefix: uc.policy.OrderPrefix,
			UserID:     userID,
			Items:      items,
			Totals: order.Totals{
				Subtotal:   summary.Subtotal,
				Tax:        summary.Tax,
				Shipping:   summary.Shipping,
				Discount:   summary.Discount,
				GrandTotal: summary.GrandTotal,
				FinalTotal: summary.FinalTotal,
			},
			Coupon:           applied,
			PaymentMethod:    method,
			Address:          address,
			ExpectedDelivery: fulfillment.ExpectedDelivery(now, tier, uc.eta.DayLength),
			Now:              now,
		})
		if err != nil {
			return nil, errs.Mark(err, errs.ErrValidation)
		}

		err = uc.orders.Create(ctx, o)
		if err == nil {
			return o, nil
		}
		if !infra.IsKind(err, infra.KindDuplicateKey) {
			return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		uc.logger.Warn("order code collision, regenerating", "order_code", o.Code().String())
	}
	return nil, errs.Mark(errs.New("could not allocate a unique order code"), errs.ErrDatabaseOperationFailed)
}

func (uc *checkoutUseCaseImpl) sessionRequest(o *order.Order, summary pricing.Summary, userID uuid.UUID) payment.SessionRequest {
	lineItems := make([]payment.LineItem, 0, len(summary.Lines)+1)
	for _, l := range summary.Lines {
		lineItems = append(lineItems, payment.LineItem{
			Name:      l.Title,
			UnitPrice: money.ToCents(l.UnitPrice),
			Quantity:  int64(l.Quantity),
		})
	}
	if summary.Tax.IsPositive() {
		lineItems = append(lineItems, payment.LineItem{
			Name:      "Tax",
			UnitPrice: money.ToCents(summary.Tax),
			Quantity:  1,
		})
	}

	var shipping []payment.ShippingOption
	if summary.Shipping.IsPositive() {
		shipping = append(shipping, payment.ShippingOption{
			DisplayName:     "Standard Shipping",
			Amount:          money.ToCents(summary.Shipping),
			MinBusinessDays: 5,
			MaxBusinessDays: 7,
		})
	}

	return payment.SessionRequest{
		Currency:        uc.policy.Currency,
		LineItems:       lineItems,
		DiscountAmount:  money.ToCents(summary.Discount),
		ShippingOptions: shipping,
		SuccessURL:      uc.policy.SuccessURL,
		CancelURL:       uc.policy.CancelURL,
		Metadata: map[string]string{
			"userId":  userID.String(),
			"orderId": o.Code().String(),
		},
		IdempotencyKey: o.ID().String(),
	}
}

// clearCart empties the cart and prunes the wishlist. The order is already
// placed, so failures are only logged.
func (uc *checkoutUseCaseImpl) clearCart(ctx context.Context, c *cart.Cart, o *order.Order) {
	c.Clear(uc.clock.Now())
	if err := uc.carts.Save(ctx, c); err != nil {
		uc.logger.Error("failed to clear cart after checkout",
			"order_code", o.Code().String(),
			"error", err)
	}
	if err := uc.wishlist.RemoveProducts(ctx, o.UserID(), o.ProductIDs()); err != nil {
		uc.logger.Error("failed to prune wishlist after checkout",
			"order_code", o.Code().String(),
			"error", err)
	}
}

func (uc *checkoutUseCaseImpl) reject(result string, err error) error {
	uc.metrics.CheckoutResult(result)
	return err
}
