package shared

import (
	"context"
	"errors"
	"strings"
	"time"

	"checkout-core/internal/domain/cart"
	"checkout-core/internal/domain/coupon"
	"checkout-core/internal/domain/pricing"
	"checkout-core/internal/domain/product"
	"checkout-core/internal/infra"
	"checkout-core/internal/pkg/errs"

	"github.com/google/uuid"
)

type ProductFinder interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*product.Product, error)
}

type CouponFinder interface {
	FindByCode(ctx context.Context, code string) (*coupon.Coupon, error)
	CountUserRedemptions(ctx context.Context, couponID, userID uuid.UUID) (int, error)
}

type PurchaseCounter interface {
	CountCompletedPurchases(ctx context.Context, userID uuid.UUID) (int, error)
}

// Quoter loads the facts the pricing engine needs and runs it. Checkout,
// the cart and the total preview all price through it so they agree.
type Quoter struct {
	products  ProductFinder
	coupons   CouponFinder
	purchases PurchaseCounter
	engine    *pricing.Engine
}

func NewQuoter(products ProductFinder, coupons CouponFinder, purchases PurchaseCounter, engine *pricing.Engine) *Quoter {
	return &Quoter{
		products:  products,
		coupons:   coupons,
		purchases: purchases,
		engine:    engine,
	}
}

// Items resolves cart lines against the catalog, keeping cart order.
func (q *Quoter) Items(ctx context.Context, lines []cart.Line) ([]pricing.Item, error) {
	if len(lines) == 0 {
		return nil, errs.Mark(pricing.ErrNoItems, errs.ErrValidation)
	}
	ids := make([]uuid.UUID, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}

	products, err := q.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	byID := make(map[uuid.UUID]*product.Product, len(products))
	for _, p := range products {
		byID[p.ID()] = p
	}

	items := make([]pricing.Item, 0, len(lines))
	for _, l := range lines {
		p, ok := byID[l.ProductID]
		if !ok {
			return nil, errs.Mark(errs.Wrapf(errs.ErrProductNotFound, "product %s", l.ProductID), errs.ErrValidation)
		}
		items = append(items, pricing.Item{Product: p, Quantity: l.Quantity})
	}
	return items, nil
}

// CouponRequest looks up code and the user's history with it. A nil or
// blank code yields a nil request.
func (q *Quoter) CouponRequest(ctx context.Context, code *string, userID uuid.UUID) (*pricing.CouponRequest, error) {
	if code == nil || strings.TrimSpace(*code) == "" {
		return nil, nil
	}
	normalized := strings.ToUpper(strings.TrimSpace(*code))

	c, err := q.coupons.FindByCode(ctx, normalized)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, &errs.CouponRejectedError{Reason: coupon.ErrCouponNotFound}
		}
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	purchases, err := q.purchases.CountCompletedPurchases(ctx, userID)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	redemptions, err := q.coupons.CountUserRedemptions(ctx, c.ID(), userID)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	return &pricing.CouponRequest{
		Coupon:             c,
		CompletedPurchases: purchases,
		UserRedemptions:    redemptions,
	}, nil
}

// Quote prices items. Coupon rule failures come back as
// *errs.CouponRejectedError.
func (q *Quoter) Quote(items []pricing.Item, req *pricing.CouponRequest, now time.Time) (pricing.Summary, error) {
	summary, err := q.engine.Quote(items, req, now)
	if err == nil {
		return summary, nil
	}
	if IsCouponRule(err) {
		return pricing.Summary{}, &errs.CouponRejectedError{Reason: err}
	}
	return pricing.Summary{}, errs.Mark(err, errs.ErrValidation)
}

// QuoteLines is Items, CouponRequest and Quote in one call.
func (q *Quoter) QuoteLines(ctx context.Context, lines []cart.Line, code *string, userID uuid.UUID, now time.Time) (pricing.Summary, *pricing.CouponRequest, error) {
	items, err := q.Items(ctx, lines)
	if err != nil {
		return pricing.Summary{}, nil, err
	}
	req, err := q.CouponRequest(ctx, code, userID)
	if err != nil {
		return pricing.Summary{}, nil, err
	}
	summary, err := q.Quote(items, req, now)
	if err != nil {
		return pricing.Summary{}, nil, err
	}
	return summary, req, nil
}

var couponRules = []error{
	coupon.ErrCouponNotFound,
	coupon.ErrCouponInactive,
	coupon.ErrCouponNotYetValid,
	coupon.ErrCouponExpired,
	coupon.ErrCouponExhausted,
	coupon.ErrCouponFirstOrderOnly,
	coupon.ErrCouponAlreadyUsed,
	coupon.ErrCouponBelowMinimum,
	coupon.ErrCouponCategoryMismatch,
}

// IsCouponRule reports whether err is one of the coupon redemption rules.
func IsCouponRule(err error) bool {
	for _, rule := range couponRules {
		if errors.Is(err, rule) {
			return true
		}
	}
	return false
}
