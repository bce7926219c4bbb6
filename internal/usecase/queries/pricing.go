package queries

import (
	"context"

	"checkout-core/internal/domain/cart"
	"checkout-core/internal/domain/pricing"
	reqdto "checkout-core/internal/handler/dto/request"
	"checkout-core/internal/infra"
	"checkout-core/internal/pkg/clock"
	"checkout-core/internal/pkg/errs"
	"checkout-core/internal/usecase/shared"

	"github.com/google/uuid"
)

var errEmptyCart = errs.New("cart is empty")

type CartReadRepository interface {
	FindByUser(ctx context.Context, userID uuid.UUID) (*cart.Cart, error)
}

type PricingQueries interface {
	// PreviewTotal prices the cart exactly as checkout would, without
	// reserving stock or claiming the coupon.
	PreviewTotal(ctx context.Context, userID uuid.UUID, req reqdto.PreviewTotalRequest) (*PriceView, error)
}

type pricingQueriesImpl struct {
	carts  CartReadRepository
	quoter *shared.Quoter
	clock  clock.Clock
}

func NewPricingQueries(carts CartReadRepository, quoter *shared.Quoter, clk clock.Clock) PricingQueries {
	return &pricingQueriesImpl{carts: carts, quoter: quoter, clock: clk}
}

func (q *pricingQueriesImpl) PreviewTotal(ctx context.Context, userID uuid.UUID, req reqdto.PreviewTotalRequest) (*PriceView, error) {
	c, err := q.carts.FindByUser(ctx, userID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.Mark(errEmptyCart, errs.ErrValidation)
		}
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	if c.IsEmpty() {
		return nil, errs.Mark(errEmptyCart, errs.ErrValidation)
	}

	code := req.GetCouponCode()
	if code == nil {
		code = c.CouponCode()
	}
	summary, _, err := q.quoter.QuoteLines(ctx, c.Lines(), code, userID, q.clock.Now())
	if err != nil {
		return nil, err
	}
	return toPriceView(summary), nil
}

func toPriceView(s pricing.Summary) *PriceView {
	lines := make([]PriceLineView, 0, len(s.Lines))
	for _, l := range s.Lines {
		lines = append(lines, PriceLineView{
			ProductID: l.ProductID,
			Title:     l.Title,
			UnitPrice: l.UnitPrice,
			Quantity:  l.Quantity,
			Total:     l.Total(),
		})
	}
	view := &PriceView{
		Lines:      lines,
		Subtotal:   s.Subtotal,
		TaxRate:    s.TaxRate,
		Tax:        s.Tax,
		Shipping:   s.Shipping,
		GrandTotal: s.GrandTotal,
		Discount:   s.Discount,
		FinalTotal: s.FinalTotal,
	}
	if s.AppliedCoupon != nil {
		code := s.AppliedCoupon.Code
		view.AppliedCoupon = &code
	}
	return view
}
