package queries

import (
	"context"

	"checkout-core/internal/domain/product"
	"checkout-core/internal/infra"
	"checkout-core/internal/pkg/clock"
	"checkout-core/internal/pkg/errs"

	"github.com/google/uuid"
)

type ProductReadRepository interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*product.Product, error)
}

type CartQueries interface {
	Get(ctx context.Context, userID uuid.UUID) (*CartView, error)
}

type cartQueriesImpl struct {
	carts    CartReadRepository
	products ProductReadRepository
	clock    clock.Clock
}

func NewCartQueries(carts CartReadRepository, products ProductReadRepository, clk clock.Clock) CartQueries {
	return &cartQueriesImpl{carts: carts, products: products, clock: clk}
}

// Get returns the cart joined with current catalog prices. Lines whose
// product left the catalog are dropped from the view.
func (q *cartQueriesImpl) Get(ctx context.Context, userID uuid.UUID) (*CartView, error) {
	c, err := q.carts.FindByUser(ctx, userID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return &CartView{Lines: []CartLineView{}, UpdatedAt: q.clock.Now()}, nil
		}
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	products, err := q.products.FindByIDs(ctx, c.ProductIDs())
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	byID := make(map[uuid.UUID]*product.Product, len(products))
	for _, p := range products {
		byID[p.ID()] = p
	}

	now := q.clock.Now()
	view := &CartView{
		Lines:      make([]CartLineView, 0, len(c.Lines())),
		CouponCode: c.CouponCode(),
		UpdatedAt:  c.UpdatedAt(),
	}
	for _, l := range c.Lines() {
		p, ok := byID[l.ProductID]
		if !ok {
			continue
		}
		view.Lines = append(view.Lines, CartLineView{
			ProductID: p.ID(),
			Title:     p.Title(),
			Category:  p.Category(),
			UnitPrice: p.UnitPriceAt(now),
			Quantity:  l.Quantity,
			InStock:   p.Stock() >= l.Quantity,
		})
		view.ItemCount += l.Quantity
	}
	return view, nil
}
