package commands

import (
	"context"
	"log/slog"

	"checkout-core/internal/domain/cart"
	"checkout-core/internal/pkg/errs"

	"github.com/google/uuid"
)

type reservedLine struct {
	productID uuid.UUID
	quantity  int
}

// Reservation is the set of stock decrements taken for one checkout.
type Reservation struct {
	lines []reservedLine
}

func (r *Reservation) Len() int {
	if r == nil {
		return 0
	}
	return len(r.lines)
}

// InventoryReserver takes stock line by line and rolls back on the first
// line that cannot be covered. Each decrement is a conditional update, so
// concurrent checkouts never oversell.
type InventoryReserver struct {
	products ProductRepository
	logger   *slog.Logger
}

func NewInventoryReserver(products ProductRepository, logger *slog.Logger) *InventoryReserver {
	return &InventoryReserver{products: products, logger: logger}
}

func (r *InventoryReserver) Reserve(ctx context.Context, lines []cart.Line) (*Reservation, error) {
	res := &Reservation{lines: make([]reservedLine, 0, len(lines))}
	for _, l := range lines {
		available, ok, err := r.products.DecrementStockIf(ctx, l.ProductID, l.Quantity)
		if err != nil {
			r.Release(ctx, res)
			return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		if !ok {
			r.Release(ctx, res)
			return nil, &errs.InsufficientStockError{
				ProductID: l.ProductID,
				Requested: l.Quantity,
				Available: available,
			}
		}
		res.lines = append(res.lines, reservedLine{productID: l.ProductID, quantity: l.Quantity})
	}
	return res, nil
}

// Release returns every reserved unit. Failures are logged; there is no
// caller that could act on them.
func (r *InventoryReserver) Release(ctx context.Context, res *Reservation) {
	if res == nil {
		return
	}
	for i := len(res.lines) - 1; i >= 0; i-- {
		l := res.lines[i]
		if err := r.products.IncrementStock(ctx, l.productID, l.quantity); err != nil {
			r.logger.Error("failed to release reserved stock",
				"product_id", l.productID,
				"quantity", l.quantity,
				"error", err)
		}
	}
	res.lines = nil
}

// ReleaseItems returns stock for lines that were committed to an order.
func (r *InventoryReserver) ReleaseItems(ctx context.Context, lines []cart.Line) {
	res := &Reservation{lines: make([]reservedLine, 0, len(lines))}
	for _, l := range lines {
		res.lines = append(res.lines, reservedLine{productID: l.ProductID, quantity: l.Quantity})
	}
	r.Release(ctx, res)
}
