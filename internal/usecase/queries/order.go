package queries

import (
	"context"
	"time"

	"checkout-core/internal/domain/order"
	"checkout-core/internal/infra"
	"checkout-core/internal/pkg/errs"

	"github.com/google/uuid"
)

type OrderReadRepository interface {
	FindByCode(ctx context.Context, code string) (*order.Order, error)
	// ListByUser returns orders newest first, strictly after the keyset
	// (createdAt, id) when one is given.
	ListByUser(ctx context.Context, userID uuid.UUID, afterCreatedAt *time.Time, afterID uuid.UUID, limit int) ([]*order.Order, error)
}

type OrderQueries interface {
	Track(ctx context.Context, userID uuid.UUID, orderCode string) (*TrackingView, error)
	ListByUser(ctx context.Context, userID uuid.UUID, after *Cursor, limit int) ([]*OrderListItem, *Cursor, error)
}

type orderQueriesImpl struct {
	repo OrderReadRepository
}

func NewOrderQueries(repo OrderReadRepository) OrderQueries {
	return &orderQueriesImpl{repo: repo}
}

func (q *orderQueriesImpl) Track(ctx context.Context, userID uuid.UUID, orderCode string) (*TrackingView, error) {
	o, err := q.repo.FindByCode(ctx, orderCode)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.ErrOrderNotFound
		}
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	if !o.IsOwnedBy(userID) {
		return nil, errs.ErrOrderNotFound
	}

	history := o.TrackingNewestFirst()
	entries := make([]TrackingEntryView, 0, len(history))
	for _, t := range history {
		entries = append(entries, TrackingEntryView{
			Status:    t.Status.String(),
			Location:  t.Location,
			Note:      t.Note,
			Timestamp: t.At,
		})
	}

	return &TrackingView{
		OrderID:          o.Code().String(),
		Status:           o.Status().String(),
		PlacedOn:         o.CreatedAt(),
		ExpectedDelivery: o.ExpectedDelivery(),
		Tracking:         entries,
	}, nil
}

func (q *orderQueriesImpl) ListByUser(ctx context.Context, userID uuid.UUID, after *Cursor, limit int) ([]*OrderListItem, *Cursor, error) {
	limit = ValidateLimit(limit)

	var afterCreatedAt *time.Time
	afterID := uuid.Nil
	if after != nil && after.After != "" {
		t, id, err := DecodeAfterCursor(after.After)
		if err != nil {
			return nil, nil, errs.Mark(err, errs.ErrValidation)
		}
		afterCreatedAt, afterID = &t, id
	}

	// One extra row tells whether another page exists.
	orders, err := q.repo.ListByUser(ctx, userID, afterCreatedAt, afterID, limit+1)
	if err != nil {
		return nil, nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	var next *Cursor
	if len(orders) > limit {
		orders = orders[:limit]
		last := orders[len(orders)-1]
		next = &Cursor{After: EncodeAfterCursor(last.CreatedAt(), last.ID())}
	}

	items := make([]*OrderListItem, 0, len(orders))
	for _, o := range orders {
		items = append(items, toListItem(o))
	}
	return items, next, nil
}

func toListItem(o *order.Order) *OrderListItem {
	lines := o.Items()
	views := make([]OrderItemView, 0, len(lines))
	for _, it := range lines {
		views = append(views, OrderItemView{
			ProductID: it.ProductID,
			Title:     it.Title,
			Category:  it.Category,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
		})
	}
	return &OrderListItem{
		ID:               o.ID(),
		OrderID:          o.Code().String(),
		Status:           o.Status().String(),
		PaymentStatus:    o.Payment().Status.String(),
		FinalTotal:       o.Totals().FinalTotal,
		Items:            views,
		PlacedOn:         o.CreatedAt(),
		ExpectedDelivery: o.ExpectedDelivery(),
	}
}
