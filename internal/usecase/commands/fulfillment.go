package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"checkout-core/internal/domain/cart"
	"checkout-core/internal/domain/fulfillment"
	"checkout-core/internal/domain/order"
	"checkout-core/internal/infra"
	"checkout-core/internal/pkg/clock"
	"checkout-core/internal/pkg/errs"
	"checkout-core/internal/pkg/metrics"

	"github.com/google/uuid"
)

const maxCASAttempts = 5

var errConcurrentUpdate = errs.New("order changed concurrently")

// FulfillmentPolicy fixes the delivery tiers and the length of a day.
type FulfillmentPolicy struct {
	Resolver  *fulfillment.ETAResolver
	DayLength time.Duration
}

type FulfillmentCommands interface {
	// Advance applies a scheduled transition. A transition the order can no
	// longer take (it was cancelled, or moved past the target) is dropped.
	Advance(ctx context.Context, job fulfillment.Job) error
	// Cancel preempts any non-terminal status and returns reserved stock.
	Cancel(ctx context.Context, orderID uuid.UUID, location, note string) (*order.Order, error)
	ConfirmPayment(ctx context.Context, sessionID, transactionID string) (*order.Order, error)
	FailPayment(ctx context.Context, sessionID string) (*order.Order, error)
}

type fulfillmentUseCaseImpl struct {
	orders    OrderRepository
	jobs      FulfillmentJobRepository
	scheduler JobScheduler
	inventory *InventoryReserver
	notifier  *Notifier
	policy    FulfillmentPolicy
	metrics   *metrics.Metrics
	clock     clock.Clock
	logger    *slog.Logger
}

func NewFulfillmentUseCase(
	orders OrderRepository,
	jobs FulfillmentJobRepository,
	scheduler JobScheduler,
	inventory *InventoryReserver,
	notifier *Notifier,
	policy FulfillmentPolicy,
	m *metrics.Metrics,
	clk clock.Clock,
	logger *slog.Logger,
) FulfillmentCommands {
	return &fulfillmentUseCaseImpl{
		orders:    orders,
		jobs:      jobs,
		scheduler: scheduler,
		inventory: inventory,
		notifier:  notifier,
		policy:    policy,
		metrics:   m,
		clock:     clk,
		logger:    logger,
	}
}

func (f *fulfillmentUseCaseImpl) Advance(ctx context.Context, job fulfillment.Job) error {
	o, prev, err := f.mutate(ctx, func(ctx context.Context) (*order.Order, error) {
		return f.orders.FindByID(ctx, job.OrderID)
	}, func(o *order.Order) error {
		return o.Transition(job.Target, job.Location, job.Note, f.clock.Now())
	})
	if err != nil {
		if errors.Is(err, order.ErrTransitionRejected) {
			f.metrics.TransitionResult(job.Target.String(), "dropped")
			f.logger.Info("scheduled transition dropped",
				"order_id", job.OrderID,
				"target", job.Target.String())
			return nil
		}
		if errs.Is(err, errs.ErrOrderNotFound) {
			f.logger.Warn("scheduled transition for unknown order", "order_id", job.OrderID)
			return nil
		}
		return err
	}

	f.metrics.TransitionResult(job.Target.String(), "applied")
	f.notifier.StatusChanged(ctx, o, prev)
	return nil
}

func (f *fulfillmentUseCaseImpl) Cancel(ctx context.Context, orderID uuid.UUID, location, note string) (*order.Order, error) {
	o, prev, err := f.mutate(ctx, func(ctx context.Context) (*order.Order, error) {
		return f.orders.FindByID(ctx, orderID)
	}, func(o *order.Order) error {
		return o.Cancel(location, note, f.clock.Now())
	})
	if err != nil {
		if errors.Is(err, order.ErrTransitionRejected) {
			f.metrics.TransitionResult(order.StatusCancelled.String(), "rejected")
			return nil, errs.Mark(err, errs.ErrOrderNotCancellable)
		}
		return nil, err
	}

	f.metrics.TransitionResult(order.StatusCancelled.String(), "applied")
	f.releaseStock(ctx, o)
	f.notifier.StatusChanged(ctx, o, prev)
	return o, nil
}

func (f *fulfillmentUseCaseImpl) ConfirmPayment(ctx context.Context, sessionID, transactionID string) (*order.Order, error) {
	var paidAt time.Time
	o, prev, err := f.mutate(ctx, func(ctx context.Context) (*order.Order, error) {
		return f.orders.FindBySessionID(ctx, sessionID)
	}, func(o *order.Order) error {
		paidAt = f.clock.Now()
		return o.MarkPaid(transactionID, paidAt)
	})
	if err != nil {
		if errors.Is(err, order.ErrTransitionRejected) {
			f.metrics.TransitionResult(order.StatusPaid.String(), "rejected")
		}
		return nil, err
	}

	f.metrics.TransitionResult(order.StatusPaid.String(), "applied")
	f.notifier.StatusChanged(ctx, o, prev)
	if err := f.schedulePlan(ctx, o, paidAt); err != nil {
		// The payment is recorded; a provider retry would be a no-op.
		f.logger.Error("failed to schedule fulfillment plan",
			"order_code", o.Code().String(),
			"error", err)
	}
	return o, nil
}

func (f *fulfillmentUseCaseImpl) FailPayment(ctx context.Context, sessionID string) (*order.Order, error) {
	o, prev, err := f.mutate(ctx, func(ctx context.Context) (*order.Order, error) {
		return f.orders.FindBySessionID(ctx, sessionID)
	}, func(o *order.Order) error {
		return o.MarkPaymentFailed(f.clock.Now())
	})
	if err != nil {
		return nil, err
	}

	f.metrics.TransitionResult(order.StatusCancelled.String(), "applied")
	f.releaseStock(ctx, o)
	f.notifier.StatusChanged(ctx, o, prev)
	return o, nil
}

// mutate loads the order, applies change and stores it with a compare on the
// loaded status, reloading on a lost race. A domain rejection is returned
// without writing.
func (f *fulfillmentUseCaseImpl) mutate(
	ctx context.Context,
	load func(ctx context.Context) (*order.Order, error),
	change func(o *order.Order) error,
) (*order.Order, order.Status, error) {
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		o, err := load(ctx)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return nil, "", errs.Mark(err, errs.ErrOrderNotFound)
			}
			return nil, "", errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}

		prev := o.Status()
		if err := change(o); err != nil {
			return nil, prev, err
		}

		ok, err := f.orders.UpdateIfStatus(ctx, o, prev)
		if err != nil {
			return nil, prev, errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		if ok {
			return o, prev, nil
		}
		f.logger.Debug("order status moved underneath update, retrying",
			"order_id", o.ID(),
			"expected", prev.String(),
			"attempt", attempt+1)
	}
	return nil, "", errs.Mark(errConcurrentUpdate, errs.ErrDatabaseOperationFailed)
}

// schedulePlan persists the delivery jobs first so a restart can recover
// them, then arms the in-process timers.
func (f *fulfillmentUseCaseImpl) schedulePlan(ctx context.Context, o *order.Order, paidAt time.Time) error {
	tier := f.policy.Resolver.TierFor(o.Address().PostalCode)
	jobs := fulfillment.Plan(o.ID(), tier, paidAt, f.policy.DayLength)
	if err := f.jobs.Enqueue(ctx, jobs); err != nil {
		return errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	f.scheduler.Schedule(jobs...)
	f.logger.Info("fulfillment plan scheduled",
		"order_code", o.Code().String(),
		"tier", tier.Name,
		"jobs", len(jobs))
	return nil
}

func (f *fulfillmentUseCaseImpl) releaseStock(ctx context.Context, o *order.Order) {
	lines := make([]cart.Line, 0, len(o.Items()))
	for _, it := range o.Items() {
		lines = append(lines, cart.Line{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	f.inventory.ReleaseItems(ctx, lines)
}
