//go:build unit

package order_test

import (
	"testing"
	"time"

	"checkout-core/internal/domain/order"
	"checkout-core/tests/common/builder"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestNew(t *testing.T) {
	t.Run("starts Processing with one tracking entry", func(t *testing.T) {
		o, err := builder.NewOrderBuilder(now).Build()
		require.NoError(t, err)

		assert.Equal(t, order.StatusProcessing, o.Status())
		assert.Equal(t, order.PaymentPending, o.Payment().Status)
		require.Len(t, o.Tracking(), 1)
		assert.Equal(t, order.NoteOrderReceived, o.Tracking()[0].Note)
		assert.Regexp(t, `^ORD-[0-9A-F]{6}$`, o.Code().String())
	})

	cases := []struct {
		name   string
		mutate func(*order.NewParams)
		errIs  error
	}{
		{name: "no items", mutate: func(p *order.NewParams) { p.Items = nil }, errIs: order.ErrNoItems},
		{name: "zero quantity", mutate: func(p *order.NewParams) { p.Items[0].Quantity = 0 }, errIs: order.ErrInvalidLineItem},
		{name: "missing address field", mutate: func(p *order.NewParams) { p.Address.PostalCode = "" }, errIs: order.ErrInvalidAddress},
		{name: "missing payment method", mutate: func(p *order.NewParams) { p.PaymentMethod = "" }, errIs: order.ErrInvalidPaymentMethod},
		{name: "unbalanced totals", mutate: func(p *order.NewParams) { p.Totals.FinalTotal = decimal.NewFromInt(1) }, errIs: order.ErrUnbalancedTotals},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := builder.NewOrderBuilder(now).With(tc.mutate).Build()
			assert.ErrorIs(t, err, tc.errIs)
		})
	}
}

func TestNewCode(t *testing.T) {
	id := uuid.MustParse("8f14e45f-ceea-467a-9d3b-0a1b2c3d4e5f")
	assert.Equal(t, order.Code("ORD-3D4E5F"), order.NewCode("ORD-", id))
}

func TestTransition(t *testing.T) {
	t.Run("statuses only move forward", func(t *testing.T) {
		all := []order.Status{
			order.StatusProcessing, order.StatusPaid, order.StatusShipped,
			order.StatusOutForDelivery, order.StatusDelivered, order.StatusCancelled,
		}
		for _, from := range all {
			for _, to := range all {
				if order.CanTransition(from, to) {
					assert.Greater(t, to.Rank(), from.Rank(), "%s -> %s", from, to)
				}
			}
		}
	})

	t.Run("terminal states accept nothing", func(t *testing.T) {
		assert.Empty(t, order.AllowedTargets(order.StatusDelivered))
		assert.Empty(t, order.AllowedTargets(order.StatusCancelled))
	})

	t.Run("late Shipped after Delivered is dropped without touching history", func(t *testing.T) {
		o := builder.NewOrderBuilder(now).MustBuild()
		require.NoError(t, o.Transition(order.StatusDelivered, "Doorstep", "Delivered", now.Add(time.Hour)))
		before := o.Tracking()

		err := o.Transition(order.StatusShipped, "Hub", "Shipped", now.Add(2*time.Hour))
		assert.ErrorIs(t, err, order.ErrTransitionRejected)
		assert.Equal(t, order.StatusDelivered, o.Status())
		assert.Empty(t, cmp.Diff(before, o.Tracking()))
	})

	t.Run("tracking reads newest first", func(t *testing.T) {
		o := builder.NewOrderBuilder(now).MustBuild()
		require.NoError(t, o.Transition(order.StatusShipped, "Hub", "Shipped", now.Add(time.Hour)))
		require.NoError(t, o.Transition(order.StatusOutForDelivery, "City", "Out", now.Add(2*time.Hour)))

		history := o.TrackingNewestFirst()
		require.Len(t, history, 3)
		assert.Equal(t, order.StatusOutForDelivery, history[0].Status)
		assert.Equal(t, order.StatusProcessing, history[2].Status)
	})
}

func TestPayment(t *testing.T) {
	t.Run("paid once", func(t *testing.T) {
		o := builder.NewOrderBuilder(now).MustBuild()
		require.NoError(t, o.MarkPaid("pi_1", now))

		assert.Equal(t, order.StatusPaid, o.Status())
		assert.Equal(t, order.PaymentCompleted, o.Payment().Status)
		require.NotNil(t, o.Payment().TransactionID)
		assert.Equal(t, "pi_1", *o.Payment().TransactionID)
		assert.ErrorIs(t, o.MarkPaid("pi_1", now), order.ErrPaymentAlreadyPaid)
	})

	t.Run("failed payment cancels once", func(t *testing.T) {
		o := builder.NewOrderBuilder(now).MustBuild()
		require.NoError(t, o.MarkPaymentFailed(now))

		assert.Equal(t, order.StatusCancelled, o.Status())
		assert.Equal(t, order.PaymentFailed, o.Payment().Status)
		assert.ErrorIs(t, o.MarkPaymentFailed(now), order.ErrPaymentAlreadyFailed)
		assert.Len(t, o.Tracking(), 2)
	})

	t.Run("failure after success is refused", func(t *testing.T) {
		o := builder.NewOrderBuilder(now).MustBuild()
		require.NoError(t, o.MarkPaid("pi_1", now))
		assert.ErrorIs(t, o.MarkPaymentFailed(now), order.ErrPaymentAlreadyPaid)
		assert.Equal(t, order.StatusPaid, o.Status())
	})

	t.Run("cancel keeps a completed payment", func(t *testing.T) {
		o := builder.NewOrderBuilder(now).MustBuild()
		require.NoError(t, o.MarkPaid("pi_1", now))
		require.NoError(t, o.Cancel("Customer", "Cancelled by customer", now))
		assert.Equal(t, order.PaymentCompleted, o.Payment().Status)
	})

	t.Run("cancel fails a pending payment", func(t *testing.T) {
		o := builder.NewOrderBuilder(now).MustBuild()
		require.NoError(t, o.Cancel("Customer", "Cancelled by customer", now))
		assert.Equal(t, order.PaymentFailed, o.Payment().Status)
	})
}
