package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"checkout-core/internal/domain/order"
	"checkout-core/internal/pkg/clock"
	"checkout-core/internal/pkg/money"

	"github.com/oklog/ulid/v2"
)

// Notifier sends customer email and publishes order events. Delivery is
// best effort: failures are logged and never undo the state change that
// triggered them.
type Notifier struct {
	users     UserDirectory
	mailer    Mailer
	publisher EventPublisher
	clock     clock.Clock
	logger    *slog.Logger
}

func NewNotifier(users UserDirectory, mailer Mailer, publisher EventPublisher, clk clock.Clock, logger *slog.Logger) *Notifier {
	return &Notifier{
		users:     users,
		mailer:    mailer,
		publisher: publisher,
		clock:     clk,
		logger:    logger,
	}
}

func (n *Notifier) OrderPlaced(ctx context.Context, o *order.Order, paymentURL string) {
	t := o.Totals()
	var b strings.Builder
	fmt.Fprintf(&b, "Thank you for your order %s.\n\n", o.Code())
	for _, it := range o.Items() {
		fmt.Fprintf(&b, "%s x%d  %s\n", it.Title, it.Quantity, money.Format(it.Total()))
	}
	fmt.Fprintf(&b, "\nSubtotal: %s\nTax: %s\nShipping: %s\n", money.Format(t.Subtotal), money.Format(t.Tax), money.Format(t.Shipping))
	if c := o.Coupon(); c != nil {
		fmt.Fprintf(&b, "Coupon %s: -%s\n", c.Code, money.Format(c.Discount))
	}
	fmt.Fprintf(&b, "Total: %s\n", money.Format(t.FinalTotal))
	fmt.Fprintf(&b, "Expected delivery: %s\n", o.ExpectedDelivery().Format("02 Jan 2006"))
	if paymentURL != "" {
		fmt.Fprintf(&b, "\nComplete your payment: %s\n", paymentURL)
	}

	n.email(ctx, o, "Order Placed Successfully", b.String())
	n.publish(ctx, o, EventOrderPlaced, map[string]string{
		"finalTotal": money.Format(t.FinalTotal),
	})
}

func (n *Notifier) StatusChanged(ctx context.Context, o *order.Order, from order.Status) {
	subject := fmt.Sprintf("Order %s is %s", o.Code(), o.Status())
	body := fmt.Sprintf("Your order %s moved from %s to %s.", o.Code(), from, o.Status())
	if tr := o.Tracking(); len(tr) > 0 {
		last := tr[len(tr)-1]
		body += fmt.Sprintf("\nLocation: %s\n%s", last.Location, last.Note)
	}
	n.email(ctx, o, subject, body)
	n.publish(ctx, o, EventOrderStatusChanged, map[string]string{
		"from":          from.String(),
		"paymentStatus": o.Payment().Status.String(),
	})
}

func (n *Notifier) CancellationOTP(ctx context.Context, o *order.Order, code string, validFor string) {
	body := fmt.Sprintf(
		"Use %s to confirm cancellation of order %s. The code is valid for %s.",
		code, o.Code(), validFor,
	)
	n.email(ctx, o, "Order cancellation OTP", body)
}

func (n *Notifier) email(ctx context.Context, o *order.Order, subject, body string) {
	contact, err := n.users.FindContact(ctx, o.UserID())
	if err != nil {
		n.logger.Warn("no contact for order owner, email skipped",
			"order_code", o.Code().String(),
			"user_id", o.UserID(),
			"error", err)
		return
	}
	msg := Email{
		To:      contact.Email,
		Subject: subject,
		Body:    body,
		Tags:    map[string]string{"orderCode": o.Code().String()},
	}
	if err := n.mailer.Send(ctx, msg); err != nil {
		n.logger.Error("failed to send email",
			"order_code", o.Code().String(),
			"subject", subject,
			"error", err)
	}
}

func (n *Notifier) publish(ctx context.Context, o *order.Order, typ string, attrs map[string]string) {
	evt := OrderEvent{
		ID:         ulid.Make().String(),
		Type:       typ,
		OrderID:    o.ID(),
		OrderCode:  o.Code().String(),
		UserID:     o.UserID(),
		Status:     o.Status().String(),
		OccurredAt: n.clock.Now(),
		Attributes: attrs,
	}
	if err := n.publisher.Publish(ctx, evt); err != nil {
		n.logger.Error("failed to publish order event",
			"order_code", o.Code().String(),
			"type", typ,
			"error", err)
	}
}
