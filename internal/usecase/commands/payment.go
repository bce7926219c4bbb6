package commands

import (
	"context"
	"errors"
	"log/slog"

	"checkout-core/internal/domain/order"
	"checkout-core/internal/domain/payment"
	"checkout-core/internal/pkg/errs"
	"checkout-core/internal/pkg/metrics"
)

type PaymentCommands interface {
	// HandleWebhook verifies and applies one provider event. A nil error
	// means the event may be acknowledged.
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

type paymentUseCaseImpl struct {
	verifier    WebhookVerifier
	dedup       EventDeduper
	fulfillment FulfillmentCommands
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

func NewPaymentUseCase(
	verifier WebhookVerifier,
	dedup EventDeduper,
	fulfillment FulfillmentCommands,
	m *metrics.Metrics,
	logger *slog.Logger,
) PaymentCommands {
	return &paymentUseCaseImpl{
		verifier:    verifier,
		dedup:       dedup,
		fulfillment: fulfillment,
		metrics:     m,
		logger:      logger,
	}
}

func (p *paymentUseCaseImpl) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := p.verifier.Verify(payload, signature)
	if err != nil {
		p.metrics.WebhookResult("unknown", "invalid_signature")
		return errs.Mark(err, errs.ErrWebhookSignatureInvalid)
	}

	if event.ID != "" {
		seen, err := p.dedup.IsProcessed(ctx, event.ID)
		if err != nil {
			// Dedup is an optimization; the order state makes replays no-ops.
			p.logger.Warn("event dedup lookup failed", "event_id", event.ID, "error", err)
		}
		if seen {
			p.metrics.WebhookResult(string(event.Type), "duplicate")
			return nil
		}
	}

	result, err := p.apply(ctx, event)
	if err != nil {
		p.metrics.WebhookResult(string(event.Type), "error")
		return err
	}
	p.metrics.WebhookResult(string(event.Type), result)

	if event.ID != "" {
		if err := p.dedup.MarkProcessed(ctx, event.ID); err != nil {
			p.logger.Warn("failed to record processed event", "event_id", event.ID, "error", err)
		}
	}
	return nil
}

func (p *paymentUseCaseImpl) apply(ctx context.Context, event *payment.Event) (string, error) {
	var err error
	switch event.Type {
	case payment.EventCheckoutCompleted:
		_, err = p.fulfillment.ConfirmPayment(ctx, event.SessionID, event.TransactionID)
	case payment.EventPaymentFailed:
		_, err = p.fulfillment.FailPayment(ctx, event.SessionID)
	default:
		p.logger.Info("ignoring unhandled payment event", "event_id", event.ID, "type", event.Type)
		return "ignored", nil
	}

	switch {
	case err == nil:
		return "applied", nil
	case errs.Is(err, errs.ErrOrderNotFound):
		p.logger.Warn("payment event for unknown session",
			"event_id", event.ID,
			"type", event.Type,
			"session_id", event.SessionID)
		return "orphaned", nil
	case errors.Is(err, order.ErrPaymentAlreadyPaid),
		errors.Is(err, order.ErrPaymentAlreadyFailed),
		errors.Is(err, order.ErrTransitionRejected):
		p.logger.Info("payment event already reflected on order",
			"event_id", event.ID,
			"type", event.Type,
			"session_id", event.SessionID,
			"reason", err.Error())
		return "noop", nil
	default:
		return "", err
	}
}
