package kafka

import (
	"context"
	"log/slog"

	"checkout-core/internal/usecase/commands"

	"github.com/segmentio/kafka-go"
)

const (
	envelopeVersion = 1
	producerName    = "checkout-core"
)

type envelope struct {
	EventID    string              `json:"event_id"`
	EventType  string              `json:"event_type"`
	Version    int                 `json:"version"`
	OccurredAt string              `json:"occurred_at"`
	Producer   string              `json:"producer"`
	Payload    commands.OrderEvent `json:"payload"`
}

// EventPublisher writes order lifecycle events keyed by order id, so a
// partition sees one order's events in order.
type EventPublisher struct {
	w      messageWriter
	logger *slog.Logger
}

func NewEventPublisher(w *kafka.Writer, logger *slog.Logger) *EventPublisher {
	return &EventPublisher{w: w, logger: logger}
}

func (p *EventPublisher) Publish(ctx context.Context, evt commands.OrderEvent) error {
	env := envelope{
		EventID:    evt.ID,
		EventType:  evt.Type,
		Version:    envelopeVersion,
		OccurredAt: evt.OccurredAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Producer:   producerName,
		Payload:    evt,
	}
	return publishJSON(ctx, p.w, evt.OrderID.String(), env,
		kafka.Header{Key: "event_type", Value: []byte(evt.Type)},
	)
}

func (p *EventPublisher) Close() error {
	return p.w.Close()
}

// LogEventPublisher stands in when no broker is configured.
type LogEventPublisher struct {
	logger *slog.Logger
}

func NewLogEventPublisher(logger *slog.Logger) *LogEventPublisher {
	return &LogEventPublisher{logger: logger}
}

func (p *LogEventPublisher) Publish(_ context.Context, evt commands.OrderEvent) error {
	p.logger.Info("order event",
		"event_id", evt.ID,
		"type", evt.Type,
		"order_code", evt.OrderCode,
		"status", evt.Status)
	return nil
}
