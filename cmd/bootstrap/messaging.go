package bootstrap

import (
	"context"
	"log/slog"

	"checkout-core/internal/infra/kafka"
	"checkout-core/internal/pkg/config"
	"checkout-core/internal/usecase/commands"

	"go.uber.org/fx"
)

var MessagingModule = fx.Module("messaging",
	fx.Provide(
		NewMessaging,
	),
)

type Messaging struct {
	fx.Out

	Mailer    commands.Mailer
	Publisher commands.EventPublisher
}

// NewMessaging publishes to Kafka when brokers are configured. Without
// brokers, email and order events are only logged.
func NewMessaging(lc fx.Lifecycle, cfg config.Config, logger *slog.Logger) Messaging {
	client := kafka.NewClient(cfg.Kafka.Brokers)
	if !client.Enabled() {
		logger.Info("kafka not configured, logging email and order events")
		return Messaging{
			Mailer:    kafka.NewLogMailer(logger),
			Publisher: kafka.NewLogEventPublisher(logger),
		}
	}

	mailer := kafka.NewMailer(client.NewWriter(cfg.Kafka.EmailTopic))
	publisher := kafka.NewEventPublisher(client.NewWriter(cfg.Kafka.OrderEventsTopic), logger)
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			if err := mailer.Close(); err != nil {
				logger.Warn("failed to close email writer", "error", err)
			}
			return publisher.Close()
		},
	})
	return Messaging{Mailer: mailer, Publisher: publisher}
}
