package bootstrap

import (
	"log/slog"

	"checkout-core/internal/infra/stripe"
	"checkout-core/internal/pkg/config"
	"checkout-core/internal/usecase/commands"

	"go.uber.org/fx"
)

var PaymentModule = fx.Module("payment",
	fx.Provide(
		fx.Annotate(
			NewPaymentProvider,
			fx.As(new(commands.PaymentProvider)),
		),
		fx.Annotate(
			NewWebhookVerifier,
			fx.As(new(commands.WebhookVerifier)),
		),
	),
)

func NewPaymentProvider(cfg config.Config, logger *slog.Logger) (*stripe.Client, error) {
	return stripe.NewClient(cfg.Payment.BaseURL, cfg.Payment.SecretKey, cfg.Payment.Timeout, logger)
}

func NewWebhookVerifier(cfg config.Config) *stripe.Verifier {
	return stripe.NewVerifier(cfg.Payment.WebhookSecret, cfg.Payment.SignatureTolerance)
}
