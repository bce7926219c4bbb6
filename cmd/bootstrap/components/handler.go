package components

import (
	"checkout-core/internal/handler"
	"checkout-core/internal/handler/api"
	"checkout-core/internal/handler/middleware"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewCheckoutHandler,
		api.NewOrderHandler,
		api.NewCartHandler,
		api.NewCancellationHandler,
		api.NewWebhookHandler,
		middleware.NewAuthMiddleware,
	),
	fx.Invoke(handler.NewRouter),
)
