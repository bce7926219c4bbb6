package bootstrap

import (
	"checkout-core/internal/pkg/metrics"

	"go.uber.org/fx"
)

var MetricsModule = fx.Module("metrics",
	fx.Provide(
		metrics.NewRegistry,
		metrics.New,
	),
)
