package bootstrap

import (
	"checkout-core/cmd/bootstrap/components"

	"go.uber.org/fx"
)

// InfraModule provides everything outside the use case layer except the
// store, so tests can swap the store in.
var InfraModule = fx.Options(
	JWTModule,
	MetricsModule,
	CoordinationModule,
	MessagingModule,
	PaymentModule,
)

var Module = fx.Options(
	ConfigModule,
	LoggerModule,
	StoreModule,
	InfraModule,
	components.UseCaseModule,
	components.WorkerModule,
	components.HandlerModule,
)
