package bootstrap

import (
	"context"
	"log/slog"

	"checkout-core/internal/infra/memstore"
	"checkout-core/internal/infra/redisx"
	"checkout-core/internal/pkg/clock"
	"checkout-core/internal/pkg/config"
	"checkout-core/internal/usecase/commands"

	"go.uber.org/fx"
)

var CoordinationModule = fx.Module("coordination",
	fx.Provide(
		NewCoordination,
	),
)

type Coordination struct {
	fx.Out

	Idempotency commands.IdempotencyStore
	Dedup       commands.EventDeduper
}

// NewCoordination keeps idempotency and webhook dedup state in Redis when an
// address is configured, otherwise in process memory.
func NewCoordination(lc fx.Lifecycle, cfg config.Config, clk clock.Clock, logger *slog.Logger) Coordination {
	if cfg.Redis.Addr == "" {
		logger.Info("redis not configured, using in-memory coordination")
		return Coordination{
			Idempotency: memstore.NewIdempotencyStore(clk),
			Dedup:       memstore.NewEventDeduper(clk),
		}
	}

	rdb := redisx.New(cfg.Redis)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := redisx.Ping(ctx, rdb); err != nil {
				logger.Warn("redis ping failed", "addr", cfg.Redis.Addr, "error", err)
			}
			return nil
		},
		OnStop: func(_ context.Context) error {
			return rdb.Close()
		},
	})
	return Coordination{
		Idempotency: redisx.NewIdempotencyStore(rdb),
		Dedup:       redisx.NewEventDeduper(rdb),
	}
}
