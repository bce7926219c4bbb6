package components

import (
	"context"
	"log/slog"

	"checkout-core/internal/pkg/clock"
	"checkout-core/internal/pkg/config"
	"checkout-core/internal/usecase/commands"
	"checkout-core/internal/worker"

	"go.uber.org/fx"
)

var WorkerModule = fx.Module("worker",
	fx.Provide(
		NewFulfillmentScheduler,
		func(s *worker.FulfillmentScheduler) commands.JobScheduler { return s },
		func(r commands.FulfillmentJobRepository) worker.JobStore { return r },
		NewMaintenanceTicker,
	),
	fx.Invoke(registerWorkers),
)

func NewFulfillmentScheduler(store worker.JobStore, clk clock.Clock, cfg config.Config, logger *slog.Logger) *worker.FulfillmentScheduler {
	f := cfg.Fulfillment
	return worker.NewFulfillmentScheduler(store, clk, f.SweepInterval, f.SweepBatchSize, f.Workers, logger)
}

func NewMaintenanceTicker(cmds commands.MaintenanceCommands, cfg config.Config, logger *slog.Logger) *worker.MaintenanceTicker {
	return worker.NewMaintenanceTicker(cmds, cfg.Maintenance.Interval, logger)
}

// registerWorkers runs the background loops for the life of the app. They
// get their own context because the start hook's context expires.
func registerWorkers(
	lc fx.Lifecycle,
	scheduler *worker.FulfillmentScheduler,
	maintenance *worker.MaintenanceTicker,
	fulfillmentCmds commands.FulfillmentCommands,
	logger *slog.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			scheduler.Start(context.Background(), fulfillmentCmds.Advance)
			maintenance.Start(context.Background())
			logger.Info("background workers started")
			return nil
		},
		OnStop: func(_ context.Context) error {
			maintenance.Stop()
			scheduler.Stop()
			return nil
		},
	})
}
