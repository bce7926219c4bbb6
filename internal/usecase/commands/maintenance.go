package commands

import (
	"context"
	"log/slog"

	"checkout-core/internal/pkg/clock"
	"checkout-core/internal/pkg/errs"
)

type SweepReport struct {
	SalesEnded         int64
	CouponsDeactivated int64
}

type MaintenanceCommands interface {
	// Sweep ends lapsed product sales and deactivates expired coupons.
	Sweep(ctx context.Context) (SweepReport, error)
}

type maintenanceUseCaseImpl struct {
	products ProductRepository
	coupons  CouponRepository
	clock    clock.Clock
	logger   *slog.Logger
}

func NewMaintenanceUseCase(products ProductRepository, coupons CouponRepository, clk clock.Clock, logger *slog.Logger) MaintenanceCommands {
	return &maintenanceUseCaseImpl{
		products: products,
		coupons:  coupons,
		clock:    clk,
		logger:   logger,
	}
}

func (m *maintenanceUseCaseImpl) Sweep(ctx context.Context) (SweepReport, error) {
	now := m.clock.Now()
	var report SweepReport

	ended, err := m.products.ClearExpiredSales(ctx, now)
	if err != nil {
		return report, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	report.SalesEnded = ended

	deactivated, err := m.coupons.DeactivateExpired(ctx, now)
	if err != nil {
		return report, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	report.CouponsDeactivated = deactivated

	if ended > 0 || deactivated > 0 {
		m.logger.Info("maintenance sweep",
			"sales_ended", ended,
			"coupons_deactivated", deactivated)
	}
	return report, nil
}
