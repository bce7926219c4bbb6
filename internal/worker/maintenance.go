package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"checkout-core/internal/usecase/commands"
)

// MaintenanceTicker runs the periodic sale and coupon sweep.
type MaintenanceTicker struct {
	commands commands.MaintenanceCommands
	interval time.Duration
	logger   *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewMaintenanceTicker(cmds commands.MaintenanceCommands, interval time.Duration, logger *slog.Logger) *MaintenanceTicker {
	if interval <= 0 {
		interval = time.Hour
	}
	return &MaintenanceTicker{commands: cmds, interval: interval, logger: logger}
}

func (m *MaintenanceTicker) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.runOnce(runCtx)

		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				m.runOnce(runCtx)
			}
		}
	}()
}

func (m *MaintenanceTicker) Stop() {
	m.mu.Lock()
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.mu.Unlock()
	m.wg.Wait()
}

func (m *MaintenanceTicker) runOnce(ctx context.Context) {
	if _, err := m.commands.Sweep(ctx); err != nil {
		m.logger.Error("maintenance sweep failed", slog.String("error", err.Error()))
	}
}
