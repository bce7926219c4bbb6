//go:build unit

package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"checkout-core/internal/usecase/commands"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSweeper struct {
	calls atomic.Int32
}

func (c *countingSweeper) Sweep(context.Context) (commands.SweepReport, error) {
	c.calls.Add(1)
	return commands.SweepReport{}, nil
}

func TestMaintenanceTicker_SweepsOnStartAndInterval(t *testing.T) {
	sweeper := &countingSweeper{}
	m := NewMaintenanceTicker(sweeper, 10*time.Millisecond, testLogger())

	m.Start(context.Background())
	require.Eventually(t, func() bool { return sweeper.calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	m.Stop()

	after := sweeper.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, sweeper.calls.Load())
}
