package relay

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/autopeer-io/rover/pkg/log"
)

// Monitor periodically logs the camera status, which also expires a stale queue.
type Monitor struct {
	queue    *Queue
	clock    clock.Clock
	interval time.Duration
	logger   log.Logger
}

func NewMonitor(q *Queue, clk clock.Clock, interval time.Duration, logger log.Logger) *Monitor {
	return &Monitor{queue: q, clock: clk, interval: interval, logger: logger}
}

func (m *Monitor) Start(ctx context.Context) error {
	ticker := m.clock.Ticker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if m.queue.CameraConnected() {
				m.logger.Debug("Camera status: connected", "queueLength", m.queue.Len())
			} else {
				m.logger.Info("Camera status: disconnected")
			}
		case <-ctx.Done():
			return nil
		}
	}
}
