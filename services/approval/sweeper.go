package approval

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// StartSweeper runs SweepExpired on a ticker until the context is cancelled.
// Expiry stays authoritative on read; the sweeper only compacts lapsed rows
// so listings and work items converge without waiting for a reader.
func (e *Engine) StartSweeper(ctx context.Context, interval time.Duration, batchSize int) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	e.logger.Info("started approval expiry sweeper",
		zap.Duration("interval", interval),
		zap.Int("batch_size", batchSize))

	for {
		select {
		case <-ticker.C:
			if _, err := e.SweepExpired(ctx, batchSize); err != nil {
				e.logger.Error("failed to sweep expired approvals", zap.Error(err))
			}
		case <-ctx.Done():
			e.logger.Info("stopping approval expiry sweeper")
			return
		}
	}
}
