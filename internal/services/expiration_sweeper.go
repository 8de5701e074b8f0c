package services

import (
	"context"
	"log/slog"
	"time"
)

// DefaultSweepInterval is how often the background sweeper runs when not configured.
const DefaultSweepInterval = 5 * time.Minute

// ExpirationSweeper runs the allocation sweep on a fixed interval so that
// allocations expire even when nobody reads them.
type ExpirationSweeper struct {
	allocations AllocationService
	interval    time.Duration
	logger      *slog.Logger
}

func NewExpirationSweeper(allocations AllocationService, interval time.Duration, logger *slog.Logger) *ExpirationSweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &ExpirationSweeper{
		allocations: allocations,
		interval:    interval,
		logger:      logger,
	}
}

func (w *ExpirationSweeper) Interval() time.Duration { return w.interval }

// Run sweeps once immediately and then on every tick until ctx is cancelled.
func (w *ExpirationSweeper) Run(ctx context.Context) {
	w.logger.Info("Expiration sweeper started", "interval", w.interval.String())

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Expiration sweeper stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *ExpirationSweeper) sweep(ctx context.Context) {
	if n := w.allocations.Sweep(ctx); n > 0 {
		w.logger.Info("Expiration sweep completed", "expired", n)
	}
}
