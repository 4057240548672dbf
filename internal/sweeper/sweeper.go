package sweeper

import (
	"context"
	"log/slog"
	"time"
)

// HoldExpirer is the slice of the hold ledger the sweeper needs.
type HoldExpirer interface {
	ExpireDueHolds(ctx context.Context, now time.Time) (int64, error)
}

// Sweeper periodically expires overdue seat holds so abandoned selections
// return to the pool without waiting for the next conflicting request.
type Sweeper struct {
	expirer  HoldExpirer
	interval time.Duration
	logger   *slog.Logger
}

func New(expirer HoldExpirer, interval time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		expirer:  expirer,
		interval: interval,
		logger:   logger,
	}
}

// Run sweeps on every tick until the context is cancelled. A failing sweep
// is logged and retried on the next tick; the loop never stops on error.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("hold sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	expired, err := s.expirer.ExpireDueHolds(ctx, time.Now())
	if err != nil {
		s.logger.ErrorContext(ctx, "hold sweep failed", "error", err)
		return
	}

	if expired > 0 {
		s.logger.InfoContext(ctx, "expired overdue seat holds", "count", expired)
	}
}
