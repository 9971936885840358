package jobs

import (
	"context"
	"time"

	"district/internal/logger"
)

const sweepBatchSize = 200

// HoldSweeper periodically expires stale payment holds and lapsed waitlist
// offers. The actual transitions run in the booking service, one
// transaction per booking.
type HoldSweeper interface {
	ExpireHolds(ctx context.Context, limit int) (int, error)
	ExpireLapsedOffers(ctx context.Context, limit int) (int, error)
}

type LifecycleSweep struct {
	sweeper  HoldSweeper
	interval time.Duration
	ticker   *time.Ticker
	done     chan bool
}

func NewLifecycleSweep(sweeper HoldSweeper, interval time.Duration) *LifecycleSweep {
	return &LifecycleSweep{
		sweeper:  sweeper,
		interval: interval,
		done:     make(chan bool),
	}
}

func (j *LifecycleSweep) Start(ctx context.Context) {
	logger.Get().Info("Starting lifecycle sweep", "interval", j.interval)

	j.ticker = time.NewTicker(j.interval)

	go j.sweep(ctx)

	go func() {
		for {
			select {
			case <-j.ticker.C:
				j.sweep(ctx)
			case <-j.done:
				logger.Get().Info("Lifecycle sweep stopped")
				return
			}
		}
	}()
}

func (j *LifecycleSweep) Stop() {
	if j.ticker != nil {
		j.ticker.Stop()
	}
	close(j.done)
}

func (j *LifecycleSweep) sweep(ctx context.Context) {
	expired, err := j.sweeper.ExpireHolds(ctx, sweepBatchSize)
	if err != nil {
		logger.Get().Error("Hold expiration sweep failed", "error", err)
	} else if expired > 0 {
		logger.Get().Info("Expired stale payment holds", "count", expired)
	}

	lapsed, err := j.sweeper.ExpireLapsedOffers(ctx, sweepBatchSize)
	if err != nil {
		logger.Get().Error("Offer expiration sweep failed", "error", err)
	} else if lapsed > 0 {
		logger.Get().Info("Expired lapsed waitlist offers", "count", lapsed)
	}
}
