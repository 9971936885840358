// Package dispatch drains the transactional outbox into NATS Streaming.
package dispatch

import (
	"context"
	"time"

	"district/internal/database"
	"district/internal/logger"
	"district/internal/messaging"
	"district/internal/metrics"
	"district/internal/models"
	"district/internal/repository"
)

// Publisher is the slice of the messaging client the relay needs.
type Publisher interface {
	PublishRaw(subject string, payload []byte) error
}

// Relay moves committed outbox rows to the broker. Delivery is
// at-least-once: a row is marked published only after the broker accepted
// it, so a crash in between replays the event.
type Relay struct {
	db        *database.DB
	outbox    *repository.OutboxRepository
	publisher Publisher
	batchSize int
	interval  time.Duration
}

func NewRelay(db *database.DB, outbox *repository.OutboxRepository, publisher Publisher, batchSize int, interval time.Duration) *Relay {
	return &Relay{
		db:        db,
		outbox:    outbox,
		publisher: publisher,
		batchSize: batchSize,
		interval:  interval,
	}
}

// Run polls until the context is cancelled.
func (r *Relay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	logger.Get().Info("Outbox relay started", "interval", r.interval, "batch_size", r.batchSize)

	for {
		select {
		case <-ctx.Done():
			logger.Get().Info("Outbox relay stopped")
			return
		case <-ticker.C:
			if published, err := r.DrainOnce(ctx); err != nil {
				logger.Get().Error("Outbox drain failed", "error", err)
			} else if published > 0 {
				logger.Get().Info("Outbox drained", "published", published)
			}
		}
	}
}

// DrainOnce relays one batch. Rows are locked with SKIP LOCKED so parallel
// relays never double-publish within a cycle.
func (r *Relay) DrainOnce(ctx context.Context) (int, error) {
	published := 0
	err := r.db.WithinTx(ctx, func(ctx context.Context, q database.Queryer) error {
		entries, err := r.outbox.ListPending(ctx, q, r.batchSize)
		if err != nil {
			return err
		}

		for i := range entries {
			entry := entries[i]
			if err := r.publisher.PublishRaw(entry.EventType, entry.Payload); err != nil {
				metrics.OutboxFailures.Inc()
				logger.Get().Error("Failed to publish outbox entry",
					"outbox_id", entry.ID, "event_type", entry.EventType, "error", err)
				if err := r.outbox.MarkFailed(ctx, q, entry.ID, err.Error()); err != nil {
					return err
				}
				continue
			}
			if err := r.outbox.MarkPublished(ctx, q, entry.ID); err != nil {
				return err
			}
			metrics.OutboxPublished.Inc()
			published++
		}
		return nil
	})
	return published, err
}

// RetryFailed flips FAILED rows back to PENDING so the next drain picks
// them up again.
func (r *Relay) RetryFailed(ctx context.Context, limit int) (int, error) {
	retried := 0
	err := r.db.WithinTx(ctx, func(ctx context.Context, q database.Queryer) error {
		entries, err := r.outbox.ListByStatus(ctx, q, models.OutboxFailed, limit)
		if err != nil {
			return err
		}
		for i := range entries {
			if err := r.outbox.ResetFailed(ctx, q, entries[i].ID); err != nil {
				return err
			}
			retried++
		}
		return nil
	})
	return retried, err
}

var _ Publisher = (*messaging.NATSClient)(nil)
