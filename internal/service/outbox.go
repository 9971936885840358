package service

import (
	"context"
	"time"

	"district/internal/database"
	apperrors "district/internal/errors"
	"district/internal/models"
)

// OutboxService exposes the outbox for inspection and manual re-delivery
// acknowledgement.
type OutboxService struct {
	tx     TxRunner
	reader database.Queryer
	outbox OutboxStore
}

func NewOutboxService(tx TxRunner, reader database.Queryer, outbox OutboxStore) *OutboxService {
	return &OutboxService{tx: tx, reader: reader, outbox: outbox}
}

func (s *OutboxService) List(ctx context.Context, status models.OutboxStatus, limit int) ([]models.OutboxEntryResponse, error) {
	entries, err := s.outbox.ListByStatus(ctx, s.reader, status, limit)
	if err != nil {
		return nil, err
	}

	out := make([]models.OutboxEntryResponse, 0, len(entries))
	for i := range entries {
		e := entries[i]
		out = append(out, models.OutboxEntryResponse{
			ID:            e.ID,
			AggregateType: e.AggregateType,
			AggregateID:   e.AggregateID,
			EventType:     e.EventType,
			Status:        string(e.Status),
			Attempts:      e.Attempts,
			CreatedAt:     e.CreatedAt.Format(time.RFC3339),
		})
	}
	return out, nil
}

// MarkPublished acknowledges delivery of one entry. Acknowledging an
// already published entry is a no-op.
func (s *OutboxService) MarkPublished(ctx context.Context, id string) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context, q database.Queryer) error {
		entry, err := s.outbox.GetByID(ctx, q, id)
		if err != nil {
			return err
		}
		if entry == nil {
			return apperrors.ErrOutboxEntryNotFound
		}
		if entry.Status == models.OutboxPublished {
			return nil
		}
		return s.outbox.MarkPublished(ctx, q, id)
	})
}
