package repository

import (
	"context"
	"database/sql"

	"district/internal/database"
	"district/internal/models"
)

type OutboxRepository struct{}

func NewOutboxRepository() *OutboxRepository {
	return &OutboxRepository{}
}

const outboxColumns = `id, aggregate_type, aggregate_id, event_type, payload, dedupe_key,
		       status, attempts, last_error, created_at, published_at`

// Append records an event inside the caller's transaction. A repeated
// dedupe key is silently ignored so retried business operations never
// duplicate their side effects.
func (r *OutboxRepository) Append(ctx context.Context, q database.Queryer, entry *models.OutboxEntry) error {
	query := `
		INSERT INTO outbox_entries (id, aggregate_type, aggregate_id, event_type, payload, dedupe_key, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (dedupe_key) DO NOTHING`

	_, err := q.ExecContext(ctx, query,
		entry.ID,
		entry.AggregateType,
		entry.AggregateID,
		entry.EventType,
		entry.Payload,
		entry.DedupeKey,
		entry.Status,
	)
	return err
}

func (r *OutboxRepository) GetByID(ctx context.Context, q database.Queryer, id string) (*models.OutboxEntry, error) {
	query := `SELECT ` + outboxColumns + ` FROM outbox_entries WHERE id = $1`

	e := &models.OutboxEntry{}
	err := q.QueryRowContext(ctx, query, id).Scan(
		&e.ID,
		&e.AggregateType,
		&e.AggregateID,
		&e.EventType,
		&e.Payload,
		&e.DedupeKey,
		&e.Status,
		&e.Attempts,
		&e.LastError,
		&e.CreatedAt,
		&e.PublishedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// ListPending returns unpublished entries in append order. SKIP LOCKED
// lets several dispatcher instances drain the table without stepping on
// each other.
func (r *OutboxRepository) ListPending(ctx context.Context, q database.Queryer, limit int) ([]models.OutboxEntry, error) {
	query := `
		SELECT ` + outboxColumns + `
		FROM outbox_entries
		WHERE status = 'PENDING'
		ORDER BY created_at ASC
		LIMIT $1
		FOR UPDATE SKIP LOCKED`

	rows, err := q.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOutboxRows(rows)
}

func (r *OutboxRepository) ListByStatus(ctx context.Context, q database.Queryer, status models.OutboxStatus, limit int) ([]models.OutboxEntry, error) {
	query := `
		SELECT ` + outboxColumns + `
		FROM outbox_entries
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2`

	rows, err := q.QueryContext(ctx, query, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOutboxRows(rows)
}

func scanOutboxRows(rows *sql.Rows) ([]models.OutboxEntry, error) {
	var entries []models.OutboxEntry
	for rows.Next() {
		var e models.OutboxEntry
		err := rows.Scan(
			&e.ID,
			&e.AggregateType,
			&e.AggregateID,
			&e.EventType,
			&e.Payload,
			&e.DedupeKey,
			&e.Status,
			&e.Attempts,
			&e.LastError,
			&e.CreatedAt,
			&e.PublishedAt,
		)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *OutboxRepository) MarkPublished(ctx context.Context, q database.Queryer, id string) error {
	// FAILED rows are still undelivered, so an operator may acknowledge
	// them directly after fixing the broker.
	query := `
		UPDATE outbox_entries
		SET status = 'PUBLISHED', published_at = NOW()
		WHERE id = $1 AND status IN ('PENDING', 'FAILED')`

	result, err := q.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// MarkFailed records a delivery failure. The entry stays visible for a
// later mark-published retry; it is never dropped.
func (r *OutboxRepository) MarkFailed(ctx context.Context, q database.Queryer, id string, reason string) error {
	query := `
		UPDATE outbox_entries
		SET status = 'FAILED', attempts = attempts + 1, last_error = $1
		WHERE id = $2`

	_, err := q.ExecContext(ctx, query, reason, id)
	return err
}

// ResetFailed flips a FAILED entry back to PENDING for another delivery
// attempt.
func (r *OutboxRepository) ResetFailed(ctx context.Context, q database.Queryer, id string) error {
	query := `UPDATE outbox_entries SET status = 'PENDING' WHERE id = $1 AND status = 'FAILED'`
	_, err := q.ExecContext(ctx, query, id)
	return err
}

func (r *OutboxRepository) IncrementAttempts(ctx context.Context, q database.Queryer, id string) error {
	query := `UPDATE outbox_entries SET attempts = attempts + 1 WHERE id = $1`
	_, err := q.ExecContext(ctx, query, id)
	return err
}
