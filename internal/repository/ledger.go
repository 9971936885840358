package repository

import (
	"context"
	"database/sql"

	"district/internal/database"
	"district/internal/models"
)

type LedgerRepository struct{}

func NewLedgerRepository() *LedgerRepository {
	return &LedgerRepository{}
}

// Insert writes the immutable record of a payment decision. The unique
// (provider, payment_id) constraint makes a second decision for the same
// payment impossible.
func (r *LedgerRepository) Insert(ctx context.Context, q database.Queryer, record *models.LedgerRecord) error {
	query := `
		INSERT INTO payment_ledger (id, provider, payment_id, booking_id, outcome, payload_hash)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`

	return q.QueryRowContext(ctx, query,
		record.ID,
		record.Provider,
		record.PaymentID,
		record.BookingID,
		record.Outcome,
		record.PayloadHash,
	).Scan(&record.CreatedAt)
}

func (r *LedgerRepository) FindByProviderPaymentID(ctx context.Context, q database.Queryer, provider, paymentID string) (*models.LedgerRecord, error) {
	query := `
		SELECT id, provider, payment_id, booking_id, outcome, payload_hash, created_at
		FROM payment_ledger
		WHERE provider = $1 AND payment_id = $2`

	record := &models.LedgerRecord{}
	err := q.QueryRowContext(ctx, query, provider, paymentID).Scan(
		&record.ID,
		&record.Provider,
		&record.PaymentID,
		&record.BookingID,
		&record.Outcome,
		&record.PayloadHash,
		&record.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}
