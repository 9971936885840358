package repository

import (
	"context"
	"database/sql"
	"time"

	"district/internal/database"
	"district/internal/models"
)

type BookingRepository struct{}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{}
}

const bookingColumns = `id, kind, subject_id, seat_type, quantity, status, amount_minor, currency,
	       order_id, payment_id, idempotency_key, request_hash, created_at, updated_at`

func scanBooking(row *sql.Row) (*models.Booking, error) {
	b := &models.Booking{}
	err := row.Scan(
		&b.ID,
		&b.Kind,
		&b.SubjectID,
		&b.SeatType,
		&b.Quantity,
		&b.Status,
		&b.AmountMinor,
		&b.Currency,
		&b.OrderID,
		&b.PaymentID,
		&b.IdempotencyKey,
		&b.RequestHash,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *BookingRepository) Create(ctx context.Context, q database.Queryer, booking *models.Booking) error {
	query := `
		INSERT INTO bookings (id, kind, subject_id, seat_type, quantity, status, amount_minor, currency,
		                      order_id, payment_id, idempotency_key, request_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at`

	return q.QueryRowContext(ctx, query,
		booking.ID,
		booking.Kind,
		booking.SubjectID,
		booking.SeatType,
		booking.Quantity,
		booking.Status,
		booking.AmountMinor,
		booking.Currency,
		booking.OrderID,
		booking.PaymentID,
		booking.IdempotencyKey,
		booking.RequestHash,
	).Scan(&booking.CreatedAt, &booking.UpdatedAt)
}

func (r *BookingRepository) GetByID(ctx context.Context, q database.Queryer, id string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	return scanBooking(q.QueryRowContext(ctx, query, id))
}

// GetByIDForUpdate locks the booking row for the remainder of the enclosing
// transaction. Confirmation, cancellation and expiration all serialize here.
func (r *BookingRepository) GetByIDForUpdate(ctx context.Context, q database.Queryer, id string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1 FOR UPDATE`
	return scanBooking(q.QueryRowContext(ctx, query, id))
}

func (r *BookingRepository) GetByIdempotencyKey(ctx context.Context, q database.Queryer, key string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE idempotency_key = $1`
	return scanBooking(q.QueryRowContext(ctx, query, key))
}

// UpdateStatus persists a transition already validated against the
// transition table. It never bypasses the state machine.
func (r *BookingRepository) UpdateStatus(ctx context.Context, q database.Queryer, id string, status models.BookingStatus) error {
	query := `UPDATE bookings SET status = $1, updated_at = NOW() WHERE id = $2`
	_, err := q.ExecContext(ctx, query, status, id)
	return err
}

// SetOrder links the provider order created for this booking.
func (r *BookingRepository) SetOrder(ctx context.Context, q database.Queryer, id, orderID string) error {
	query := `UPDATE bookings SET order_id = $1, updated_at = NOW() WHERE id = $2`
	_, err := q.ExecContext(ctx, query, orderID, id)
	return err
}

func (r *BookingRepository) SetPayment(ctx context.Context, q database.Queryer, id, paymentID string) error {
	query := `UPDATE bookings SET payment_id = $1, updated_at = NOW() WHERE id = $2`
	_, err := q.ExecContext(ctx, query, paymentID, id)
	return err
}

// ListExpired returns PENDING_PAYMENT bookings older than cutoff, oldest
// first, for the hold-timeout sweep.
func (r *BookingRepository) ListExpired(ctx context.Context, q database.Queryer, cutoff time.Time, limit int) ([]models.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE status = 'PENDING_PAYMENT' AND created_at < $1
		ORDER BY created_at ASC
		LIMIT $2`

	rows, err := q.QueryContext(ctx, query, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		var b models.Booking
		err := rows.Scan(
			&b.ID,
			&b.Kind,
			&b.SubjectID,
			&b.SeatType,
			&b.Quantity,
			&b.Status,
			&b.AmountMinor,
			&b.Currency,
			&b.OrderID,
			&b.PaymentID,
			&b.IdempotencyKey,
			&b.RequestHash,
			&b.CreatedAt,
			&b.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}

	return bookings, rows.Err()
}
