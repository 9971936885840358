package repository

import (
	"context"
	"database/sql"
	"time"

	"district/internal/database"
	"district/internal/models"
)

type WaitlistRepository struct{}

func NewWaitlistRepository() *WaitlistRepository {
	return &WaitlistRepository{}
}

const waitlistColumns = `id, event_id, seat_type, quantity, status, booking_id, offer_expires_at, created_at, updated_at`

func scanWaitlistEntry(row *sql.Row) (*models.WaitlistEntry, error) {
	e := &models.WaitlistEntry{}
	err := row.Scan(
		&e.ID,
		&e.EventID,
		&e.SeatType,
		&e.Quantity,
		&e.Status,
		&e.BookingID,
		&e.OfferExpiresAt,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *WaitlistRepository) Create(ctx context.Context, q database.Queryer, entry *models.WaitlistEntry) error {
	query := `
		INSERT INTO waitlist_entries (id, event_id, seat_type, quantity, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`

	return q.QueryRowContext(ctx, query,
		entry.ID,
		entry.EventID,
		entry.SeatType,
		entry.Quantity,
		entry.Status,
	).Scan(&entry.CreatedAt, &entry.UpdatedAt)
}

func (r *WaitlistRepository) GetByID(ctx context.Context, q database.Queryer, id string) (*models.WaitlistEntry, error) {
	query := `SELECT ` + waitlistColumns + ` FROM waitlist_entries WHERE id = $1`
	return scanWaitlistEntry(q.QueryRowContext(ctx, query, id))
}

func (r *WaitlistRepository) GetByBookingID(ctx context.Context, q database.Queryer, bookingID string) (*models.WaitlistEntry, error) {
	query := `SELECT ` + waitlistColumns + ` FROM waitlist_entries WHERE booking_id = $1`
	return scanWaitlistEntry(q.QueryRowContext(ctx, query, bookingID))
}

// ListActiveForUpdate locks the WAITING and OFFERED entries for one
// seat-type in arrival order. Promotion only ever runs against this locked
// set, inside the same transaction as the release that freed the capacity.
func (r *WaitlistRepository) ListActiveForUpdate(ctx context.Context, q database.Queryer, eventID, seatType string) ([]models.WaitlistEntry, error) {
	query := `
		SELECT ` + waitlistColumns + `
		FROM waitlist_entries
		WHERE event_id = $1 AND seat_type = $2 AND status IN ('WAITING', 'OFFERED')
		ORDER BY created_at ASC
		FOR UPDATE`

	rows, err := q.QueryContext(ctx, query, eventID, seatType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.WaitlistEntry
	for rows.Next() {
		var e models.WaitlistEntry
		err := rows.Scan(
			&e.ID,
			&e.EventID,
			&e.SeatType,
			&e.Quantity,
			&e.Status,
			&e.BookingID,
			&e.OfferExpiresAt,
			&e.CreatedAt,
			&e.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// ListLapsedOffers returns OFFERED entries whose offer window closed before
// now. Used by the background sweep; promotion re-checks under its own lock.
func (r *WaitlistRepository) ListLapsedOffers(ctx context.Context, q database.Queryer, now time.Time, limit int) ([]models.WaitlistEntry, error) {
	query := `
		SELECT ` + waitlistColumns + `
		FROM waitlist_entries
		WHERE status = 'OFFERED' AND offer_expires_at < $1
		ORDER BY offer_expires_at ASC
		LIMIT $2`

	rows, err := q.QueryContext(ctx, query, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.WaitlistEntry
	for rows.Next() {
		var e models.WaitlistEntry
		err := rows.Scan(
			&e.ID,
			&e.EventID,
			&e.SeatType,
			&e.Quantity,
			&e.Status,
			&e.BookingID,
			&e.OfferExpiresAt,
			&e.CreatedAt,
			&e.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Position counts WAITING entries that arrived no later than the given
// entry, 1-based.
func (r *WaitlistRepository) Position(ctx context.Context, q database.Queryer, entry *models.WaitlistEntry) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM waitlist_entries
		WHERE event_id = $1 AND seat_type = $2 AND status = 'WAITING' AND created_at <= $3`

	var position int
	err := q.QueryRowContext(ctx, query, entry.EventID, entry.SeatType, entry.CreatedAt).Scan(&position)
	return position, err
}

func (r *WaitlistRepository) MarkOffered(ctx context.Context, q database.Queryer, id, bookingID string, offerExpiresAt time.Time) error {
	query := `
		UPDATE waitlist_entries
		SET status = 'OFFERED', booking_id = $1, offer_expires_at = $2, updated_at = NOW()
		WHERE id = $3`

	_, err := q.ExecContext(ctx, query, bookingID, offerExpiresAt, id)
	return err
}

func (r *WaitlistRepository) UpdateStatus(ctx context.Context, q database.Queryer, id string, status models.WaitlistStatus) error {
	query := `UPDATE waitlist_entries SET status = $1, updated_at = NOW() WHERE id = $2`
	_, err := q.ExecContext(ctx, query, status, id)
	return err
}
