package repository

import (
	"context"
	"database/sql"

	"district/internal/database"
	apperrors "district/internal/errors"
	"district/internal/models"

	"github.com/google/uuid"
)

type InventoryRepository struct{}

func NewInventoryRepository() *InventoryRepository {
	return &InventoryRepository{}
}

// LockSeatType acquires the row-level lock on one seat-type's counters.
// Every reserve/release goes through this lock; the lock is held until the
// enclosing transaction commits or rolls back.
func (r *InventoryRepository) LockSeatType(ctx context.Context, q database.Queryer, eventID, seatType string) (*models.SeatInventory, error) {
	inv := &models.SeatInventory{}
	query := `
		SELECT id, event_id, seat_type, price_minor, total_seats, available_seats, created_at, updated_at
		FROM seat_inventory
		WHERE event_id = $1 AND seat_type = $2
		FOR UPDATE`

	err := q.QueryRowContext(ctx, query, eventID, seatType).Scan(
		&inv.ID,
		&inv.EventID,
		&inv.SeatType,
		&inv.PriceMinor,
		&inv.TotalSeats,
		&inv.AvailableSeats,
		&inv.CreatedAt,
		&inv.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, apperrors.ErrSeatTypeNotFound
	}

	return inv, err
}

// AdjustAvailable applies a signed delta to available_seats. The caller must
// hold the row lock; the CHECK constraints reject any result that would
// break 0 <= available <= total.
func (r *InventoryRepository) AdjustAvailable(ctx context.Context, q database.Queryer, inventoryID string, delta int) error {
	query := `
		UPDATE seat_inventory
		SET available_seats = available_seats + $1, updated_at = NOW()
		WHERE id = $2`

	_, err := q.ExecContext(ctx, query, delta, inventoryID)
	return err
}

func (r *InventoryRepository) GetByEventAndType(ctx context.Context, q database.Queryer, eventID, seatType string) (*models.SeatInventory, error) {
	inv := &models.SeatInventory{}
	query := `
		SELECT id, event_id, seat_type, price_minor, total_seats, available_seats, created_at, updated_at
		FROM seat_inventory
		WHERE event_id = $1 AND seat_type = $2`

	err := q.QueryRowContext(ctx, query, eventID, seatType).Scan(
		&inv.ID,
		&inv.EventID,
		&inv.SeatType,
		&inv.PriceMinor,
		&inv.TotalSeats,
		&inv.AvailableSeats,
		&inv.CreatedAt,
		&inv.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return inv, err
}

func (r *InventoryRepository) ListByEvent(ctx context.Context, q database.Queryer, eventID string) ([]models.SeatInventory, error) {
	query := `
		SELECT id, event_id, seat_type, price_minor, total_seats, available_seats, created_at, updated_at
		FROM seat_inventory
		WHERE event_id = $1
		ORDER BY seat_type`

	return r.scanInventories(ctx, q, query, eventID)
}

func (r *InventoryRepository) ListAll(ctx context.Context, q database.Queryer) ([]models.SeatInventory, error) {
	query := `
		SELECT id, event_id, seat_type, price_minor, total_seats, available_seats, created_at, updated_at
		FROM seat_inventory
		ORDER BY event_id, seat_type`

	return r.scanInventories(ctx, q, query)
}

func (r *InventoryRepository) scanInventories(ctx context.Context, q database.Queryer, query string, args ...any) ([]models.SeatInventory, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var inventories []models.SeatInventory
	for rows.Next() {
		var inv models.SeatInventory
		err := rows.Scan(
			&inv.ID,
			&inv.EventID,
			&inv.SeatType,
			&inv.PriceMinor,
			&inv.TotalSeats,
			&inv.AvailableSeats,
			&inv.CreatedAt,
			&inv.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		inventories = append(inventories, inv)
	}

	return inventories, rows.Err()
}

// Upsert creates or resets the counters for one seat-type. Seeding resets
// available to total, discarding any outstanding reservations on purpose.
func (r *InventoryRepository) Upsert(ctx context.Context, q database.Queryer, eventID, seatType string, priceMinor int64, totalSeats int) (*models.SeatInventory, error) {
	inv := &models.SeatInventory{}
	query := `
		INSERT INTO seat_inventory (id, event_id, seat_type, price_minor, total_seats, available_seats)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (event_id, seat_type) DO UPDATE
		SET price_minor = EXCLUDED.price_minor,
		    total_seats = EXCLUDED.total_seats,
		    available_seats = EXCLUDED.total_seats,
		    updated_at = NOW()
		RETURNING id, event_id, seat_type, price_minor, total_seats, available_seats, created_at, updated_at`

	err := q.QueryRowContext(ctx, query, uuid.New().String(), eventID, seatType, priceMinor, totalSeats).Scan(
		&inv.ID,
		&inv.EventID,
		&inv.SeatType,
		&inv.PriceMinor,
		&inv.TotalSeats,
		&inv.AvailableSeats,
		&inv.CreatedAt,
		&inv.UpdatedAt,
	)

	return inv, err
}

// Table slots use a three-state lock instead of a counter.

func (r *InventoryRepository) CreateSlot(ctx context.Context, q database.Queryer, slot *models.TableSlot) error {
	query := `
		INSERT INTO table_slots (id, restaurant_name, table_number, capacity, price_minor, starts_at, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	return q.QueryRowContext(ctx, query,
		slot.ID,
		slot.RestaurantName,
		slot.TableNumber,
		slot.Capacity,
		slot.PriceMinor,
		slot.StartsAt,
		slot.Status,
	).Scan(&slot.CreatedAt, &slot.UpdatedAt)
}

// LockSlot acquires the row-level lock on one table slot.
func (r *InventoryRepository) LockSlot(ctx context.Context, q database.Queryer, slotID string) (*models.TableSlot, error) {
	slot := &models.TableSlot{}
	query := `
		SELECT id, restaurant_name, table_number, capacity, price_minor, starts_at, status, created_at, updated_at
		FROM table_slots
		WHERE id = $1
		FOR UPDATE`

	err := q.QueryRowContext(ctx, query, slotID).Scan(
		&slot.ID,
		&slot.RestaurantName,
		&slot.TableNumber,
		&slot.Capacity,
		&slot.PriceMinor,
		&slot.StartsAt,
		&slot.Status,
		&slot.CreatedAt,
		&slot.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, apperrors.ErrSlotNotFound
	}

	return slot, err
}

func (r *InventoryRepository) UpdateSlotStatus(ctx context.Context, q database.Queryer, slotID string, status models.SlotStatus) error {
	query := `UPDATE table_slots SET status = $1, updated_at = NOW() WHERE id = $2`
	_, err := q.ExecContext(ctx, query, status, slotID)
	return err
}

func (r *InventoryRepository) ListSlots(ctx context.Context, q database.Queryer) ([]models.TableSlot, error) {
	query := `
		SELECT id, restaurant_name, table_number, capacity, price_minor, starts_at, status, created_at, updated_at
		FROM table_slots
		ORDER BY starts_at`

	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []models.TableSlot
	for rows.Next() {
		var slot models.TableSlot
		err := rows.Scan(
			&slot.ID,
			&slot.RestaurantName,
			&slot.TableNumber,
			&slot.Capacity,
			&slot.PriceMinor,
			&slot.StartsAt,
			&slot.Status,
			&slot.CreatedAt,
			&slot.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}

	return slots, rows.Err()
}
