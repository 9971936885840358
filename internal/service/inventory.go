package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"district/internal/cache"
	"district/internal/clock"
	"district/internal/database"
	apperrors "district/internal/errors"
	"district/internal/models"
)

// InventoryService manages the seat-type counters and table slots. Reads go
// straight to the pool (with a short Redis cache in front); writes run in
// their own transaction.
type InventoryService struct {
	tx        TxRunner
	reader    database.Queryer
	inventory InventoryStore
	snapshots *cache.SnapshotCache
	clock     clock.Clock
}

func NewInventoryService(tx TxRunner, reader database.Queryer, inventory InventoryStore,
	snapshots *cache.SnapshotCache, clk clock.Clock) *InventoryService {
	return &InventoryService{tx: tx, reader: reader, inventory: inventory, snapshots: snapshots, clock: clk}
}

// Seed creates or resets one seat-type's counters. Resetting puts every
// seat back on sale.
func (s *InventoryService) Seed(ctx context.Context, req *models.SeedInventoryRequest) (*models.InventorySnapshot, error) {
	var snapshot *models.InventorySnapshot
	err := s.tx.WithinTx(ctx, func(ctx context.Context, q database.Queryer) error {
		inv, err := s.inventory.Upsert(ctx, q, req.EventID, req.SeatType, req.PriceMinor, req.TotalSeats)
		if err != nil {
			return err
		}
		snapshot = toSnapshot(inv)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.snapshots.Invalidate(ctx, req.EventID)
	return snapshot, nil
}

// SnapshotsByEvent returns the counters for one event, cache-aside.
func (s *InventoryService) SnapshotsByEvent(ctx context.Context, eventID string) ([]models.InventorySnapshot, error) {
	if cached, ok := s.snapshots.GetSnapshots(ctx, eventID); ok {
		return cached, nil
	}

	inventories, err := s.inventory.ListByEvent(ctx, s.reader, eventID)
	if err != nil {
		return nil, err
	}
	if len(inventories) == 0 {
		return nil, apperrors.ErrEventNotFound
	}

	out := make([]models.InventorySnapshot, 0, len(inventories))
	for i := range inventories {
		out = append(out, *toSnapshot(&inventories[i]))
	}
	s.snapshots.SetSnapshots(ctx, eventID, out)
	return out, nil
}

// Snapshots returns the counters for every seeded seat-type.
func (s *InventoryService) Snapshots(ctx context.Context) ([]models.InventorySnapshot, error) {
	inventories, err := s.inventory.ListAll(ctx, s.reader)
	if err != nil {
		return nil, err
	}

	out := make([]models.InventorySnapshot, 0, len(inventories))
	for i := range inventories {
		out = append(out, *toSnapshot(&inventories[i]))
	}
	return out, nil
}

// CreateSlot registers one bookable table slot.
func (s *InventoryService) CreateSlot(ctx context.Context, req *models.CreateTableSlotRequest) (*models.TableSlotResponse, error) {
	startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
	if err != nil {
		return nil, fmt.Errorf("invalid starts_at, want RFC3339: %w", err)
	}

	slot := &models.TableSlot{
		ID:             uuid.New().String(),
		RestaurantName: req.RestaurantName,
		TableNumber:    req.TableNumber,
		Capacity:       req.Capacity,
		PriceMinor:     req.PriceMinor,
		StartsAt:       startsAt,
		Status:         models.SlotAvailable,
	}
	err = s.tx.WithinTx(ctx, func(ctx context.Context, q database.Queryer) error {
		return s.inventory.CreateSlot(ctx, q, slot)
	})
	if err != nil {
		return nil, err
	}
	return toSlotResponse(slot), nil
}

func (s *InventoryService) ListSlots(ctx context.Context) ([]models.TableSlotResponse, error) {
	slots, err := s.inventory.ListSlots(ctx, s.reader)
	if err != nil {
		return nil, err
	}

	out := make([]models.TableSlotResponse, 0, len(slots))
	for i := range slots {
		out = append(out, *toSlotResponse(&slots[i]))
	}
	return out, nil
}

func toSnapshot(inv *models.SeatInventory) *models.InventorySnapshot {
	return &models.InventorySnapshot{
		EventID:        inv.EventID,
		SeatType:       inv.SeatType,
		PriceMinor:     inv.PriceMinor,
		TotalSeats:     inv.TotalSeats,
		AvailableSeats: inv.AvailableSeats,
		BookedSeats:    inv.TotalSeats - inv.AvailableSeats,
	}
}

func toSlotResponse(slot *models.TableSlot) *models.TableSlotResponse {
	return &models.TableSlotResponse{
		ID:             slot.ID,
		RestaurantName: slot.RestaurantName,
		TableNumber:    slot.TableNumber,
		Capacity:       slot.Capacity,
		PriceMinor:     slot.PriceMinor,
		StartsAt:       slot.StartsAt.Format(time.RFC3339),
		Status:         string(slot.Status),
	}
}
