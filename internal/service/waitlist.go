package service

import (
	"context"

	"github.com/google/uuid"

	"district/internal/clock"
	"district/internal/database"
	apperrors "district/internal/errors"
	"district/internal/models"
)

// WaitlistService enqueues demand for exhausted seat-types and answers
// status queries. Promotion itself happens inside the booking lifecycle,
// whenever capacity comes back.
type WaitlistService struct {
	tx        TxRunner
	inventory InventoryStore
	waitlist  WaitlistStore
	clock     clock.Clock
}

func NewWaitlistService(tx TxRunner, inventory InventoryStore, waitlist WaitlistStore, clk clock.Clock) *WaitlistService {
	return &WaitlistService{tx: tx, inventory: inventory, waitlist: waitlist, clock: clk}
}

// Join adds an entry for a seat-type that cannot currently satisfy the
// requested quantity. When seats are available the caller is told to book
// directly instead.
func (s *WaitlistService) Join(ctx context.Context, eventID string, req *models.JoinWaitlistRequest) (*models.JoinWaitlistResponse, error) {
	var resp *models.JoinWaitlistResponse
	err := s.tx.WithinTx(ctx, func(ctx context.Context, q database.Queryer) error {
		// Lock the counter row so the availability check and the insert
		// cannot interleave with a concurrent release.
		inv, err := s.inventory.LockSeatType(ctx, q, eventID, req.SeatType)
		if err != nil {
			return err
		}
		if inv.AvailableSeats >= req.Quantity {
			return apperrors.ErrWaitlistNotReady
		}

		entry := &models.WaitlistEntry{
			ID:       uuid.New().String(),
			EventID:  eventID,
			SeatType: req.SeatType,
			Quantity: req.Quantity,
			Status:   models.WaitlistWaiting,
		}
		if err := s.waitlist.Create(ctx, q, entry); err != nil {
			return err
		}

		position, err := s.waitlist.Position(ctx, q, entry)
		if err != nil {
			return err
		}

		resp = &models.JoinWaitlistResponse{
			WaitlistID: entry.ID,
			Status:     string(entry.Status),
			Position:   position,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Status reports one entry's stored state. Offers that lapsed but have not
// been swept yet still read as OFFERED until expiration lands.
func (s *WaitlistService) Status(ctx context.Context, id string) (*models.WaitlistStatusResponse, error) {
	var resp *models.WaitlistStatusResponse
	err := s.tx.WithinTx(ctx, func(ctx context.Context, q database.Queryer) error {
		entry, err := s.waitlist.GetByID(ctx, q, id)
		if err != nil {
			return err
		}
		if entry == nil {
			return apperrors.ErrWaitlistEntryNotFound
		}

		resp = &models.WaitlistStatusResponse{
			WaitlistID:     entry.ID,
			Status:         string(entry.Status),
			BookingID:      entry.BookingID,
			OfferExpiresAt: entry.OfferExpiresAt,
		}
		if entry.Status == models.WaitlistWaiting {
			position, err := s.waitlist.Position(ctx, q, entry)
			if err != nil {
				return err
			}
			resp.Position = position
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
