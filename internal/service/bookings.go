package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"district/internal/cache"
	"district/internal/clock"
	"district/internal/database"
	"district/internal/degraded"
	apperrors "district/internal/errors"
	"district/internal/logger"
	"district/internal/models"
)

// BookingService owns the booking lifecycle: reservation, payment
// confirmation, cancellation, hold expiration and waitlist promotion. Every
// state change runs inside a single transaction together with the inventory
// adjustment and outbox append it implies.
type BookingService struct {
	tx        TxRunner
	inventory InventoryStore
	bookings  BookingStore
	waitlist  WaitlistStore
	outbox    OutboxStore
	ledger    LedgerStore
	queue     *degraded.Queue
	snapshots *cache.SnapshotCache
	payments  PaymentProvider
	clock     clock.Clock
	opts      Options
}

func NewBookingService(tx TxRunner, inventory InventoryStore, bookings BookingStore,
	waitlist WaitlistStore, outbox OutboxStore, ledger LedgerStore, queue *degraded.Queue,
	snapshots *cache.SnapshotCache, payments PaymentProvider, clk clock.Clock, opts Options) *BookingService {
	return &BookingService{
		tx:        tx,
		inventory: inventory,
		bookings:  bookings,
		waitlist:  waitlist,
		outbox:    outbox,
		ledger:    ledger,
		queue:     queue,
		snapshots: snapshots,
		payments:  payments,
		clock:     clk,
		opts:      opts,
	}
}

// Create reserves seats and opens a payment order. When the store is
// unreachable the request is parked in the degradation queue instead of
// being rejected.
func (s *BookingService) Create(ctx context.Context, req *models.CreateBookingRequest) (*models.CreateBookingResponse, error) {
	resp, err := s.createDirect(ctx, req)
	if err == nil {
		return resp, nil
	}
	// Only store unreachability diverts; a gateway fault is retryable but
	// must not park the request.
	if errors.Is(err, apperrors.ErrPaymentGatewayUnavailable) || !database.IsUnavailable(err) {
		return nil, err
	}

	logger.WithContext(ctx).Warn("Store unreachable, deferring booking request",
		"event_id", req.EventID, "error", err)

	deferred := &models.DegradedRequest{
		RequestID:      uuid.New().String(),
		EventID:        req.EventID,
		SeatType:       req.SeatType,
		Quantity:       req.Quantity,
		IdempotencyKey: req.IdempotencyKey,
	}
	if qErr := s.queue.Enqueue(deferred); qErr != nil {
		return nil, qErr
	}

	return &models.CreateBookingResponse{
		Status:    models.BookingQueued,
		RequestID: deferred.RequestID,
		Message:   "store unavailable, request queued in memory and lost on restart",
	}, nil
}

// createDirect is the non-diverting path, also used when retrying a
// deferred request.
func (s *BookingService) createDirect(ctx context.Context, req *models.CreateBookingRequest) (*models.CreateBookingResponse, error) {
	hash := hashBookingRequest(req.EventID, req.SeatType, req.Quantity)

	var resp *models.CreateBookingResponse
	err := s.tx.WithinTx(ctx, func(ctx context.Context, q database.Queryer) error {
		existing, err := s.bookings.GetByIdempotencyKey(ctx, q, req.IdempotencyKey)
		if err != nil {
			return err
		}
		if existing != nil {
			if existing.RequestHash == nil || *existing.RequestHash != hash {
				return apperrors.ErrDuplicateBookingRequest
			}
			resp = bookingCreateResponse(existing)
			return nil
		}

		inv, err := s.inventory.LockSeatType(ctx, q, req.EventID, req.SeatType)
		if err != nil {
			return err
		}
		if inv.AvailableSeats < req.Quantity {
			return apperrors.ErrInventoryExhausted
		}
		if err := s.inventory.AdjustAvailable(ctx, q, inv.ID, -req.Quantity); err != nil {
			return err
		}

		booking := &models.Booking{
			ID:             uuid.New().String(),
			Kind:           models.BookingKindEvent,
			SubjectID:      req.EventID,
			SeatType:       req.SeatType,
			Quantity:       req.Quantity,
			Status:         models.StatusInitiated,
			AmountMinor:    inv.PriceMinor * int64(req.Quantity),
			Currency:       s.opts.DefaultCurrency,
			IdempotencyKey: &req.IdempotencyKey,
			RequestHash:    &hash,
		}
		if err := s.bookings.Create(ctx, q, booking); err != nil {
			return err
		}

		if err := s.openPaymentOrder(ctx, q, booking); err != nil {
			return err
		}

		resp = bookingCreateResponse(booking)
		return nil
	})
	if err != nil {
		if database.IsUniqueViolation(err) {
			// A concurrent request with the same key committed first;
			// return its result instead of surfacing the constraint.
			return s.replayByIdempotencyKey(ctx, req.IdempotencyKey, hash)
		}
		return nil, err
	}

	s.snapshots.Invalidate(ctx, req.EventID)
	return resp, nil
}

// replayByIdempotencyKey re-reads the booking a racing transaction created
// under the same key, after this transaction lost on the unique constraint.
func (s *BookingService) replayByIdempotencyKey(ctx context.Context, key, hash string) (*models.CreateBookingResponse, error) {
	var resp *models.CreateBookingResponse
	err := s.tx.WithinTx(ctx, func(ctx context.Context, q database.Queryer) error {
		existing, err := s.bookings.GetByIdempotencyKey(ctx, q, key)
		if err != nil {
			return err
		}
		if existing == nil || existing.RequestHash == nil || *existing.RequestHash != hash {
			return apperrors.ErrDuplicateBookingRequest
		}
		resp = bookingCreateResponse(existing)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// openPaymentOrder moves a fresh INITIATED booking to PENDING_PAYMENT with
// a provider order attached, and records the pending-payment event.
func (s *BookingService) openPaymentOrder(ctx context.Context, q database.Queryer, booking *models.Booking) error {
	orderID, err := s.payments.CreateOrder(ctx, booking.AmountMinor, booking.Currency, booking.ID)
	if err != nil {
		// Wrapped in the gateway sentinel so a provider outage is never
		// mistaken for store unavailability downstream.
		return fmt.Errorf("%w: %v", apperrors.ErrPaymentGatewayUnavailable, err)
	}

	if !models.CanTransition(booking.Status, models.StatusPendingPayment) {
		return apperrors.ErrInvalidTransition
	}
	if err := s.bookings.SetOrder(ctx, q, booking.ID, orderID); err != nil {
		return err
	}
	if err := s.bookings.UpdateStatus(ctx, q, booking.ID, models.StatusPendingPayment); err != nil {
		return err
	}
	booking.OrderID = &orderID
	booking.Status = models.StatusPendingPayment

	return s.appendOutbox(ctx, q, "booking", booking.ID, models.EventBookingPendingPayment,
		models.EventBookingPendingPayment+":"+booking.ID,
		models.BookingPendingPaymentEvent{
			BookingID:   booking.ID,
			Kind:        string(booking.Kind),
			SubjectID:   booking.SubjectID,
			SeatType:    booking.SeatType,
			Quantity:    booking.Quantity,
			OrderID:     orderID,
			AmountMinor: booking.AmountMinor,
			Currency:    booking.Currency,
			Timestamp:   s.clock.Now(),
		})
}

// Get returns the current status projection of one booking.
func (s *BookingService) Get(ctx context.Context, id string) (*models.BookingResponse, error) {
	var resp *models.BookingResponse
	err := s.tx.WithinTx(ctx, func(ctx context.Context, q database.Queryer) error {
		booking, err := s.bookings.GetByID(ctx, q, id)
		if err != nil {
			return err
		}
		if booking == nil {
			return apperrors.ErrBookingNotFound
		}
		resp = &models.BookingResponse{BookingID: booking.ID, Status: string(booking.Status)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Confirm applies a gateway payment confirmation. Replays return the
// recorded outcome; a payment id seen on another booking is rejected
// outright.
func (s *BookingService) Confirm(ctx context.Context, bookingID string, req *models.ConfirmPaymentRequest) (*models.BookingResponse, error) {
	var resp *models.BookingResponse
	var invalidateEvent string
	err := s.tx.WithinTx(ctx, func(ctx context.Context, q database.Queryer) error {
		booking, err := s.bookings.GetByIDForUpdate(ctx, q, bookingID)
		if err != nil {
			return err
		}
		if booking == nil {
			return apperrors.ErrBookingNotFound
		}

		record, err := s.ledger.FindByProviderPaymentID(ctx, q, req.Provider, req.PaymentID)
		if err != nil {
			return err
		}
		if record != nil {
			if record.BookingID != booking.ID {
				return apperrors.ErrPaymentIdentityConflict
			}
			// Replay: return what was decided the first time.
			resp = &models.BookingResponse{BookingID: booking.ID, Status: string(booking.Status)}
			return nil
		}

		if booking.Status != models.StatusPendingPayment {
			// The booking already left the payable window; report where
			// it ended up without touching anything.
			resp = &models.BookingResponse{BookingID: booking.ID, Status: string(booking.Status)}
			return nil
		}

		if booking.OrderID == nil || *booking.OrderID != req.OrderID {
			return apperrors.ErrOrderMismatch
		}

		valid := s.payments.VerifySignature(req.OrderID, req.PaymentID, req.Signature)
		if valid && req.Outcome != models.OutcomeFailed {
			if err := s.confirmSuccessLocked(ctx, q, booking, req); err != nil {
				return err
			}
		} else {
			reason := "gateway reported failure"
			if !valid {
				reason = "invalid signature"
			}
			if err := s.confirmFailureLocked(ctx, q, booking, req, reason); err != nil {
				return err
			}
			if booking.Kind == models.BookingKindEvent {
				invalidateEvent = booking.SubjectID
			}
		}

		resp = &models.BookingResponse{BookingID: booking.ID, Status: string(booking.Status)}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if invalidateEvent != "" {
		s.snapshots.Invalidate(ctx, invalidateEvent)
	}
	return resp, nil
}

func (s *BookingService) confirmSuccessLocked(ctx context.Context, q database.Queryer, booking *models.Booking, req *models.ConfirmPaymentRequest) error {
	if err := s.transition(ctx, q, booking, models.StatusSuccess); err != nil {
		return err
	}
	if err := s.bookings.SetPayment(ctx, q, booking.ID, req.PaymentID); err != nil {
		return err
	}

	if booking.Kind == models.BookingKindTable {
		slot, err := s.inventory.LockSlot(ctx, q, booking.SubjectID)
		if err != nil {
			return err
		}
		if slot.Status != models.SlotHeld {
			return apperrors.ErrInvariantViolation
		}
		if err := s.inventory.UpdateSlotStatus(ctx, q, slot.ID, models.SlotBooked); err != nil {
			return err
		}
	}

	entry, err := s.waitlist.GetByBookingID(ctx, q, booking.ID)
	if err != nil {
		return err
	}
	if entry != nil && entry.Status == models.WaitlistOffered {
		if err := s.waitlist.UpdateStatus(ctx, q, entry.ID, models.WaitlistConverted); err != nil {
			return err
		}
		err = s.appendOutbox(ctx, q, "waitlist", entry.ID, models.EventWaitlistConverted,
			models.EventWaitlistConverted+":"+entry.ID,
			models.WaitlistConvertedEvent{
				WaitlistID: entry.ID,
				BookingID:  booking.ID,
				Timestamp:  s.clock.Now(),
			})
		if err != nil {
			return err
		}
	}

	err = s.appendOutbox(ctx, q, "booking", booking.ID, models.EventPaymentConfirmed,
		models.EventPaymentConfirmed+":"+req.Provider+":"+req.PaymentID,
		models.PaymentConfirmedEvent{
			BookingID:   booking.ID,
			Provider:    req.Provider,
			PaymentID:   req.PaymentID,
			OrderID:     req.OrderID,
			AmountMinor: booking.AmountMinor,
			Currency:    booking.Currency,
			Timestamp:   s.clock.Now(),
		})
	if err != nil {
		return err
	}

	return s.ledger.Insert(ctx, q, &models.LedgerRecord{
		ID:          uuid.New().String(),
		Provider:    req.Provider,
		PaymentID:   req.PaymentID,
		BookingID:   booking.ID,
		Outcome:     models.PaymentOutcomeSuccess,
		PayloadHash: hashConfirmRequest(req),
	})
}

func (s *BookingService) confirmFailureLocked(ctx context.Context, q database.Queryer, booking *models.Booking, req *models.ConfirmPaymentRequest, reason string) error {
	if err := s.transition(ctx, q, booking, models.StatusFailed); err != nil {
		return err
	}
	if err := s.bookings.SetPayment(ctx, q, booking.ID, req.PaymentID); err != nil {
		return err
	}

	if err := s.releaseAndPromoteLocked(ctx, q, booking); err != nil {
		return err
	}

	err := s.appendOutbox(ctx, q, "booking", booking.ID, models.EventPaymentFailed,
		models.EventPaymentFailed+":"+req.Provider+":"+req.PaymentID,
		models.PaymentFailedEvent{
			BookingID: booking.ID,
			Provider:  req.Provider,
			PaymentID: req.PaymentID,
			Reason:    reason,
			Timestamp: s.clock.Now(),
		})
	if err != nil {
		return err
	}

	return s.ledger.Insert(ctx, q, &models.LedgerRecord{
		ID:          uuid.New().String(),
		Provider:    req.Provider,
		PaymentID:   req.PaymentID,
		BookingID:   booking.ID,
		Outcome:     models.PaymentOutcomeFailure,
		PayloadHash: hashConfirmRequest(req),
	})
}

// Cancel releases a PENDING_PAYMENT or SUCCESS booking. Cancelling an
// already cancelled booking is a no-op.
func (s *BookingService) Cancel(ctx context.Context, id, reason string) (*models.BookingResponse, error) {
	var resp *models.BookingResponse
	var orderToCancel, invalidateEvent string
	err := s.tx.WithinTx(ctx, func(ctx context.Context, q database.Queryer) error {
		booking, err := s.bookings.GetByIDForUpdate(ctx, q, id)
		if err != nil {
			return err
		}
		if booking == nil {
			return apperrors.ErrBookingNotFound
		}

		if booking.Status == models.StatusCancelled {
			resp = &models.BookingResponse{BookingID: booking.ID, Status: string(booking.Status)}
			return nil
		}
		if err := s.transition(ctx, q, booking, models.StatusCancelled); err != nil {
			return err
		}
		if booking.OrderID != nil {
			orderToCancel = *booking.OrderID
		}

		if err := s.releaseAndPromoteLocked(ctx, q, booking); err != nil {
			return err
		}
		if booking.Kind == models.BookingKindEvent {
			invalidateEvent = booking.SubjectID
		}

		err = s.appendOutbox(ctx, q, "booking", booking.ID, models.EventBookingCancelled,
			models.EventBookingCancelled+":"+booking.ID,
			models.BookingCancelledEvent{
				BookingID: booking.ID,
				SubjectID: booking.SubjectID,
				SeatType:  booking.SeatType,
				Quantity:  booking.Quantity,
				Reason:    reason,
				Timestamp: s.clock.Now(),
			})
		if err != nil {
			return err
		}

		resp = &models.BookingResponse{BookingID: booking.ID, Status: string(booking.Status)}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if invalidateEvent != "" {
		s.snapshots.Invalidate(ctx, invalidateEvent)
	}
	if orderToCancel != "" {
		// Best effort: the state machine already decided.
		if err := s.payments.CancelOrder(ctx, orderToCancel); err != nil {
			logger.WithContext(ctx).Warn("Failed to cancel provider order",
				"order_id", orderToCancel, "error", err)
		}
	}
	return resp, nil
}

// BookTable holds a table slot for payment. Table capacity is the slot
// itself, so the hold is a status flip rather than a counter decrement.
func (s *BookingService) BookTable(ctx context.Context, slotID string, req *models.BookTableRequest) (*models.CreateBookingResponse, error) {
	hash := hashBookingRequest(slotID, "table", 1)

	var resp *models.CreateBookingResponse
	err := s.tx.WithinTx(ctx, func(ctx context.Context, q database.Queryer) error {
		existing, err := s.bookings.GetByIdempotencyKey(ctx, q, req.IdempotencyKey)
		if err != nil {
			return err
		}
		if existing != nil {
			if existing.RequestHash == nil || *existing.RequestHash != hash {
				return apperrors.ErrDuplicateBookingRequest
			}
			resp = bookingCreateResponse(existing)
			return nil
		}

		slot, err := s.inventory.LockSlot(ctx, q, slotID)
		if err != nil {
			return err
		}
		if slot.Status != models.SlotAvailable {
			return apperrors.ErrSlotUnavailable
		}
		if err := s.inventory.UpdateSlotStatus(ctx, q, slot.ID, models.SlotHeld); err != nil {
			return err
		}

		booking := &models.Booking{
			ID:             uuid.New().String(),
			Kind:           models.BookingKindTable,
			SubjectID:      slot.ID,
			Quantity:       1,
			Status:         models.StatusInitiated,
			AmountMinor:    slot.PriceMinor,
			Currency:       s.opts.DefaultCurrency,
			IdempotencyKey: &req.IdempotencyKey,
			RequestHash:    &hash,
		}
		if err := s.bookings.Create(ctx, q, booking); err != nil {
			return err
		}

		if err := s.openPaymentOrder(ctx, q, booking); err != nil {
			return err
		}

		resp = bookingCreateResponse(booking)
		return nil
	})
	if err != nil {
		if database.IsUniqueViolation(err) {
			return s.replayByIdempotencyKey(ctx, req.IdempotencyKey, hash)
		}
		return nil, err
	}
	return resp, nil
}

// ExpireHolds moves PENDING_PAYMENT bookings older than the hold timeout to
// EXPIRED and releases their capacity. Each booking is handled in its own
// transaction so one failure does not wedge the sweep.
func (s *BookingService) ExpireHolds(ctx context.Context, limit int) (int, error) {
	cutoff := s.clock.Now().Add(-s.opts.HoldTimeout)

	var stale []models.Booking
	err := s.tx.WithinTx(ctx, func(ctx context.Context, q database.Queryer) error {
		var err error
		stale, err = s.bookings.ListExpired(ctx, q, cutoff, limit)
		return err
	})
	if err != nil {
		return 0, err
	}

	expired := 0
	for i := range stale {
		if err := s.expireOne(ctx, stale[i].ID, cutoff); err != nil {
			logger.WithContext(ctx).Error("Failed to expire booking",
				"booking_id", stale[i].ID, "error", err)
			continue
		}
		if stale[i].Kind == models.BookingKindEvent {
			s.snapshots.Invalidate(ctx, stale[i].SubjectID)
		}
		expired++
	}
	return expired, nil
}

func (s *BookingService) expireOne(ctx context.Context, bookingID string, cutoff time.Time) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context, q database.Queryer) error {
		booking, err := s.bookings.GetByIDForUpdate(ctx, q, bookingID)
		if err != nil {
			return err
		}
		// Re-check under the lock: the booking may have been paid or
		// cancelled since it was listed.
		if booking == nil || booking.Status != models.StatusPendingPayment || !booking.CreatedAt.Before(cutoff) {
			return nil
		}

		if err := s.transition(ctx, q, booking, models.StatusExpired); err != nil {
			return err
		}
		if err := s.releaseAndPromoteLocked(ctx, q, booking); err != nil {
			return err
		}

		return s.appendOutbox(ctx, q, "booking", booking.ID, models.EventBookingExpired,
			models.EventBookingExpired+":"+booking.ID,
			models.BookingExpiredEvent{
				BookingID: booking.ID,
				SubjectID: booking.SubjectID,
				SeatType:  booking.SeatType,
				Quantity:  booking.Quantity,
				Timestamp: s.clock.Now(),
			})
	})
}

// ExpireLapsedOffers expires waitlist offers whose window closed, releasing
// the capacity their backing bookings held.
func (s *BookingService) ExpireLapsedOffers(ctx context.Context, limit int) (int, error) {
	now := s.clock.Now()

	var lapsed []models.WaitlistEntry
	err := s.tx.WithinTx(ctx, func(ctx context.Context, q database.Queryer) error {
		var err error
		lapsed, err = s.waitlist.ListLapsedOffers(ctx, q, now, limit)
		return err
	})
	if err != nil {
		return 0, err
	}

	expired := 0
	for i := range lapsed {
		entry := lapsed[i]
		if entry.BookingID == nil {
			continue
		}
		err := s.tx.WithinTx(ctx, func(ctx context.Context, q database.Queryer) error {
			booking, err := s.bookings.GetByIDForUpdate(ctx, q, *entry.BookingID)
			if err != nil || booking == nil {
				return err
			}
			current, err := s.waitlist.GetByID(ctx, q, entry.ID)
			if err != nil {
				return err
			}
			if current == nil || current.Status != models.WaitlistOffered {
				return nil
			}
			return s.expireOfferLocked(ctx, q, current, booking)
		})
		if err != nil {
			logger.WithContext(ctx).Error("Failed to expire waitlist offer",
				"waitlist_id", entry.ID, "error", err)
			continue
		}
		expired++
	}
	return expired, nil
}

// expireOfferLocked retires one lapsed offer: the backing booking expires,
// its seats return to the pool, and the entry leaves the queue for good.
func (s *BookingService) expireOfferLocked(ctx context.Context, q database.Queryer, entry *models.WaitlistEntry, booking *models.Booking) error {
	if booking.Status == models.StatusPendingPayment {
		if err := s.transition(ctx, q, booking, models.StatusExpired); err != nil {
			return err
		}
		if err := s.releaseAndPromoteLocked(ctx, q, booking); err != nil {
			return err
		}
	}

	if err := s.waitlist.UpdateStatus(ctx, q, entry.ID, models.WaitlistExpired); err != nil {
		return err
	}

	bookingID := ""
	if entry.BookingID != nil {
		bookingID = *entry.BookingID
	}
	return s.appendOutbox(ctx, q, "waitlist", entry.ID, models.EventWaitlistExpired,
		models.EventWaitlistExpired+":"+entry.ID,
		models.WaitlistExpiredEvent{
			WaitlistID: entry.ID,
			BookingID:  bookingID,
			Timestamp:  s.clock.Now(),
		})
}

// releaseAndPromoteLocked returns a booking's capacity and, for event
// bookings, runs waitlist promotion against the freed seats. Runs inside
// the caller's transaction.
func (s *BookingService) releaseAndPromoteLocked(ctx context.Context, q database.Queryer, booking *models.Booking) error {
	switch booking.Kind {
	case models.BookingKindTable:
		slot, err := s.inventory.LockSlot(ctx, q, booking.SubjectID)
		if err != nil {
			return err
		}
		if slot.Status == models.SlotAvailable {
			return nil
		}
		return s.inventory.UpdateSlotStatus(ctx, q, slot.ID, models.SlotAvailable)

	case models.BookingKindEvent:
		inv, err := s.inventory.LockSeatType(ctx, q, booking.SubjectID, booking.SeatType)
		if err != nil {
			return err
		}
		if inv.AvailableSeats+booking.Quantity > inv.TotalSeats {
			return apperrors.ErrInvariantViolation
		}
		if err := s.inventory.AdjustAvailable(ctx, q, inv.ID, booking.Quantity); err != nil {
			return err
		}
		available := inv.AvailableSeats + booking.Quantity
		return s.promoteLocked(ctx, q, inv, available)
	}
	return nil
}

// promoteLocked walks the waitlist for one seat-type in arrival order while
// the inventory row is locked. Lapsed offers are expired first so their
// seats count toward the pool; then the head of the queue gets offers until
// the first entry that does not fit.
func (s *BookingService) promoteLocked(ctx context.Context, q database.Queryer, inv *models.SeatInventory, available int) error {
	entries, err := s.waitlist.ListActiveForUpdate(ctx, q, inv.EventID, inv.SeatType)
	if err != nil {
		return err
	}

	now := s.clock.Now()

	for i := range entries {
		entry := entries[i]
		if entry.Status != models.WaitlistOffered {
			continue
		}
		if entry.OfferExpiresAt == nil || entry.OfferExpiresAt.After(now) {
			continue
		}
		if entry.BookingID != nil {
			booking, err := s.bookings.GetByIDForUpdate(ctx, q, *entry.BookingID)
			if err != nil {
				return err
			}
			if booking != nil && booking.Status == models.StatusPendingPayment {
				if err := s.transition(ctx, q, booking, models.StatusExpired); err != nil {
					return err
				}
				if err := s.inventory.AdjustAvailable(ctx, q, inv.ID, booking.Quantity); err != nil {
					return err
				}
				available += booking.Quantity
			}
		}
		if err := s.waitlist.UpdateStatus(ctx, q, entry.ID, models.WaitlistExpired); err != nil {
			return err
		}
		bookingID := ""
		if entry.BookingID != nil {
			bookingID = *entry.BookingID
		}
		err = s.appendOutbox(ctx, q, "waitlist", entry.ID, models.EventWaitlistExpired,
			models.EventWaitlistExpired+":"+entry.ID,
			models.WaitlistExpiredEvent{WaitlistID: entry.ID, BookingID: bookingID, Timestamp: now})
		if err != nil {
			return err
		}
	}

	for i := range entries {
		entry := entries[i]
		if entry.Status != models.WaitlistWaiting {
			continue
		}
		// Strict FIFO: the head blocks everyone behind it.
		if entry.Quantity > available {
			break
		}
		if err := s.offerLocked(ctx, q, inv, &entry, now); err != nil {
			return err
		}
		available -= entry.Quantity
	}
	return nil
}

// offerLocked converts one WAITING entry into an offer backed by a
// PENDING_PAYMENT booking with its own payment order.
func (s *BookingService) offerLocked(ctx context.Context, q database.Queryer, inv *models.SeatInventory, entry *models.WaitlistEntry, now time.Time) error {
	if err := s.inventory.AdjustAvailable(ctx, q, inv.ID, -entry.Quantity); err != nil {
		return err
	}

	booking := &models.Booking{
		ID:          uuid.New().String(),
		Kind:        models.BookingKindEvent,
		SubjectID:   inv.EventID,
		SeatType:    inv.SeatType,
		Quantity:    entry.Quantity,
		Status:      models.StatusInitiated,
		AmountMinor: inv.PriceMinor * int64(entry.Quantity),
		Currency:    s.opts.DefaultCurrency,
	}
	if err := s.bookings.Create(ctx, q, booking); err != nil {
		return err
	}
	if err := s.openPaymentOrder(ctx, q, booking); err != nil {
		return err
	}

	expiresAt := now.Add(s.opts.OfferTTL)
	if err := s.waitlist.MarkOffered(ctx, q, entry.ID, booking.ID, expiresAt); err != nil {
		return err
	}

	return s.appendOutbox(ctx, q, "waitlist", entry.ID, models.EventWaitlistOffered,
		models.EventWaitlistOffered+":"+entry.ID,
		models.WaitlistOfferedEvent{
			WaitlistID:     entry.ID,
			EventID:        inv.EventID,
			SeatType:       inv.SeatType,
			Quantity:       entry.Quantity,
			BookingID:      booking.ID,
			OfferExpiresAt: expiresAt,
			Timestamp:      now,
		})
}

// transition validates a move against the transition table before
// persisting it.
func (s *BookingService) transition(ctx context.Context, q database.Queryer, booking *models.Booking, to models.BookingStatus) error {
	if !models.CanTransition(booking.Status, to) {
		return apperrors.ErrInvalidTransition
	}
	if err := s.bookings.UpdateStatus(ctx, q, booking.ID, to); err != nil {
		return err
	}
	booking.Status = to
	return nil
}

func (s *BookingService) appendOutbox(ctx context.Context, q database.Queryer, aggregateType, aggregateID, eventType, dedupeKey string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal outbox payload: %w", err)
	}
	return s.outbox.Append(ctx, q, &models.OutboxEntry{
		ID:            uuid.New().String(),
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       raw,
		DedupeKey:     dedupeKey,
		Status:        models.OutboxPending,
	})
}

func bookingCreateResponse(booking *models.Booking) *models.CreateBookingResponse {
	return &models.CreateBookingResponse{
		BookingID:   booking.ID,
		Status:      string(booking.Status),
		OrderID:     booking.OrderID,
		AmountMinor: booking.AmountMinor,
		Currency:    booking.Currency,
	}
}

func hashBookingRequest(subjectID, seatType string, quantity int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%d", subjectID, seatType, quantity)))
	return hex.EncodeToString(sum[:])
}

func hashConfirmRequest(req *models.ConfirmPaymentRequest) string {
	sum := sha256.Sum256([]byte(req.Provider + "|" + req.PaymentID + "|" + req.OrderID + "|" + req.Outcome))
	return hex.EncodeToString(sum[:])
}
