package service

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"district/internal/clock"
	"district/internal/degraded"
	apperrors "district/internal/errors"
	"district/internal/models"
)

const validSig = "valid-sig"

type fixture struct {
	tx       *memTx
	inv      *fakeInventory
	bookings *fakeBookings
	waitlist *fakeWaitlist
	outbox   *fakeOutbox
	ledger   *fakeLedger
	payments *fakePayments
	queue    *degraded.Queue
	now      time.Time
	svc      *BookingService
}

func newFixture() *fixture {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	f := &fixture{
		tx:       &memTx{},
		inv:      newFakeInventory(),
		bookings: newFakeBookings(now),
		waitlist: newFakeWaitlist(now.Add(-time.Hour)),
		outbox:   newFakeOutbox(),
		ledger:   newFakeLedger(),
		payments: &fakePayments{validSig: validSig},
		queue:    degraded.NewQueue(10),
		now:      now,
	}
	f.svc = NewBookingService(f.tx, f.inv, f.bookings, f.waitlist, f.outbox, f.ledger,
		f.queue, nil, f.payments, clock.NewFixed(now), Options{
			HoldTimeout:     15 * time.Minute,
			OfferTTL:        10 * time.Minute,
			DefaultCurrency: "INR",
		})
	return f
}

func (f *fixture) create(t *testing.T, key string, qty int) *models.CreateBookingResponse {
	t.Helper()
	resp, err := f.svc.Create(context.Background(), &models.CreateBookingRequest{
		EventID:        "evt-1",
		SeatType:       "GA",
		Quantity:       qty,
		IdempotencyKey: key,
	})
	require.NoError(t, err)
	return resp
}

func (f *fixture) confirm(t *testing.T, bookingID, paymentID, orderID, sig, outcome string) (*models.BookingResponse, error) {
	t.Helper()
	return f.svc.Confirm(context.Background(), bookingID, &models.ConfirmPaymentRequest{
		Provider:  "gateway",
		PaymentID: paymentID,
		OrderID:   orderID,
		Signature: sig,
		Outcome:   outcome,
	})
}

func TestCreateBooking(t *testing.T) {
	f := newFixture()
	f.inv.seed("evt-1", "GA", 500, 10, 10)

	resp := f.create(t, "key-1", 2)

	assert.Equal(t, string(models.StatusPendingPayment), resp.Status)
	assert.Equal(t, int64(1000), resp.AmountMinor)
	require.NotNil(t, resp.OrderID)
	assert.Equal(t, "order-1", *resp.OrderID)

	assert.Equal(t, 8, f.inv.find("evt-1", "GA").AvailableSeats)
	assert.Len(t, f.outbox.byType(models.EventBookingPendingPayment), 1)
}

func TestCreateBookingInsufficientInventory(t *testing.T) {
	f := newFixture()
	f.inv.seed("evt-1", "GA", 500, 10, 3)

	_, err := f.svc.Create(context.Background(), &models.CreateBookingRequest{
		EventID: "evt-1", SeatType: "GA", Quantity: 4, IdempotencyKey: "key-1",
	})
	assert.ErrorIs(t, err, apperrors.ErrInventoryExhausted)
	assert.Equal(t, 3, f.inv.find("evt-1", "GA").AvailableSeats)
}

func TestCreateBookingUnknownSeatType(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Create(context.Background(), &models.CreateBookingRequest{
		EventID: "evt-1", SeatType: "VIP", Quantity: 1, IdempotencyKey: "key-1",
	})
	assert.ErrorIs(t, err, apperrors.ErrSeatTypeNotFound)
}

func TestCreateBookingIdempotentReplay(t *testing.T) {
	f := newFixture()
	f.inv.seed("evt-1", "GA", 500, 10, 10)

	first := f.create(t, "key-1", 2)
	second := f.create(t, "key-1", 2)

	assert.Equal(t, first.BookingID, second.BookingID)
	assert.Equal(t, first.OrderID, second.OrderID)
	// Replay must not touch inventory again.
	assert.Equal(t, 8, f.inv.find("evt-1", "GA").AvailableSeats)
}

func TestCreateBookingIdempotencyKeyConflict(t *testing.T) {
	f := newFixture()
	f.inv.seed("evt-1", "GA", 500, 10, 10)

	f.create(t, "key-1", 2)
	_, err := f.svc.Create(context.Background(), &models.CreateBookingRequest{
		EventID: "evt-1", SeatType: "GA", Quantity: 3, IdempotencyKey: "key-1",
	})
	assert.ErrorIs(t, err, apperrors.ErrDuplicateBookingRequest)
}

func TestCreateBookingConcurrentKeyRaceReturnsWinner(t *testing.T) {
	f := newFixture()
	f.inv.seed("evt-1", "GA", 500, 10, 10)

	winner := f.create(t, "key-1", 2)

	// The loser's existence check misses the not-yet-committed winner and
	// its insert dies on the unique constraint; the winner's row must be
	// re-read and returned.
	f.bookings.missIdemLookups = 1
	f.bookings.createErr = &pq.Error{Code: "23505"}

	loser, err := f.svc.Create(context.Background(), &models.CreateBookingRequest{
		EventID: "evt-1", SeatType: "GA", Quantity: 2, IdempotencyKey: "key-1",
	})
	require.NoError(t, err)
	assert.Equal(t, winner.BookingID, loser.BookingID)
	assert.Equal(t, winner.OrderID, loser.OrderID)
}

func TestCreateBookingConcurrentKeyRaceDifferentPayload(t *testing.T) {
	f := newFixture()
	f.inv.seed("evt-1", "GA", 500, 10, 10)

	f.create(t, "key-1", 2)

	f.bookings.missIdemLookups = 1
	f.bookings.createErr = &pq.Error{Code: "23505"}

	_, err := f.svc.Create(context.Background(), &models.CreateBookingRequest{
		EventID: "evt-1", SeatType: "GA", Quantity: 5, IdempotencyKey: "key-1",
	})
	assert.ErrorIs(t, err, apperrors.ErrDuplicateBookingRequest)
}

func TestCreateBookingGatewayOutageIsNotDiverted(t *testing.T) {
	f := newFixture()
	f.inv.seed("evt-1", "GA", 500, 10, 10)
	f.payments.orderErr = &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}

	_, err := f.svc.Create(context.Background(), &models.CreateBookingRequest{
		EventID: "evt-1", SeatType: "GA", Quantity: 2, IdempotencyKey: "key-1",
	})
	require.ErrorIs(t, err, apperrors.ErrPaymentGatewayUnavailable)
	assert.Equal(t, 0, f.queue.Size())
}

func TestCreateBookingDivertsWhenStoreUnavailable(t *testing.T) {
	f := newFixture()
	f.tx.err = driver.ErrBadConn

	resp, err := f.svc.Create(context.Background(), &models.CreateBookingRequest{
		EventID: "evt-1", SeatType: "GA", Quantity: 2, IdempotencyKey: "key-1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.BookingQueued, resp.Status)
	assert.NotEmpty(t, resp.RequestID)
	assert.Equal(t, 1, f.queue.Size())
}

func TestCreateBookingDegradedQueueFull(t *testing.T) {
	f := newFixture()
	f.tx.err = driver.ErrBadConn
	f.queue = degraded.NewQueue(1)
	f.svc.queue = f.queue

	_, err := f.svc.Create(context.Background(), &models.CreateBookingRequest{
		EventID: "evt-1", SeatType: "GA", Quantity: 1, IdempotencyKey: "key-1",
	})
	require.NoError(t, err)

	_, err = f.svc.Create(context.Background(), &models.CreateBookingRequest{
		EventID: "evt-1", SeatType: "GA", Quantity: 1, IdempotencyKey: "key-2",
	})
	assert.ErrorIs(t, err, apperrors.ErrDegradedQueueFull)
}

func TestConfirmSuccess(t *testing.T) {
	f := newFixture()
	f.inv.seed("evt-1", "GA", 500, 10, 10)
	created := f.create(t, "key-1", 2)

	resp, err := f.confirm(t, created.BookingID, "pay-1", *created.OrderID, validSig, "")
	require.NoError(t, err)
	assert.Equal(t, string(models.StatusSuccess), resp.Status)

	// Seats stay consumed, decision is on the ledger, event committed.
	assert.Equal(t, 8, f.inv.find("evt-1", "GA").AvailableSeats)
	record, _ := f.ledger.FindByProviderPaymentID(context.Background(), nil, "gateway", "pay-1")
	require.NotNil(t, record)
	assert.Equal(t, models.PaymentOutcomeSuccess, record.Outcome)
	assert.Len(t, f.outbox.byType(models.EventPaymentConfirmed), 1)
}

func TestConfirmInvalidSignature(t *testing.T) {
	f := newFixture()
	f.inv.seed("evt-1", "GA", 500, 10, 10)
	created := f.create(t, "key-1", 2)

	resp, err := f.confirm(t, created.BookingID, "pay-1", *created.OrderID, "forged", "")
	require.NoError(t, err)
	assert.Equal(t, string(models.StatusFailed), resp.Status)

	// Failure releases the hold.
	assert.Equal(t, 10, f.inv.find("evt-1", "GA").AvailableSeats)
	record, _ := f.ledger.FindByProviderPaymentID(context.Background(), nil, "gateway", "pay-1")
	require.NotNil(t, record)
	assert.Equal(t, models.PaymentOutcomeFailure, record.Outcome)
	assert.Len(t, f.outbox.byType(models.EventPaymentFailed), 1)
}

func TestConfirmGatewayReportedFailure(t *testing.T) {
	f := newFixture()
	f.inv.seed("evt-1", "GA", 500, 10, 10)
	created := f.create(t, "key-1", 2)

	resp, err := f.confirm(t, created.BookingID, "pay-1", *created.OrderID, validSig, models.OutcomeFailed)
	require.NoError(t, err)
	assert.Equal(t, string(models.StatusFailed), resp.Status)
	assert.Equal(t, 10, f.inv.find("evt-1", "GA").AvailableSeats)
}

func TestConfirmReplayReturnsRecordedOutcome(t *testing.T) {
	f := newFixture()
	f.inv.seed("evt-1", "GA", 500, 10, 10)
	created := f.create(t, "key-1", 2)

	first, err := f.confirm(t, created.BookingID, "pay-1", *created.OrderID, validSig, "")
	require.NoError(t, err)

	second, err := f.confirm(t, created.BookingID, "pay-1", *created.OrderID, validSig, "")
	require.NoError(t, err)
	assert.Equal(t, first.Status, second.Status)

	// Still exactly one event and one decision.
	assert.Len(t, f.outbox.byType(models.EventPaymentConfirmed), 1)
}

func TestConfirmPaymentIdentityConflict(t *testing.T) {
	f := newFixture()
	f.inv.seed("evt-1", "GA", 500, 10, 10)
	first := f.create(t, "key-1", 2)
	second := f.create(t, "key-2", 1)

	_, err := f.confirm(t, first.BookingID, "pay-1", *first.OrderID, validSig, "")
	require.NoError(t, err)

	_, err = f.confirm(t, second.BookingID, "pay-1", *second.OrderID, validSig, "")
	assert.ErrorIs(t, err, apperrors.ErrPaymentIdentityConflict)
}

func TestConfirmOrderMismatch(t *testing.T) {
	f := newFixture()
	f.inv.seed("evt-1", "GA", 500, 10, 10)
	created := f.create(t, "key-1", 2)

	_, err := f.confirm(t, created.BookingID, "pay-1", "order-wrong", validSig, "")
	assert.ErrorIs(t, err, apperrors.ErrOrderMismatch)

	// Nothing moved.
	got, gerr := f.svc.Get(context.Background(), created.BookingID)
	require.NoError(t, gerr)
	assert.Equal(t, string(models.StatusPendingPayment), got.Status)
}

func TestConfirmAfterTerminalIsNoOp(t *testing.T) {
	f := newFixture()
	f.inv.seed("evt-1", "GA", 500, 10, 10)
	created := f.create(t, "key-1", 2)

	_, err := f.svc.Cancel(context.Background(), created.BookingID, "changed my mind")
	require.NoError(t, err)

	resp, err := f.confirm(t, created.BookingID, "pay-1", *created.OrderID, validSig, "")
	require.NoError(t, err)
	assert.Equal(t, string(models.StatusCancelled), resp.Status)

	// No decision recorded for a booking outside the payable window.
	record, _ := f.ledger.FindByProviderPaymentID(context.Background(), nil, "gateway", "pay-1")
	assert.Nil(t, record)
}

func TestConfirmUnknownBooking(t *testing.T) {
	f := newFixture()
	_, err := f.confirm(t, "missing", "pay-1", "order-1", validSig, "")
	assert.ErrorIs(t, err, apperrors.ErrBookingNotFound)
}

func TestCancelReleasesSeats(t *testing.T) {
	f := newFixture()
	f.inv.seed("evt-1", "GA", 500, 10, 10)
	created := f.create(t, "key-1", 4)

	resp, err := f.svc.Cancel(context.Background(), created.BookingID, "user_requested")
	require.NoError(t, err)
	assert.Equal(t, string(models.StatusCancelled), resp.Status)
	assert.Equal(t, 10, f.inv.find("evt-1", "GA").AvailableSeats)
	assert.Contains(t, f.payments.cancelled, *created.OrderID)
	assert.Len(t, f.outbox.byType(models.EventBookingCancelled), 1)
}

func TestCancelTwiceIsIdempotent(t *testing.T) {
	f := newFixture()
	f.inv.seed("evt-1", "GA", 500, 10, 10)
	created := f.create(t, "key-1", 4)

	_, err := f.svc.Cancel(context.Background(), created.BookingID, "first")
	require.NoError(t, err)

	resp, err := f.svc.Cancel(context.Background(), created.BookingID, "second")
	require.NoError(t, err)
	assert.Equal(t, string(models.StatusCancelled), resp.Status)

	// Seats released once, not twice.
	assert.Equal(t, 10, f.inv.find("evt-1", "GA").AvailableSeats)
}

func TestCancelAfterSuccessReleasesSeats(t *testing.T) {
	f := newFixture()
	f.inv.seed("evt-1", "GA", 500, 10, 10)
	created := f.create(t, "key-1", 2)

	_, err := f.confirm(t, created.BookingID, "pay-1", *created.OrderID, validSig, "")
	require.NoError(t, err)

	resp, err := f.svc.Cancel(context.Background(), created.BookingID, "refund")
	require.NoError(t, err)
	assert.Equal(t, string(models.StatusCancelled), resp.Status)
	assert.Equal(t, 10, f.inv.find("evt-1", "GA").AvailableSeats)
}

func TestCancelPromotesWaitlist(t *testing.T) {
	f := newFixture()
	f.inv.seed("evt-1", "GA", 500, 2, 2)
	created := f.create(t, "key-1", 2)

	entry := &models.WaitlistEntry{
		ID: "wl-1", EventID: "evt-1", SeatType: "GA", Quantity: 2,
		Status: models.WaitlistWaiting,
	}
	require.NoError(t, f.waitlist.Create(context.Background(), nil, entry))

	_, err := f.svc.Cancel(context.Background(), created.BookingID, "user_requested")
	require.NoError(t, err)

	promoted := f.waitlist.find("wl-1")
	assert.Equal(t, models.WaitlistOffered, promoted.Status)
	require.NotNil(t, promoted.BookingID)
	require.NotNil(t, promoted.OfferExpiresAt)
	assert.Equal(t, f.now.Add(10*time.Minute), promoted.OfferExpiresAt.UTC())

	// The offer's backing booking holds the seats again.
	offerBooking := f.bookings.get(*promoted.BookingID)
	require.NotNil(t, offerBooking)
	assert.Equal(t, models.StatusPendingPayment, offerBooking.Status)
	assert.Equal(t, 0, f.inv.find("evt-1", "GA").AvailableSeats)
	assert.Len(t, f.outbox.byType(models.EventWaitlistOffered), 1)
}

func TestPromotionIsStrictlyFIFO(t *testing.T) {
	f := newFixture()
	f.inv.seed("evt-1", "GA", 500, 3, 3)
	created := f.create(t, "key-1", 3)

	big := &models.WaitlistEntry{ID: "wl-big", EventID: "evt-1", SeatType: "GA",
		Quantity: 5, Status: models.WaitlistWaiting}
	small := &models.WaitlistEntry{ID: "wl-small", EventID: "evt-1", SeatType: "GA",
		Quantity: 1, Status: models.WaitlistWaiting}
	require.NoError(t, f.waitlist.Create(context.Background(), nil, big))
	require.NoError(t, f.waitlist.Create(context.Background(), nil, small))

	_, err := f.svc.Cancel(context.Background(), created.BookingID, "user_requested")
	require.NoError(t, err)

	// The head needs 5 seats, only 3 are free: nobody is promoted, the
	// smaller entry behind does not jump the queue.
	assert.Equal(t, models.WaitlistWaiting, f.waitlist.find("wl-big").Status)
	assert.Equal(t, models.WaitlistWaiting, f.waitlist.find("wl-small").Status)
	assert.Equal(t, 3, f.inv.find("evt-1", "GA").AvailableSeats)
}

func TestWaitlistConversionOnPayment(t *testing.T) {
	f := newFixture()
	f.inv.seed("evt-1", "GA", 500, 2, 2)
	created := f.create(t, "key-1", 2)

	entry := &models.WaitlistEntry{ID: "wl-1", EventID: "evt-1", SeatType: "GA",
		Quantity: 2, Status: models.WaitlistWaiting}
	require.NoError(t, f.waitlist.Create(context.Background(), nil, entry))

	_, err := f.svc.Cancel(context.Background(), created.BookingID, "user_requested")
	require.NoError(t, err)

	offered := f.waitlist.find("wl-1")
	offerBooking := f.bookings.get(*offered.BookingID)

	resp, err := f.confirm(t, offerBooking.ID, "pay-9", *offerBooking.OrderID, validSig, "")
	require.NoError(t, err)
	assert.Equal(t, string(models.StatusSuccess), resp.Status)
	assert.Equal(t, models.WaitlistConverted, f.waitlist.find("wl-1").Status)
	assert.Len(t, f.outbox.byType(models.EventWaitlistConverted), 1)
}

func TestLapsedOfferExpiresDuringPromotion(t *testing.T) {
	f := newFixture()
	f.inv.seed("evt-1", "GA", 500, 4, 4)
	holder := f.create(t, "key-1", 2)
	offerHolder := f.create(t, "key-2", 2)

	// An offer whose window already closed, backed by offerHolder's booking.
	lapsed := &models.WaitlistEntry{ID: "wl-lapsed", EventID: "evt-1", SeatType: "GA",
		Quantity: 2, Status: models.WaitlistWaiting}
	next := &models.WaitlistEntry{ID: "wl-next", EventID: "evt-1", SeatType: "GA",
		Quantity: 4, Status: models.WaitlistWaiting}
	require.NoError(t, f.waitlist.Create(context.Background(), nil, lapsed))
	require.NoError(t, f.waitlist.Create(context.Background(), nil, next))

	require.NoError(t, f.waitlist.MarkOffered(context.Background(), nil,
		"wl-lapsed", offerHolder.BookingID, f.now.Add(-time.Minute)))

	_, err := f.svc.Cancel(context.Background(), holder.BookingID, "user_requested")
	require.NoError(t, err)

	// The lapsed offer is retired for good and its seats joined the pool,
	// so the next entry could be offered all four seats.
	assert.Equal(t, models.WaitlistExpired, f.waitlist.find("wl-lapsed").Status)
	assert.Equal(t, models.WaitlistOffered, f.waitlist.find("wl-next").Status)
	assert.Equal(t, 0, f.inv.find("evt-1", "GA").AvailableSeats)
}

func TestExpireHolds(t *testing.T) {
	f := newFixture()
	f.inv.seed("evt-1", "GA", 500, 10, 10)
	created := f.create(t, "key-1", 3)

	// Age the booking past the hold timeout.
	f.bookings.byID[created.BookingID].CreatedAt = f.now.Add(-time.Hour)

	expired, err := f.svc.ExpireHolds(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	got := f.bookings.get(created.BookingID)
	assert.Equal(t, models.StatusExpired, got.Status)
	assert.Equal(t, 10, f.inv.find("evt-1", "GA").AvailableSeats)
	assert.Len(t, f.outbox.byType(models.EventBookingExpired), 1)
}

func TestExpireHoldsSkipsFreshBookings(t *testing.T) {
	f := newFixture()
	f.inv.seed("evt-1", "GA", 500, 10, 10)
	created := f.create(t, "key-1", 3)

	expired, err := f.svc.ExpireHolds(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, 0, expired)
	assert.Equal(t, models.StatusPendingPayment, f.bookings.get(created.BookingID).Status)
}

func TestBookTableLifecycle(t *testing.T) {
	f := newFixture()
	f.inv.slots["slot-1"] = &models.TableSlot{
		ID: "slot-1", RestaurantName: "Marbella", TableNumber: "T4",
		Capacity: 4, PriceMinor: 20000, Status: models.SlotAvailable,
	}

	resp, err := f.svc.BookTable(context.Background(), "slot-1", &models.BookTableRequest{IdempotencyKey: "tbl-1"})
	require.NoError(t, err)
	assert.Equal(t, string(models.StatusPendingPayment), resp.Status)
	assert.Equal(t, int64(20000), resp.AmountMinor)
	assert.Equal(t, models.SlotHeld, f.inv.slots["slot-1"].Status)

	// A held slot rejects the next taker.
	_, err = f.svc.BookTable(context.Background(), "slot-1", &models.BookTableRequest{IdempotencyKey: "tbl-2"})
	assert.ErrorIs(t, err, apperrors.ErrSlotUnavailable)

	// Payment flips the slot to BOOKED.
	confirmed, err := f.confirm(t, resp.BookingID, "pay-1", *resp.OrderID, validSig, "")
	require.NoError(t, err)
	assert.Equal(t, string(models.StatusSuccess), confirmed.Status)
	assert.Equal(t, models.SlotBooked, f.inv.slots["slot-1"].Status)

	// Cancelling a booked table frees the slot again.
	_, err = f.svc.Cancel(context.Background(), resp.BookingID, "party called off")
	require.NoError(t, err)
	assert.Equal(t, models.SlotAvailable, f.inv.slots["slot-1"].Status)
}

func TestBookTablePaymentFailureFreesSlot(t *testing.T) {
	f := newFixture()
	f.inv.slots["slot-1"] = &models.TableSlot{
		ID: "slot-1", RestaurantName: "Marbella", TableNumber: "T4",
		Capacity: 4, PriceMinor: 20000, Status: models.SlotAvailable,
	}

	resp, err := f.svc.BookTable(context.Background(), "slot-1", &models.BookTableRequest{IdempotencyKey: "tbl-1"})
	require.NoError(t, err)

	failed, err := f.confirm(t, resp.BookingID, "pay-1", *resp.OrderID, "forged", "")
	require.NoError(t, err)
	assert.Equal(t, string(models.StatusFailed), failed.Status)
	assert.Equal(t, models.SlotAvailable, f.inv.slots["slot-1"].Status)
}

func TestDegradedRetryResolves(t *testing.T) {
	f := newFixture()
	f.inv.seed("evt-1", "GA", 500, 10, 10)
	f.tx.err = driver.ErrBadConn

	queued, err := f.svc.Create(context.Background(), &models.CreateBookingRequest{
		EventID: "evt-1", SeatType: "GA", Quantity: 2, IdempotencyKey: "key-1",
	})
	require.NoError(t, err)
	require.Equal(t, models.BookingQueued, queued.Status)

	degradedSvc := NewDegradedService(f.queue, f.svc)

	// Store recovers.
	f.tx.err = nil

	resp, err := degradedSvc.Retry(context.Background(), queued.RequestID)
	require.NoError(t, err)
	assert.Equal(t, string(models.StatusPendingPayment), resp.Status)
	assert.Equal(t, 0, f.queue.Size())
	assert.Equal(t, 8, f.inv.find("evt-1", "GA").AvailableSeats)
}

func TestDegradedRetryBusinessRejectionResolves(t *testing.T) {
	f := newFixture()
	f.inv.seed("evt-1", "GA", 500, 2, 2)
	f.tx.err = driver.ErrBadConn

	queued, err := f.svc.Create(context.Background(), &models.CreateBookingRequest{
		EventID: "evt-1", SeatType: "GA", Quantity: 5, IdempotencyKey: "key-1",
	})
	require.NoError(t, err)

	degradedSvc := NewDegradedService(f.queue, f.svc)
	f.tx.err = nil

	_, err = degradedSvc.Retry(context.Background(), queued.RequestID)
	assert.ErrorIs(t, err, apperrors.ErrInventoryExhausted)
	// A definite rejection still resolves the queued request.
	assert.Equal(t, 0, f.queue.Size())
}

func TestDegradedRetryStillUnavailable(t *testing.T) {
	f := newFixture()
	f.tx.err = driver.ErrBadConn

	queued, err := f.svc.Create(context.Background(), &models.CreateBookingRequest{
		EventID: "evt-1", SeatType: "GA", Quantity: 2, IdempotencyKey: "key-1",
	})
	require.NoError(t, err)

	degradedSvc := NewDegradedService(f.queue, f.svc)

	_, err = degradedSvc.Retry(context.Background(), queued.RequestID)
	assert.Error(t, err)
	assert.Equal(t, 1, f.queue.Size())

	got, ok := f.queue.Get(queued.RequestID)
	require.True(t, ok)
	assert.Equal(t, 1, got.RetryCount)
}
