package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"district/internal/database"
	apperrors "district/internal/errors"
	"district/internal/models"
)

// memTx satisfies TxRunner without a database: the fakes below are the
// store, so "transactions" are plain function calls.
type memTx struct {
	err error
}

func (m *memTx) WithinTx(ctx context.Context, fn func(ctx context.Context, q database.Queryer) error) error {
	if m.err != nil {
		return m.err
	}
	return fn(ctx, nil)
}

type fakeInventory struct {
	byID  map[string]*models.SeatInventory
	slots map[string]*models.TableSlot
}

func newFakeInventory() *fakeInventory {
	return &fakeInventory{
		byID:  make(map[string]*models.SeatInventory),
		slots: make(map[string]*models.TableSlot),
	}
}

func (f *fakeInventory) seed(eventID, seatType string, price int64, total, available int) *models.SeatInventory {
	inv := &models.SeatInventory{
		ID:             fmt.Sprintf("inv-%s-%s", eventID, seatType),
		EventID:        eventID,
		SeatType:       seatType,
		PriceMinor:     price,
		TotalSeats:     total,
		AvailableSeats: available,
	}
	f.byID[inv.ID] = inv
	return inv
}

func (f *fakeInventory) find(eventID, seatType string) *models.SeatInventory {
	for _, inv := range f.byID {
		if inv.EventID == eventID && inv.SeatType == seatType {
			return inv
		}
	}
	return nil
}

func (f *fakeInventory) LockSeatType(ctx context.Context, q database.Queryer, eventID, seatType string) (*models.SeatInventory, error) {
	inv := f.find(eventID, seatType)
	if inv == nil {
		return nil, apperrors.ErrSeatTypeNotFound
	}
	copied := *inv
	return &copied, nil
}

func (f *fakeInventory) AdjustAvailable(ctx context.Context, q database.Queryer, inventoryID string, delta int) error {
	inv, ok := f.byID[inventoryID]
	if !ok {
		return apperrors.ErrSeatTypeNotFound
	}
	next := inv.AvailableSeats + delta
	if next < 0 || next > inv.TotalSeats {
		return apperrors.ErrInvariantViolation
	}
	inv.AvailableSeats = next
	return nil
}

func (f *fakeInventory) GetByEventAndType(ctx context.Context, q database.Queryer, eventID, seatType string) (*models.SeatInventory, error) {
	inv := f.find(eventID, seatType)
	if inv == nil {
		return nil, nil
	}
	copied := *inv
	return &copied, nil
}

func (f *fakeInventory) ListByEvent(ctx context.Context, q database.Queryer, eventID string) ([]models.SeatInventory, error) {
	var out []models.SeatInventory
	for _, inv := range f.byID {
		if inv.EventID == eventID {
			out = append(out, *inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SeatType < out[j].SeatType })
	return out, nil
}

func (f *fakeInventory) ListAll(ctx context.Context, q database.Queryer) ([]models.SeatInventory, error) {
	var out []models.SeatInventory
	for _, inv := range f.byID {
		out = append(out, *inv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeInventory) Upsert(ctx context.Context, q database.Queryer, eventID, seatType string, priceMinor int64, totalSeats int) (*models.SeatInventory, error) {
	if inv := f.find(eventID, seatType); inv != nil {
		inv.PriceMinor = priceMinor
		inv.TotalSeats = totalSeats
		inv.AvailableSeats = totalSeats
		copied := *inv
		return &copied, nil
	}
	inv := f.seed(eventID, seatType, priceMinor, totalSeats, totalSeats)
	copied := *inv
	return &copied, nil
}

func (f *fakeInventory) CreateSlot(ctx context.Context, q database.Queryer, slot *models.TableSlot) error {
	copied := *slot
	f.slots[slot.ID] = &copied
	return nil
}

func (f *fakeInventory) LockSlot(ctx context.Context, q database.Queryer, slotID string) (*models.TableSlot, error) {
	slot, ok := f.slots[slotID]
	if !ok {
		return nil, apperrors.ErrSlotNotFound
	}
	copied := *slot
	return &copied, nil
}

func (f *fakeInventory) UpdateSlotStatus(ctx context.Context, q database.Queryer, slotID string, status models.SlotStatus) error {
	slot, ok := f.slots[slotID]
	if !ok {
		return apperrors.ErrSlotNotFound
	}
	slot.Status = status
	return nil
}

func (f *fakeInventory) ListSlots(ctx context.Context, q database.Queryer) ([]models.TableSlot, error) {
	var out []models.TableSlot
	for _, slot := range f.slots {
		out = append(out, *slot)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeBookings struct {
	byID   map[string]*models.Booking
	byIdem map[string]string
	now    time.Time

	// Race simulation: hide the idempotency-key row for N lookups, as if
	// a concurrent transaction had not yet committed, and fail the next
	// insert with the given error.
	missIdemLookups int
	createErr       error
}

func newFakeBookings(now time.Time) *fakeBookings {
	return &fakeBookings{
		byID:   make(map[string]*models.Booking),
		byIdem: make(map[string]string),
		now:    now,
	}
}

func (f *fakeBookings) Create(ctx context.Context, q database.Queryer, booking *models.Booking) error {
	if f.createErr != nil {
		err := f.createErr
		f.createErr = nil
		return err
	}
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = f.now
	}
	booking.UpdatedAt = booking.CreatedAt
	copied := *booking
	f.byID[booking.ID] = &copied
	if booking.IdempotencyKey != nil {
		f.byIdem[*booking.IdempotencyKey] = booking.ID
	}
	return nil
}

func (f *fakeBookings) get(id string) *models.Booking {
	b, ok := f.byID[id]
	if !ok {
		return nil
	}
	copied := *b
	return &copied
}

func (f *fakeBookings) GetByID(ctx context.Context, q database.Queryer, id string) (*models.Booking, error) {
	return f.get(id), nil
}

func (f *fakeBookings) GetByIDForUpdate(ctx context.Context, q database.Queryer, id string) (*models.Booking, error) {
	return f.get(id), nil
}

func (f *fakeBookings) GetByIdempotencyKey(ctx context.Context, q database.Queryer, key string) (*models.Booking, error) {
	if f.missIdemLookups > 0 {
		f.missIdemLookups--
		return nil, nil
	}
	id, ok := f.byIdem[key]
	if !ok {
		return nil, nil
	}
	return f.get(id), nil
}

func (f *fakeBookings) UpdateStatus(ctx context.Context, q database.Queryer, id string, status models.BookingStatus) error {
	b, ok := f.byID[id]
	if !ok {
		return apperrors.ErrBookingNotFound
	}
	b.Status = status
	return nil
}

func (f *fakeBookings) SetOrder(ctx context.Context, q database.Queryer, id, orderID string) error {
	b, ok := f.byID[id]
	if !ok {
		return apperrors.ErrBookingNotFound
	}
	b.OrderID = &orderID
	return nil
}

func (f *fakeBookings) SetPayment(ctx context.Context, q database.Queryer, id, paymentID string) error {
	b, ok := f.byID[id]
	if !ok {
		return apperrors.ErrBookingNotFound
	}
	b.PaymentID = &paymentID
	return nil
}

func (f *fakeBookings) ListExpired(ctx context.Context, q database.Queryer, cutoff time.Time, limit int) ([]models.Booking, error) {
	var out []models.Booking
	for _, b := range f.byID {
		if b.Status == models.StatusPendingPayment && b.CreatedAt.Before(cutoff) {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeWaitlist struct {
	entries []*models.WaitlistEntry
	seq     int
	base    time.Time
}

func newFakeWaitlist(base time.Time) *fakeWaitlist {
	return &fakeWaitlist{base: base}
}

func (f *fakeWaitlist) Create(ctx context.Context, q database.Queryer, entry *models.WaitlistEntry) error {
	f.seq++
	entry.CreatedAt = f.base.Add(time.Duration(f.seq) * time.Second)
	entry.UpdatedAt = entry.CreatedAt
	copied := *entry
	f.entries = append(f.entries, &copied)
	return nil
}

func (f *fakeWaitlist) find(id string) *models.WaitlistEntry {
	for _, e := range f.entries {
		if e.ID == id {
			return e
		}
	}
	return nil
}

func (f *fakeWaitlist) GetByID(ctx context.Context, q database.Queryer, id string) (*models.WaitlistEntry, error) {
	e := f.find(id)
	if e == nil {
		return nil, nil
	}
	copied := *e
	return &copied, nil
}

func (f *fakeWaitlist) GetByBookingID(ctx context.Context, q database.Queryer, bookingID string) (*models.WaitlistEntry, error) {
	for _, e := range f.entries {
		if e.BookingID != nil && *e.BookingID == bookingID {
			copied := *e
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeWaitlist) ListActiveForUpdate(ctx context.Context, q database.Queryer, eventID, seatType string) ([]models.WaitlistEntry, error) {
	var out []models.WaitlistEntry
	for _, e := range f.entries {
		if e.EventID == eventID && e.SeatType == seatType &&
			(e.Status == models.WaitlistWaiting || e.Status == models.WaitlistOffered) {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeWaitlist) ListLapsedOffers(ctx context.Context, q database.Queryer, now time.Time, limit int) ([]models.WaitlistEntry, error) {
	var out []models.WaitlistEntry
	for _, e := range f.entries {
		if e.Status == models.WaitlistOffered && e.OfferExpiresAt != nil && e.OfferExpiresAt.Before(now) {
			out = append(out, *e)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeWaitlist) Position(ctx context.Context, q database.Queryer, entry *models.WaitlistEntry) (int, error) {
	position := 0
	for _, e := range f.entries {
		if e.EventID == entry.EventID && e.SeatType == entry.SeatType &&
			e.Status == models.WaitlistWaiting && !e.CreatedAt.After(entry.CreatedAt) {
			position++
		}
	}
	return position, nil
}

func (f *fakeWaitlist) MarkOffered(ctx context.Context, q database.Queryer, id, bookingID string, offerExpiresAt time.Time) error {
	e := f.find(id)
	if e == nil {
		return apperrors.ErrWaitlistEntryNotFound
	}
	e.Status = models.WaitlistOffered
	e.BookingID = &bookingID
	expires := offerExpiresAt
	e.OfferExpiresAt = &expires
	return nil
}

func (f *fakeWaitlist) UpdateStatus(ctx context.Context, q database.Queryer, id string, status models.WaitlistStatus) error {
	e := f.find(id)
	if e == nil {
		return apperrors.ErrWaitlistEntryNotFound
	}
	e.Status = status
	return nil
}

type fakeOutbox struct {
	entries []*models.OutboxEntry
	dedupe  map[string]bool
}

func newFakeOutbox() *fakeOutbox {
	return &fakeOutbox{dedupe: make(map[string]bool)}
}

func (f *fakeOutbox) Append(ctx context.Context, q database.Queryer, entry *models.OutboxEntry) error {
	if f.dedupe[entry.DedupeKey] {
		return nil
	}
	f.dedupe[entry.DedupeKey] = true
	copied := *entry
	f.entries = append(f.entries, &copied)
	return nil
}

func (f *fakeOutbox) GetByID(ctx context.Context, q database.Queryer, id string) (*models.OutboxEntry, error) {
	for _, e := range f.entries {
		if e.ID == id {
			copied := *e
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeOutbox) ListByStatus(ctx context.Context, q database.Queryer, status models.OutboxStatus, limit int) ([]models.OutboxEntry, error) {
	var out []models.OutboxEntry
	for _, e := range f.entries {
		if e.Status == status {
			out = append(out, *e)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// MarkPublished mirrors the repository guard: PENDING and FAILED rows are
// both acknowledgeable, anything else affects no rows.
func (f *fakeOutbox) MarkPublished(ctx context.Context, q database.Queryer, id string) error {
	for _, e := range f.entries {
		if e.ID == id {
			if e.Status == models.OutboxPublished {
				return sql.ErrNoRows
			}
			e.Status = models.OutboxPublished
			return nil
		}
	}
	return sql.ErrNoRows
}

func (f *fakeOutbox) byType(eventType string) []*models.OutboxEntry {
	var out []*models.OutboxEntry
	for _, e := range f.entries {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

type fakeLedger struct {
	records map[string]*models.LedgerRecord
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{records: make(map[string]*models.LedgerRecord)}
}

func (f *fakeLedger) Insert(ctx context.Context, q database.Queryer, record *models.LedgerRecord) error {
	key := record.Provider + "|" + record.PaymentID
	if _, ok := f.records[key]; ok {
		return fmt.Errorf("duplicate ledger record for %s", key)
	}
	copied := *record
	f.records[key] = &copied
	return nil
}

func (f *fakeLedger) FindByProviderPaymentID(ctx context.Context, q database.Queryer, provider, paymentID string) (*models.LedgerRecord, error) {
	record, ok := f.records[provider+"|"+paymentID]
	if !ok {
		return nil, nil
	}
	copied := *record
	return &copied, nil
}

type fakePayments struct {
	orders    int
	validSig  string
	cancelled []string
	orderErr  error
}

func (f *fakePayments) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (string, error) {
	if f.orderErr != nil {
		return "", f.orderErr
	}
	f.orders++
	return fmt.Sprintf("order-%d", f.orders), nil
}

func (f *fakePayments) VerifySignature(orderID, paymentID, signature string) bool {
	return signature == f.validSig
}

func (f *fakePayments) CancelOrder(ctx context.Context, orderID string) error {
	f.cancelled = append(f.cancelled, orderID)
	return nil
}
