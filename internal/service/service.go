package service

import (
	"context"
	"time"

	"district/internal/cache"
	"district/internal/clock"
	"district/internal/database"
	"district/internal/degraded"
	"district/internal/models"
	"district/internal/repository"
)

// TxRunner opens one transaction per unit of work. *database.DB implements
// it; tests substitute an in-memory runner.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, q database.Queryer) error) error
}

// PaymentProvider is the slice of the gateway client the services need.
type PaymentProvider interface {
	CreateOrder(ctx context.Context, amount int64, currency, receipt string) (string, error)
	VerifySignature(orderID, paymentID, signature string) bool
	CancelOrder(ctx context.Context, orderID string) error
}

type InventoryStore interface {
	LockSeatType(ctx context.Context, q database.Queryer, eventID, seatType string) (*models.SeatInventory, error)
	AdjustAvailable(ctx context.Context, q database.Queryer, inventoryID string, delta int) error
	GetByEventAndType(ctx context.Context, q database.Queryer, eventID, seatType string) (*models.SeatInventory, error)
	ListByEvent(ctx context.Context, q database.Queryer, eventID string) ([]models.SeatInventory, error)
	ListAll(ctx context.Context, q database.Queryer) ([]models.SeatInventory, error)
	Upsert(ctx context.Context, q database.Queryer, eventID, seatType string, priceMinor int64, totalSeats int) (*models.SeatInventory, error)
	CreateSlot(ctx context.Context, q database.Queryer, slot *models.TableSlot) error
	LockSlot(ctx context.Context, q database.Queryer, slotID string) (*models.TableSlot, error)
	UpdateSlotStatus(ctx context.Context, q database.Queryer, slotID string, status models.SlotStatus) error
	ListSlots(ctx context.Context, q database.Queryer) ([]models.TableSlot, error)
}

type BookingStore interface {
	Create(ctx context.Context, q database.Queryer, booking *models.Booking) error
	GetByID(ctx context.Context, q database.Queryer, id string) (*models.Booking, error)
	GetByIDForUpdate(ctx context.Context, q database.Queryer, id string) (*models.Booking, error)
	GetByIdempotencyKey(ctx context.Context, q database.Queryer, key string) (*models.Booking, error)
	UpdateStatus(ctx context.Context, q database.Queryer, id string, status models.BookingStatus) error
	SetOrder(ctx context.Context, q database.Queryer, id, orderID string) error
	SetPayment(ctx context.Context, q database.Queryer, id, paymentID string) error
	ListExpired(ctx context.Context, q database.Queryer, cutoff time.Time, limit int) ([]models.Booking, error)
}

type WaitlistStore interface {
	Create(ctx context.Context, q database.Queryer, entry *models.WaitlistEntry) error
	GetByID(ctx context.Context, q database.Queryer, id string) (*models.WaitlistEntry, error)
	GetByBookingID(ctx context.Context, q database.Queryer, bookingID string) (*models.WaitlistEntry, error)
	ListActiveForUpdate(ctx context.Context, q database.Queryer, eventID, seatType string) ([]models.WaitlistEntry, error)
	ListLapsedOffers(ctx context.Context, q database.Queryer, now time.Time, limit int) ([]models.WaitlistEntry, error)
	Position(ctx context.Context, q database.Queryer, entry *models.WaitlistEntry) (int, error)
	MarkOffered(ctx context.Context, q database.Queryer, id, bookingID string, offerExpiresAt time.Time) error
	UpdateStatus(ctx context.Context, q database.Queryer, id string, status models.WaitlistStatus) error
}

type OutboxStore interface {
	Append(ctx context.Context, q database.Queryer, entry *models.OutboxEntry) error
	GetByID(ctx context.Context, q database.Queryer, id string) (*models.OutboxEntry, error)
	ListByStatus(ctx context.Context, q database.Queryer, status models.OutboxStatus, limit int) ([]models.OutboxEntry, error)
	MarkPublished(ctx context.Context, q database.Queryer, id string) error
}

type LedgerStore interface {
	Insert(ctx context.Context, q database.Queryer, record *models.LedgerRecord) error
	FindByProviderPaymentID(ctx context.Context, q database.Queryer, provider, paymentID string) (*models.LedgerRecord, error)
}

// Options are the lifecycle knobs shared by the services.
type Options struct {
	HoldTimeout     time.Duration
	OfferTTL        time.Duration
	DefaultCurrency string
}

type Services struct {
	Inventory *InventoryService
	Bookings  *BookingService
	Waitlist  *WaitlistService
	Outbox    *OutboxService
	Degraded  *DegradedService
}

func NewServices(db *database.DB, repos *repository.Repositories, queue *degraded.Queue,
	snapshots *cache.SnapshotCache, payments PaymentProvider, clk clock.Clock, opts Options) *Services {

	inventoryService := NewInventoryService(db, db, repos.Inventory, snapshots, clk)
	bookingService := NewBookingService(db, repos.Inventory, repos.Bookings, repos.Waitlist,
		repos.Outbox, repos.Ledger, queue, snapshots, payments, clk, opts)
	waitlistService := NewWaitlistService(db, repos.Inventory, repos.Waitlist, clk)
	outboxService := NewOutboxService(db, db, repos.Outbox)
	degradedService := NewDegradedService(queue, bookingService)

	return &Services{
		Inventory: inventoryService,
		Bookings:  bookingService,
		Waitlist:  waitlistService,
		Outbox:    outboxService,
		Degraded:  degradedService,
	}
}
