package repository

type Repositories struct {
	Inventory *InventoryRepository
	Bookings  *BookingRepository
	Waitlist  *WaitlistRepository
	Outbox    *OutboxRepository
	Ledger    *LedgerRepository
}

func NewRepositories() *Repositories {
	return &Repositories{
		Inventory: NewInventoryRepository(),
		Bookings:  NewBookingRepository(),
		Waitlist:  NewWaitlistRepository(),
		Outbox:    NewOutboxRepository(),
		Ledger:    NewLedgerRepository(),
	}
}
