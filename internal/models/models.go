package models

import "time"

// SeedInventoryRequest creates or resets the counters for one seat-type.
type SeedInventoryRequest struct {
	EventID    string `json:"event_id" binding:"required"`
	SeatType   string `json:"seat_type" binding:"required"`
	PriceMinor int64  `json:"price_minor"`
	TotalSeats int    `json:"total_seats" binding:"required,gte=0"`
}

// InventorySnapshot is the read model for one seat-type's counters.
type InventorySnapshot struct {
	EventID        string `json:"event_id"`
	SeatType       string `json:"seat_type"`
	PriceMinor     int64  `json:"price_minor"`
	TotalSeats     int    `json:"total_seats"`
	AvailableSeats int    `json:"available_seats"`
	BookedSeats    int    `json:"booked_seats"`
}

// CreateBookingRequest books seats of one seat-type for an event.
type CreateBookingRequest struct {
	EventID        string `json:"event_id" binding:"required"`
	SeatType       string `json:"seat_type" binding:"required"`
	Quantity       int    `json:"quantity" binding:"required,gt=0"`
	IdempotencyKey string `json:"idempotency_key" binding:"required"`
}

// CreateBookingResponse reports either a created booking or, when the store
// was unreachable, the degraded-queue deferral.
type CreateBookingResponse struct {
	BookingID   string  `json:"booking_id,omitempty"`
	Status      string  `json:"status"`
	OrderID     *string `json:"order_id,omitempty"`
	AmountMinor int64   `json:"amount_minor,omitempty"`
	Currency    string  `json:"currency,omitempty"`
	RequestID   string  `json:"request_id,omitempty"`
	Message     string  `json:"message,omitempty"`
}

// Queued marks a degraded-queue deferral rather than a created booking.
const BookingQueued = "QUEUED"

// BookingResponse is the minimal booking status projection.
type BookingResponse struct {
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
}

// ConfirmPaymentRequest carries a gateway payment confirmation callback.
type ConfirmPaymentRequest struct {
	Provider  string `json:"provider" binding:"required"`
	PaymentID string `json:"payment_id" binding:"required"`
	OrderID   string `json:"order_id" binding:"required"`
	Signature string `json:"signature" binding:"required"`
	Outcome   string `json:"outcome"`
}

// OutcomeFailed is the gateway's failure marker; anything else with a valid
// signature is treated as success.
const OutcomeFailed = "failed"

// CreateTableSlotRequest registers one bookable table slot.
type CreateTableSlotRequest struct {
	RestaurantName string `json:"restaurant_name" binding:"required"`
	TableNumber    string `json:"table_number" binding:"required"`
	Capacity       int    `json:"capacity" binding:"required,gt=0"`
	PriceMinor     int64  `json:"price_minor" binding:"gte=0"`
	StartsAt       string `json:"starts_at" binding:"required"`
}

// TableSlotResponse is the read model for one table slot.
type TableSlotResponse struct {
	ID             string `json:"id"`
	RestaurantName string `json:"restaurant_name"`
	TableNumber    string `json:"table_number"`
	Capacity       int    `json:"capacity"`
	PriceMinor     int64  `json:"price_minor"`
	StartsAt       string `json:"starts_at"`
	Status         string `json:"status"`
}

// BookTableRequest holds a table slot for payment.
type BookTableRequest struct {
	IdempotencyKey string `json:"idempotency_key" binding:"required"`
}

// JoinWaitlistRequest queues demand for an exhausted seat-type.
type JoinWaitlistRequest struct {
	SeatType string `json:"seat_type" binding:"required"`
	Quantity int    `json:"quantity" binding:"required,gt=0"`
}

// JoinWaitlistResponse reports the new entry and its queue position.
type JoinWaitlistResponse struct {
	WaitlistID string `json:"waitlist_id"`
	Status     string `json:"status"`
	Position   int    `json:"position"`
}

// WaitlistStatusResponse is the read model for one waitlist entry.
type WaitlistStatusResponse struct {
	WaitlistID     string     `json:"waitlist_id"`
	Status         string     `json:"status"`
	Position       int        `json:"position,omitempty"`
	BookingID      *string    `json:"booking_id,omitempty"`
	OfferExpiresAt *time.Time `json:"offer_expires_at,omitempty"`
}

// DegradedRequestResponse is the read model for one queued degraded request.
type DegradedRequestResponse struct {
	RequestID  string `json:"request_id"`
	EventID    string `json:"event_id"`
	SeatType   string `json:"seat_type"`
	Quantity   int    `json:"quantity"`
	Status     string `json:"status"`
	QueuedAt   string `json:"queued_at"`
	RetryCount int    `json:"retry_count"`
}

// OutboxEntryResponse is the read model for one outbox row.
type OutboxEntryResponse struct {
	ID            string `json:"id"`
	AggregateType string `json:"aggregate_type"`
	AggregateID   string `json:"aggregate_id"`
	EventType     string `json:"event_type"`
	Status        string `json:"status"`
	Attempts      int    `json:"attempts"`
	CreatedAt     string `json:"created_at"`
}
