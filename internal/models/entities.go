package models

import (
	"time"
)

// BookingKind distinguishes the two allocatable unit families.
type BookingKind string

const (
	BookingKindEvent BookingKind = "EVENT"
	BookingKindTable BookingKind = "TABLE"
)

// Booking is the single unit of work of the engine. Its status is mutated
// only through the transition table in status.go.
type Booking struct {
	ID             string        `json:"id" db:"id"`
	Kind           BookingKind   `json:"kind" db:"kind"`
	SubjectID      string        `json:"subject_id" db:"subject_id"`
	SeatType       string        `json:"seat_type,omitempty" db:"seat_type"`
	Quantity       int           `json:"quantity" db:"quantity"`
	Status         BookingStatus `json:"status" db:"status"`
	AmountMinor    int64         `json:"amount_minor" db:"amount_minor"`
	Currency       string        `json:"currency" db:"currency"`
	OrderID        *string       `json:"order_id" db:"order_id"`
	PaymentID      *string       `json:"payment_id" db:"payment_id"`
	IdempotencyKey *string       `json:"-" db:"idempotency_key"`
	RequestHash    *string       `json:"-" db:"request_hash"`
	CreatedAt      time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at" db:"updated_at"`
}

// SeatInventory carries the durable counters for one seat-type of an event.
// Mutated only under a row-level lock, inside the same transaction as the
// booking that caused the change.
type SeatInventory struct {
	ID             string    `json:"id" db:"id"`
	EventID        string    `json:"event_id" db:"event_id"`
	SeatType       string    `json:"seat_type" db:"seat_type"`
	PriceMinor     int64     `json:"price_minor" db:"price_minor"`
	TotalSeats     int       `json:"total_seats" db:"total_seats"`
	AvailableSeats int       `json:"available_seats" db:"available_seats"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// SlotStatus is the three-valued state of a table slot.
type SlotStatus string

const (
	SlotAvailable SlotStatus = "AVAILABLE"
	SlotHeld      SlotStatus = "HELD"
	SlotBooked    SlotStatus = "BOOKED"
)

// TableSlot represents one bookable restaurant table at one time.
type TableSlot struct {
	ID             string     `json:"id" db:"id"`
	RestaurantName string     `json:"restaurant_name" db:"restaurant_name"`
	TableNumber    string     `json:"table_number" db:"table_number"`
	Capacity       int        `json:"capacity" db:"capacity"`
	PriceMinor     int64      `json:"price_minor" db:"price_minor"`
	StartsAt       time.Time  `json:"starts_at" db:"starts_at"`
	Status         SlotStatus `json:"status" db:"status"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// WaitlistStatus is the lifecycle of a waitlist entry. A single offer per
// entry: an expired offer never re-queues.
type WaitlistStatus string

const (
	WaitlistWaiting   WaitlistStatus = "WAITING"
	WaitlistOffered   WaitlistStatus = "OFFERED"
	WaitlistConverted WaitlistStatus = "CONVERTED"
	WaitlistExpired   WaitlistStatus = "EXPIRED"
)

// WaitlistEntry queues demand for a seat-type that had no capacity at join
// time. Entries are served strictly in arrival order.
type WaitlistEntry struct {
	ID             string         `json:"id" db:"id"`
	EventID        string         `json:"event_id" db:"event_id"`
	SeatType       string         `json:"seat_type" db:"seat_type"`
	Quantity       int            `json:"quantity" db:"quantity"`
	Status         WaitlistStatus `json:"status" db:"status"`
	BookingID      *string        `json:"booking_id" db:"booking_id"`
	OfferExpiresAt *time.Time     `json:"offer_expires_at" db:"offer_expires_at"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at" db:"updated_at"`
}

// OutboxStatus tracks delivery of a committed outbox row.
type OutboxStatus string

const (
	OutboxPending   OutboxStatus = "PENDING"
	OutboxPublished OutboxStatus = "PUBLISHED"
	OutboxFailed    OutboxStatus = "FAILED"
)

// OutboxEntry is a domain event written in the same transaction as the state
// change it describes. Never rewritten once inserted, only marked published.
type OutboxEntry struct {
	ID            string       `json:"id" db:"id"`
	AggregateType string       `json:"aggregate_type" db:"aggregate_type"`
	AggregateID   string       `json:"aggregate_id" db:"aggregate_id"`
	EventType     string       `json:"event_type" db:"event_type"`
	Payload       []byte       `json:"payload" db:"payload"`
	DedupeKey     string       `json:"dedupe_key" db:"dedupe_key"`
	Status        OutboxStatus `json:"status" db:"status"`
	Attempts      int          `json:"attempts" db:"attempts"`
	LastError     *string      `json:"last_error" db:"last_error"`
	CreatedAt     time.Time    `json:"created_at" db:"created_at"`
	PublishedAt   *time.Time   `json:"published_at" db:"published_at"`
}

// PaymentOutcome is the resolved result stored in the idempotency ledger.
type PaymentOutcome string

const (
	PaymentOutcomeSuccess PaymentOutcome = "SUCCESS"
	PaymentOutcomeFailure PaymentOutcome = "FAILURE"
)

// LedgerRecord makes gateway confirmation callbacks safe to replay. At most
// one record per (provider, payment id); immutable once written.
type LedgerRecord struct {
	ID          string         `json:"id" db:"id"`
	Provider    string         `json:"provider" db:"provider"`
	PaymentID   string         `json:"payment_id" db:"payment_id"`
	BookingID   string         `json:"booking_id" db:"booking_id"`
	Outcome     PaymentOutcome `json:"outcome" db:"outcome"`
	PayloadHash string         `json:"-" db:"payload_hash"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
}

// DegradedRequest is an in-memory deferral of a booking-creation request,
// kept only while the store is unreachable. Lost on restart by contract.
type DegradedRequest struct {
	RequestID      string    `json:"request_id"`
	EventID        string    `json:"event_id"`
	SeatType       string    `json:"seat_type"`
	Quantity       int       `json:"quantity"`
	IdempotencyKey string    `json:"idempotency_key"`
	QueuedAt       time.Time `json:"queued_at"`
	RetryCount     int       `json:"retry_count"`
}
