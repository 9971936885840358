package models

import "time"

// Outbox event types relayed to NATS by the dispatcher.
const (
	EventBookingPendingPayment = "booking.pending_payment"
	EventPaymentConfirmed      = "payment.confirmed"
	EventPaymentFailed         = "payment.failed"
	EventBookingCancelled      = "booking.cancelled"
	EventBookingExpired        = "booking.expired"
	EventWaitlistOffered       = "waitlist.offered"
	EventWaitlistConverted     = "waitlist.converted"
	EventWaitlistExpired       = "waitlist.expired"
)

// BookingPendingPaymentEvent marks a reservation waiting for payment.
type BookingPendingPaymentEvent struct {
	BookingID   string    `json:"booking_id"`
	Kind        string    `json:"kind"`
	SubjectID   string    `json:"subject_id"`
	SeatType    string    `json:"seat_type,omitempty"`
	Quantity    int       `json:"quantity"`
	OrderID     string    `json:"order_id"`
	AmountMinor int64     `json:"amount_minor"`
	Currency    string    `json:"currency"`
	Timestamp   time.Time `json:"timestamp"`
}

// PaymentConfirmedEvent marks a successful payment confirmation.
type PaymentConfirmedEvent struct {
	BookingID   string    `json:"booking_id"`
	Provider    string    `json:"provider"`
	PaymentID   string    `json:"payment_id"`
	OrderID     string    `json:"order_id"`
	AmountMinor int64     `json:"amount_minor"`
	Currency    string    `json:"currency"`
	Timestamp   time.Time `json:"timestamp"`
}

// PaymentFailedEvent marks a failed or signature-invalid confirmation.
type PaymentFailedEvent struct {
	BookingID string    `json:"booking_id"`
	Provider  string    `json:"provider"`
	PaymentID string    `json:"payment_id"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// BookingCancelledEvent marks an explicit cancellation.
type BookingCancelledEvent struct {
	BookingID string    `json:"booking_id"`
	SubjectID string    `json:"subject_id"`
	SeatType  string    `json:"seat_type,omitempty"`
	Quantity  int       `json:"quantity"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// BookingExpiredEvent marks a hold-timeout expiration.
type BookingExpiredEvent struct {
	BookingID string    `json:"booking_id"`
	SubjectID string    `json:"subject_id"`
	SeatType  string    `json:"seat_type,omitempty"`
	Quantity  int       `json:"quantity"`
	Timestamp time.Time `json:"timestamp"`
}

// WaitlistOfferedEvent marks capacity offered to a waiting entry.
type WaitlistOfferedEvent struct {
	WaitlistID     string    `json:"waitlist_id"`
	EventID        string    `json:"event_id"`
	SeatType       string    `json:"seat_type"`
	Quantity       int       `json:"quantity"`
	BookingID      string    `json:"booking_id"`
	OfferExpiresAt time.Time `json:"offer_expires_at"`
	Timestamp      time.Time `json:"timestamp"`
}

// WaitlistConvertedEvent marks an offered entry that completed payment.
type WaitlistConvertedEvent struct {
	WaitlistID string    `json:"waitlist_id"`
	BookingID  string    `json:"booking_id"`
	Timestamp  time.Time `json:"timestamp"`
}

// WaitlistExpiredEvent marks an offer that lapsed before conversion.
type WaitlistExpiredEvent struct {
	WaitlistID string    `json:"waitlist_id"`
	BookingID  string    `json:"booking_id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}
