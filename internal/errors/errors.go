package errors

import "errors"

// Expected business outcomes. Returned to the caller as structured
// rejections, never logged as faults.
var ErrInventoryExhausted = errors.New("not enough inventory available")
var ErrDuplicateBookingRequest = errors.New("idempotency key reused with a different payload")
var ErrOrderMismatch = errors.New("order reference does not match this booking")
var ErrDegradedQueueFull = errors.New("degraded queue is full")
var ErrSlotUnavailable = errors.New("table slot is not available")
var ErrWaitlistNotReady = errors.New("seats are available, book directly instead of waitlisting")

// Integrity violations. Surfaced loudly: they suggest gateway misbehavior
// or client tampering.
var ErrPaymentIdentityConflict = errors.New("payment id already linked with another booking")

// Not-found family. Mapped to 404 at the transport layer.
var ErrEventNotFound = errors.New("event not found")
var ErrSeatTypeNotFound = errors.New("seat type not found")
var ErrBookingNotFound = errors.New("booking not found")
var ErrSlotNotFound = errors.New("table slot not found")
var ErrWaitlistEntryNotFound = errors.New("waitlist entry not found")
var ErrDegradedRequestNotFound = errors.New("degraded request not found")
var ErrOutboxEntryNotFound = errors.New("outbox entry not found")

// ErrPaymentGatewayUnavailable marks a fault reaching the payment provider.
// It is retryable by the caller but never diverts a request into the
// degradation queue, which is reserved for store unreachability.
var ErrPaymentGatewayUnavailable = errors.New("payment gateway unreachable")

// ErrInvariantViolation indicates a broken transaction boundary (e.g.
// negative inventory). It must never be silently corrected.
var ErrInvariantViolation = errors.New("inventory invariant violated")

// ErrInvalidTransition is returned when a non-terminal booking is asked to
// make a move the transition table does not allow.
var ErrInvalidTransition = errors.New("illegal booking state transition")
