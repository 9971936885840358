package models

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	StatusInitiated      BookingStatus = "INITIATED"
	StatusPendingPayment BookingStatus = "PENDING_PAYMENT"
	StatusSuccess        BookingStatus = "SUCCESS"
	StatusFailed         BookingStatus = "FAILED"
	StatusCancelled      BookingStatus = "CANCELLED"
	StatusExpired        BookingStatus = "EXPIRED"
)

// allowedTransitions is the explicit transition table. Illegal transitions
// are a lookup failure, not a latent code path.
var allowedTransitions = map[BookingStatus]map[BookingStatus]bool{
	StatusInitiated: {
		StatusPendingPayment: true,
		StatusFailed:         true,
	},
	StatusPendingPayment: {
		StatusSuccess:   true,
		StatusFailed:    true,
		StatusCancelled: true,
		StatusExpired:   true,
	},
	StatusSuccess: {
		StatusCancelled: true,
	},
	StatusFailed:    {},
	StatusCancelled: {},
	StatusExpired:   {},
}

// CanTransition reports whether from -> to is a legal move.
func CanTransition(from, to BookingStatus) bool {
	return allowedTransitions[from][to]
}

// IsTerminal reports whether no further transitions are allowed from status.
func IsTerminal(status BookingStatus) bool {
	return len(allowedTransitions[status]) == 0
}
