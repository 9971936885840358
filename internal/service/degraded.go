package service

import (
	"context"
	"errors"
	"time"

	"district/internal/database"
	"district/internal/degraded"
	apperrors "district/internal/errors"
	"district/internal/logger"
	"district/internal/models"
)

// DegradedService lists and retries booking requests parked while the store
// was unreachable.
type DegradedService struct {
	queue    *degraded.Queue
	bookings *BookingService
}

func NewDegradedService(queue *degraded.Queue, bookings *BookingService) *DegradedService {
	return &DegradedService{queue: queue, bookings: bookings}
}

func (s *DegradedService) List(ctx context.Context) []models.DegradedRequestResponse {
	queued := s.queue.List()

	out := make([]models.DegradedRequestResponse, 0, len(queued))
	for _, req := range queued {
		out = append(out, models.DegradedRequestResponse{
			RequestID:  req.RequestID,
			EventID:    req.EventID,
			SeatType:   req.SeatType,
			Quantity:   req.Quantity,
			Status:     "QUEUED",
			QueuedAt:   req.QueuedAt.Format(time.RFC3339),
			RetryCount: req.RetryCount,
		})
	}
	return out
}

// Retry replays one deferred request through the normal creation path. A
// business rejection resolves the request; only continued unavailability
// keeps it queued.
func (s *DegradedService) Retry(ctx context.Context, requestID string) (*models.CreateBookingResponse, error) {
	deferred, ok := s.queue.Get(requestID)
	if !ok {
		return nil, apperrors.ErrDegradedRequestNotFound
	}

	resp, err := s.bookings.createDirect(ctx, &models.CreateBookingRequest{
		EventID:        deferred.EventID,
		SeatType:       deferred.SeatType,
		Quantity:       deferred.Quantity,
		IdempotencyKey: deferred.IdempotencyKey,
	})
	if err == nil {
		s.queue.Remove(requestID)
		return resp, nil
	}

	// A gateway outage is not a business answer either: the booking was
	// never created, so the request stays queued for another attempt.
	if errors.Is(err, apperrors.ErrPaymentGatewayUnavailable) || database.IsUnavailable(err) {
		retries := s.queue.IncrementRetry(requestID)
		logger.WithContext(ctx).Warn("Retry failed transiently, keeping request queued",
			"request_id", requestID, "retry_count", retries, "error", err)
		return nil, err
	}

	// A definite business answer resolves the request even though it is a
	// rejection.
	s.queue.Remove(requestID)
	return nil, err
}
