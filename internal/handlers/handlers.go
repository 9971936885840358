package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"district/internal/database"
	apperrors "district/internal/errors"
	"district/internal/service"
)

type Handlers struct {
	services *service.Services
	db       *database.DB
}

func NewHandlers(services *service.Services, db *database.DB) *Handlers {
	return &Handlers{
		services: services,
		db:       db,
	}
}

// respondError maps domain errors onto HTTP statuses. Anything unmapped is
// a 500 and intentionally opaque to the client.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, apperrors.ErrInventoryExhausted),
		errors.Is(err, apperrors.ErrDuplicateBookingRequest),
		errors.Is(err, apperrors.ErrOrderMismatch),
		errors.Is(err, apperrors.ErrPaymentIdentityConflict),
		errors.Is(err, apperrors.ErrSlotUnavailable),
		errors.Is(err, apperrors.ErrWaitlistNotReady):
		status = http.StatusConflict

	case errors.Is(err, apperrors.ErrEventNotFound),
		errors.Is(err, apperrors.ErrSeatTypeNotFound),
		errors.Is(err, apperrors.ErrBookingNotFound),
		errors.Is(err, apperrors.ErrSlotNotFound),
		errors.Is(err, apperrors.ErrWaitlistEntryNotFound),
		errors.Is(err, apperrors.ErrDegradedRequestNotFound),
		errors.Is(err, apperrors.ErrOutboxEntryNotFound):
		status = http.StatusNotFound

	case errors.Is(err, apperrors.ErrInvalidTransition):
		status = http.StatusConflict

	case errors.Is(err, apperrors.ErrPaymentGatewayUnavailable):
		status = http.StatusBadGateway

	case errors.Is(err, apperrors.ErrDegradedQueueFull),
		database.IsUnavailable(err),
		// A deadlock victim lost a lock race; the request is safe to
		// retry as-is.
		database.IsDeadlock(err):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		c.Error(err)
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// Health - GET /health
func (h *Handlers) Health(c *gin.Context) {
	check := h.db.HealthCheck(c.Request.Context())
	if check.Status != "healthy" {
		c.JSON(http.StatusServiceUnavailable, check)
		return
	}
	c.JSON(http.StatusOK, check)
}
