package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"district/internal/logger"
	"district/internal/metrics"
	"district/internal/models"
)

// CreateBooking - POST /api/bookings
func (h *Handlers) CreateBooking(c *gin.Context) {
	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.services.Bookings.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	if resp.Status == models.BookingQueued {
		c.JSON(http.StatusAccepted, resp)
		return
	}

	metrics.BookingsCreated.WithLabelValues(string(models.BookingKindEvent)).Inc()
	c.JSON(http.StatusCreated, resp)
}

// GetBooking - GET /api/bookings/:id
func (h *Handlers) GetBooking(c *gin.Context) {
	resp, err := h.services.Bookings.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ConfirmPayment - POST /api/bookings/:id/confirm
func (h *Handlers) ConfirmPayment(c *gin.Context) {
	var req models.ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.services.Bookings.Confirm(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	outcome := "success"
	if resp.Status != string(models.StatusSuccess) {
		outcome = "failure"
	}
	metrics.PaymentsConfirmed.WithLabelValues(outcome).Inc()

	logger.WithContext(c.Request.Context()).Info("Payment confirmation processed",
		"booking_id", resp.BookingID, "status", resp.Status)
	c.JSON(http.StatusOK, resp)
}

// CancelBooking - POST /api/bookings/:id/cancel
func (h *Handlers) CancelBooking(c *gin.Context) {
	var body struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&body)
	if body.Reason == "" {
		body.Reason = "user_requested"
	}

	resp, err := h.services.Bookings.Cancel(c.Request.Context(), c.Param("id"), body.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
