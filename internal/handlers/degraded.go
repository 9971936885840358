package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListDegradedBookings - GET /api/degraded/bookings
func (h *Handlers) ListDegradedBookings(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Degraded.List(c.Request.Context()))
}

// RetryDegradedBooking - POST /api/degraded/bookings/:request_id/retry
func (h *Handlers) RetryDegradedBooking(c *gin.Context) {
	resp, err := h.services.Degraded.Retry(c.Request.Context(), c.Param("request_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}
