package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"district/internal/metrics"
	"district/internal/models"
)

// CreateTableSlot - POST /api/tables
func (h *Handlers) CreateTableSlot(c *gin.Context) {
	var req models.CreateTableSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	slot, err := h.services.Inventory.CreateSlot(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, slot)
}

// ListTableSlots - GET /api/tables
func (h *Handlers) ListTableSlots(c *gin.Context) {
	slots, err := h.services.Inventory.ListSlots(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, slots)
}

// BookTable - POST /api/tables/:slot_id/book
func (h *Handlers) BookTable(c *gin.Context) {
	var req models.BookTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.services.Bookings.BookTable(c.Request.Context(), c.Param("slot_id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	metrics.BookingsCreated.WithLabelValues(string(models.BookingKindTable)).Inc()
	c.JSON(http.StatusCreated, resp)
}
