package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"district/internal/models"
)

// JoinWaitlist - POST /api/events/:event_id/waitlist
func (h *Handlers) JoinWaitlist(c *gin.Context) {
	var req models.JoinWaitlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.services.Waitlist.Join(c.Request.Context(), c.Param("event_id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// GetWaitlistStatus - GET /api/waitlist/:id
func (h *Handlers) GetWaitlistStatus(c *gin.Context) {
	resp, err := h.services.Waitlist.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
