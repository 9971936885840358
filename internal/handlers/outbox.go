package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"district/internal/models"
)

// ListOutboxEvents - GET /api/outbox/events
func (h *Handlers) ListOutboxEvents(c *gin.Context) {
	status := models.OutboxStatus(c.DefaultQuery("status", string(models.OutboxPending)))
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit <= 0 || limit > 1000 {
		limit = 100
	}

	entries, err := h.services.Outbox.List(c.Request.Context(), status, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// MarkOutboxPublished - POST /api/outbox/events/:id/mark-published
func (h *Handlers) MarkOutboxPublished(c *gin.Context) {
	if err := h.services.Outbox.MarkPublished(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "PUBLISHED"})
}
