package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"district/internal/models"
)

// SeedInventory - POST /api/inventory/seed
func (h *Handlers) SeedInventory(c *gin.Context) {
	var req models.SeedInventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snapshot, err := h.services.Inventory.Seed(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, snapshot)
}

// ListInventory - GET /api/inventory
func (h *Handlers) ListInventory(c *gin.Context) {
	snapshots, err := h.services.Inventory.Snapshots(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshots)
}

// GetEventInventory - GET /api/inventory/:event_id
func (h *Handlers) GetEventInventory(c *gin.Context) {
	snapshots, err := h.services.Inventory.SnapshotsByEvent(c.Request.Context(), c.Param("event_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshots)
}
