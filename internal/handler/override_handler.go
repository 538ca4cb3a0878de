package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/smart-dostup/marketsync/internal/models"
	"github.com/smart-dostup/marketsync/internal/service"
	"github.com/smart-dostup/marketsync/internal/utils"
)

// OverrideHandler exposes the manual price override editor.
type OverrideHandler struct {
	overrideService *service.OverrideService
}

// NewOverrideHandler creates a new OverrideHandler.
func NewOverrideHandler(overrideService *service.OverrideService) *OverrideHandler {
	return &OverrideHandler{overrideService: overrideService}
}

// List returns every stored override.
func (h *OverrideHandler) List(c *gin.Context) {
	overrides, err := h.overrideService.List()
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to load overrides")
		return
	}
	utils.Success(c, 200, "Overrides retrieved", gin.H{
		"overrides": overrides,
		"count":     len(overrides),
	})
}

// Set upserts a batch of overrides. Posting an existing id updates its price.
func (h *OverrideHandler) Set(c *gin.Context) {
	var req struct {
		Overrides []struct {
			ProductID string `json:"id" binding:"required"`
			Price     string `json:"price" binding:"required"`
		} `json:"overrides" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	overrides := make([]models.Override, 0, len(req.Overrides))
	for _, o := range req.Overrides {
		overrides = append(overrides, models.Override{ProductID: o.ProductID, Price: o.Price})
	}

	if err := h.overrideService.Set(overrides); err != nil {
		utils.Error(c, 400, "INVALID_OVERRIDE", err.Error())
		return
	}
	utils.Success(c, 200, "Overrides stored", gin.H{"count": len(overrides)})
}

// Delete removes the override for one product id.
func (h *OverrideHandler) Delete(c *gin.Context) {
	productID := c.Param("id")
	deleted, err := h.overrideService.Delete(productID)
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to delete override")
		return
	}
	if !deleted {
		utils.Error(c, 404, "NOT_FOUND", "No override for this product")
		return
	}
	utils.Success(c, 200, "Override deleted", gin.H{"id": productID})
}

// Clear removes every override.
func (h *OverrideHandler) Clear(c *gin.Context) {
	n, err := h.overrideService.Clear()
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to clear overrides")
		return
	}
	utils.Success(c, 200, "Overrides cleared", gin.H{"count": n})
}
