package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/smart-dostup/marketsync/internal/catalog"
	"github.com/smart-dostup/marketsync/internal/config"
	"github.com/smart-dostup/marketsync/internal/utils"
)

var startTime = time.Now()

// HealthHandler provides the health endpoint.
type HealthHandler struct {
	cfg config.CatalogConfig
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(cfg config.CatalogConfig) *HealthHandler {
	return &HealthHandler{cfg: cfg}
}

// GetHealth responds with service status and whether the catalog document
// and the current snapshot are present on disk.
func (h *HealthHandler) GetHealth(c *gin.Context) {
	utils.Success(c, 200, "Service is healthy", gin.H{
		"status":  "healthy",
		"version": "1.0.0",
		"uptime":  int(time.Since(startTime).Seconds()),
		"files": gin.H{
			"catalog":  catalog.Exists(h.cfg.Path),
			"snapshot": catalog.Exists(h.cfg.SnapshotNew),
		},
	})
}
