package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/smart-dostup/marketsync/internal/service"
	"github.com/smart-dostup/marketsync/internal/utils"
)

// AdminCatalogHandler exposes the catalog maintenance operations.
type AdminCatalogHandler struct {
	catalogService *service.CatalogService
}

// NewAdminCatalogHandler creates a new AdminCatalogHandler.
func NewAdminCatalogHandler(catalogService *service.CatalogService) *AdminCatalogHandler {
	return &AdminCatalogHandler{catalogService: catalogService}
}

// RebuildMissing builds offers for snapshot rows absent from the catalog,
// bounded by the limit query parameter.
func (h *AdminCatalogHandler) RebuildMissing(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	built, remaining, err := h.catalogService.RebuildMissing(c.Request.Context(), limit)
	if err != nil {
		if errors.Is(err, utils.ErrCatalogNotFound) {
			utils.Error(c, 404, "CATALOG_NOT_FOUND", "No catalog document yet")
			return
		}
		utils.Error(c, 500, "REBUILD_FAILED", err.Error())
		return
	}
	utils.Success(c, 200, "Missing offers rebuilt", gin.H{
		"built":     built,
		"remaining": remaining,
	})
}

// Reprice recomputes every offer price from the current snapshot using the
// requested markup table.
func (h *AdminCatalogHandler) Reprice(c *gin.Context) {
	var req struct {
		Table string `json:"table" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	changed, err := h.catalogService.RepriceAll(req.Table)
	if err != nil {
		switch {
		case errors.Is(err, utils.ErrUnknownTable):
			utils.Error(c, 400, "UNKNOWN_PRICING_TABLE", "No such pricing table")
		case errors.Is(err, utils.ErrCatalogNotFound):
			utils.Error(c, 404, "CATALOG_NOT_FOUND", "No catalog document yet")
		default:
			utils.Error(c, 500, "REPRICE_FAILED", err.Error())
		}
		return
	}
	utils.Success(c, 200, "Catalog repriced", gin.H{"changed": changed})
}

// ExportSnapshot writes the active catalog entries to an XLSX file inside
// the configured export directory. The request supplies only the file name.
func (h *AdminCatalogHandler) ExportSnapshot(c *gin.Context) {
	var req struct {
		File string `json:"file" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	path, exported, err := h.catalogService.ExportSnapshot(req.File)
	if err != nil {
		switch {
		case errors.Is(err, utils.ErrInvalidExportName):
			utils.Error(c, 400, "INVALID_EXPORT_NAME", "File name must not contain path separators")
		case errors.Is(err, utils.ErrCatalogNotFound):
			utils.Error(c, 404, "CATALOG_NOT_FOUND", "No catalog document yet")
		default:
			utils.Error(c, 500, "EXPORT_FAILED", err.Error())
		}
		return
	}
	utils.Success(c, 200, "Snapshot exported", gin.H{
		"path": path,
		"rows": exported,
	})
}
