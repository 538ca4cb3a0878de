package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/smart-dostup/marketsync/internal/models"
	"github.com/smart-dostup/marketsync/internal/service"
	"github.com/smart-dostup/marketsync/internal/utils"
)

// RunLister reads back the sync audit trail.
type RunLister interface {
	ListRecent(limit int) ([]models.SyncRun, error)
}

// SyncHandler exposes the sync trigger and the run history.
type SyncHandler struct {
	syncService *service.SyncService
	runs        RunLister
}

// NewSyncHandler creates a new SyncHandler.
func NewSyncHandler(syncService *service.SyncService, runs RunLister) *SyncHandler {
	return &SyncHandler{syncService: syncService, runs: runs}
}

// Trigger starts a synchronization cycle and waits for it to finish. A cycle
// already in flight is reported as a conflict, not queued.
func (h *SyncHandler) Trigger(c *gin.Context) {
	summary, err := h.syncService.RunCycle(c.Request.Context())
	if err != nil {
		if errors.Is(err, utils.ErrSyncInProgress) {
			utils.Error(c, 409, "SYNC_IN_PROGRESS", "A sync cycle is already running")
			return
		}
		utils.Error(c, 500, "SYNC_FAILED", err.Error())
		return
	}
	utils.Success(c, 200, "Sync cycle finished", summary)
}

// ListRuns returns the most recent sync cycles, newest first.
func (h *SyncHandler) ListRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	runs, err := h.runs.ListRecent(limit)
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to load run history")
		return
	}
	utils.Success(c, 200, "Runs retrieved", gin.H{
		"runs":  runs,
		"count": len(runs),
	})
}
