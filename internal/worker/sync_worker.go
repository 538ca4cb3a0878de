package worker

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/smart-dostup/marketsync/internal/service"
	"github.com/smart-dostup/marketsync/internal/utils"
)

// SyncWorker periodically runs a catalog synchronization cycle.
type SyncWorker struct {
	syncService *service.SyncService
	interval    time.Duration
}

// NewSyncWorker constructs a SyncWorker.
func NewSyncWorker(syncService *service.SyncService, interval time.Duration) *SyncWorker {
	return &SyncWorker{
		syncService: syncService,
		interval:    interval,
	}
}

// Start begins the periodic sync loop and listens for context cancellation.
func (w *SyncWorker) Start(ctx context.Context) {
	log.Info().Dur("interval", w.interval).Msg("Starting sync worker")

	// Run immediately on start
	w.run(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.run(ctx)
		case <-ctx.Done():
			log.Info().Msg("Sync worker stopped")
			return
		}
	}
}

func (w *SyncWorker) run(ctx context.Context) {
	start := time.Now()
	if _, err := w.syncService.RunCycle(ctx); err != nil {
		// A manually triggered cycle may already be running; that is fine.
		if errors.Is(err, utils.ErrSyncInProgress) {
			log.Info().Msg("Sync cycle already in progress, skipping tick")
			return
		}
		log.Error().Err(err).Msg("Sync cycle failed")
		return
	}
	log.Info().Dur("duration", time.Since(start)).Msg("Scheduled sync cycle completed")
}
