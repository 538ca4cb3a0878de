package worker

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/smart-dostup/marketsync/internal/config"
	"github.com/smart-dostup/marketsync/internal/service"
	"github.com/smart-dostup/marketsync/pkg/telegram"
)

// FeedWorker pulls the supplier's price list out of Telegram on a schedule:
// it asks the chat for the file, waits for the document reply, rotates the
// snapshot pair on disk and kicks off a sync cycle.
type FeedWorker struct {
	bot         *telegram.Client
	syncService *service.SyncService
	cfg         config.CatalogConfig
	message     string
	interval    time.Duration

	offset int64
}

// NewFeedWorker constructs a FeedWorker.
func NewFeedWorker(bot *telegram.Client, syncService *service.SyncService, cfg config.CatalogConfig, message string, interval time.Duration) *FeedWorker {
	return &FeedWorker{
		bot:         bot,
		syncService: syncService,
		cfg:         cfg,
		message:     message,
		interval:    interval,
	}
}

// Start begins the periodic feed loop and listens for context cancellation.
func (w *FeedWorker) Start(ctx context.Context) {
	log.Info().Dur("interval", w.interval).Msg("Starting feed worker")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.run(ctx)
		case <-ctx.Done():
			log.Info().Msg("Feed worker stopped")
			return
		}
	}
}

func (w *FeedWorker) run(ctx context.Context) {
	if err := w.bot.SendMessage(ctx, w.message); err != nil {
		log.Error().Err(err).Msg("Failed to request price list")
		return
	}

	// The supplier side usually replies within a minute; give it ten.
	waitCtx, cancel := context.WithTimeout(ctx, 10*time.Minute)
	defer cancel()

	doc, offset, err := w.bot.WaitForDocument(waitCtx, w.offset)
	w.offset = offset
	if err != nil {
		log.Error().Err(err).Msg("No price list document arrived")
		return
	}
	log.Info().Str("file", doc.FileName).Msg("Price list received")

	data, err := w.bot.DownloadFile(ctx, doc.FileID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to download price list")
		return
	}

	if err := w.rotate(data); err != nil {
		log.Error().Err(err).Msg("Failed to rotate snapshots")
		return
	}

	if _, err := w.syncService.RunCycle(ctx); err != nil {
		log.Error().Err(err).Msg("Sync cycle after feed update failed")
	}
}

// rotate demotes the current snapshot to the previous slot and installs the
// freshly downloaded one.
func (w *FeedWorker) rotate(data []byte) error {
	if _, err := os.Stat(w.cfg.SnapshotNew); err == nil {
		if err := os.Rename(w.cfg.SnapshotNew, w.cfg.SnapshotOld); err != nil {
			return err
		}
	}
	return os.WriteFile(w.cfg.SnapshotNew, data, 0o644)
}
