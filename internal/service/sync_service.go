package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/smart-dostup/marketsync/internal/builder"
	"github.com/smart-dostup/marketsync/internal/catalog"
	"github.com/smart-dostup/marketsync/internal/config"
	"github.com/smart-dostup/marketsync/internal/differ"
	"github.com/smart-dostup/marketsync/internal/models"
	"github.com/smart-dostup/marketsync/internal/overrides"
	"github.com/smart-dostup/marketsync/internal/reconciler"
	"github.com/smart-dostup/marketsync/internal/repository"
	"github.com/smart-dostup/marketsync/internal/snapshot"
	"github.com/smart-dostup/marketsync/internal/utils"
)

// OverrideStore is the persistence surface the sync cycle needs for manual
// price overrides.
type OverrideStore interface {
	GetAll() ([]models.Override, error)
}

// RunStore records finished sync cycles.
type RunStore interface {
	Create(run *models.SyncRun) error
}

// SyncService orchestrates one full catalog synchronization cycle: read the
// snapshot pair, reconcile the catalog document against the diff, re-apply
// manual overrides and persist atomically. When no catalog exists yet it
// builds one from scratch instead.
type SyncService struct {
	cfg          config.CatalogConfig
	reconciler   *reconciler.Reconciler
	builder      *builder.Builder
	overrideRepo OverrideStore
	runRepo      RunStore

	running atomic.Bool
}

// NewSyncService wires the sync cycle dependencies.
func NewSyncService(
	cfg config.CatalogConfig,
	rec *reconciler.Reconciler,
	b *builder.Builder,
	overrideRepo OverrideStore,
	runRepo RunStore,
) *SyncService {
	return &SyncService{
		cfg:          cfg,
		reconciler:   rec,
		builder:      b,
		overrideRepo: overrideRepo,
		runRepo:      runRepo,
	}
}

// RunCycle executes one synchronization cycle. Only one cycle runs at a
// time; a second caller gets ErrSyncInProgress instead of queueing.
func (s *SyncService) RunCycle(ctx context.Context) (*models.ChangeSummary, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, utils.ErrSyncInProgress
	}
	defer s.running.Store(false)

	startedAt := time.Now()
	summary, err := s.runOnce(ctx)

	run := &models.SyncRun{
		Mode:       models.RunModeReconcile,
		Status:     models.RunStatusSuccess,
		StartedAt:  startedAt,
		FinishedAt: time.Now(),
	}
	if summary != nil {
		run.Mode = summary.Mode
		run.Added = len(summary.AddedIDs) + summary.Built
		run.Removed = len(summary.RemovedIDs)
		run.PriceChanged = len(summary.PriceChangedIDs)
		run.DescriptionChanged = len(summary.DescriptionChangedIDs)
		run.OverridesApplied = summary.OverridesApplied
	}
	if err != nil {
		run.Status = models.RunStatusFailed
		run.Error = err.Error()
	}
	if s.runRepo != nil {
		if recErr := s.runRepo.Create(run); recErr != nil {
			log.Error().Err(recErr).Msg("failed to record sync run")
		}
	}

	if err != nil {
		return nil, err
	}
	log.Info().
		Str("mode", string(summary.Mode)).
		Int("added", run.Added).
		Int("removed", run.Removed).
		Int("price_changed", run.PriceChanged).
		Int("description_changed", run.DescriptionChanged).
		Int("overrides_applied", run.OverridesApplied).
		Dur("took", run.FinishedAt.Sub(run.StartedAt)).
		Msg("sync cycle finished")
	return summary, nil
}

func (s *SyncService) runOnce(ctx context.Context) (*models.ChangeSummary, error) {
	if catalog.Exists(s.cfg.Path) {
		return s.reconcile(ctx)
	}
	log.Info().Str("path", s.cfg.Path).Msg("no catalog document, building from scratch")
	return s.build(ctx)
}

func (s *SyncService) reconcile(ctx context.Context) (*models.ChangeSummary, error) {
	newRecords, err := snapshot.Read(s.cfg.SnapshotNew)
	if err != nil {
		return nil, fmt.Errorf("read current snapshot: %w", err)
	}
	// Right after a from-scratch build there is no previous snapshot yet.
	// Comparing against an empty one routes every current row through the
	// added path, which reprices existing entries, and archives nothing.
	var oldRecords []models.ProductRecord
	if catalog.Exists(s.cfg.SnapshotOld) {
		oldRecords, err = snapshot.Read(s.cfg.SnapshotOld)
		if err != nil {
			return nil, fmt.Errorf("read previous snapshot: %w", err)
		}
	} else {
		log.Warn().Str("path", s.cfg.SnapshotOld).Msg("no previous snapshot, comparing against empty")
	}

	doc, err := catalog.Load(s.cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	plan := differ.Diff(oldRecords, newRecords)
	if _, err := s.reconciler.Apply(ctx, doc, plan); err != nil {
		return nil, fmt.Errorf("reconcile catalog: %w", err)
	}

	applied, err := s.applyOverrides(doc)
	if err != nil {
		return nil, err
	}

	if err := doc.Save(); err != nil {
		return nil, err
	}

	summary := &models.ChangeSummary{
		Mode:             models.RunModeReconcile,
		OverridesApplied: applied,
	}
	for _, r := range plan.Added {
		summary.AddedIDs = append(summary.AddedIDs, r.ID)
	}
	for _, r := range plan.Removed {
		summary.RemovedIDs = append(summary.RemovedIDs, r.ID)
	}
	for _, ch := range plan.PriceChanged {
		summary.PriceChangedIDs = append(summary.PriceChangedIDs, ch.New.ID)
	}
	for _, ch := range plan.DescriptionChanged {
		summary.DescriptionChangedIDs = append(summary.DescriptionChangedIDs, ch.New.ID)
	}
	return summary, nil
}

func (s *SyncService) build(ctx context.Context) (*models.ChangeSummary, error) {
	records, err := snapshot.Read(s.cfg.SnapshotNew)
	if err != nil {
		return nil, fmt.Errorf("read current snapshot: %w", err)
	}

	entries, skipped, err := s.builder.BuildAll(ctx, records)
	if err != nil {
		return nil, fmt.Errorf("build catalog: %w", err)
	}

	doc := catalog.New(s.cfg.Path, s.cfg.ShopName)
	doc.Catalog.Shop.Offers = entries

	applied, err := s.applyOverrides(doc)
	if err != nil {
		return nil, err
	}

	if err := doc.Save(); err != nil {
		return nil, err
	}

	return &models.ChangeSummary{
		Mode:             models.RunModeBuild,
		Built:            len(entries),
		Skipped:          skipped,
		OverridesApplied: applied,
	}, nil
}

func (s *SyncService) applyOverrides(doc *catalog.Document) (int, error) {
	if s.overrideRepo == nil {
		return 0, nil
	}
	stored, err := s.overrideRepo.GetAll()
	if err != nil {
		return 0, fmt.Errorf("load overrides: %w", err)
	}
	actions := overrides.Apply(doc, repository.PriceByID(stored))
	return len(actions), nil
}
