package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"github.com/smart-dostup/marketsync/internal/builder"
	"github.com/smart-dostup/marketsync/internal/catalog"
	"github.com/smart-dostup/marketsync/internal/config"
	"github.com/smart-dostup/marketsync/internal/models"
	"github.com/smart-dostup/marketsync/internal/overrides"
	"github.com/smart-dostup/marketsync/internal/pricing"
	"github.com/smart-dostup/marketsync/internal/repository"
	"github.com/smart-dostup/marketsync/internal/snapshot"
	"github.com/smart-dostup/marketsync/internal/utils"
)

// DefaultRebuildLimit caps how many missing offers one rebuild call creates.
// Rebuilding goes through enrichment and image search, so unbounded batches
// would hammer both collaborators.
const DefaultRebuildLimit = 10

// CatalogService covers the operator-facing maintenance operations on the
// catalog document: snapshot export, targeted rebuilds and bulk repricing.
type CatalogService struct {
	cfg          config.CatalogConfig
	registry     *pricing.Registry
	builder      *builder.Builder
	overrideRepo OverrideStore
}

// NewCatalogService wires the maintenance operations.
func NewCatalogService(cfg config.CatalogConfig, registry *pricing.Registry, b *builder.Builder, overrideRepo OverrideStore) *CatalogService {
	return &CatalogService{cfg: cfg, registry: registry, builder: b, overrideRepo: overrideRepo}
}

// ExportSnapshot writes the active (non-archived) catalog entries to an XLSX
// file in the snapshot column layout. The file lands inside the configured
// export directory under the given name; names with path separators are
// rejected. Returns the written path and how many rows it wrote. The
// exported description column carries the offer name, which is what the
// supplier's list contains for the same product.
func (s *CatalogService) ExportSnapshot(name string) (string, int, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return "", 0, utils.ErrInvalidExportName
	}
	if !catalog.Exists(s.cfg.Path) {
		return "", 0, utils.ErrCatalogNotFound
	}
	doc, err := catalog.Load(s.cfg.Path)
	if err != nil {
		return "", 0, err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	if err := f.SetSheetRow(sheet, "A1", &[]string{
		snapshot.ColumnID, snapshot.ColumnDescription, snapshot.ColumnPrice,
	}); err != nil {
		return "", 0, err
	}

	row := 2
	for _, offer := range doc.Catalog.Shop.Offers {
		if offer.IsArchived() {
			continue
		}
		cell := fmt.Sprintf("A%d", row)
		if err := f.SetSheetRow(sheet, cell, &[]string{offer.ID, offer.Name, offer.Price}); err != nil {
			return "", 0, err
		}
		row++
	}

	if err := os.MkdirAll(s.cfg.ExportDir, 0o755); err != nil {
		return "", 0, fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(s.cfg.ExportDir, name)
	if err := f.SaveAs(path); err != nil {
		return "", 0, fmt.Errorf("save snapshot export: %w", err)
	}
	exported := row - 2
	log.Info().Str("path", path).Int("rows", exported).Msg("snapshot exported")
	return path, exported, nil
}

// RebuildMissing builds offers for snapshot rows that have no catalog entry,
// up to limit per call. It returns how many offers were created and how many
// missing rows remain.
func (s *CatalogService) RebuildMissing(ctx context.Context, limit int) (built, remaining int, err error) {
	if limit <= 0 {
		limit = DefaultRebuildLimit
	}
	if !catalog.Exists(s.cfg.Path) {
		return 0, 0, utils.ErrCatalogNotFound
	}

	records, err := snapshot.Read(s.cfg.SnapshotNew)
	if err != nil {
		return 0, 0, fmt.Errorf("read current snapshot: %w", err)
	}
	doc, err := catalog.Load(s.cfg.Path)
	if err != nil {
		return 0, 0, err
	}

	var missing []models.ProductRecord
	for _, record := range records {
		if doc.Catalog.Shop.Entry(record.ID) < 0 {
			missing = append(missing, record)
		}
	}
	if len(missing) == 0 {
		return 0, 0, nil
	}

	batch := missing
	if len(batch) > limit {
		batch = batch[:limit]
	}

	for _, record := range batch {
		entry, buildErr := s.builder.BuildEntry(ctx, record)
		if buildErr != nil {
			log.Error().Str("product_id", record.ID).Err(buildErr).Msg("failed to rebuild offer")
			continue
		}
		if entry == nil {
			continue
		}
		doc.Catalog.Shop.Offers = append(doc.Catalog.Shop.Offers, *entry)
		built++
	}

	if built > 0 {
		if err := doc.Save(); err != nil {
			return 0, 0, err
		}
	}
	remaining = len(missing) - len(batch)
	log.Info().Int("built", built).Int("remaining", remaining).Msg("missing offers rebuilt")
	return built, remaining, nil
}

// RepriceAll recomputes every active offer's price from the current snapshot
// costs using the named markup table, then reapplies the stored overrides so
// manual prices keep winning. Active offers whose id is absent from the
// snapshot are archived at the sentinel; already-archived offers are left
// untouched (reactivation is the sync cycle's job). Returns how many offers
// changed.
func (s *CatalogService) RepriceAll(tableName string) (int, error) {
	table, err := s.registry.Resolve(tableName)
	if err != nil {
		return 0, utils.ErrUnknownTable
	}
	if !catalog.Exists(s.cfg.Path) {
		return 0, utils.ErrCatalogNotFound
	}

	records, err := snapshot.Read(s.cfg.SnapshotNew)
	if err != nil {
		return 0, fmt.Errorf("read current snapshot: %w", err)
	}
	costByID := make(map[string]float64, len(records))
	for _, record := range records {
		costByID[record.ID] = record.Price
	}

	doc, err := catalog.Load(s.cfg.Path)
	if err != nil {
		return 0, err
	}

	changed := 0
	for i := range doc.Catalog.Shop.Offers {
		offer := &doc.Catalog.Shop.Offers[i]
		cost, ok := costByID[offer.ID]
		if !ok {
			if offer.IsArchived() {
				continue
			}
			log.Info().
				Str("product_id", offer.ID).
				Str("old", offer.Price).
				Msg("offer absent from snapshot, archived")
			offer.Archive()
			changed++
			continue
		}
		if offer.IsArchived() {
			continue
		}
		price, priceErr := table.Price(cost)
		if priceErr != nil {
			log.Warn().Str("product_id", offer.ID).Err(priceErr).Msg("skipping reprice")
			continue
		}
		formatted := pricing.Format(price)
		if offer.Price == formatted {
			continue
		}
		log.Info().
			Str("product_id", offer.ID).
			Str("old", offer.Price).
			Str("new", formatted).
			Msg("offer repriced")
		offer.Price = formatted
		changed++
	}

	if s.overrideRepo != nil {
		stored, err := s.overrideRepo.GetAll()
		if err != nil {
			return 0, fmt.Errorf("load overrides: %w", err)
		}
		changed += len(overrides.Apply(doc, repository.PriceByID(stored)))
	}

	if changed > 0 {
		if err := doc.Save(); err != nil {
			return 0, err
		}
	}
	return changed, nil
}
