// Package builder turns raw price-list rows into marketplace offer entries.
// Each row goes through enrichment, image search and markup pricing; a full
// catalog build fans rows out over a worker pool because both collaborators
// are network-bound.
package builder

import (
	"context"
	"fmt"
	"html"
	"runtime"
	"strings"
	"unicode"

	"github.com/rs/zerolog/log"

	"github.com/smart-dostup/marketsync/internal/errs"
	"github.com/smart-dostup/marketsync/internal/models"
	"github.com/smart-dostup/marketsync/internal/pricing"
	"github.com/smart-dostup/marketsync/pkg/assistant"
)

// ExclusionKeyword marks rows that must never become offers. The supplier
// uses it for trade-in stock.
const ExclusionKeyword = "обменка"

// Enricher produces structured product attributes from a raw description.
type Enricher interface {
	Enrich(ctx context.Context, description string) (*assistant.ProductDetails, error)
}

// ImageFinder returns photo URLs for a product query.
type ImageFinder interface {
	Search(ctx context.Context, query string) ([]string, error)
}

// Builder assembles catalog entries from product records.
type Builder struct {
	table    *pricing.Table
	enricher Enricher
	images   ImageFinder
	workers  int
}

// New constructs a Builder. A zero workers value picks a pool size from the
// CPU count; the work is I/O bound so small machines get a wider pool.
func New(table *pricing.Table, enricher Enricher, images ImageFinder, workers int) *Builder {
	if workers <= 0 {
		cores := runtime.NumCPU()
		if cores <= 4 {
			workers = cores * 4
		} else {
			workers = cores * 2
		}
	}
	return &Builder{
		table:    table,
		enricher: enricher,
		images:   images,
		workers:  workers,
	}
}

// BuildEntry assembles one offer from a product record. A nil entry with a
// nil error means the record is excluded on purpose and must leave no trace
// in the catalog.
func (b *Builder) BuildEntry(ctx context.Context, record models.ProductRecord) (*models.Entry, error) {
	if strings.Contains(strings.ToLower(record.Description), ExclusionKeyword) {
		log.Info().Str("product_id", record.ID).Msg("record excluded by keyword")
		return nil, nil
	}

	price, err := b.table.Price(record.Price)
	if err != nil {
		return nil, fmt.Errorf("price product %s: %w", record.ID, err)
	}

	details, err := b.enricher.Enrich(ctx, record.Description)
	if err != nil {
		return nil, &errs.EnrichmentError{ProductID: record.ID, Err: err}
	}

	plainDesc := html.UnescapeString(record.Description)

	entry := &models.Entry{
		ID:              record.ID,
		Name:            fallback(details.Name, plainDesc),
		Vendor:          fallback(details.Vendor, extractVendor(plainDesc)),
		Count:           models.DefaultCount,
		Archived:        false,
		Disabled:        false,
		Price:           pricing.Format(price),
		CategoryID:      fallback(details.CategoryID, models.DefaultCategoryID),
		CurrencyID:      models.CurrencyRUR,
		Description:     fallback(details.Description, plainDesc),
		WarrantyDays:    models.WarrantyOneYear,
		ServiceLifeDays: models.WarrantyOneYear,
		Dimensions:      fallback(details.Dimensions, models.DefaultDimensions),
		Weight:          fallback(details.Weight, models.DefaultWeight),
	}

	query := fallback(details.Name, record.Description)
	pictures, err := b.images.Search(ctx, query)
	if err != nil {
		// A card without photos is still sellable.
		log.Warn().Str("product_id", record.ID).Err(err).Msg("image search failed")
	}
	entry.Pictures = pictures

	return entry, nil
}

// Result pairs a built entry with its position in the source snapshot so the
// catalog keeps the supplier's ordering.
type result struct {
	index int
	entry *models.Entry
}

// BuildAll assembles offers for every record using the worker pool. Rows that
// fail stay out of the catalog and are counted in skipped; the returned
// entries keep the input order. Excluded rows are not counted as skipped.
func (b *Builder) BuildAll(ctx context.Context, records []models.ProductRecord) (entries []models.Entry, skipped int, err error) {
	jobs := make(chan int)
	results := make(chan result)
	done := make(chan struct{})

	byIndex := make([]*models.Entry, len(records))
	go func() {
		defer close(done)
		for res := range results {
			byIndex[res.index] = res.entry
		}
	}()

	var failures int
	failuresCh := make(chan int, b.workers)
	for w := 0; w < b.workers; w++ {
		go func() {
			var failed int
			for idx := range jobs {
				record := records[idx]
				entry, buildErr := b.BuildEntry(ctx, record)
				if buildErr != nil {
					log.Error().Str("product_id", record.ID).Err(buildErr).Msg("failed to build offer")
					failed++
					continue
				}
				if entry == nil {
					continue
				}
				results <- result{index: idx, entry: entry}
			}
			failuresCh <- failed
		}()
	}

	for idx := range records {
		select {
		case <-ctx.Done():
			close(jobs)
			for w := 0; w < b.workers; w++ {
				failures += <-failuresCh
			}
			close(results)
			<-done
			return nil, 0, ctx.Err()
		case jobs <- idx:
		}
	}
	close(jobs)
	for w := 0; w < b.workers; w++ {
		failures += <-failuresCh
	}
	close(results)
	<-done

	entries = make([]models.Entry, 0, len(records))
	for _, entry := range byIndex {
		if entry != nil {
			entries = append(entries, *entry)
		}
	}
	return entries, failures, nil
}

func fallback(value, alt string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return alt
}

// extractVendor guesses the brand as the first purely alphabetic word of the
// description. Words ending in a period are unit abbreviations, not brands.
func extractVendor(description string) string {
	for _, word := range strings.Fields(description) {
		if strings.HasSuffix(word, ".") {
			continue
		}
		if isAlpha(word) {
			return word
		}
	}
	return "NULL"
}

func isAlpha(word string) bool {
	if word == "" {
		return false
	}
	for _, r := range word {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
