// Package reconciler applies an edit plan to the catalog document. Removed
// products are archived at the sentinel price rather than deleted, returning
// products are reactivated, and changed fields are updated in place. The
// reconciler holds no state of its own: it transforms (document, plan) into
// (document, action log).
package reconciler

import (
	"context"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/smart-dostup/marketsync/internal/catalog"
	"github.com/smart-dostup/marketsync/internal/models"
	"github.com/smart-dostup/marketsync/internal/pricing"
)

// EntryBuilder assembles a complete catalog entry for a genuinely new
// product record. A nil entry with a nil error means the record was filtered
// out as not sellable.
type EntryBuilder interface {
	BuildEntry(ctx context.Context, record models.ProductRecord) (*models.Entry, error)
}

// Action is one audited entry mutation.
type Action struct {
	ProductID string `json:"id"`
	Field     string `json:"field"`
	Old       string `json:"old"`
	New       string `json:"new"`
}

// Reconciler drives plan application with a pricing table and, for new
// identifiers, the builder's single-item enrichment path.
type Reconciler struct {
	table   *pricing.Table
	builder EntryBuilder
}

// New constructs a Reconciler.
func New(table *pricing.Table, builder EntryBuilder) *Reconciler {
	return &Reconciler{table: table, builder: builder}
}

// Apply mutates doc according to plan and returns the audit log of actions
// taken. Application order is fixed: archiving, reactivation/creation, price
// updates, description updates, then the consistency repair pass. Each
// entry's mutation is applied to an in-memory copy and written back in one
// assignment; nothing reaches disk here.
func (r *Reconciler) Apply(ctx context.Context, doc *catalog.Document, plan *models.EditPlan) ([]Action, error) {
	var actions []Action

	actions = append(actions, r.archiveRemoved(doc, plan.Removed)...)

	added, err := r.applyAdded(ctx, doc, plan.Added)
	if err != nil {
		return actions, err
	}
	actions = append(actions, added...)

	actions = append(actions, r.updatePrices(doc, plan.PriceChanged)...)
	actions = append(actions, r.updateDescriptions(doc, plan.DescriptionChanged)...)
	actions = append(actions, r.repairFlags(doc)...)

	return actions, nil
}

func (r *Reconciler) archiveRemoved(doc *catalog.Document, removed []models.ProductRecord) []Action {
	var actions []Action
	for _, record := range removed {
		i := doc.Catalog.Shop.Entry(record.ID)
		if i < 0 {
			continue
		}
		entry := doc.Catalog.Shop.Offers[i]
		if entry.IsArchived() {
			continue
		}

		oldPrice := entry.Price
		entry.Archive()
		doc.Catalog.Shop.Offers[i] = entry

		actions = append(actions, logged(record.ID, "price", oldPrice, entry.Price))
		actions = append(actions, logged(record.ID, "archived", "false", "true"))
		actions = append(actions, logged(record.ID, "disabled", "false", "true"))
	}
	return actions
}

func (r *Reconciler) applyAdded(ctx context.Context, doc *catalog.Document, added []models.ProductRecord) ([]Action, error) {
	var actions []Action
	for _, record := range added {
		if err := ctx.Err(); err != nil {
			return actions, err
		}

		i := doc.Catalog.Shop.Entry(record.ID)
		if i >= 0 {
			actions = append(actions, r.reactivate(doc, i, record)...)
			continue
		}

		entry, err := r.builder.BuildEntry(ctx, record)
		if err != nil {
			// A single failed build never aborts the plan; the identifier
			// simply stays out of the catalog until a later cycle.
			log.Error().Err(err).Str("product_id", record.ID).Msg("entry build failed, skipping")
			continue
		}
		if entry == nil {
			log.Info().Str("product_id", record.ID).Msg("record filtered, no entry created")
			continue
		}

		doc.Catalog.Shop.Offers = append(doc.Catalog.Shop.Offers, *entry)
		actions = append(actions, logged(record.ID, "entry", "", "created"))
	}
	return actions, nil
}

// reactivate returns an archived entry to sale with a freshly computed price
// and, when supplied, the new description. A still-active entry that shows
// up as "added" (snapshot gap) is treated the same way minus the flag flip.
func (r *Reconciler) reactivate(doc *catalog.Document, i int, record models.ProductRecord) []Action {
	var actions []Action
	entry := doc.Catalog.Shop.Offers[i]

	price, err := r.table.Price(record.Price)
	if err != nil {
		log.Error().Err(err).Str("product_id", record.ID).Msg("cannot price returning entry")
		return nil
	}

	if entry.IsArchived() {
		entry.Reactivate()
		actions = append(actions, logged(record.ID, "archived", "true", "false"))
		actions = append(actions, logged(record.ID, "disabled", "true", "false"))
	}

	if newPrice := pricing.Format(price); entry.Price != newPrice {
		actions = append(actions, logged(record.ID, "price", entry.Price, newPrice))
		entry.Price = newPrice
	}
	if record.Description != "" && entry.Description != record.Description {
		actions = append(actions, logged(record.ID, "description", entry.Description, record.Description))
		entry.Description = record.Description
	}

	doc.Catalog.Shop.Offers[i] = entry
	return actions
}

func (r *Reconciler) updatePrices(doc *catalog.Document, changes []models.RecordChange) []Action {
	var actions []Action
	for _, change := range changes {
		i := doc.Catalog.Shop.Entry(change.New.ID)
		if i < 0 {
			continue
		}

		price, err := r.table.Price(change.New.Price)
		if err != nil {
			log.Error().Err(err).Str("product_id", change.New.ID).Msg("cannot price changed entry")
			continue
		}

		entry := doc.Catalog.Shop.Offers[i]
		newPrice := pricing.Format(price)
		if entry.Price == newPrice {
			continue
		}

		actions = append(actions, logged(change.New.ID, "price", entry.Price, newPrice))
		entry.Price = newPrice
		doc.Catalog.Shop.Offers[i] = entry
	}
	return actions
}

func (r *Reconciler) updateDescriptions(doc *catalog.Document, changes []models.RecordChange) []Action {
	var actions []Action
	for _, change := range changes {
		i := doc.Catalog.Shop.Entry(change.New.ID)
		if i < 0 {
			continue
		}

		entry := doc.Catalog.Shop.Offers[i]
		if entry.Description == change.New.Description {
			continue
		}

		actions = append(actions, logged(change.New.ID, "description", entry.Description, change.New.Description))
		entry.Description = change.New.Description
		doc.Catalog.Shop.Offers[i] = entry
	}
	return actions
}

// repairFlags closes the drift window left by partial prior updates: any
// entry sitting at the sentinel price must carry both withdrawn flags.
func (r *Reconciler) repairFlags(doc *catalog.Document) []Action {
	var actions []Action
	for i := range doc.Catalog.Shop.Offers {
		entry := doc.Catalog.Shop.Offers[i]
		if !atSentinel(entry.Price) || entry.IsArchived() {
			continue
		}

		if !entry.Archived {
			actions = append(actions, logged(entry.ID, "archived", "false", "true"))
		}
		if !entry.Disabled {
			actions = append(actions, logged(entry.ID, "disabled", "false", "true"))
		}
		entry.Archived = true
		entry.Disabled = true
		doc.Catalog.Shop.Offers[i] = entry
	}
	return actions
}

func atSentinel(price string) bool {
	v, err := strconv.ParseFloat(price, 64)
	return err == nil && v == 100
}

func logged(id, field, oldValue, newValue string) Action {
	log.Info().
		Str("product_id", id).
		Str("field", field).
		Str("old", oldValue).
		Str("new", newValue).
		Msg("catalog entry updated")
	return Action{ProductID: id, Field: field, Old: oldValue, New: newValue}
}
