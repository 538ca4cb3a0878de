// Package overrides layers manually authored prices on top of the
// reconciled catalog. Override values are literal strings written verbatim,
// bypassing the pricing engine, and application is idempotent.
package overrides

import (
	"github.com/rs/zerolog/log"

	"github.com/smart-dostup/marketsync/internal/catalog"
	"github.com/smart-dostup/marketsync/internal/reconciler"
)

// Apply sets the price of every catalog entry whose identifier appears in
// the map, returning one action per entry actually changed. Overrides for
// identifiers not present in the catalog are ignored; they become effective
// once the identifier appears.
func Apply(doc *catalog.Document, priceByID map[string]string) []reconciler.Action {
	if len(priceByID) == 0 {
		return nil
	}

	var actions []reconciler.Action
	for i := range doc.Catalog.Shop.Offers {
		entry := doc.Catalog.Shop.Offers[i]
		price, ok := priceByID[entry.ID]
		if !ok || entry.Price == price {
			continue
		}

		log.Info().
			Str("product_id", entry.ID).
			Str("old", entry.Price).
			Str("new", price).
			Msg("manual price override applied")

		actions = append(actions, reconciler.Action{
			ProductID: entry.ID,
			Field:     "price",
			Old:       entry.Price,
			New:       price,
		})
		entry.Price = price
		doc.Catalog.Shop.Offers[i] = entry
	}
	return actions
}
