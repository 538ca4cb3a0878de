// Package differ computes the edit plan between two successive snapshots.
// The join key is the product identifier; equality on price and description
// is exact, with no normalization.
package differ

import (
	"sort"

	"github.com/smart-dostup/marketsync/internal/models"
)

// Diff compares the old and new snapshots and returns the four disjoint
// change sets. Duplicate identifiers within one snapshot are resolved
// deterministically: the last occurrence wins.
func Diff(oldRecords, newRecords []models.ProductRecord) *models.EditPlan {
	oldByID := index(oldRecords)
	newByID := index(newRecords)

	plan := &models.EditPlan{}

	for _, id := range sortedIDs(newByID) {
		record := newByID[id]
		previous, existed := oldByID[id]
		if !existed {
			plan.Added = append(plan.Added, record)
			continue
		}
		if record.Price != previous.Price {
			plan.PriceChanged = append(plan.PriceChanged, models.RecordChange{
				New:      record,
				OldPrice: previous.Price,
				OldDesc:  previous.Description,
			})
		}
		if record.Description != previous.Description {
			plan.DescriptionChanged = append(plan.DescriptionChanged, models.RecordChange{
				New:      record,
				OldPrice: previous.Price,
				OldDesc:  previous.Description,
			})
		}
	}

	for _, id := range sortedIDs(oldByID) {
		if _, stillThere := newByID[id]; !stillThere {
			plan.Removed = append(plan.Removed, oldByID[id])
		}
	}

	return plan
}

func index(records []models.ProductRecord) map[string]models.ProductRecord {
	m := make(map[string]models.ProductRecord, len(records))
	for _, r := range records {
		m[r.ID] = r
	}
	return m
}

func sortedIDs(m map[string]models.ProductRecord) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
