package models

// ProductRecord is one row of a spreadsheet snapshot: the stable identifier,
// the free-text description, and the supplier cost price. Records are
// immutable once read; the next snapshot supersedes them.
type ProductRecord struct {
	ID          string
	Description string
	Price       float64
}

// EditPlan is the structured diff between two snapshots. The four sets are
// disjoint in the sense that an identifier appears in at most one of
// Added/Removed; Price/Description changes require presence in both
// snapshots.
type EditPlan struct {
	Added              []ProductRecord
	Removed            []ProductRecord
	PriceChanged       []RecordChange
	DescriptionChanged []RecordChange
}

// RecordChange pairs the new record with the superseded old values.
type RecordChange struct {
	New      ProductRecord
	OldPrice float64
	OldDesc  string
}

// Empty reports whether the plan contains no work.
func (p *EditPlan) Empty() bool {
	return len(p.Added) == 0 && len(p.Removed) == 0 &&
		len(p.PriceChanged) == 0 && len(p.DescriptionChanged) == 0
}
