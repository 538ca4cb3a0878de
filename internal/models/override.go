package models

import "time"

// Override is a manually authored price for a single identifier. The price
// is a literal decimal string applied verbatim to the catalog entry, with no
// recomputation through the pricing engine. Overrides for identifiers that
// are not (yet) in the catalog are inert, not invalid.
type Override struct {
	ProductID string    `db:"product_id" json:"id"`
	Price     string    `db:"price" json:"price"`
	CreatedAt time.Time `db:"created_at" json:"-"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}
