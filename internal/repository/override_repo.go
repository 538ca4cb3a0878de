package repository

import (
	"github.com/jmoiron/sqlx"

	"github.com/smart-dostup/marketsync/internal/models"
)

// OverrideRepository provides access to the manual price override table.
type OverrideRepository struct {
	db *sqlx.DB
}

// NewOverrideRepository creates a new OverrideRepository.
func NewOverrideRepository(db *sqlx.DB) *OverrideRepository {
	return &OverrideRepository{db: db}
}

// GetAll returns every override ordered by product id.
func (r *OverrideRepository) GetAll() ([]models.Override, error) {
	const q = `
		SELECT product_id, price, created_at, updated_at
		FROM overrides
		ORDER BY product_id ASC`
	var overrides []models.Override
	if err := r.db.Select(&overrides, q); err != nil {
		return nil, err
	}
	return overrides, nil
}

// SetMany upserts a batch of overrides in a single transaction. Re-posting
// an existing override only refreshes its price.
func (r *OverrideRepository) SetMany(overrides []models.Override) error {
	if len(overrides) == 0 {
		return nil
	}
	const q = `
		INSERT INTO overrides (product_id, price)
		VALUES ($1, $2)
		ON CONFLICT (product_id)
		DO UPDATE SET price = EXCLUDED.price, updated_at = NOW()`

	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	for _, o := range overrides {
		if _, err := tx.Exec(q, o.ProductID, o.Price); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// DeleteOne removes the override for a product id. Returns true when a row
// was actually deleted.
func (r *OverrideRepository) DeleteOne(productID string) (bool, error) {
	res, err := r.db.Exec(`DELETE FROM overrides WHERE product_id = $1`, productID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteAll clears the override table and returns the number of rows removed.
func (r *OverrideRepository) DeleteAll() (int64, error) {
	res, err := r.db.Exec(`DELETE FROM overrides`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// PriceByID flattens the override list into the map consumed by the catalog
// apply step.
func PriceByID(overrides []models.Override) map[string]string {
	m := make(map[string]string, len(overrides))
	for _, o := range overrides {
		m[o.ProductID] = o.Price
	}
	return m
}
