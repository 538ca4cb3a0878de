package repository

import (
	"github.com/jmoiron/sqlx"

	"github.com/smart-dostup/marketsync/internal/models"
)

// RunRepository stores the audit trail of sync cycles.
type RunRepository struct {
	db *sqlx.DB
}

// NewRunRepository creates a new RunRepository.
func NewRunRepository(db *sqlx.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a finished run record and fills in its id.
func (r *RunRepository) Create(run *models.SyncRun) error {
	const q = `
		INSERT INTO sync_runs (
			mode, status, added, removed, price_changed,
			description_changed, overrides_applied, error, started_at, finished_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`
	return r.db.QueryRow(q,
		run.Mode,
		run.Status,
		run.Added,
		run.Removed,
		run.PriceChanged,
		run.DescriptionChanged,
		run.OverridesApplied,
		run.Error,
		run.StartedAt,
		run.FinishedAt,
	).Scan(&run.ID)
}

// ListRecent returns the latest runs, newest first.
func (r *RunRepository) ListRecent(limit int) ([]models.SyncRun, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
		SELECT id, mode, status, added, removed, price_changed,
		       description_changed, overrides_applied, error, started_at, finished_at
		FROM sync_runs
		ORDER BY started_at DESC
		LIMIT $1`
	var runs []models.SyncRun
	if err := r.db.Select(&runs, q, limit); err != nil {
		return nil, err
	}
	return runs, nil
}
