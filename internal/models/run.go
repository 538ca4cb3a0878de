package models

import "time"

// RunStatus enumerates terminal states of a sync cycle.
type RunStatus string

const (
	RunStatusSuccess RunStatus = "success"
	RunStatusFailed  RunStatus = "failed"
)

// RunMode distinguishes incremental reconciliation from a full rebuild.
type RunMode string

const (
	RunModeReconcile RunMode = "reconcile"
	RunModeBuild     RunMode = "build"
)

// SyncRun is the persisted audit record of one sync cycle.
type SyncRun struct {
	ID                 int       `db:"id" json:"id"`
	Mode               RunMode   `db:"mode" json:"mode"`
	Status             RunStatus `db:"status" json:"status"`
	Added              int       `db:"added" json:"added"`
	Removed            int       `db:"removed" json:"removed"`
	PriceChanged       int       `db:"price_changed" json:"priceChanged"`
	DescriptionChanged int       `db:"description_changed" json:"descriptionChanged"`
	OverridesApplied   int       `db:"overrides_applied" json:"overridesApplied"`
	Error              string    `db:"error" json:"error,omitempty"`
	StartedAt          time.Time `db:"started_at" json:"startedAt"`
	FinishedAt         time.Time `db:"finished_at" json:"finishedAt"`
}

// ChangeSummary is the user-visible result of one sync cycle.
type ChangeSummary struct {
	Mode                  RunMode  `json:"mode"`
	AddedIDs              []string `json:"added,omitempty"`
	RemovedIDs            []string `json:"removed,omitempty"`
	PriceChangedIDs       []string `json:"priceChanged,omitempty"`
	DescriptionChangedIDs []string `json:"descriptionChanged,omitempty"`
	OverridesApplied      int      `json:"overridesApplied"`
	Built                 int      `json:"built,omitempty"`
	Skipped               int      `json:"skipped,omitempty"`
}
