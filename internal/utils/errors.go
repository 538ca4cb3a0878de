package utils

import "errors"

// Common application errors used across services.
var (
	ErrInvalidToken       = errors.New("INVALID_TOKEN")
	ErrInvalidCredentials = errors.New("INVALID_CREDENTIALS")
	ErrSyncInProgress     = errors.New("SYNC_IN_PROGRESS")
	ErrCatalogNotFound    = errors.New("CATALOG_NOT_FOUND")
	ErrSnapshotNotFound   = errors.New("SNAPSHOT_NOT_FOUND")
	ErrUnknownTable       = errors.New("UNKNOWN_PRICING_TABLE")
	ErrInvalidExportName  = errors.New("INVALID_EXPORT_NAME")
)
