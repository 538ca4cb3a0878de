// Package errs defines the error taxonomy of the sync engine. Cycle-fatal
// conditions (malformed snapshot, persistence failure) abort before any
// catalog write; per-item conditions (enrichment, image search) are recovered
// with fallbacks and only logged.
package errs

import (
	"fmt"
	"time"
)

// MalformedSnapshotError reports a snapshot that cannot drive a cycle:
// missing required column or an empty identifier. Fatal for the cycle.
type MalformedSnapshotError struct {
	Path   string
	Reason string
}

func (e *MalformedSnapshotError) Error() string {
	return fmt.Sprintf("malformed snapshot %s: %s", e.Path, e.Reason)
}

// EnrichmentError reports a failed text-enrichment call for a single item.
// Recovered by deterministic local fallbacks.
type EnrichmentError struct {
	ProductID string
	Err       error
}

func (e *EnrichmentError) Error() string {
	return fmt.Sprintf("enrichment failed for %s: %v", e.ProductID, e.Err)
}

func (e *EnrichmentError) Unwrap() error { return e.Err }

// ImageSearchError reports a failed image lookup for a single item.
// Recovered by leaving the picture list short or empty.
type ImageSearchError struct {
	Query string
	Err   error
}

func (e *ImageSearchError) Error() string {
	return fmt.Sprintf("image search failed for %q: %v", e.Query, e.Err)
}

func (e *ImageSearchError) Unwrap() error { return e.Err }

// RateLimitedError marks a rate-limit class response from an external
// collaborator. Callers retry with exponential backoff up to a bounded
// attempt count; other failures are terminal for the item.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
	}
	return "rate limited"
}

// PersistenceError reports a failed catalog document write. Fatal for the
// cycle; the previously persisted document stays intact.
type PersistenceError struct {
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("cannot persist %s: %v", e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
