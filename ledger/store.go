/*
store.go - Persistence interface for movement records

PURPOSE:
  Defines the interface between the engine and the record store. The
  store is append-only: no Update, no Delete, ever. Corrections are new
  offsetting records.

ATOMIC PAIRS:
  AppendPair persists the two legs of a transfer all-or-nothing. A
  concurrent reader must never observe exactly one leg: either both
  records are visible to a subsequent Query, or neither is.

IMPLEMENTATIONS:
  - ledger/store: in-memory, for tests and development
  - store/sqlite: production SQLite with WAL
*/
package ledger

import (
	"context"
	"time"
)

// Filter selects records for Query. Zero-valued fields are unconstrained.
// From and To bound CreatedAt inclusively; Before is a strict upper bound
// used by the balance engine for opening-balance aggregation.
type Filter struct {
	Kind      Kind
	AssetType string
	Base      string
	From      time.Time
	To        time.Time
	Before    time.Time
}

// Matches reports whether r satisfies every constrained field.
func (f Filter) Matches(r MovementRecord) bool {
	if f.Kind != "" && r.Kind != f.Kind {
		return false
	}
	if f.AssetType != "" && r.AssetType != f.AssetType {
		return false
	}
	if f.Base != "" && r.Base != f.Base {
		return false
	}
	if !f.From.IsZero() && r.CreatedAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && r.CreatedAt.After(f.To) {
		return false
	}
	if !f.Before.IsZero() && !r.CreatedAt.Before(f.Before) {
		return false
	}
	return true
}

// Store persists movement records. APPEND-ONLY: implementations expose no
// update or delete operations.
type Store interface {
	// Append persists a single record.
	Append(ctx context.Context, rec MovementRecord) error

	// AppendPair persists the two legs of a transfer atomically. Either
	// both records become visible or neither does; a partial failure is
	// reported as ErrConflict after rollback.
	AppendPair(ctx context.Context, out, in MovementRecord) error

	// Query returns records matching the filter, newest first. Records
	// sharing a timestamp order by ID descending so repeated queries are
	// identical. An empty result is a nil or empty slice, never an error.
	Query(ctx context.Context, f Filter) ([]MovementRecord, error)

	// Get returns the record with the given id, or ErrNotFound.
	Get(ctx context.Context, id string) (MovementRecord, error)
}
