// Package store provides an in-memory ledger.Store for tests and development.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/asset-ledger/ledger"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory keeps records in a single slice maintained newest-first. A pair
// append happens entirely under one lock, so readers can never observe a
// lone transfer leg.
type Memory struct {
	mu      sync.RWMutex
	records []ledger.MovementRecord
	byID    map[string]ledger.MovementRecord
}

func NewMemory() *Memory {
	return &Memory{byID: make(map[string]ledger.MovementRecord)}
}

// Append adds a single record. Append-only.
func (m *Memory) Append(_ context.Context, rec ledger.MovementRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appendLocked(rec)
}

// AppendPair adds both transfer legs under one lock acquisition.
func (m *Memory) AppendPair(_ context.Context, out, in ledger.MovementRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, dup := m.byID[out.ID]; dup {
		return ledger.ErrConflict
	}
	if _, dup := m.byID[in.ID]; dup {
		return ledger.ErrConflict
	}
	if err := m.appendLocked(out); err != nil {
		return err
	}
	return m.appendLocked(in)
}

func (m *Memory) appendLocked(rec ledger.MovementRecord) error {
	if _, dup := m.byID[rec.ID]; dup {
		return ledger.ErrConflict
	}

	// Binary search for the insertion point in the newest-first order,
	// ties broken by ID descending for deterministic repeated queries.
	i := sort.Search(len(m.records), func(i int) bool {
		existing := m.records[i]
		if !existing.CreatedAt.Equal(rec.CreatedAt) {
			return existing.CreatedAt.Before(rec.CreatedAt)
		}
		return existing.ID < rec.ID
	})

	m.records = append(m.records, ledger.MovementRecord{})
	copy(m.records[i+1:], m.records[i:])
	m.records[i] = rec

	// The map holds the record itself, not a slice index: insertion
	// shifts indices, and records are immutable anyway.
	m.byID[rec.ID] = rec
	return nil
}

// Query returns matching records, newest first.
func (m *Memory) Query(_ context.Context, f ledger.Filter) ([]ledger.MovementRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []ledger.MovementRecord
	for _, r := range m.records {
		if f.Matches(r) {
			result = append(result, r)
		}
	}
	return result, nil
}

// Get returns one record by id, or ledger.ErrNotFound.
func (m *Memory) Get(_ context.Context, id string) (ledger.MovementRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.byID[id]
	if !ok {
		return ledger.MovementRecord{}, ledger.ErrNotFound
	}
	return rec, nil
}
