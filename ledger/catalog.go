/*
catalog.go - Derived catalog of known asset types and bases

PURPOSE:
  The single source of truth for which asset types and bases "exist".
  Both sets are projections over the movement history - a base or type
  is known once a successful movement has referenced it, and only then.
  The catalog populates the UI's selection controls and backs the
  engine's existence checks for incoming requests, which keeps free-text
  values from drifting unbounded.

CACHING:
  The scan over the history is cached and invalidated on every
  successful append. Rebuilds are lazy: the next read after an
  invalidation performs the scan. Safe for concurrent use.
*/
package ledger

import (
	"context"
	"sort"
	"sync"
)

// Catalog derives the known asset-type and base sets from the store.
type Catalog struct {
	store Store

	mu    sync.RWMutex
	types map[string]struct{}
	bases map[string]struct{}
	valid bool
}

func NewCatalog(store Store) *Catalog {
	return &Catalog{store: store}
}

// Invalidate drops the cached sets. Called after every successful append.
func (c *Catalog) Invalidate() {
	c.mu.Lock()
	c.valid = false
	c.mu.Unlock()
}

// KnownTypes returns the distinct asset types across all records, sorted.
func (c *Catalog) KnownTypes(ctx context.Context) ([]string, error) {
	if err := c.ensure(ctx); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return sortedKeys(c.types), nil
}

// KnownBases returns the distinct bases across all records, sorted.
// Both sides of a transfer count: a base that has only ever received
// is still known.
func (c *Catalog) KnownBases(ctx context.Context) ([]string, error) {
	if err := c.ensure(ctx); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return sortedKeys(c.bases), nil
}

// HasType reports whether the asset type appears in the history.
func (c *Catalog) HasType(ctx context.Context, assetType string) (bool, error) {
	if err := c.ensure(ctx); err != nil {
		return false, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.types[assetType]
	return ok, nil
}

// HasBase reports whether the base appears in the history.
func (c *Catalog) HasBase(ctx context.Context, base string) (bool, error) {
	if err := c.ensure(ctx); err != nil {
		return false, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.bases[base]
	return ok, nil
}

func (c *Catalog) ensure(ctx context.Context) error {
	c.mu.RLock()
	valid := c.valid
	c.mu.RUnlock()
	if valid {
		return nil
	}

	records, err := c.store.Query(ctx, Filter{})
	if err != nil {
		return err
	}

	types := make(map[string]struct{})
	bases := make(map[string]struct{})
	for _, r := range records {
		types[r.AssetType] = struct{}{}
		bases[r.Base] = struct{}{}
		if r.CounterpartBase != "" {
			bases[r.CounterpartBase] = struct{}{}
		}
	}

	c.mu.Lock()
	c.types = types
	c.bases = bases
	c.valid = true
	c.mu.Unlock()
	return nil
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
