/*
ledger.go - Append-only movement log

PURPOSE:
  The Ledger is the immutable source of truth for all asset movements.
  Every purchase, transfer leg, assignment, and expenditure is recorded
  here. Balances are always computed by replaying records - there is no
  separate balance field that can get out of sync.

CRITICAL INVARIANTS:
  1. APPEND-ONLY: No Update, No Delete. EVER.
  2. IMMUTABLE: Once written, records cannot be modified.
  3. PAIRED TRANSFERS: The two legs of a transfer commit together or
     not at all; no reader ever sees exactly one.

CORRECTIONS:
  A data-entry mistake is not edited. An offsetting record is appended,
  both remain in the history, and the net effect is the correction.
*/
package ledger

import (
	"context"
	"fmt"
)

// Ledger wraps the Store with linkage checks for transfer pairs.
type Ledger struct {
	store Store
}

func NewLedger(store Store) *Ledger {
	return &Ledger{store: store}
}

// Append persists a single non-transfer record. Transfer legs must go
// through AppendPair so their linkage survives.
func (l *Ledger) Append(ctx context.Context, rec MovementRecord) error {
	if rec.Kind.IsTransferLeg() {
		return &ValidationError{Field: "kind", Reason: "transfer legs must be appended as a pair"}
	}
	return l.store.Append(ctx, rec)
}

// AppendPair persists a transfer pair atomically after verifying the legs
// are properly linked: shared transfer id, identical quantity and asset
// fields, reciprocal bases.
func (l *Ledger) AppendPair(ctx context.Context, out, in MovementRecord) error {
	if err := checkPair(out, in); err != nil {
		return err
	}
	if err := l.store.AppendPair(ctx, out, in); err != nil {
		return fmt.Errorf("append transfer pair: %w", err)
	}
	return nil
}

// Query returns matching records, newest first. Read-only and idempotent:
// identical filters without intervening appends return identical sequences.
func (l *Ledger) Query(ctx context.Context, f Filter) ([]MovementRecord, error) {
	return l.store.Query(ctx, f)
}

// Get returns one record by id, or ErrNotFound.
func (l *Ledger) Get(ctx context.Context, id string) (MovementRecord, error) {
	return l.store.Get(ctx, id)
}

func checkPair(out, in MovementRecord) error {
	switch {
	case out.Kind != KindTransferOut || in.Kind != KindTransferIn:
		return &ValidationError{Field: "kind", Reason: "pair must be one TransferOut and one TransferIn"}
	case out.TransferID == "" || out.TransferID != in.TransferID:
		return &ValidationError{Field: "transferId", Reason: "legs must share a transfer id"}
	case out.Quantity != in.Quantity:
		return &ValidationError{Field: "quantity", Reason: "legs must carry identical quantities"}
	case out.AssetType != in.AssetType || out.AssetName != in.AssetName:
		return &ValidationError{Field: "type", Reason: "legs must describe the same asset"}
	case out.Base != in.CounterpartBase || in.Base != out.CounterpartBase:
		return &ValidationError{Field: "base", Reason: "legs must name reciprocal bases"}
	}
	return nil
}
