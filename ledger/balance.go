/*
balance.go - Derived balance figures for a (base, asset type, window) selection

PURPOSE:
  Computes the dashboard statistics from the movement history. Nothing
  here is stored: every figure is replayed from ledger records on demand,
  so the numbers can never drift from the audit trail.

ALGORITHM:
  Within the window:
    purchases   = sum quantity over Purchase records
    transferIn  = sum quantity over TransferIn records
    transferOut = sum quantity over TransferOut records
    assigned    = sum quantity over Assignment records
    expended    = sum quantity over Expenditure records
    net         = purchases + transferIn - transferOut   (signed)
  Before the window:
    opening     = running inventory total immediately before the window
                  starts; zero when the query has no window (the full
                  history IS the window).
  closing       = opening + net - assigned - expended

  A negative net or closing balance is a valid, reportable state - it
  signals an upstream data-entry anomaly the presentation layer flags.
  The engine never clamps.
*/
package ledger

import (
	"context"
	"time"
)

// BalanceQuery selects the records that feed a balance computation.
// Zero-valued fields are unconstrained.
type BalanceQuery struct {
	AssetType string
	Base      string
	From      time.Time
	To        time.Time
}

// NetMovement is the in-window breakdown of balance-moving quantities.
type NetMovement struct {
	Purchases   int64 `json:"purchases"`
	TransferIn  int64 `json:"transferIn"`
	TransferOut int64 `json:"transferOut"`
}

// Net is purchases + transferIn - transferOut. Signed: outbound transfers
// can exceed inbound plus purchased within a window.
func (n NetMovement) Net() int64 {
	return n.Purchases + n.TransferIn - n.TransferOut
}

// BalanceResult holds the derived figures for one query. An empty window
// yields all zeroes, never an error.
type BalanceResult struct {
	OpeningBalance int64       `json:"openingBalance"`
	ClosingBalance int64       `json:"closingBalance"`
	Assigned       int64       `json:"assigned"`
	Expended       int64       `json:"expended"`
	NetMovement    NetMovement `json:"netMovement"`
}

// BalanceEngine computes balance figures from store queries.
type BalanceEngine struct {
	store Store
}

func NewBalanceEngine(store Store) *BalanceEngine {
	return &BalanceEngine{store: store}
}

// Compute derives the balance figures for q from the movement history.
func (e *BalanceEngine) Compute(ctx context.Context, q BalanceQuery) (BalanceResult, error) {
	window, err := e.store.Query(ctx, Filter{
		AssetType: q.AssetType,
		Base:      q.Base,
		From:      q.From,
		To:        q.To,
	})
	if err != nil {
		return BalanceResult{}, err
	}

	var result BalanceResult
	tallyInto(&result, window)

	// Opening balance: the running total strictly before the window. With
	// no lower bound the full history is the window and opening is zero.
	if !q.From.IsZero() {
		prior, err := e.store.Query(ctx, Filter{
			AssetType: q.AssetType,
			Base:      q.Base,
			Before:    q.From,
		})
		if err != nil {
			return BalanceResult{}, err
		}
		var before BalanceResult
		tallyInto(&before, prior)
		result.OpeningBalance = before.NetMovement.Net() - before.Assigned - before.Expended
	}

	result.ClosingBalance = result.OpeningBalance + result.NetMovement.Net() - result.Assigned - result.Expended
	return result, nil
}

func tallyInto(r *BalanceResult, records []MovementRecord) {
	for _, rec := range records {
		switch rec.Kind {
		case KindPurchase:
			r.NetMovement.Purchases += rec.Quantity
		case KindTransferIn:
			r.NetMovement.TransferIn += rec.Quantity
		case KindTransferOut:
			r.NetMovement.TransferOut += rec.Quantity
		case KindAssignment:
			r.Assigned += rec.Quantity
		case KindExpenditure:
			r.Expended += rec.Quantity
		}
	}
}
