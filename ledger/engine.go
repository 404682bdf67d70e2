/*
engine.go - Movement engine facade

PURPOSE:
  The one entry point the transport layer calls. Each movement request
  flows authorize -> validate -> append -> invalidate catalog; each read
  goes straight to the ledger or balance engine. The engine owns the
  catalog-existence rules that Authorize, being pure, cannot apply:

    - Purchases may introduce brand-new asset types and bases; this is
      how values enter the catalog at all.
    - Assignments and expenditures require a known base and asset type:
      there is nothing to assign or expend at a base with no history.
    - Admin transfers require a known source base.

  Commander base overrides reported by the policy are applied to the
  record here, before persistence, so a caller-supplied base can never
  leak into the store.
*/
package ledger

import (
	"context"

	"github.com/shopspring/decimal"
)

// Engine wires the policy, ledger, balance engine, and catalog together.
type Engine struct {
	ledger  *Ledger
	balance *BalanceEngine
	catalog *Catalog
}

func NewEngine(store Store) *Engine {
	return &Engine{
		ledger:  NewLedger(store),
		balance: NewBalanceEngine(store),
		catalog: NewCatalog(store),
	}
}

// Catalog exposes the filter catalog for read endpoints.
func (e *Engine) Catalog() *Catalog { return e.catalog }

// =============================================================================
// WRITE OPERATIONS
// =============================================================================

// PurchaseRequest records an acquisition of new stock at a base.
type PurchaseRequest struct {
	AssetName string
	AssetType string
	Quantity  int64
	Base      string
	UnitCost  decimal.Decimal
}

// RecordPurchase authorizes and appends one purchase record. Purchases are
// the entry path for new asset types and bases into the catalog.
func (e *Engine) RecordPurchase(ctx context.Context, actor Actor, req PurchaseRequest) (MovementRecord, error) {
	decision := Authorize(actor, ActionPurchase, ActionParams{Base: req.Base})
	if err := decision.Err(); err != nil {
		return MovementRecord{}, err
	}

	rec, err := NewMovement(MovementInput{
		Kind:      KindPurchase,
		AssetType: req.AssetType,
		AssetName: req.AssetName,
		Quantity:  req.Quantity,
		Base:      decision.Base,
		UnitCost:  req.UnitCost,
		Actor:     actor,
	})
	if err != nil {
		return MovementRecord{}, err
	}
	if err := e.ledger.Append(ctx, rec); err != nil {
		return MovementRecord{}, err
	}
	e.catalog.Invalidate()
	return rec, nil
}

// TransferRequest moves stock between two bases as one logical operation.
type TransferRequest struct {
	AssetName string
	AssetType string
	Quantity  int64
	FromBase  string
	ToBase    string
}

// RecordTransfer authorizes and appends the TransferOut/TransferIn pair
// atomically. The returned records are the out and in legs in that order.
func (e *Engine) RecordTransfer(ctx context.Context, actor Actor, req TransferRequest) (out, in MovementRecord, err error) {
	decision := Authorize(actor, ActionTransfer, ActionParams{FromBase: req.FromBase, ToBase: req.ToBase})
	if err := decision.Err(); err != nil {
		return MovementRecord{}, MovementRecord{}, err
	}

	if actor.Role == RoleAdmin {
		known, err := e.catalog.HasBase(ctx, decision.FromBase)
		if err != nil {
			return MovementRecord{}, MovementRecord{}, err
		}
		if !known {
			return MovementRecord{}, MovementRecord{}, &AuthorizationError{
				Reason: DenyUnknownBase,
				Detail: "source base has no movement history",
			}
		}
	}

	out, in, err = NewTransferPair(TransferInput{
		AssetType: req.AssetType,
		AssetName: req.AssetName,
		Quantity:  req.Quantity,
		FromBase:  decision.FromBase,
		ToBase:    decision.ToBase,
		Actor:     actor,
	})
	if err != nil {
		return MovementRecord{}, MovementRecord{}, err
	}
	if err := e.ledger.AppendPair(ctx, out, in); err != nil {
		return MovementRecord{}, MovementRecord{}, err
	}
	e.catalog.Invalidate()
	return out, in, nil
}

// AssignmentRequest hands stock at a base to named personnel.
type AssignmentRequest struct {
	AssetName  string
	AssetType  string
	Quantity   int64
	Base       string
	AssignedTo string
}

func (e *Engine) RecordAssignment(ctx context.Context, actor Actor, req AssignmentRequest) (MovementRecord, error) {
	decision := Authorize(actor, ActionAssignment, ActionParams{Base: req.Base})
	if err := decision.Err(); err != nil {
		return MovementRecord{}, err
	}
	if err := e.requireKnown(ctx, req.AssetType, decision.Base); err != nil {
		return MovementRecord{}, err
	}

	rec, err := NewMovement(MovementInput{
		Kind:       KindAssignment,
		AssetType:  req.AssetType,
		AssetName:  req.AssetName,
		Quantity:   req.Quantity,
		Base:       decision.Base,
		AssignedTo: req.AssignedTo,
		Actor:      actor,
	})
	if err != nil {
		return MovementRecord{}, err
	}
	if err := e.ledger.Append(ctx, rec); err != nil {
		return MovementRecord{}, err
	}
	e.catalog.Invalidate()
	return rec, nil
}

// ExpenditureRequest records stock at a base as consumed.
type ExpenditureRequest struct {
	AssetName  string
	AssetType  string
	Quantity   int64
	Base       string
	ExpendedBy string
}

func (e *Engine) RecordExpenditure(ctx context.Context, actor Actor, req ExpenditureRequest) (MovementRecord, error) {
	decision := Authorize(actor, ActionExpenditure, ActionParams{Base: req.Base})
	if err := decision.Err(); err != nil {
		return MovementRecord{}, err
	}
	if err := e.requireKnown(ctx, req.AssetType, decision.Base); err != nil {
		return MovementRecord{}, err
	}

	rec, err := NewMovement(MovementInput{
		Kind:       KindExpenditure,
		AssetType:  req.AssetType,
		AssetName:  req.AssetName,
		Quantity:   req.Quantity,
		Base:       decision.Base,
		ExpendedBy: req.ExpendedBy,
		Actor:      actor,
	})
	if err != nil {
		return MovementRecord{}, err
	}
	if err := e.ledger.Append(ctx, rec); err != nil {
		return MovementRecord{}, err
	}
	e.catalog.Invalidate()
	return rec, nil
}

// requireKnown denies movements against bases or asset types that have no
// movement history. Only purchases introduce new values.
func (e *Engine) requireKnown(ctx context.Context, assetType, base string) error {
	if assetType != "" {
		known, err := e.catalog.HasType(ctx, assetType)
		if err != nil {
			return err
		}
		if !known {
			return &AuthorizationError{Reason: DenyUnknownAssetType, Detail: "asset type has no movement history"}
		}
	}
	known, err := e.catalog.HasBase(ctx, base)
	if err != nil {
		return err
	}
	if !known {
		return &AuthorizationError{Reason: DenyUnknownBase, Detail: "base has no movement history"}
	}
	return nil
}

// =============================================================================
// READ OPERATIONS
// =============================================================================

// History returns matching records newest first, restricted to kinds the
// actor's role may view. Empty results are empty slices, never errors.
func (e *Engine) History(ctx context.Context, actor Actor, f Filter) ([]MovementRecord, error) {
	if f.Kind != "" && !CanViewKind(actor.Role, f.Kind) {
		return nil, &AuthorizationError{Reason: DenyRoleForbidden, Detail: "role may not view this movement kind"}
	}
	// Commanders only see their own base's slice of the history.
	if actor.Role == RoleCommander {
		f.Base = actor.HomeBase
	}
	records, err := e.ledger.Query(ctx, f)
	if err != nil {
		return nil, err
	}
	// Kind-less queries still honor per-kind visibility: records the role
	// may not view are dropped, never leaked.
	visible := make([]MovementRecord, 0, len(records))
	for _, r := range records {
		if CanViewKind(actor.Role, r.Kind) {
			visible = append(visible, r)
		}
	}
	return visible, nil
}

// Balance computes the dashboard figures for the actor's scope. Commanders
// are pinned to their home base regardless of the requested one.
func (e *Engine) Balance(ctx context.Context, actor Actor, q BalanceQuery) (BalanceResult, error) {
	if actor.Role == RoleCommander {
		q.Base = actor.HomeBase
	}
	return e.balance.Compute(ctx, q)
}

// Filters returns the known asset types and bases for selection controls.
func (e *Engine) Filters(ctx context.Context) (types, bases []string, err error) {
	types, err = e.catalog.KnownTypes(ctx)
	if err != nil {
		return nil, nil, err
	}
	bases, err = e.catalog.KnownBases(ctx)
	if err != nil {
		return nil, nil, err
	}
	return types, bases, nil
}
