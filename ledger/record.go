/*
Package ledger provides the asset movement ledger and balance engine.

PURPOSE:
  This package contains the domain core of the asset tracking system:
  the canonical movement record, the role-based authorization policy,
  the append-only ledger, the balance engine, and the filter catalog.
  Transport, rendering, and session handling live elsewhere and call
  into this package.

KEY CONCEPTS IN THIS FILE (record.go):
  - Kind: One of five movement kinds (purchase, transfer legs, assignment, expenditure)
  - MovementRecord: An immutable ledger entry describing one inventory-affecting event
  - Actor: The authenticated (userID, role, homeBase) triple attached to every record
  - Transfer pair: A logical transfer is two linked records sharing a TransferID

DESIGN PRINCIPLES:
  1. Immutability: Records are never modified or deleted; corrections are
     new offsetting records.
  2. Auditability: Every record carries the actor who created it.
  3. Explicitness: Quantities are positive integers; invalid input is
     rejected, never coerced.

SEE ALSO:
  - policy.go: Who may create which kind of movement
  - ledger.go: Append and query operations
  - balance.go: Derived opening/net/closing figures
*/
package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// MOVEMENT KIND
// =============================================================================

// Kind classifies an inventory-affecting event. Exactly one per record.
type Kind string

const (
	KindPurchase    Kind = "purchase"
	KindTransferIn  Kind = "transfer_in"
	KindTransferOut Kind = "transfer_out"
	KindAssignment  Kind = "assignment"
	KindExpenditure Kind = "expenditure"
)

// Valid reports whether k is one of the five known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindPurchase, KindTransferIn, KindTransferOut, KindAssignment, KindExpenditure:
		return true
	}
	return false
}

// IsTransferLeg reports whether k is one side of a two-record transfer.
func (k Kind) IsTransferLeg() bool {
	return k == KindTransferIn || k == KindTransferOut
}

// =============================================================================
// ACTOR - Authenticated identity attached to records
// =============================================================================

// Role is the access level of an actor.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleCommander Role = "commander"
	RoleLogistics Role = "logistics"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleCommander, RoleLogistics:
		return true
	}
	return false
}

// Actor identifies who performed a movement. Commanders carry a home base
// they are permanently bound to; admins have none.
type Actor struct {
	UserID   string
	Role     Role
	HomeBase string
}

// =============================================================================
// MOVEMENT RECORD - One immutable ledger entry
// =============================================================================

// MovementRecord is one inventory-affecting event. Immutable once created.
//
// Base is the base the record is attributed to: the owning base for
// purchases, assignments, and expenditures; the source base for a
// TransferOut; the destination base for a TransferIn. CounterpartBase
// names the other side of a transfer and is empty for all other kinds.
type MovementRecord struct {
	ID              string
	Kind            Kind
	TransferID      string // shared by the two legs of one transfer
	AssetType       string
	AssetName       string
	Quantity        int64
	Base            string
	CounterpartBase string
	AssignedTo      string // assignment only
	ExpendedBy      string // expenditure only
	UnitCost        decimal.Decimal // purchases only, optional
	Actor           Actor
	CreatedAt       time.Time
}

// TotalCost returns UnitCost * Quantity for procurement reporting.
// Zero when no unit cost was recorded.
func (r MovementRecord) TotalCost() decimal.Decimal {
	if r.UnitCost.IsZero() {
		return decimal.Zero
	}
	return r.UnitCost.Mul(decimal.NewFromInt(r.Quantity))
}

// =============================================================================
// CONSTRUCTION - Validated record creation
// =============================================================================

// MovementInput carries the caller-supplied fields for a single record.
// NewMovement validates them and assigns ID and CreatedAt.
type MovementInput struct {
	Kind            Kind
	AssetType       string
	AssetName       string
	Quantity        int64
	Base            string
	CounterpartBase string
	AssignedTo      string
	ExpendedBy      string
	UnitCost        decimal.Decimal
	Actor           Actor
}

// NewMovement validates in and returns an immutable record with a fresh ID
// and creation timestamp. Kind-specific required fields follow the record
// contract: transfers need a counterpart base, assignments an assignee,
// expenditures an expender. Returns a *ValidationError on bad input.
func NewMovement(in MovementInput) (MovementRecord, error) {
	if !in.Kind.Valid() {
		return MovementRecord{}, &ValidationError{Field: "kind", Reason: "unknown movement kind"}
	}
	if in.AssetType == "" {
		return MovementRecord{}, &ValidationError{Field: "type", Reason: "asset type is required"}
	}
	if in.AssetName == "" {
		return MovementRecord{}, &ValidationError{Field: "name", Reason: "asset name is required"}
	}
	if in.Quantity <= 0 {
		return MovementRecord{}, &ValidationError{Field: "quantity", Reason: "quantity must be a positive integer"}
	}
	if in.Base == "" {
		return MovementRecord{}, &ValidationError{Field: "base", Reason: "base is required"}
	}
	if in.UnitCost.IsNegative() {
		return MovementRecord{}, &ValidationError{Field: "unitCost", Reason: "unit cost cannot be negative"}
	}

	switch in.Kind {
	case KindTransferIn, KindTransferOut:
		if in.CounterpartBase == "" {
			return MovementRecord{}, &ValidationError{Field: "counterpartBase", Reason: "transfer legs require a counterpart base"}
		}
		if in.CounterpartBase == in.Base {
			return MovementRecord{}, &ValidationError{Field: "counterpartBase", Reason: "transfer counterpart must be a different base"}
		}
	case KindAssignment:
		if in.AssignedTo == "" {
			return MovementRecord{}, &ValidationError{Field: "assignedTo", Reason: "assignment requires an assignee"}
		}
	case KindExpenditure:
		if in.ExpendedBy == "" {
			return MovementRecord{}, &ValidationError{Field: "expendedBy", Reason: "expenditure requires an expender"}
		}
	}
	if in.Kind != KindTransferIn && in.Kind != KindTransferOut && in.CounterpartBase != "" {
		return MovementRecord{}, &ValidationError{Field: "counterpartBase", Reason: "counterpart base is only valid on transfer legs"}
	}
	if in.Kind != KindPurchase && !in.UnitCost.IsZero() {
		return MovementRecord{}, &ValidationError{Field: "unitCost", Reason: "unit cost is only recorded on purchases"}
	}

	return MovementRecord{
		ID:              uuid.NewString(),
		Kind:            in.Kind,
		AssetType:       in.AssetType,
		AssetName:       in.AssetName,
		Quantity:        in.Quantity,
		Base:            in.Base,
		CounterpartBase: in.CounterpartBase,
		AssignedTo:      in.AssignedTo,
		ExpendedBy:      in.ExpendedBy,
		UnitCost:        in.UnitCost,
		Actor:           in.Actor,
		CreatedAt:       time.Now().UTC(),
	}, nil
}

// TransferInput carries the caller-supplied fields for one logical transfer.
type TransferInput struct {
	AssetType string
	AssetName string
	Quantity  int64
	FromBase  string
	ToBase    string
	Actor     Actor
}

// NewTransferPair builds the linked TransferOut/TransferIn records for one
// logical transfer. Both legs share a TransferID and creation timestamp and
// carry identical quantity and asset fields with reciprocal bases. The pair
// must be persisted atomically (Store.AppendPair).
func NewTransferPair(in TransferInput) (out, inm MovementRecord, err error) {
	if in.FromBase == "" {
		return out, inm, &ValidationError{Field: "fromBase", Reason: "source base is required"}
	}
	if in.ToBase == "" {
		return out, inm, &ValidationError{Field: "toBase", Reason: "destination base is required"}
	}

	out, err = NewMovement(MovementInput{
		Kind:            KindTransferOut,
		AssetType:       in.AssetType,
		AssetName:       in.AssetName,
		Quantity:        in.Quantity,
		Base:            in.FromBase,
		CounterpartBase: in.ToBase,
		Actor:           in.Actor,
	})
	if err != nil {
		return MovementRecord{}, MovementRecord{}, err
	}
	inm, err = NewMovement(MovementInput{
		Kind:            KindTransferIn,
		AssetType:       in.AssetType,
		AssetName:       in.AssetName,
		Quantity:        in.Quantity,
		Base:            in.ToBase,
		CounterpartBase: in.FromBase,
		Actor:           in.Actor,
	})
	if err != nil {
		return MovementRecord{}, MovementRecord{}, err
	}

	transferID := uuid.NewString()
	out.TransferID = transferID
	inm.TransferID = transferID
	inm.CreatedAt = out.CreatedAt
	return out, inm, nil
}
