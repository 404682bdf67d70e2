/*
dto.go - Request and response shapes for the asset API

PURPOSE:
  Decouples the wire contract from the ledger's internal types. Field
  names follow the browser client: name/type/quantity/base on movement
  bodies, fromBase/toBase on transfers, startDate/endDate on history
  filters.

VALIDATION:
  Request bodies carry go-playground/validator tags and are checked by
  decodeJSON before any handler logic runs. Engine-level validation
  still applies afterwards; the tags only catch the shallow cases early
  with per-field messages.
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/asset-ledger/ledger"
)

// =============================================================================
// MOVEMENT REQUESTS
// =============================================================================

// PurchaseRequest is the body of POST /api/asset/purchase.
type PurchaseRequest struct {
	Name     string          `json:"name" validate:"required"`
	Type     string          `json:"type" validate:"required"`
	Quantity int64           `json:"quantity" validate:"required,gt=0"`
	Base     string          `json:"base"`
	UnitCost decimal.Decimal `json:"unitCost"`
}

// TransferRequest is the body of POST /api/assets/transfer.
type TransferRequest struct {
	Name     string `json:"name" validate:"required"`
	Type     string `json:"type" validate:"required"`
	Quantity int64  `json:"quantity" validate:"required,gt=0"`
	FromBase string `json:"fromBase"`
	ToBase   string `json:"toBase" validate:"required"`
}

// AssignmentRequest is the body of POST /api/assets/assign.
type AssignmentRequest struct {
	Name       string `json:"name" validate:"required"`
	Type       string `json:"type" validate:"required"`
	Quantity   int64  `json:"quantity" validate:"required,gt=0"`
	Base       string `json:"base"`
	AssignedTo string `json:"assignedTo" validate:"required"`
}

// ExpenditureRequest is the body of POST /api/asset/expend.
type ExpenditureRequest struct {
	Name       string `json:"name" validate:"required"`
	Type       string `json:"type" validate:"required"`
	Quantity   int64  `json:"quantity" validate:"required,gt=0"`
	Base       string `json:"base"`
	ExpendedBy string `json:"expendedBy" validate:"required"`
}

// =============================================================================
// MOVEMENT RESPONSES
// =============================================================================

// MovementDTO is one ledger record in API responses. Transfer legs carry
// fromBase/toBase derived from the record's kind; other kinds carry base.
type MovementDTO struct {
	ID         string `json:"id"`
	Kind       string `json:"kind"`
	TransferID string `json:"transferId,omitempty"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	Quantity   int64  `json:"quantity"`
	Base       string `json:"base,omitempty"`
	FromBase   string `json:"fromBase,omitempty"`
	ToBase     string `json:"toBase,omitempty"`
	AssignedTo string `json:"assignedTo,omitempty"`
	ExpendedBy string `json:"expendedBy,omitempty"`
	UnitCost   string `json:"unitCost,omitempty"`
	TotalCost  string `json:"totalCost,omitempty"`
	CreatedBy  string `json:"createdBy,omitempty"`
	CreatedAt  string `json:"createdAt"`
}

func toMovementDTO(rec ledger.MovementRecord) MovementDTO {
	dto := MovementDTO{
		ID:         rec.ID,
		Kind:       string(rec.Kind),
		TransferID: rec.TransferID,
		Name:       rec.AssetName,
		Type:       rec.AssetType,
		Quantity:   rec.Quantity,
		AssignedTo: rec.AssignedTo,
		ExpendedBy: rec.ExpendedBy,
		CreatedBy:  rec.Actor.UserID,
		CreatedAt:  rec.CreatedAt.Format(time.RFC3339),
	}

	switch rec.Kind {
	case ledger.KindTransferOut:
		dto.FromBase = rec.Base
		dto.ToBase = rec.CounterpartBase
	case ledger.KindTransferIn:
		dto.FromBase = rec.CounterpartBase
		dto.ToBase = rec.Base
	default:
		dto.Base = rec.Base
	}

	if !rec.UnitCost.IsZero() {
		dto.UnitCost = rec.UnitCost.String()
		dto.TotalCost = rec.TotalCost().String()
	}
	return dto
}

func toMovementDTOs(records []ledger.MovementRecord) []MovementDTO {
	dtos := make([]MovementDTO, len(records))
	for i, r := range records {
		dtos[i] = toMovementDTO(r)
	}
	return dtos
}

// FiltersDTO is the body of GET /api/asset/filters.
type FiltersDTO struct {
	Types []string `json:"types"`
	Bases []string `json:"bases"`
}

// =============================================================================
// AUTH
// =============================================================================

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required,oneof=admin commander logistics"`
	Base     string `json:"base"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UserDTO is the authenticated account in auth responses.
type UserDTO struct {
	ID       string `json:"id"`
	Username string `json:"username,omitempty"`
	Role     string `json:"role"`
	Base     string `json:"base,omitempty"`
}

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
