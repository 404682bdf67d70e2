/*
policy.go - Role and base authorization rules

PURPOSE:
  Decides, for a given actor and requested movement, whether the action
  is permitted and which base the resulting record must be attributed
  to. The decision is pure: no store access, no side effects. The caller
  applies the effective base the decision reports before persisting.

RULES (evaluated in order):
  1. logistics: may execute transfers only, with an explicit source base;
     purchases, assignments, and expenditures are denied outright.
  2. commander: bound to a home base. The owning base (or transfer source)
     is forced to the home base regardless of any caller-supplied value.
     This is a server-side override, not client-side convenience.
  3. admin: no base restriction, but the base must be supplied explicitly.
  4. all roles: a transfer destination must differ from its source.

  Catalog existence checks for admin-supplied bases are applied by the
  Engine, which owns the Filter Catalog; keeping them out of Authorize
  keeps the decision function stateless.
*/
package ledger

// Action is a requested movement operation, pre-classification. A transfer
// is a single logical action even though it persists as two records.
type Action string

const (
	ActionPurchase    Action = "purchase"
	ActionTransfer    Action = "transfer"
	ActionAssignment  Action = "assignment"
	ActionExpenditure Action = "expenditure"
)

// ActionParams are the base-related parameters of a movement request.
// Base applies to purchase/assignment/expenditure; FromBase and ToBase
// to transfers.
type ActionParams struct {
	Base     string
	FromBase string
	ToBase   string
}

// Decision is the outcome of an authorization check. When allowed,
// Base (or FromBase for transfers) is the effective value the record
// must carry, with any commander home-base override already applied.
type Decision struct {
	Allowed  bool
	Reason   DenyReason
	Detail   string
	Base     string
	FromBase string
	ToBase   string
}

func allow(base, from, to string) Decision {
	return Decision{Allowed: true, Base: base, FromBase: from, ToBase: to}
}

func deny(reason DenyReason, detail string) Decision {
	return Decision{Allowed: false, Reason: reason, Detail: detail}
}

// Err converts a denial into an *AuthorizationError. Nil when allowed.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return &AuthorizationError{Reason: d.Reason, Detail: d.Detail}
}

// Authorize evaluates the role/base rules for one requested action.
// It is a pure function and safe for unsynchronized concurrent use.
func Authorize(actor Actor, action Action, params ActionParams) Decision {
	switch actor.Role {
	case RoleLogistics:
		if action != ActionTransfer {
			return deny(DenyRoleForbidden, "logistics may only execute transfers")
		}
		if params.FromBase == "" {
			return deny(DenyBaseRequired, "logistics transfers require an explicit source base")
		}
		return checkTransferBases(params.FromBase, params.ToBase)

	case RoleCommander:
		// Home base wins over any caller-supplied value.
		if actor.HomeBase == "" {
			return deny(DenyBaseRequired, "commander has no home base")
		}
		if action == ActionTransfer {
			return checkTransferBases(actor.HomeBase, params.ToBase)
		}
		return allow(actor.HomeBase, "", "")

	case RoleAdmin:
		if action == ActionTransfer {
			if params.FromBase == "" {
				return deny(DenyBaseRequired, "source base is required")
			}
			return checkTransferBases(params.FromBase, params.ToBase)
		}
		if params.Base == "" {
			return deny(DenyBaseRequired, "base is required")
		}
		return allow(params.Base, "", "")
	}

	return deny(DenyRoleForbidden, "unknown role")
}

func checkTransferBases(from, to string) Decision {
	if to == "" {
		return deny(DenyBaseRequired, "destination base is required")
	}
	if to == from {
		return deny(DenySameBaseTransfer, "source and destination bases are the same")
	}
	return allow("", from, to)
}

// ActionForKind maps a record kind back to the action it belongs to.
// Both transfer legs map to ActionTransfer.
func ActionForKind(k Kind) Action {
	switch k {
	case KindPurchase:
		return ActionPurchase
	case KindTransferIn, KindTransferOut:
		return ActionTransfer
	case KindAssignment:
		return ActionAssignment
	case KindExpenditure:
		return ActionExpenditure
	}
	return ""
}

// CanViewKind reports whether a role may read history of the given kind.
// Logistics never views assignment or expenditure records.
func CanViewKind(role Role, k Kind) bool {
	if role == RoleLogistics && (k == KindAssignment || k == KindExpenditure) {
		return false
	}
	return true
}
