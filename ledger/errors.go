/*
errors.go - Error taxonomy for the movement engine

PURPOSE:
  Four recoverable error classes cross the engine boundary, and nothing
  else: validation, authorization, conflict, not-found. Every operation
  either returns a result or one of these; the engine never panics and
  never leaves the store partially applied.

USAGE:
  Callers branch with errors.Is:

    if errors.Is(err, ledger.ErrAuthorization) { ... 403 ... }

  and recover detail with errors.As on the structured types.
*/
package ledger

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is returned for malformed, missing, or non-positive
	// input. Always recoverable by caller resubmission.
	ErrValidation = errors.New("invalid movement input")

	// ErrAuthorization is returned when a role/base rule denies an action.
	// Surfaced verbatim to the caller, never retried automatically.
	ErrAuthorization = errors.New("movement not authorized")

	// ErrConflict is returned when a transfer pair could not be persisted
	// as a whole. The operation is rolled back and may be retried.
	ErrConflict = errors.New("transfer pair conflict")

	// ErrNotFound is returned by identifier lookups only. Range queries
	// return empty sequences instead.
	ErrNotFound = errors.New("movement record not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError reports which field failed and why.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// DenyReason is a machine-readable authorization denial cause.
type DenyReason string

const (
	DenyRoleForbidden    DenyReason = "RoleForbidden"
	DenyBaseRequired     DenyReason = "BaseRequired"
	DenySameBaseTransfer DenyReason = "SameBaseTransfer"
	DenyUnknownBase      DenyReason = "UnknownBase"
	DenyUnknownAssetType DenyReason = "UnknownAssetType"
)

// AuthorizationError wraps a policy denial with its reason.
type AuthorizationError struct {
	Reason DenyReason
	Detail string
}

func (e *AuthorizationError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("denied: %s", e.Reason)
	}
	return fmt.Sprintf("denied: %s: %s", e.Reason, e.Detail)
}

func (e *AuthorizationError) Unwrap() error { return ErrAuthorization }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError reports whether the error is attributable to the caller's
// input or permissions rather than the engine or its store.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrAuthorization) ||
		errors.Is(err, ErrNotFound)
}

// IsRetryable reports whether retrying the same call might succeed.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflict)
}
