/*
handlers.go - HTTP handlers for the asset movement API

PURPOSE:
  Exposes the movement engine over REST. Handlers parse and validate the
  request, resolve the authenticated actor, delegate to the engine, and
  serialize the result. All movement semantics live in the ledger
  package; nothing here touches the store directly.

ENDPOINTS:
  Auth:
    POST /api/auth/register         Create an operator account
    POST /api/auth/login            Verify credentials, set session cookie
    POST /api/auth/logout           Clear the session cookie
    GET  /api/auth/me               Current actor

  Movements:
    POST /api/asset/purchase        Record a purchase
    GET  /api/asset/purchase        Purchase history
    POST /api/assets/transfer       Record a transfer (two linked records)
    GET  /api/assets/transfer       Transfer history
    POST /api/assets/assign         Record an assignment
    GET  /api/assets/assign         Assignment history
    POST /api/asset/expend          Record an expenditure
    GET  /api/asset/getExpenditures Expenditure history

  Dashboard:
    GET  /api/asset/summary         Balance figures for a selection
    GET  /api/asset/filters         Known asset types and bases

ERROR HANDLING:
  Engine errors map onto HTTP status by class: validation 400,
  authorization 403, not-found 404, conflict 409, anything else 500.
  History endpoints return 200 with an empty array when nothing matches.
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/warp/asset-ledger/auth"
	"github.com/warp/asset-ledger/ledger"
	"github.com/warp/asset-ledger/pkg/logger"
	"github.com/warp/asset-ledger/pkg/metrics"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds the dependencies for all HTTP handlers.
type Handler struct {
	Engine  *ledger.Engine
	Auth    *auth.Service
	Log     *logger.Logger
	Metrics *metrics.Metrics

	secureCookies bool
	sessionTTL    time.Duration
}

func NewHandler(engine *ledger.Engine, authSvc *auth.Service, logg *logger.Logger, m *metrics.Metrics, secureCookies bool, sessionTTL time.Duration) *Handler {
	return &Handler{
		Engine:        engine,
		Auth:          authSvc,
		Log:           logg,
		Metrics:       m,
		secureCookies: secureCookies,
		sessionTTL:    sessionTTL,
	}
}

// =============================================================================
// AUTH HANDLERS
// =============================================================================

// Register creates an operator account.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid registration payload", err)
		return
	}

	user, err := h.Auth.Register(r.Context(), auth.RegisterInput{
		Username: req.Username,
		Password: req.Password,
		Role:     ledger.Role(req.Role),
		Base:     req.Base,
	})
	if err != nil {
		h.writeEngineError(w, r, "Registration failed", err)
		return
	}

	writeJSON(w, http.StatusCreated, UserDTO{
		ID:       user.ID,
		Username: user.Username,
		Role:     string(user.Role),
		Base:     user.Base,
	})
}

// Login verifies credentials and sets the session cookie.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid login payload", err)
		return
	}

	user, token, err := h.Auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeEngineError(w, r, "Login failed", err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, UserDTO{
		ID:       user.ID,
		Username: user.Username,
		Role:     string(user.Role),
		Base:     user.Base,
	})
}

// Logout clears the session cookie. Tokens are short-lived; there is no
// server-side session table to purge.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// Me returns the authenticated actor.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required", nil)
		return
	}
	writeJSON(w, http.StatusOK, UserDTO{
		ID:   actor.UserID,
		Role: string(actor.Role),
		Base: actor.HomeBase,
	})
}

// =============================================================================
// MOVEMENT HANDLERS
// =============================================================================

// CreatePurchase records one purchase.
func (h *Handler) CreatePurchase(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	var req PurchaseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid purchase payload", err)
		return
	}

	rec, err := h.Engine.RecordPurchase(r.Context(), actor, ledger.PurchaseRequest{
		AssetName: req.Name,
		AssetType: req.Type,
		Quantity:  req.Quantity,
		Base:      req.Base,
		UnitCost:  req.UnitCost,
	})
	if err != nil {
		h.writeEngineError(w, r, "Purchase failed", err)
		return
	}

	h.Metrics.IncMovement(string(rec.Kind))
	h.Log.Info(r.Context(), "movement.purchase.recorded")
	writeJSON(w, http.StatusCreated, toMovementDTO(rec))
}

// ListPurchases returns purchase history for the actor's scope.
func (h *Handler) ListPurchases(w http.ResponseWriter, r *http.Request) {
	h.listByKind(w, r, ledger.KindPurchase)
}

// CreateTransfer records one logical transfer as a linked pair.
func (h *Handler) CreateTransfer(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	var req TransferRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid transfer payload", err)
		return
	}

	out, _, err := h.Engine.RecordTransfer(r.Context(), actor, ledger.TransferRequest{
		AssetName: req.Name,
		AssetType: req.Type,
		Quantity:  req.Quantity,
		FromBase:  req.FromBase,
		ToBase:    req.ToBase,
	})
	if err != nil {
		h.writeEngineError(w, r, "Transfer failed", err)
		return
	}

	h.Metrics.IncMovement(string(ledger.KindTransferOut))
	h.Metrics.IncMovement(string(ledger.KindTransferIn))
	h.Log.Info(r.Context(), "movement.transfer.recorded")
	// The out leg stands for the logical transfer in the response; the
	// DTO carries both bases either way.
	writeJSON(w, http.StatusCreated, toMovementDTO(out))
}

// ListTransfers returns transfer history. Each logical transfer appears
// once: legs sharing a transfer id collapse onto the out leg when both are
// visible in the actor's scope.
func (h *Handler) ListTransfers(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	f, err := filterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid history filter", err)
		return
	}

	f.Kind = ledger.KindTransferOut
	outs, err := h.Engine.History(r.Context(), actor, f)
	if err != nil {
		h.writeEngineError(w, r, "Failed to list transfers", err)
		return
	}
	f.Kind = ledger.KindTransferIn
	ins, err := h.Engine.History(r.Context(), actor, f)
	if err != nil {
		h.writeEngineError(w, r, "Failed to list transfers", err)
		return
	}

	writeJSON(w, http.StatusOK, toMovementDTOs(mergeTransferLegs(outs, ins)))
}

// CreateAssignment records an assignment to personnel.
func (h *Handler) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	var req AssignmentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid assignment payload", err)
		return
	}

	rec, err := h.Engine.RecordAssignment(r.Context(), actor, ledger.AssignmentRequest{
		AssetName:  req.Name,
		AssetType:  req.Type,
		Quantity:   req.Quantity,
		Base:       req.Base,
		AssignedTo: req.AssignedTo,
	})
	if err != nil {
		h.writeEngineError(w, r, "Assignment failed", err)
		return
	}

	h.Metrics.IncMovement(string(rec.Kind))
	h.Log.Info(r.Context(), "movement.assignment.recorded")
	writeJSON(w, http.StatusCreated, toMovementDTO(rec))
}

// ListAssignments returns assignment history.
func (h *Handler) ListAssignments(w http.ResponseWriter, r *http.Request) {
	h.listByKind(w, r, ledger.KindAssignment)
}

// CreateExpenditure records an expenditure.
func (h *Handler) CreateExpenditure(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	var req ExpenditureRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid expenditure payload", err)
		return
	}

	rec, err := h.Engine.RecordExpenditure(r.Context(), actor, ledger.ExpenditureRequest{
		AssetName:  req.Name,
		AssetType:  req.Type,
		Quantity:   req.Quantity,
		Base:       req.Base,
		ExpendedBy: req.ExpendedBy,
	})
	if err != nil {
		h.writeEngineError(w, r, "Expenditure failed", err)
		return
	}

	h.Metrics.IncMovement(string(rec.Kind))
	h.Log.Info(r.Context(), "movement.expenditure.recorded")
	writeJSON(w, http.StatusCreated, toMovementDTO(rec))
}

// ListExpenditures returns expenditure history.
func (h *Handler) ListExpenditures(w http.ResponseWriter, r *http.Request) {
	h.listByKind(w, r, ledger.KindExpenditure)
}

func (h *Handler) listByKind(w http.ResponseWriter, r *http.Request, kind ledger.Kind) {
	actor, ok := actorFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	f, err := filterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid history filter", err)
		return
	}
	f.Kind = kind

	records, err := h.Engine.History(r.Context(), actor, f)
	if err != nil {
		h.writeEngineError(w, r, "Failed to list movements", err)
		return
	}
	writeJSON(w, http.StatusOK, toMovementDTOs(records))
}

// =============================================================================
// DASHBOARD HANDLERS
// =============================================================================

// GetSummary returns the balance figures for the requested selection.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	f, err := filterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid summary filter", err)
		return
	}

	result, err := h.Engine.Balance(r.Context(), actor, ledger.BalanceQuery{
		AssetType: f.AssetType,
		Base:      f.Base,
		From:      f.From,
		To:        f.To,
	})
	if err != nil {
		h.writeEngineError(w, r, "Failed to compute balance", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GetFilters returns the known asset types and bases.
func (h *Handler) GetFilters(w http.ResponseWriter, r *http.Request) {
	types, bases, err := h.Engine.Filters(r.Context())
	if err != nil {
		h.writeEngineError(w, r, "Failed to load filters", err)
		return
	}
	writeJSON(w, http.StatusOK, FiltersDTO{Types: types, Bases: bases})
}

// Healthz is the liveness probe.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

// filterFromQuery reads type/base/startDate/endDate query parameters.
func filterFromQuery(r *http.Request) (ledger.Filter, error) {
	q := r.URL.Query()
	f := ledger.Filter{
		AssetType: strings.TrimSpace(q.Get("type")),
		Base:      strings.TrimSpace(q.Get("base")),
	}

	var err error
	if f.From, err = parseTimeParam(q.Get("startDate")); err != nil {
		return ledger.Filter{}, fmt.Errorf("startDate: %w", err)
	}
	if f.To, err = parseTimeParam(q.Get("endDate")); err != nil {
		return ledger.Filter{}, fmt.Errorf("endDate: %w", err)
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return ledger.Filter{}, fmt.Errorf("endDate precedes startDate")
	}
	return f, nil
}

func parseTimeParam(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected RFC3339 or YYYY-MM-DD, got %q", value)
	}
	return t, nil
}

// mergeTransferLegs collapses legs sharing a transfer id onto the out leg
// and returns the merged set newest first.
func mergeTransferLegs(outs, ins []ledger.MovementRecord) []ledger.MovementRecord {
	seen := make(map[string]struct{}, len(outs))
	merged := make([]ledger.MovementRecord, 0, len(outs)+len(ins))
	for _, r := range outs {
		if r.TransferID != "" {
			seen[r.TransferID] = struct{}{}
		}
		merged = append(merged, r)
	}
	for _, r := range ins {
		if r.TransferID != "" {
			if _, dup := seen[r.TransferID]; dup {
				continue
			}
		}
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool {
		if !merged[i].CreatedAt.Equal(merged[j].CreatedAt) {
			return merged[i].CreatedAt.After(merged[j].CreatedAt)
		}
		return merged[i].ID > merged[j].ID
	})
	return merged
}

func (h *Handler) writeEngineError(w http.ResponseWriter, r *http.Request, message string, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		h.Log.Error(r.Context(), message, err)
		// Internal detail stays in the logs.
		writeError(w, status, message, nil)
		return
	}
	h.Log.Warn(r.Context(), message+": "+err.Error())
	writeError(w, status, message, err)
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, ledger.ErrValidation), errors.Is(err, auth.ErrInvalidRole):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, ledger.ErrAuthorization):
		return http.StatusForbidden
	case errors.Is(err, ledger.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrConflict), errors.Is(err, auth.ErrUsernameTaken):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// =============================================================================
// JSON PLUMBING
// =============================================================================

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

func decodeJSON(r *http.Request, dest any) error {
	defer io.Copy(io.Discard, r.Body)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	if err := validate.Struct(dest); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok {
			fields := make([]string, len(errs))
			for i, fe := range errs {
				fields[i] = fe.Field()
			}
			return fmt.Errorf("invalid fields: %s", strings.Join(fields, ", "))
		}
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
