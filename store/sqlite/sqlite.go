/*
Package sqlite provides the SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements ledger.Store and auth.UserStore using SQLite. The same
  patterns apply to PostgreSQL in production; only minor SQL dialect
  differences.

APPEND-ONLY ENFORCEMENT:
  There are no UPDATE or DELETE statements against the movements table.
  Corrections are offsetting records, appended like any other.

ATOMIC PAIRS:
  AppendPair writes both transfer legs inside one SQL transaction. With
  WAL a reader sees the pre-commit snapshot until COMMIT, so no query can
  ever return exactly one leg.

KEY TABLES:
  movements: Immutable ledger of all inventory-affecting events
  users:     Operator accounts for the auth layer

WAL MODE:
  The database is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/asset-ledger/auth"
	"github.com/warp/asset-ledger/ledger"
)

// timeFormat is RFC3339 with a fixed-width nine-digit fraction. created_at
// is compared as text in SQL (ORDER BY, window bounds), which is only
// correct when string order matches time order; variable-width fractions
// would break that for sub-second timestamps.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Store implements ledger.Store and auth.UserStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (or creates) the database at dbPath and migrates the schema.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: SQLite has a single writer anyway, and ":memory:"
	// databases are per-connection.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	-- Movements (append-only ledger)
	CREATE TABLE IF NOT EXISTS movements (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		transfer_id TEXT,
		asset_type TEXT NOT NULL,
		asset_name TEXT NOT NULL,
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		base TEXT NOT NULL,
		counterpart_base TEXT,
		assigned_to TEXT,
		expended_by TEXT,
		unit_cost TEXT,
		actor_id TEXT NOT NULL,
		actor_role TEXT NOT NULL,
		actor_base TEXT,
		created_at TEXT NOT NULL
	);

	-- Balance queries filter on (base, asset_type) over a time range (hot path)
	CREATE INDEX IF NOT EXISTS idx_movements_base_type_date
		ON movements(base, asset_type, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_movements_kind
		ON movements(kind);
	CREATE INDEX IF NOT EXISTS idx_movements_created_at
		ON movements(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_movements_transfer
		ON movements(transfer_id) WHERE transfer_id IS NOT NULL;

	-- Operator accounts
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL,
		base TEXT,
		created_at TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// MOVEMENT STORE (ledger.Store interface)
// =============================================================================

// Append adds a movement record to the ledger.
func (s *Store) Append(ctx context.Context, rec ledger.MovementRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.insert(ctx, s.db, rec)
}

// AppendPair adds both transfer legs inside one SQL transaction. On any
// failure the transaction rolls back and the error is reported as
// ledger.ErrConflict so the caller can retry.
func (s *Store) AppendPair(ctx context.Context, out, in ledger.MovementRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := s.insert(ctx, sqlTx, out); err != nil {
		return fmt.Errorf("%w: %v", ledger.ErrConflict, err)
	}
	if err := s.insert(ctx, sqlTx, in); err != nil {
		return fmt.Errorf("%w: %v", ledger.ErrConflict, err)
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", ledger.ErrConflict, err)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) insert(ctx context.Context, db execer, rec ledger.MovementRecord) error {
	query := `
		INSERT INTO movements
		(id, kind, transfer_id, asset_type, asset_name, quantity, base, counterpart_base,
		 assigned_to, expended_by, unit_cost, actor_id, actor_role, actor_base, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	var unitCost any
	if !rec.UnitCost.IsZero() {
		unitCost = rec.UnitCost.String()
	}

	_, err := db.ExecContext(ctx, query,
		rec.ID,
		string(rec.Kind),
		nullString(rec.TransferID),
		rec.AssetType,
		rec.AssetName,
		rec.Quantity,
		rec.Base,
		nullString(rec.CounterpartBase),
		nullString(rec.AssignedTo),
		nullString(rec.ExpendedBy),
		unitCost,
		rec.Actor.UserID,
		string(rec.Actor.Role),
		nullString(rec.Actor.HomeBase),
		rec.CreatedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("failed to append movement: %w", err)
	}
	return nil
}

// Query returns matching records, newest first with ties broken by id so
// repeated identical queries return identical sequences.
func (s *Store) Query(ctx context.Context, f ledger.Filter) ([]ledger.MovementRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		conds []string
		args  []any
	)
	if f.Kind != "" {
		conds = append(conds, "kind = ?")
		args = append(args, string(f.Kind))
	}
	if f.AssetType != "" {
		conds = append(conds, "asset_type = ?")
		args = append(args, f.AssetType)
	}
	if f.Base != "" {
		conds = append(conds, "base = ?")
		args = append(args, f.Base)
	}
	if !f.From.IsZero() {
		conds = append(conds, "created_at >= ?")
		args = append(args, f.From.UTC().Format(timeFormat))
	}
	if !f.To.IsZero() {
		conds = append(conds, "created_at <= ?")
		args = append(args, f.To.UTC().Format(timeFormat))
	}
	if !f.Before.IsZero() {
		conds = append(conds, "created_at < ?")
		args = append(args, f.Before.UTC().Format(timeFormat))
	}

	query := `
		SELECT id, kind, transfer_id, asset_type, asset_name, quantity, base,
		       counterpart_base, assigned_to, expended_by, unit_cost,
		       actor_id, actor_role, actor_base, created_at
		FROM movements
	`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query movements: %w", err)
	}
	defer rows.Close()

	var records []ledger.MovementRecord
	for rows.Next() {
		rec, err := scanMovement(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Get returns one record by id, or ledger.ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (ledger.MovementRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, kind, transfer_id, asset_type, asset_name, quantity, base,
		       counterpart_base, assigned_to, expended_by, unit_cost,
		       actor_id, actor_role, actor_base, created_at
		FROM movements WHERE id = ?
	`, id)

	rec, err := scanMovement(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.MovementRecord{}, ledger.ErrNotFound
	}
	if err != nil {
		return ledger.MovementRecord{}, err
	}
	return rec, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMovement(row rowScanner) (ledger.MovementRecord, error) {
	var (
		rec                                             ledger.MovementRecord
		kind, role, createdAt                           string
		transferID, counterpart, assignedTo, expendedBy sql.NullString
		unitCost, actorBase                             sql.NullString
	)
	err := row.Scan(
		&rec.ID, &kind, &transferID, &rec.AssetType, &rec.AssetName,
		&rec.Quantity, &rec.Base, &counterpart, &assignedTo, &expendedBy,
		&unitCost, &rec.Actor.UserID, &role, &actorBase, &createdAt,
	)
	if err != nil {
		return ledger.MovementRecord{}, err
	}

	rec.Kind = ledger.Kind(kind)
	rec.TransferID = transferID.String
	rec.CounterpartBase = counterpart.String
	rec.AssignedTo = assignedTo.String
	rec.ExpendedBy = expendedBy.String
	rec.Actor.Role = ledger.Role(role)
	rec.Actor.HomeBase = actorBase.String

	if unitCost.Valid {
		cost, err := decimal.NewFromString(unitCost.String)
		if err != nil {
			return ledger.MovementRecord{}, fmt.Errorf("bad unit cost %q: %w", unitCost.String, err)
		}
		rec.UnitCost = cost
	}

	rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return ledger.MovementRecord{}, fmt.Errorf("bad created_at %q: %w", createdAt, err)
	}
	return rec, nil
}

// =============================================================================
// USER STORE (auth.UserStore interface)
// =============================================================================

func (s *Store) CreateUser(ctx context.Context, u auth.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, password_hash, role, base, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, u.ID, u.Username, u.PasswordHash, string(u.Role), nullString(u.Base),
		u.CreatedAt.UTC().Format(timeFormat))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return auth.ErrUsernameTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*auth.User, error) {
	return s.getUser(ctx, "username = ?", username)
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*auth.User, error) {
	return s.getUser(ctx, "id = ?", id)
}

func (s *Store) getUser(ctx context.Context, cond string, arg any) (*auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, role, base, created_at
		FROM users WHERE `+cond, arg)

	var (
		u         auth.User
		role      string
		base      sql.NullString
		createdAt string
	)
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &role, &base, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	u.Role = ledger.Role(role)
	u.Base = base.String
	u.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("bad created_at %q: %w", createdAt, err)
	}
	return &u, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
