/*
Package sqlite provides a SQLite-backed implementation of leave.Store.

PURPOSE:
  Persists clients, employees, leave types and applications in one SQLite
  database and exposes them through the engine's transaction scopes.

INTERFACES IMPLEMENTED:
  leave.Store:       Scope (one SQL transaction per engine operation)
  leave.Tx:          credential lookup + tenant repos
  leave.TenantRepo:  client-filtered reads and writes
  leave.Provisioner: admin writes for seeding and leavectl

KEY TABLES:
  clients:            tenants and their credentials
  employees:          UNIQUE(client_id, employee_code)
  leave_types:        UNIQUE(client_id, code)
  leave_applications: ULID ids, status CHECK, cascades from both parents

CONCURRENCY:
  The pool is capped at one connection. SQLite allows a single writer
  anyway, and a :memory: database only exists on the connection that
  created it. Consequence: inside a scope every query must go through the
  *sql.Tx, never s.db, or the call blocks forever.

USAGE:
  store, err := sqlite.New("./leave.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  engine := leave.NewEngine(store)

MIGRATION:
  Schema is versioned with golang-migrate from embedded SQL files and
  applied on New().

SEE ALSO:
  - leave/store.go: interface definitions
  - store/memory: in-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/warp/leave-engine/leave"
)

// Store implements the leave storage interfaces using SQLite.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

var (
	_ leave.Store       = (*Store)(nil)
	_ leave.Provisioner = (*Store)(nil)
)

// New opens (or creates) the database at dbPath and migrates it.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := NewWithDB(db)
	if err := store.ApplyMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	store.logger.Debug("database ready", zap.String("path", dbPath))
	return store, nil
}

// NewWithDB wraps an already opened handle without migrating it.
func NewWithDB(db *sql.DB) *Store {
	return &Store{db: db, logger: zap.L().Named("store.sqlite")}
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// =============================================================================
// SCOPE (leave.Store interface)
// =============================================================================

// Scope executes fn within a database transaction.
// If fn returns an error or panics, the transaction is rolled back.
func (s *Store) Scope(ctx context.Context, fn func(leave.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&tx{q: sqlTx}); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type tx struct {
	q queryer
}

func (t *tx) ClientByCredential(ctx context.Context, credential string) (leave.Client, error) {
	row := t.q.QueryRowContext(ctx,
		"SELECT id, name, credential, created_at FROM clients WHERE credential = ?",
		credential,
	)
	return scanClient(row)
}

func (t *tx) ForClient(clientID string) leave.TenantRepo {
	return &tenantRepo{q: t.q, clientID: clientID}
}

// =============================================================================
// HELPERS
// =============================================================================

type scanner interface {
	Scan(dest ...any) error
}

func scanClient(row scanner) (leave.Client, error) {
	var c leave.Client
	var createdAt string
	if err := row.Scan(&c.ID, &c.Name, &c.Credential, &createdAt); err != nil {
		return leave.Client{}, mapNotFound(err)
	}
	t, err := parseTimeColumn("created_at", createdAt)
	if err != nil {
		return leave.Client{}, err
	}
	c.CreatedAt = t
	return c, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullDate(d *leave.Date) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return nullString(d.String())
}

func parseDateColumn(column, value string) (leave.Date, error) {
	d, err := leave.ParseDate(value)
	if err != nil {
		return leave.Date{}, fmt.Errorf("corrupt %s %q: %w", column, value, err)
	}
	return d, nil
}

func parseTimeColumn(column, value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("corrupt %s %q: %w", column, value, err)
	}
	return t, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return leave.ErrNoRecord
	}
	return err
}

// mapWriteError translates constraint failures into engine sentinels.
func mapWriteError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case isUniqueConstraintError(err):
		return leave.ErrConflict
	case isForeignKeyError(err):
		return leave.ErrNoRecord
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

func isUniqueConstraintError(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique ||
			se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isForeignKeyError(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintForeignKey
	}
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

// expectOne reports ErrNoRecord when a write touched no row.
func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return leave.ErrNoRecord
	}
	return nil
}
