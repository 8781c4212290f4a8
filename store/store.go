/*
Package store provides the relational store behind the import engine.

PURPOSE:
  Opens the database (SQLite by default, PostgreSQL through pgx), bootstraps
  the schema and hands out transactions. The import engine never talks to
  *sql.DB directly: every run goes through WithTx, and every statement of
  the run, lookups included, is issued on that one *sql.Tx.

DRIVERS:
  sqlite3: github.com/mattn/go-sqlite3, opened with foreign keys on and WAL.
           The pool is capped at one connection so ":memory:" databases are
           shared by every caller and SQLite's single writer is respected.
  pgx:     github.com/jackc/pgx/v5/stdlib. Uses $n placeholders.

CONFLICT RESOLUTION:
  Natural keys are enforced by UNIQUE constraints (see schema.go). The bulk
  writer targets them with ON CONFLICT, which both dialects accept.

USAGE:
  st, err := store.Open("sqlite3", "./data/staffing.db")
  if err != nil {
      log.Fatal(err)
  }
  defer st.Close()

  err = st.WithTx(ctx, func(tx *sql.Tx) error {
      ...
  })

MIGRATION:
  Schema is bootstrapped on Open() with CREATE TABLE IF NOT EXISTS. Versioned
  migrations are out of scope.

SEE ALSO:
  - schema.go: table definitions
  - bulk/writer.go: dialect-aware batched writes
  - engine/orchestrator.go: the only caller of WithTx during imports
*/
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/staffing-engine/bulk"
)

// Supported driver names.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

// Store owns the database handle.
type Store struct {
	db      *sql.DB
	dialect bulk.Dialect
}

// Open connects to the database and bootstraps the schema.
// Use driver "sqlite3" with dsn ":memory:" for an in-memory database.
func Open(driver, dsn string) (*Store, error) {
	var (
		db      *sql.DB
		dialect bulk.Dialect
		err     error
	)

	switch driver {
	case DriverSQLite, "", "sqlite":
		db, err = sql.Open(DriverSQLite, sqliteDSN(dsn))
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		db.SetMaxOpenConns(1)
		dialect = bulk.SQLite
	case DriverPostgres, "postgres":
		db, err = sql.Open(DriverPostgres, dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		dialect = bulk.Postgres
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	s := &Store{db: db, dialect: dialect}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func sqliteDSN(path string) string {
	if path == "" {
		path = ":memory:"
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on&_journal_mode=WAL"
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the handle for read paths outside an import run.
func (s *Store) DB() *sql.DB { return s.db }

// Dialect reports placeholder style and parameter ceiling of the driver.
func (s *Store) Dialect() bulk.Dialect { return s.dialect }

// WithTx executes fn within a single database transaction. The transaction
// commits only if fn returns nil; any error, or a panic, rolls back every
// statement fn issued.
func (s *Store) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// =============================================================================
// ADMIN
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	return s.WithTx(ctx, func(tx *sql.Tx) error {
		for i := len(Tables) - 1; i >= 0; i-- {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+Tables[i]); err != nil {
				return fmt.Errorf("reset %s: %w", Tables[i], err)
			}
		}
		return nil
	})
}

// Count returns the number of rows in table. Only tables created by the
// schema are accepted.
func (s *Store) Count(ctx context.Context, table string) (int, error) {
	if !knownTable(table) {
		return 0, fmt.Errorf("unknown table %q", table)
	}
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

// Counts returns the row count of every table, keyed by table name.
func (s *Store) Counts(ctx context.Context) (map[string]int, error) {
	out := make(map[string]int, len(Tables))
	for _, t := range Tables {
		n, err := s.Count(ctx, t)
		if err != nil {
			return nil, err
		}
		out[t] = n
	}
	return out, nil
}

func knownTable(name string) bool {
	for _, t := range Tables {
		if t == name {
			return true
		}
	}
	return false
}
