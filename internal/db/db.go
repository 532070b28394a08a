// Package db owns the single SQLite connection backing skills, memory,
// hill-climber history, and test-gen evolution.
package db

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Reason tags a storage failure.
type Reason string

const (
	ReasonConnection Reason = "connection"
	ReasonQuery      Reason = "query"
	ReasonInsert     Reason = "insert"
	ReasonNotFound   Reason = "not_found"
	ReasonMigration  Reason = "migration"
)

// Error is a tagged storage failure.
type Error struct {
	Reason Reason
	Op     string
	Cause  error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("db: %s: %s: %v", e.Reason, e.Op, e.Cause)
	}
	return fmt.Sprintf("db: %s: %s", e.Reason, e.Op)
}

func (e *Error) Unwrap() error { return e.Cause }

// Connect opens dbPath with the driver selected by build tags (modernc.org/sqlite
// on most platforms, ncruces/go-sqlite3's WASM build on openbsd/netbsd/android)
// and applies all pending goose migrations.
func Connect(dbPath string) (*sql.DB, error) {
	conn, err := openDB(dbPath)
	if err != nil {
		return nil, &Error{Reason: ReasonConnection, Op: "open", Cause: err}
	}
	conn.SetMaxOpenConns(1)

	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("sqlite3"); err != nil {
		conn.Close()
		return nil, &Error{Reason: ReasonMigration, Op: "set_dialect", Cause: err}
	}
	if err := goose.Up(conn, "migrations"); err != nil {
		conn.Close()
		return nil, &Error{Reason: ReasonMigration, Op: "up", Cause: err}
	}
	return conn, nil
}
