package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// DSNParams are appended to every database path passed to Open.
const DSNParams = "_pragma=busy_timeout(10000)&_pragma=foreign_keys(1)&_txlock=immediate"

// DBTX is satisfied by both *sql.DB and *sql.Tx so stores can run inside or
// outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open opens a SQLite database at path with WAL journaling, a busy timeout and
// foreign keys enforced on every connection. Transactions begin IMMEDIATE, so
// a transaction that reads before it writes queues on the busy timeout
// instead of failing with SQLITE_BUSY when it upgrades its lock.
func Open(path string) (*sql.DB, error) {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	db, err := sql.Open("sqlite", path+sep+DSNParams)
	if err != nil {
		return nil, err
	}

	// SQLite can handle 1 writer + multiple readers with WAL mode. An
	// in-memory database exists per connection, so it gets exactly one.
	db.SetMaxOpenConns(10)
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(0)

	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return db, nil
}

var schema = []struct {
	name string
	ddl  string
}{
	{"accessories", `CREATE TABLE IF NOT EXISTS accessories (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sku TEXT NOT NULL,
		location TEXT NOT NULL,
		updated_at TEXT NOT NULL DEFAULT (datetime('now','localtime')),
		UNIQUE(sku, location)
	)`},
	{"remarks", `CREATE TABLE IF NOT EXISTS remarks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		accessory_id INTEGER NOT NULL,
		content TEXT NOT NULL,
		created_at TEXT NOT NULL DEFAULT (datetime('now','localtime')),
		FOREIGN KEY (accessory_id) REFERENCES accessories(id) ON DELETE CASCADE
	)`},
	{"locations", `CREATE TABLE IF NOT EXISTS locations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		usage_count INTEGER NOT NULL DEFAULT 0 CHECK(usage_count >= 0),
		created_at TEXT NOT NULL DEFAULT (datetime('now','localtime'))
	)`},
	{"work_orders", `CREATE TABLE IF NOT EXISTS work_orders (
		id INTEGER PRIMARY KEY CHECK(id BETWEEN 100000 AND 999999),
		sku TEXT NOT NULL,
		accessory_code TEXT NOT NULL,
		quantity INTEGER NOT NULL CHECK(quantity >= 1),
		status TEXT NOT NULL DEFAULT 'pending' CHECK(status IN ('pending','completed','cancelled')),
		match_status TEXT NOT NULL CHECK(match_status IN ('matched','new_one')),
		matched_location TEXT,
		matched_accessory_id INTEGER,
		customer_service_name TEXT NOT NULL DEFAULT '',
		remark TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		completed_at TEXT,
		CHECK((match_status = 'matched') = (matched_location IS NOT NULL)),
		CHECK((status = 'completed') = (completed_at IS NOT NULL)),
		FOREIGN KEY (matched_accessory_id) REFERENCES accessories(id)
	)`},
	{"audit_log", `CREATE TABLE IF NOT EXISTS audit_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL DEFAULT 'system',
		action TEXT NOT NULL,
		module TEXT NOT NULL,
		record_id TEXT NOT NULL,
		summary TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL DEFAULT (datetime('now','localtime'))
	)`},
}

var indexes = []string{
	"CREATE INDEX IF NOT EXISTS idx_accessories_sku ON accessories(sku)",
	"CREATE INDEX IF NOT EXISTS idx_remarks_accessory ON remarks(accessory_id, id)",
	"CREATE INDEX IF NOT EXISTS idx_work_orders_status ON work_orders(status, created_at)",
	"CREATE INDEX IF NOT EXISTS idx_work_orders_accessory ON work_orders(matched_accessory_id)",
	"CREATE INDEX IF NOT EXISTS idx_audit_module ON audit_log(module, created_at)",
}

// Migrate creates every table and index the service needs. It is idempotent.
func Migrate(db *sql.DB) error {
	for _, t := range schema {
		if _, err := db.Exec(t.ddl); err != nil {
			return fmt.Errorf("%s migration: %w", t.name, err)
		}
	}
	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			return fmt.Errorf("index migration: %w", err)
		}
	}
	return nil
}

// IsUniqueViolation reports whether err came from a UNIQUE constraint.
func IsUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
