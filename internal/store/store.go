// Package store provides the relational backend for the content sync
// pipeline.
//
// The store is written against database/sql and runs on two drivers:
//
//   - pgx: the hosted Postgres instance the directory site reads from
//   - sqlite3: an embedded database for local development and tests
//
// Queries use `?` placeholders and ON CONFLICT upserts, which both engines
// accept; placeholders are rebound to $N for the pgx driver.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// Drivers accepted by Open.
const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite3"
)

// Store wraps the database connection for the content, jobs, and changelog
// tables.
type Store struct {
	conn   *sql.DB
	driver string
}

// Open creates a connection with the given driver ("pgx" or "sqlite3") and
// DSN. The caller MUST call Close() when done.
//
// Example:
//
//	st, err := store.Open(store.DriverPostgres, os.Getenv("DATABASE_URL"))
//	if err != nil {
//	    return err
//	}
//	defer st.Close()
func Open(driver, dsn string) (*Store, error) {
	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	st := &Store{conn: conn, driver: driver}

	if driver == DriverSQLite {
		// WAL for concurrent readers, matching the batch upserter's
		// parallel writes against an embedded database.
		if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
		if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("failed to set busy timeout: %w", err)
		}
	}

	return st, nil
}

// NewWithDB wraps an existing connection. Used by tests that inject a mock
// connection.
func NewWithDB(conn *sql.DB, driver string) *Store {
	return &Store{conn: conn, driver: driver}
}

// RawDB returns the underlying sql.DB connection.
func (s *Store) RawDB() *sql.DB {
	return s.conn
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}
	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	s.conn = nil
	return nil
}

// InitSchema creates the content, jobs, and changelog tables if they don't
// exist. Idempotent - safe to call multiple times.
func (s *Store) InitSchema() error {
	return s.InitSchemaContext(context.Background())
}

// InitSchemaContext creates the schema with context support.
func (s *Store) InitSchemaContext(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS content (
		category TEXT NOT NULL,
		slug TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		author TEXT NOT NULL DEFAULT '',
		tags TEXT NOT NULL DEFAULT '[]',  -- JSON array
		date_added TEXT,
		last_modified TEXT,
		content TEXT NOT NULL DEFAULT '',
		source TEXT NOT NULL DEFAULT '',
		documentation_url TEXT NOT NULL DEFAULT '',
		metadata TEXT NOT NULL DEFAULT '{}',  -- JSON object
		content_hash TEXT NOT NULL,
		synced_at TEXT NOT NULL,
		PRIMARY KEY (category, slug)
	);

	CREATE TABLE IF NOT EXISTS jobs (
		slug TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		company TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL DEFAULT '',
		job_type TEXT NOT NULL DEFAULT '',
		salary TEXT NOT NULL DEFAULT '',
		apply_url TEXT NOT NULL DEFAULT '',
		remote INTEGER NOT NULL DEFAULT 0,
		tags TEXT NOT NULL DEFAULT '[]',  -- JSON array
		date_added TEXT,
		content_hash TEXT NOT NULL,
		synced_at TEXT NOT NULL
	);

	-- No hash column: changelog sync is existence-check only.
	CREATE TABLE IF NOT EXISTS changelog (
		slug TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		release_date TEXT,
		tldr TEXT NOT NULL DEFAULT '',
		changes TEXT NOT NULL DEFAULT '{}',  -- JSON object
		content TEXT NOT NULL DEFAULT '',
		synced_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_content_category ON content(category);
	CREATE INDEX IF NOT EXISTS idx_content_hash ON content(category, slug, content_hash);
	CREATE INDEX IF NOT EXISTS idx_changelog_release ON changelog(release_date);
	`

	if _, err := s.conn.ExecContext(ctx, s.rebind(schema)); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// rebind rewrites `?` placeholders to `$1..$N` for the pgx driver.
// SQLite accepts `?` natively, so the query passes through unchanged.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// now returns the synced_at timestamp value.
func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// placeholders returns "?, ?, ..." with n slots for IN clauses.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
