package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// TimeLayout is the fixed-width timestamp format stored in every table, so
// text ordering matches time ordering for UTC values.
const TimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// OpenSQLite opens (and creates if needed) the SQLite database at path and
// ensures required tables exist. The path must live on a local filesystem.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}
	if path != ":memory:" {
		if err := checkLocalFilesystem(path); err != nil {
			return nil, err
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite directory: %w", err)
		}
	}

	// Pragmas ride on the DSN so every pooled connection gets them.
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if path == ":memory:" {
		// Each pooled connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	}

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if err := BootstrapSQLite(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// BootstrapSQLite creates tables/indexes if missing.
func BootstrapSQLite(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS feeds (
  id               TEXT PRIMARY KEY,
  url              TEXT NOT NULL,
  secret           TEXT NOT NULL DEFAULT '',
  title            TEXT NOT NULL DEFAULT '',
  created_at       TEXT NOT NULL,
  last_notified_at TEXT
);`,
		`CREATE TABLE IF NOT EXISTS notifications (
  id          TEXT PRIMARY KEY,
  feed_id     TEXT NOT NULL REFERENCES feeds(id) ON DELETE CASCADE,
  params      JSON NOT NULL DEFAULT '{}',
  body        BLOB,
  received_at TEXT NOT NULL
);`,
		`CREATE TABLE IF NOT EXISTS deliveries (
  id          TEXT PRIMARY KEY,
  feed_id     TEXT NOT NULL,
  accepted    INTEGER NOT NULL,
  reason      TEXT NOT NULL DEFAULT '',
  body_bytes  INTEGER NOT NULL DEFAULT 0,
  request_id  TEXT NOT NULL DEFAULT '',
  received_at TEXT NOT NULL
);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS feeds_url_idx ON feeds(url);`,
		`CREATE INDEX IF NOT EXISTS notifications_feed_received_idx ON notifications(feed_id, received_at);`,
		`CREATE INDEX IF NOT EXISTS deliveries_received_idx ON deliveries(received_at);`,
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("bootstrap sqlite: %w", err)
		}
	}
	return nil
}
