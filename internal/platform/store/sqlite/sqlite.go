// Package sqlite opens embedded sqlite databases through the pure-Go modernc driver
package sqlite

import (
	"context"
	"database/sql"
	"errors"

	_ "modernc.org/sqlite"
)

// Config configures the sqlite file
type Config struct {
	// Path is a file path or ":memory:"
	Path string
}

// Open opens the database, enables WAL for file databases and pings it
func Open(ctx context.Context, cfg Config) (*sql.DB, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlite: empty path")
	}
	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, err
	}
	if cfg.Path == ":memory:" {
		// each pooled conn would get its own empty database
		db.SetMaxOpenConns(1)
	} else if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
