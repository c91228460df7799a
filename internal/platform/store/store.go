// Package store provides a unified read seam over the optional message backends
package store

import (
	"context"
	"errors"
	"fmt"

	"chatminer/internal/platform/logger"
)

// Dialect names a backend and decides placeholder style
type Dialect string

const (
	// DialectPostgres uses $1, $2 placeholders
	DialectPostgres Dialect = "postgres"
	// DialectSQLite uses ? placeholders
	DialectSQLite Dialect = "sqlite"
	// DialectClickhouse uses ? placeholders
	DialectClickhouse Dialect = "clickhouse"
)

// Placeholder returns the bind marker for the n-th (1-based) argument
func (d Dialect) Placeholder(n int) string {
	if d == DialectPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// Store is the facade for optional backends
// zero value is safe but does nothing
type Store struct {
	// Log is the logger used by subclients
	// zero means a no op zerolog logger
	Log logger.Logger

	// PG is the postgres seam, nil when disabled
	PG RowQuerier

	// Lite is the sqlite seam, nil when disabled
	Lite RowQuerier

	// CH is the clickhouse seam, nil when disabled
	CH Clickhouse
}

// Row exposes the minimal scan contract a single row needs
type Row interface {
	Scan(dest ...any) error
}

// Rows exposes the minimal iteration and scan for a result set
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
	Columns() []string
}

// CommandTag is a tiny interface to inspect command results
type CommandTag interface {
	String() string
	RowsAffected() int64
}

// Querier is the read-only surface a message source needs
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
}

// RowQuerier is the read and write surface for row stores (seeding, fixtures, probes)
type RowQuerier interface {
	Querier
	Exec(ctx context.Context, sql string, args ...any) (CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) Row
}

// Clickhouse is a tiny seam for columnar queries
type Clickhouse interface {
	Querier
	Close() error
}

// Pinger is any seam that can report readiness
type Pinger interface{ Ping(context.Context) error }

// Open constructs a Store with the requested backends
// backends not enabled in cfg remain nil on the Store
func Open(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	s := &Store{}
	for _, o := range opts {
		if err := o(s); err != nil {
			return nil, err
		}
	}

	// defaults for zero logger to avoid nil checks
	s.Log = s.Log.With().Logger()

	if cfg.PG.Enabled {
		pgClient, err := openPG(ctx, cfg, s)
		if err != nil {
			return nil, err
		}
		s.PG = pgClient
	}

	if cfg.Lite.Enabled {
		lite, err := openSQLite(ctx, cfg, s)
		if err != nil {
			_ = s.Close(ctx)
			return nil, err
		}
		s.Lite = lite
	}

	if cfg.CH.Enabled {
		chClient, err := openCH(ctx, cfg, s)
		if err != nil {
			_ = s.Close(ctx)
			return nil, err
		}
		s.CH = chClient
	}

	return s, nil
}

// Reader returns the query seam and dialect for a configured backend
func (s *Store) Reader(d Dialect) (Querier, error) {
	if s == nil {
		return nil, errors.New("nil store")
	}
	switch d {
	case DialectPostgres:
		if s.PG != nil {
			return s.PG, nil
		}
	case DialectSQLite:
		if s.Lite != nil {
			return s.Lite, nil
		}
	case DialectClickhouse:
		if s.CH != nil {
			return s.CH, nil
		}
	default:
		return nil, fmt.Errorf("store: unknown dialect %q", d)
	}
	return nil, fmt.Errorf("store: %s backend not enabled", d)
}

// Guard verifies all configured seams that can report readiness
func (s *Store) Guard(ctx context.Context) error {
	if s == nil {
		return errors.New("nil store")
	}
	var errs []error
	check := func(name string, seam any) {
		if seam == nil {
			return
		}
		if p, ok := seam.(Pinger); ok {
			if err := p.Ping(ctx); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
			}
		}
	}
	if s.PG != nil {
		check("pg", s.PG)
	}
	if s.Lite != nil {
		check("sqlite", s.Lite)
	}
	if s.CH != nil {
		check("ch", s.CH)
	}
	return errors.Join(errs...)
}

// Close closes all initialized backends gracefully
// nil backends are ignored
func (s *Store) Close(_ context.Context) error {
	if s == nil {
		return nil
	}
	var errs []error

	if s.CH != nil {
		if e := s.CH.Close(); e != nil {
			errs = append(errs, e)
		}
	}
	for _, seam := range []any{s.Lite, s.PG} {
		if c, ok := seam.(interface{ Close() error }); ok {
			if e := c.Close(); e != nil {
				errs = append(errs, e)
			}
		}
	}

	return errors.Join(errs...)
}
