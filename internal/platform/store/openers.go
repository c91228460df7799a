package store

import (
	"context"
	"fmt"
	"time"

	chx "chatminer/internal/platform/store/ch"
	"chatminer/internal/platform/store/pg"
	"chatminer/internal/platform/store/sqlite"
)

// seams for tests
var (
	pgOpen     = pg.Open
	sqliteOpen = sqlite.Open
	chOpen     = chx.Open
	sleep      = time.Sleep
)

// openPG opens pg and wraps it with our adapter once the pool answers a ping
func openPG(ctx context.Context, cfg Config, s *Store) (RowQuerier, error) {
	var tracer QueryTracer
	if cfg.PG.LogSQL {
		tracer = Tracer(s.Log, DialectPostgres)
	}

	p, err := pgOpen(ctx, pg.Config{
		URL:      cfg.PG.URL,
		MaxConns: cfg.PG.MaxConns,
		AppName:  cfg.AppName,
	}, nil)
	if err != nil {
		return nil, err
	}

	attempts := cfg.PG.ConnectRetries
	if attempts <= 0 {
		attempts = 6
	}
	pingTimeout := cfg.PG.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = 3 * time.Second
	}
	const (
		backoffStart   = 150 * time.Millisecond
		backoffCeiling = 2 * time.Second
	)

	var lastErr error
	backoff := backoffStart
	for i := 0; i < attempts; i++ {
		toCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		lastErr = p.Pool.Ping(toCtx)
		cancel()

		if lastErr == nil {
			return newPGAdapter(p, tracer, cfg.PG.SlowQueryMs), nil
		}
		if ctx.Err() != nil {
			p.Close()
			return nil, ctx.Err()
		}
		s.Log.Debug().Int("attempt", i+1).Dur("backoff", backoff).Err(lastErr).Msg("postgres not ready")
		sleep(backoff)
		if backoff < backoffCeiling {
			backoff *= 2
			if backoff > backoffCeiling {
				backoff = backoffCeiling
			}
		}
	}

	p.Close()
	return nil, fmt.Errorf("postgres ping failed after %d attempts: %w", attempts, lastErr)
}

func openSQLite(ctx context.Context, cfg Config, s *Store) (RowQuerier, error) {
	db, err := sqliteOpen(ctx, sqlite.Config{Path: cfg.Lite.Path})
	if err != nil {
		return nil, err
	}
	var tracer QueryTracer
	if cfg.Lite.LogSQL {
		tracer = Tracer(s.Log, DialectSQLite)
	}
	return newDBAdapter(db, tracer), nil
}

func openCH(ctx context.Context, cfg Config, _ *Store) (Clickhouse, error) {
	c, err := chOpen(ctx, chx.Config{URL: cfg.CH.URL, Role: cfg.CH.Role})
	if err != nil {
		return nil, err
	}
	return newCHAdapter(c), nil
}
