package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// dbAdapter wraps a database/sql pool (sqlite) and implements RowQuerier
type dbAdapter struct {
	db     *sql.DB
	tracer QueryTracer
}

func newDBAdapter(db *sql.DB, tracer QueryTracer) *dbAdapter {
	return &dbAdapter{db: db, tracer: tracer}
}

// NewSQLSeam wraps an already opened *sql.DB, used by tests and tools that own the handle
func NewSQLSeam(db *sql.DB) RowQuerier { return newDBAdapter(db, nil) }

func (a *dbAdapter) Ping(ctx context.Context) error {
	if a == nil || a.db == nil {
		return errors.New("sql: nil adapter")
	}
	return a.db.PingContext(ctx)
}

func (a *dbAdapter) Close() error { return a.db.Close() }

func (a *dbAdapter) Exec(ctx context.Context, q string, args ...any) (CommandTag, error) {
	start := time.Now()
	res, err := a.db.ExecContext(ctx, q, args...)
	emit(ctx, a.tracer, 0, q, args, start, err)
	if err != nil {
		return nil, err
	}
	n, _ := res.RowsAffected()
	return sqlTag{n: n}, nil
}

func (a *dbAdapter) Query(ctx context.Context, q string, args ...any) (Rows, error) {
	start := time.Now()
	rs, err := a.db.QueryContext(ctx, q, args...)
	emit(ctx, a.tracer, 0, q, args, start, err)
	if err != nil {
		return nil, err
	}
	return &sqlRows{r: rs}, nil
}

func (a *dbAdapter) QueryRow(ctx context.Context, q string, args ...any) Row {
	start := time.Now()
	r := a.db.QueryRowContext(ctx, q, args...)
	return sqlRow{r: r, after: func(err error) { emit(ctx, a.tracer, 0, q, args, start, err) }}
}

type sqlRow struct {
	r     *sql.Row
	after func(error)
}

func (x sqlRow) Scan(dst ...any) error {
	err := x.r.Scan(dst...)
	if x.after != nil {
		x.after(err)
	}
	return err
}

type sqlRows struct {
	r    *sql.Rows
	cols []string
}

func (x *sqlRows) Next() bool            { return x.r.Next() }
func (x *sqlRows) Scan(dst ...any) error { return x.r.Scan(dst...) }
func (x *sqlRows) Err() error            { return x.r.Err() }
func (x *sqlRows) Close()                { _ = x.r.Close() }
func (x *sqlRows) Columns() []string {
	if x.cols == nil {
		x.cols, _ = x.r.Columns()
	}
	return x.cols
}

type sqlTag struct{ n int64 }

func (t sqlTag) String() string      { return fmt.Sprintf("OK %d", t.n) }
func (t sqlTag) RowsAffected() int64 { return t.n }
