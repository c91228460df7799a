// Package sqlstore streams chat messages from a messages table on postgres, sqlite or clickhouse
package sqlstore

import (
	"context"
	"io"
	"regexp"
	"strconv"
	"strings"

	perr "chatminer/internal/platform/errors"
	"chatminer/internal/platform/logger"
	"chatminer/internal/platform/store"
	ptime "chatminer/internal/platform/time"
	"chatminer/internal/services/mining/domain"
)

// DefaultTable is the table read when none is configured
const DefaultTable = "messages"

var tableRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// dialectSQL holds the per-backend column expressions. Every column is read
// as text except created_at, which postgres and sqlite hand back natively
type dialectSQL struct {
	columns      string
	notForwarded string
	tsAsText     bool
}

var dialects = map[store.Dialect]dialectSQL{
	store.DialectPostgres: {
		columns:      `id::text, COALESCE(chat_id, ''), COALESCE(author, ''), COALESCE(body, ''), COALESCE(is_forwarded::text, 'false'), created_at`,
		notForwarded: `is_forwarded IS NOT TRUE`,
	},
	store.DialectSQLite: {
		columns:      `CAST(id AS TEXT), COALESCE(chat_id, ''), COALESCE(author, ''), COALESCE(body, ''), COALESCE(CAST(is_forwarded AS TEXT), '0'), created_at`,
		notForwarded: `COALESCE(is_forwarded, 0) = 0`,
	},
	store.DialectClickhouse: {
		columns:      `toString(id), ifNull(chat_id, ''), ifNull(author, ''), ifNull(body, ''), ifNull(toString(is_forwarded), '0'), ifNull(toString(created_at), '')`,
		notForwarded: `ifNull(is_forwarded, 0) = 0`,
		tsAsText:     true,
	},
}

// Source reads one table through the store seam
type Source struct {
	q       store.Querier
	dialect store.Dialect
	table   string
}

// New validates the table name and dialect. An empty table means DefaultTable
func New(q store.Querier, d store.Dialect, table string) (*Source, error) {
	if q == nil {
		return nil, perr.InvalidArgf("sqlstore: nil querier")
	}
	if _, ok := dialects[d]; !ok {
		return nil, perr.Configf("sqlstore: unsupported dialect %q", d)
	}
	if table == "" {
		table = DefaultTable
	}
	if !tableRe.MatchString(table) {
		return nil, perr.WithField(perr.Configf("sqlstore: invalid table name %q", table), "source_table")
	}
	return &Source{q: q, dialect: d, table: table}, nil
}

// Query builds the select for f and its arguments
func (s *Source) Query(f domain.Filter) (string, []any) {
	ds := dialects[s.dialect]
	var (
		where []string
		args  []any
	)
	if f.ChatID != "" {
		args = append(args, f.ChatID)
		where = append(where, "chat_id = "+s.dialect.Placeholder(len(args)))
	}
	if f.ExcludeForwarded {
		where = append(where, ds.notForwarded)
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(ds.columns)
	b.WriteString(" FROM ")
	b.WriteString(s.table)
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY created_at, id")
	return b.String(), args
}

// Open runs the query and returns a cursor over its rows
func (s *Source) Open(ctx context.Context, f domain.Filter) (domain.Cursor, error) {
	sql, args := s.Query(f)
	rows, err := s.q.Query(ctx, sql, args...)
	if err != nil {
		if s.dialect == store.DialectPostgres {
			return nil, perr.FromPostgresf(err, "sqlstore: query %s", s.table)
		}
		return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "sqlstore: query %s", s.table)
	}
	logger.Named("sqlstore").Debug().
		Str("dialect", string(s.dialect)).
		Str("table", s.table).
		Str("chat_id", f.ChatID).
		Msg("cursor opened")
	return &Cursor{rows: rows, tsAsText: dialects[s.dialect].tsAsText, dialect: s.dialect}, nil
}

// Cursor iterates a result set row by row
type Cursor struct {
	rows     store.Rows
	dialect  store.Dialect
	tsAsText bool
	skipped  int
	done     bool
}

// Next scans the next row. Rows that fail to scan are skipped and counted
func (c *Cursor) Next(ctx context.Context) (domain.Message, error) {
	for {
		if c.done {
			return domain.Message{}, io.EOF
		}
		if err := ctx.Err(); err != nil {
			return domain.Message{}, err
		}
		if !c.rows.Next() {
			c.done = true
			if err := c.rows.Err(); err != nil {
				if c.dialect == store.DialectPostgres {
					return domain.Message{}, perr.WithOp(perr.FromPostgres(err, "sqlstore: iterate rows"), "next")
				}
				return domain.Message{}, perr.Wrap(err, perr.ErrorCodeUnavailable, "sqlstore: iterate rows")
			}
			return domain.Message{}, io.EOF
		}

		var (
			m      domain.Message
			fwd    string
			tsAny  any
			tsText string
			tsDest any = &tsAny
		)
		if c.tsAsText {
			tsDest = &tsText
		}
		if err := c.rows.Scan(&m.ID, &m.ChatID, &m.Author, &m.Body, &fwd, tsDest); err != nil {
			c.skipped++
			continue
		}
		m.Forwarded, _ = strconv.ParseBool(strings.TrimSpace(fwd))
		if c.tsAsText {
			tsAny = tsText
		}
		if t, ok := ptime.ParseAny(tsAny); ok {
			m.Timestamp = &t
		}
		return m, nil
	}
}

// Skipped returns rows that failed to scan
func (c *Cursor) Skipped() int { return c.skipped }

// Close releases the result set
func (c *Cursor) Close() error {
	c.rows.Close()
	return nil
}
