package store

import (
	"context"
	"errors"
	"testing"

	"chatminer/internal/platform/store/ch"
)

type fakeCHRows struct {
	vals   []int32
	i      int
	err    error
	closed bool
}

func (r *fakeCHRows) Next() bool {
	if r.i >= len(r.vals) {
		return false
	}
	r.i++
	return true
}

func (r *fakeCHRows) Scan(dest ...any) error {
	if p, ok := dest[0].(*int32); ok {
		*p = r.vals[r.i-1]
	}
	return nil
}
func (r *fakeCHRows) Err() error        { return r.err }
func (r *fakeCHRows) Close() error      { r.closed = true; return nil }
func (r *fakeCHRows) Columns() []string { return []string{"v"} }

type fakeCH struct {
	rows   *fakeCHRows
	qerr   error
	closed bool
}

func (f *fakeCH) Query(context.Context, string, ...any) (ch.Rows, error) {
	if f.qerr != nil {
		return nil, f.qerr
	}
	return f.rows, nil
}
func (f *fakeCH) Close() error { f.closed = true; return nil }

func TestCHAdapter_QueryAndPing(t *testing.T) {
	t.Parallel()

	rows := &fakeCHRows{vals: []int32{1}}
	f := &fakeCH{rows: rows}
	a := &clickhouseAdapter{inner: f}

	if err := a.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if !rows.closed {
		t.Fatalf("ping should close rows")
	}

	rows2 := &fakeCHRows{vals: []int32{7, 8}}
	f.rows = rows2
	r, err := a.Query(context.Background(), "SELECT v FROM messages")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	var got []int32
	for r.Next() {
		var v int32
		_ = r.Scan(&v)
		got = append(got, v)
	}
	r.Close()
	if len(got) != 2 || got[1] != 8 || r.Columns()[0] != "v" || !rows2.closed {
		t.Fatalf("unexpected iteration: %v", got)
	}

	if err := a.Close(); err != nil || !f.closed {
		t.Fatalf("Close not forwarded")
	}
}

func TestCHAdapter_PingErrors(t *testing.T) {
	t.Parallel()

	if err := (&clickhouseAdapter{inner: &fakeCH{qerr: errors.New("down")}}).Ping(context.Background()); err == nil {
		t.Fatalf("query error should surface")
	}
	if err := (&clickhouseAdapter{inner: &fakeCH{rows: &fakeCHRows{}}}).Ping(context.Background()); err == nil {
		t.Fatalf("empty result should error")
	}
	var nilA *clickhouseAdapter
	if err := nilA.Ping(context.Background()); err == nil {
		t.Fatalf("nil adapter should error")
	}
	if _, err := (&clickhouseAdapter{inner: &fakeCH{qerr: errors.New("x")}}).Query(context.Background(), "q"); err == nil {
		t.Fatalf("query error should surface")
	}
}
