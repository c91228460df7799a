package pg

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
)

// WithTestDB opens a PG client for tests, applies an optional pool mutator, and runs fn
// The client is closed automatically on test cleanup
func WithTestDB(t *testing.T, dsn string, cfg Config, poolMut func(*pgxpool.Config), fn func(p *PG)) {
	t.Helper()
	cfg.URL = dsn
	client, err := Open(context.Background(), cfg, poolMut)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { client.Close() })
	fn(client)
}
