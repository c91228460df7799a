//go:build integration_pg
// +build integration_pg

package sqlstore

import (
	"context"
	"fmt"
	"testing"
	"time"

	"chatminer/internal/platform/store"
	"chatminer/internal/services/mining/domain"

	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startPostgres(t *testing.T) string {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	t.Cleanup(cancel)

	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "postgres",
				"POSTGRES_DB":       "postgres",
			},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort("5432/tcp"),
				wait.ForLog("database system is ready to accept connections"),
			).WithDeadline(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := c.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	return fmt.Sprintf("postgres://postgres:postgres@%s:%s/postgres?sslmode=disable", host, port.Port())
}

func TestOpen_Postgres_Integration(t *testing.T) {
	dsn := startPostgres(t)
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	s, err := store.Open(ctx, store.Config{PG: store.PGConfig{Enabled: true, URL: dsn}})
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	defer func() { _ = s.Close(ctx) }()

	if _, err := s.PG.Exec(ctx, `CREATE TABLE messages (
		id bigint PRIMARY KEY,
		chat_id text,
		author text,
		body text,
		is_forwarded boolean,
		created_at timestamptz
	)`); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.PG.Exec(ctx, `INSERT INTO messages VALUES
		(1, 'c1', '62811', 'ban bocor', false, '2024-05-01T08:00:00Z'),
		(2, 'c1', '62812', 'fwd', true, '2024-05-01T09:00:00Z'),
		(3, 'c1', '62813', 'posisi', NULL, NULL)`); err != nil {
		t.Fatalf("insert: %v", err)
	}

	q, err := s.Reader(store.DialectPostgres)
	if err != nil {
		t.Fatalf("Reader: %v", err)
	}
	src, err := New(q, store.DialectPostgres, "messages")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	cur, err := src.Open(ctx, domain.Filter{ChatID: "c1", ExcludeForwarded: true})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = cur.Close() }()

	got := drain(t, cur)
	if len(got) != 2 || got[0].ID != "1" || got[1].ID != "3" {
		t.Fatalf("got %+v", got)
	}
	if got[0].Timestamp == nil || got[0].Timestamp.Hour() != 8 {
		t.Fatalf("timestamp = %v", got[0].Timestamp)
	}
	if got[1].Timestamp != nil {
		t.Fatalf("NULL created_at should stay nil")
	}
}
