//go:build integration_pg
// +build integration_pg

package pg

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startPostgres boots a throwaway postgres; first image pull can be slow
func startPostgres(t *testing.T) (dsn string, stop func()) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)

	req := tc.ContainerRequest{
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
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		cancel()
		t.Fatalf("failed to start postgres container: %v", err)
	}

	host, err := c.Host(ctx)
	if err != nil {
		_ = c.Terminate(context.Background())
		cancel()
		t.Fatalf("failed to get container host: %v", err)
	}
	mapped, err := c.MappedPort(ctx, "5432/tcp")
	if err != nil {
		_ = c.Terminate(context.Background())
		cancel()
		t.Fatalf("failed to get mapped port: %v", err)
	}

	dsn = fmt.Sprintf("postgres://postgres:postgres@%s:%s/postgres?sslmode=disable", host, mapped.Port())
	stop = func() {
		_ = c.Terminate(context.Background())
		cancel()
	}
	return dsn, stop
}

func TestOpen_MessagesRoundTrip_Integration(t *testing.T) {
	dsn, stop := startPostgres(t)
	defer stop()

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	appName := "chatminer-pg-integration"

	WithTestDB(t, dsn, Config{AppName: appName}, func(pc *pgxpool.Config) {
		pc.MinConns = 1
	}, func(p *PG) {
		if err := p.Pool.Ping(ctx); err != nil {
			t.Fatalf("ping: %v", err)
		}

		if _, err := p.Pool.Exec(ctx, `create table messages (
			id text primary key,
			chat_id text not null,
			author text,
			body text,
			is_forwarded boolean not null default false,
			created_at timestamptz
		)`); err != nil {
			t.Fatalf("create table: %v", err)
		}

		batch := &pgx.Batch{}
		batch.Queue(`insert into messages (id, chat_id, author, body, created_at) values ($1,$2,$3,$4,$5)`,
			"m1", "grp-1", "628111@c.us", "minta update truk B 1234 CD", time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC))
		batch.Queue(`insert into messages (id, chat_id, author, body) values ($1,$2,$3,$4)`,
			"m2", "grp-1", "628222@c.us", "ada kendala di jalan")
		br := p.Pool.SendBatch(ctx, batch)
		for i := 0; i < 2; i++ {
			if _, err := br.Exec(); err != nil {
				_ = br.Close()
				t.Fatalf("insert %d failed: %v", i, err)
			}
		}
		if err := br.Close(); err != nil {
			t.Fatalf("batch close: %v", err)
		}

		type row struct {
			ID   string
			Body string
		}
		rows, err := p.Pool.Query(ctx, `select id, body from messages where chat_id = $1 order by id`, "grp-1")
		if err != nil {
			t.Fatalf("query rows: %v", err)
		}
		got, err := pgx.CollectRows(rows, pgx.RowToStructByPos[row])
		if err != nil {
			t.Fatalf("collect: %v", err)
		}
		if len(got) != 2 || got[0].ID != "m1" || got[1].Body != "ada kendala di jalan" {
			t.Fatalf("unexpected rows: %#v", got)
		}

		var gotApp string
		if err := p.Pool.QueryRow(ctx, `select current_setting('application_name')`).Scan(&gotApp); err != nil {
			t.Fatalf("check app name: %v", err)
		}
		if gotApp != appName {
			t.Fatalf("application_name mismatch: got %q want %q", gotApp, appName)
		}
	})
}
