package module

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"chatminer/internal/modkit"
	"chatminer/internal/platform/config"
	perr "chatminer/internal/platform/errors"
	"chatminer/internal/platform/store"
	"chatminer/internal/services/mining/domain"
)

const userAdmin = `{"user_admin": [
	{"phone": "0811111111", "status": 1},
	{"phone": "0822222222", "status": 0}
]}`

const chats = `{"id": "1", "chat_id": "c1", "author": "0812000001", "body": "ada kendala ban bocor di tol", "created_at": "2024-05-01T08:00:00Z"}
{"id": "2", "chat_id": "c1", "author": "0812000002", "body": "ban bocor lagi, ada kendala", "created_at": "2024-05-01T09:00:00Z"}
{"id": "3", "chat_id": "c1", "author": "0812000003", "body": "kenapa ban bocor terus", "created_at": "2024-05-02T09:00:00Z"}
{"id": "4", "chat_id": "c1", "author": "0812000004", "body": "minta update posisi", "created_at": "2024-05-02T10:00:00Z"}
{"id": "5", "chat_id": "c1", "author": "0811111111", "body": "ada kendala ban bocor", "created_at": "2024-05-02T11:00:00Z"}
{"id": "6", "chat_id": "c2", "author": "0812000005", "body": "ada kendala ban bocor", "created_at": "2024-05-02T12:00:00Z"}
`

func baseOptions(t *testing.T) Options {
	t.Helper()
	dir := t.TempDir()
	ua := filepath.Join(dir, "user_admin.json")
	src := filepath.Join(dir, "chats.jsonl")
	if err := os.WriteFile(ua, []byte(userAdmin), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(src, []byte(chats), 0o600); err != nil {
		t.Fatal(err)
	}
	return Options{
		Variant:          domain.VariantIntent,
		MinPhraseCount:   2,
		MaxExamples:      3,
		MinN:             1,
		MaxN:             3,
		ChatID:           "c1",
		ExcludeForwarded: true,
		UserAdminPath:    ua,
		Output:           filepath.Join(dir, "out", "intent.csv"),
		SourceKind:       SourceJSONL,
		SourceDSN:        src,
		SourceTable:      "messages",
	}
}

func TestModule_JSONLToCSV(t *testing.T) {
	ctx := context.Background()
	opts := baseOptions(t)

	m, err := New(ctx, modkit.Deps{Cfg: config.New()}, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer func() { _ = m.Close(ctx) }()

	if m.Name() != "mining-intent" {
		t.Fatalf("Name = %q", m.Name())
	}
	runner := modkit.MustPortsOf[domain.RunnerPort](m)

	rep, err := runner.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.Stats.Read != 5 || rep.Stats.Internal != 1 {
		t.Fatalf("stats = %+v", rep.Stats)
	}
	if rep.Stats.Labeled["problem"] != 3 || rep.Stats.Labeled["update"] != 1 {
		t.Fatalf("labeled = %v", rep.Stats.Labeled)
	}

	f, err := os.Open(opts.Output)
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	defer f.Close()
	recs, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("csv: %v", err)
	}
	if strings.Join(recs[0][:6], ",") != "phrase,suggested_class,weight,type,problem_count,update_count" {
		t.Fatalf("header = %v", recs[0])
	}
	var found bool
	for _, r := range recs[1:] {
		if r[0] == "ban bocor" {
			found = true
			if strings.Join(r[1:7], ",") != "problem,3,strong,3,0,3.00" {
				t.Fatalf("ban bocor row = %v", r)
			}
		}
		if r[0] == "ada kendala" {
			t.Fatalf("known keyword suggested: %v", r)
		}
	}
	if !found {
		t.Fatalf("ban bocor not suggested: %v", recs)
	}
}

func TestModule_SQLiteSource(t *testing.T) {
	ctx := context.Background()
	opts := baseOptions(t)
	dbPath := filepath.Join(t.TempDir(), "chat.db")

	st, err := store.Open(ctx, store.Config{Lite: store.SQLiteConfig{Enabled: true, Path: dbPath}})
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	if _, err := st.Lite.Exec(ctx, `CREATE TABLE chat_messages (id TEXT, chat_id TEXT, author TEXT, body TEXT, is_forwarded INTEGER, created_at TEXT)`); err != nil {
		t.Fatalf("create: %v", err)
	}
	for i, body := range []string{"ada kendala ban bocor", "ban bocor lagi kenapa", "minta update posisi"} {
		if _, err := st.Lite.Exec(ctx, `INSERT INTO chat_messages VALUES (?, 'c1', ?, ?, 0, ?)`,
			i+1, "08120000"+string(rune('1'+i)), body, time.Date(2024, 5, 1, i, 0, 0, 0, time.UTC).Format(time.RFC3339)); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	_ = st.Close(ctx)

	opts.SourceKind = SourceSQLite
	opts.SourceDSN = dbPath
	opts.SourceTable = "chat_messages"
	opts.Output = filepath.Join(t.TempDir(), "intent.xlsx")

	m, err := New(ctx, modkit.Deps{}, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	rep, err := m.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.Stats.Read != 3 || rep.Stats.Labeled["problem"] != 2 {
		t.Fatalf("stats = %+v", rep.Stats)
	}
	if _, err := os.Stat(opts.Output); err != nil {
		t.Fatalf("xlsx not written: %v", err)
	}
	if err := m.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := m.Close(ctx); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestModule_ConfigErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("missing lexicon", func(t *testing.T) {
		opts := baseOptions(t)
		opts.LexiconPath = filepath.Join(t.TempDir(), "nope.yaml")
		if _, err := New(ctx, modkit.Deps{}, opts); !perr.IsCode(err, perr.ErrorCodeConfig) {
			t.Fatalf("want config error, got %v", err)
		}
	})
	t.Run("bad table", func(t *testing.T) {
		opts := baseOptions(t)
		opts.SourceKind = SourceSQLite
		opts.SourceDSN = filepath.Join(t.TempDir(), "x.db")
		opts.SourceTable = "x; drop"
		if _, err := New(ctx, modkit.Deps{}, opts); !perr.IsCode(err, perr.ErrorCodeConfig) {
			t.Fatalf("want config error, got %v", err)
		}
	})
	t.Run("missing user admin fails at run", func(t *testing.T) {
		opts := baseOptions(t)
		opts.UserAdminPath = filepath.Join(t.TempDir(), "none.json")
		m, err := New(ctx, modkit.Deps{}, opts)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		if _, err := m.Run(ctx); !perr.IsCode(err, perr.ErrorCodeConfig) {
			t.Fatalf("want config error, got %v", err)
		}
		if _, err := os.Stat(opts.Output); !os.IsNotExist(err) {
			t.Fatalf("no export expected, stat err = %v", err)
		}
	})
}

func TestBuilder_ReadsEnv(t *testing.T) {
	opts := baseOptions(t)
	t.Setenv("CHATMINER_USER_ADMIN_JSON", opts.UserAdminPath)
	t.Setenv("CHATMINER_SOURCE_DSN", opts.SourceDSN)
	t.Setenv("CHATMINER_OUTPUT", opts.Output)
	t.Setenv("CHATMINER_REQUIRE_TRUCK_NUMBER", "0")

	m, err := Builder(domain.VariantIntent)(context.Background(), modkit.Deps{Cfg: config.New()})
	if err != nil {
		t.Fatalf("Builder: %v", err)
	}
	defer func() { _ = m.Close(context.Background()) }()

	got := m.(*Module).Options()
	if got.RequirePlate || got.SourceKind != SourceJSONL || got.ChatID != "" {
		t.Fatalf("options = %+v", got)
	}

	t.Setenv("CHATMINER_MAX_N", "0")
	if _, err := Builder(domain.VariantIntent)(context.Background(), modkit.Deps{Cfg: config.New()}); !perr.IsCode(err, perr.ErrorCodeValidation) {
		t.Fatalf("want validation error, got %v", err)
	}
}
