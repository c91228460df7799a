// Command chatminer-intent mines candidate problem/update keywords from customer chats
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"chatminer/internal/core/version"
	"chatminer/internal/modkit"
	"chatminer/internal/platform/config"
	perr "chatminer/internal/platform/errors"
	"chatminer/internal/platform/logger"

	miningdom "chatminer/internal/services/mining/domain"
	miningmod "chatminer/internal/services/mining/module"
)

// flag name -> env key read by miningmod.FromConfig
var flagEnv = map[string]string{
	"source":            "CHATMINER_SOURCE_KIND",
	"dsn":               "CHATMINER_SOURCE_DSN",
	"table":             "CHATMINER_SOURCE_TABLE",
	"chat":              "CHATMINER_CHAT_ID",
	"start":             "CHATMINER_START_DATE",
	"end":               "CHATMINER_END_DATE",
	"out":               "CHATMINER_OUTPUT",
	"lexicon":           "CHATMINER_LEXICON_PATH",
	"user-admin":        "CHATMINER_USER_ADMIN_JSON",
	"min-count":         "CHATMINER_MIN_PHRASE_COUNT",
	"max-n":             "CHATMINER_MAX_N",
	"max-messages":      "CHATMINER_MAX_MESSAGES",
	"require-truck":     "CHATMINER_REQUIRE_TRUCK_NUMBER",
	"exclude-forwarded": "CHATMINER_EXCLUDE_FORWARDED",
}

func main() { os.Exit(run()) }

func run() int {
	envFile := flag.String("env", ".env", "dotenv file loaded before reading CHATMINER_* (missing is fine)")
	top := flag.Int("top", 10, "log the first N suggestions")
	showVersion := flag.Bool("version", false, "print build info and exit")
	flag.String("source", "", "message source: jsonl | postgres | sqlite | clickhouse")
	flag.String("dsn", "", "jsonl/sqlite path or postgres/clickhouse URL")
	flag.String("table", "", "messages table for sql sources")
	flag.String("chat", "", "only mine this chat id")
	flag.String("start", "", "inclusive start date (YYYY-MM-DD or RFC3339)")
	flag.String("end", "", "inclusive end date (YYYY-MM-DD covers the whole day)")
	flag.String("out", "", "output .xlsx or .csv")
	flag.String("lexicon", "", "lexicon yaml file or fragment directory (default embedded)")
	flag.String("user-admin", "", "user_admin JSON export of internal staff")
	flag.Int("min-count", 0, "minimum phrase occurrences")
	flag.Int("max-n", 0, "longest n-gram")
	flag.Int("max-messages", 0, "stop after N messages (0 = all)")
	flag.Bool("require-truck", true, "only mine messages that mention a plate or truck number")
	flag.Bool("exclude-forwarded", true, "skip forwarded messages")
	flag.Parse()

	build := version.Info("chatminer-intent")
	if *showVersion {
		fmt.Println(build)
		return 0
	}

	if err := config.LoadDotEnv(*envFile); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "load %s: %v\n", *envFile, err)
		return perr.ExitStatus(perr.ErrorCodeConfig)
	}
	// explicit flags win over env and .env
	flag.Visit(func(f *flag.Flag) {
		if key, ok := flagEnv[f.Name]; ok {
			_ = os.Setenv(key, f.Value.String())
		}
	})

	l := logger.Get()
	l.Info().Str("build", build.String()).Msg("starting")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m, err := miningmod.Builder(miningdom.VariantIntent)(ctx, modkit.Deps{Cfg: config.New(), Log: *l})
	if err != nil {
		l.Error().Err(err).Msg("intent miner setup failed")
		return perr.ExitCode(err)
	}
	defer func() {
		if err := m.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close module")
		}
	}()

	rep, err := modkit.MustPortsOf[miningdom.RunnerPort](m).Run(ctx)
	if err != nil {
		l.Error().Err(err).Msg("intent mining failed")
		return perr.ExitCode(err)
	}

	for i, s := range rep.Suggestions {
		if i >= *top {
			break
		}
		l.Info().
			Str("phrase", s.Phrase).
			Str("class", s.Class).
			Str("type", s.Type).
			Ints("counts", s.Counts).
			Float64("ratio", s.Ratio).
			Msg("suggestion")
	}
	l.Info().
		Str("run_id", rep.Stats.RunID).
		Int("suggestions", len(rep.Suggestions)).
		Str("stopped", rep.Stats.Stopped).
		Msg("intent mining done")
	return 0
}
