package module

import (
	"time"

	"chatminer/internal/adapters/export"
	"chatminer/internal/core/severity"
	"chatminer/internal/platform/config"
	perr "chatminer/internal/platform/errors"
	ptime "chatminer/internal/platform/time"
	"chatminer/internal/platform/validate"
	"chatminer/internal/services/mining/domain"
	"chatminer/internal/services/mining/service"
)

// Source kinds accepted by SOURCE_KIND
const (
	SourceJSONL      = "jsonl"
	SourcePostgres   = "postgres"
	SourceSQLite     = "sqlite"
	SourceClickhouse = "clickhouse"
)

// Options holds configuration settings for one mining pass
type Options struct {
	Variant domain.Variant `validate:"oneof=intent complain"`

	MinPhraseCount int `validate:"min=1"`
	MaxExamples    int `validate:"min=1,max=50"`
	MinN           int `validate:"min=1,max=6"`
	MaxN           int `validate:"min=1,max=6,gtefield=MinN"`

	ChatID           string
	ExcludeForwarded bool
	StartDate        string
	EndDate          string

	RequirePlate        bool
	RequireIndonesian   bool
	SeedPhrases         []string
	ContrastNormal      bool
	MinSeverity         string `validate:"omitempty,oneof=none low medium high critical"`
	SeverityPerCategory bool
	MaxMessages         int `validate:"min=0"`

	UserAdminPath string `validate:"required"`
	LexiconPath   string
	Output        string `validate:"required"`

	SourceKind  string `validate:"oneof=jsonl postgres sqlite clickhouse"`
	SourceDSN   string `validate:"required"`
	SourceTable string

	PGMaxConns int32
	LogSQL     bool
}

// FromConfig reads the pass options with the CHATMINER_ prefix. Defaults
// differ per variant: intent passes require a truck number, complaint passes
// require Indonesian text
func FromConfig(cfg config.Conf, v domain.Variant, now time.Time) Options {
	c := cfg.Prefix("CHATMINER_")
	return Options{
		Variant: v,

		MinPhraseCount: c.MayInt("MIN_PHRASE_COUNT", 2),
		MaxExamples:    c.MayInt("MAX_EXAMPLES_PER_PHRASE", 3),
		MinN:           c.MayInt("MIN_N", 1),
		MaxN:           c.MayInt("MAX_N", 3),

		ChatID:           c.MayString("CHAT_ID", ""),
		ExcludeForwarded: c.MayBool("EXCLUDE_FORWARDED", true),
		StartDate:        c.MayString("START_DATE", ""),
		EndDate:          c.MayString("END_DATE", ""),

		RequirePlate:        c.MayBool("REQUIRE_TRUCK_NUMBER", v == domain.VariantIntent),
		RequireIndonesian:   c.MayBool("REQUIRE_INDONESIAN", v == domain.VariantComplain),
		SeedPhrases:         c.MayCSV("COMPLAIN_SEED_PHRASES", nil),
		ContrastNormal:      c.MayBool("CONTRAST_NORMAL", false),
		MinSeverity:         c.MayString("MIN_SEVERITY", ""),
		SeverityPerCategory: c.MayBool("SEVERITY_PER_CATEGORY", false),
		MaxMessages:         c.MayInt("MAX_MESSAGES", 0),

		UserAdminPath: c.MayString("USER_ADMIN_JSON", "user_admin.json"),
		LexiconPath:   c.MayString("LEXICON_PATH", ""),
		Output:        c.MayString("OUTPUT", export.DefaultPath(v, now)),

		SourceKind:  c.MayString("SOURCE_KIND", SourceJSONL),
		SourceDSN:   c.MayString("SOURCE_DSN", "messages.jsonl"),
		SourceTable: c.MayString("SOURCE_TABLE", "messages"),

		PGMaxConns: int32(c.MayInt("PG_MAX_CONNS", 2)),
		LogSQL:     c.MayBool("LOG_SQL", false),
	}
}

// Validate checks tags and parses the date bounds
func (o Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		return err
	}
	_, err := o.ServiceConfig()
	return err
}

// ServiceConfig converts options into the service's pass config.
// END_DATE given as a bare date covers that whole day
func (o Options) ServiceConfig() (service.Config, error) {
	sc := service.Config{
		Variant: o.Variant,
		Filter: domain.Filter{
			ChatID:           o.ChatID,
			ExcludeForwarded: o.ExcludeForwarded,
		},
		MinN:                o.MinN,
		MaxN:                o.MaxN,
		MinPhraseCount:      o.MinPhraseCount,
		MaxExamples:         o.MaxExamples,
		RequirePlate:        o.RequirePlate,
		RequireIndonesian:   o.RequireIndonesian,
		SeedPhrases:         o.SeedPhrases,
		ContrastNormal:      o.ContrastNormal,
		SeverityPerCategory: o.SeverityPerCategory,
		MaxMessages:         o.MaxMessages,
	}

	if o.StartDate != "" {
		t, ok := ptime.ParseString(o.StartDate)
		if !ok {
			return service.Config{}, perr.WithField(perr.Configf("invalid START_DATE %q", o.StartDate), "START_DATE")
		}
		sc.Start = &t
	}
	if o.EndDate != "" {
		t, ok := ptime.ParseUpperBound(o.EndDate)
		if !ok {
			return service.Config{}, perr.WithField(perr.Configf("invalid END_DATE %q", o.EndDate), "END_DATE")
		}
		sc.End = &t
	}
	if sc.Start != nil && sc.End != nil && sc.End.Before(*sc.Start) {
		return service.Config{}, perr.WithField(perr.Configf("END_DATE %s is before START_DATE %s", o.EndDate, o.StartDate), "END_DATE")
	}

	if o.MinSeverity != "" {
		lvl, err := severity.ParseLevel(o.MinSeverity)
		if err != nil {
			return service.Config{}, perr.WithField(err, "MIN_SEVERITY")
		}
		sc.MinSeverity = lvl
	}
	return sc, nil
}
