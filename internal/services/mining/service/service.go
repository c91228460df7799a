// Package service runs one streaming mining pass: read, filter, label, aggregate, rank, export
package service

import (
	"context"
	"errors"
	"io"
	"slices"
	"time"

	"github.com/google/uuid"

	"chatminer/internal/core/intent"
	"chatminer/internal/core/langhint"
	"chatminer/internal/core/lexicon"
	"chatminer/internal/core/matcher"
	"chatminer/internal/core/mining"
	"chatminer/internal/core/normalize"
	"chatminer/internal/core/phrasefilter"
	"chatminer/internal/core/plate"
	"chatminer/internal/core/severity"
	"chatminer/internal/core/tokenize"
	perr "chatminer/internal/platform/errors"
	"chatminer/internal/platform/logger"
	pstrings "chatminer/internal/platform/strings"
	ptime "chatminer/internal/platform/time"
	"chatminer/internal/services/mining/domain"
)

// complaint phrases shorter than this are never mined
const complainMinPhraseLen = 4

// Config holds the options of one pass
type Config struct {
	Variant domain.Variant
	Filter  domain.Filter

	MinN, MaxN     int
	MinPhraseCount int
	MaxExamples    int

	// Inclusive bounds; nil is open
	Start, End *time.Time

	RequirePlate      bool
	RequireIndonesian bool

	// Complaint variant
	SeedPhrases         []string // empty means every severity phrase
	ContrastNormal      bool
	MinSeverity         severity.Level
	SeverityPerCategory bool

	// MaxMessages stops reading after this many records; 0 is unlimited
	MaxMessages int
}

// Service implements domain.RunnerPort
type Service struct {
	Source    domain.SourcePort
	Directory domain.DirectoryPort
	Sink      domain.SinkPort
	Cfg       Config

	norm    *normalize.Normalizer
	tok     *tokenize.Tokenizer
	filter  *phrasefilter.Filter
	intent  *intent.Scorer
	sev     *severity.Scorer
	seeds   *matcher.Matcher
	hints   langhint.Hints
	known   map[string]struct{}
	classes []string

	now   func() time.Time
	newID func() string
}

// New wires a Service over the lexicon tables
func New(src domain.SourcePort, dir domain.DirectoryPort, sink domain.SinkPort, lex *lexicon.Lexicon, cfg Config) (*Service, error) {
	if src == nil || dir == nil || sink == nil {
		return nil, perr.InvalidArgf("mining service requires a source, a directory and a sink")
	}
	if lex == nil {
		return nil, perr.InvalidArgf("mining service requires a lexicon")
	}
	if !cfg.Variant.Valid() {
		return nil, perr.InvalidArgf("unknown variant %q", cfg.Variant)
	}
	if cfg.MinN < 1 {
		cfg.MinN = 1
	}
	if cfg.MaxN < cfg.MinN {
		cfg.MaxN = cfg.MinN
	}
	if cfg.MinSeverity == "" {
		cfg.MinSeverity = severity.LevelNone
	}

	norm := &normalize.Normalizer{CountryCode: lex.CountryCode, TrunkPrefix: lex.TrunkPrefix}
	s := &Service{
		Source: src, Directory: dir, Sink: sink, Cfg: cfg,
		norm:   norm,
		tok:    tokenize.New(norm, lex.Stopwords),
		filter: phrasefilter.New(lex.Blocklist.Phrases, lex.Blocklist.Tokens),
		hints:  langhint.NewHints(lex.IndonesianHints),
		now:    time.Now,
		newID:  uuid.NewString,
	}

	switch cfg.Variant {
	case domain.VariantIntent:
		s.intent = intent.New(lex.Intent)
		s.known = lex.IntentPhrases()
		s.classes = lex.CategoryNames()
	case domain.VariantComplain:
		s.sev = severity.New(lex.Severity, severity.Options{AccumulatePerCategory: cfg.SeverityPerCategory})
		s.filter = s.filter.WithMinLength(complainMinPhraseLen)

		seeds := pstrings.IfEmpty(cfg.SeedPhrases, lex.Seeds())
		normSeeds := pstrings.Dedupe(pstrings.Map(seeds, norm.Text))
		if len(normSeeds) == 0 {
			return nil, perr.InvalidArgf("complaint pass needs at least one seed phrase")
		}
		s.seeds = matcher.New(normSeeds)
		s.Cfg.SeedPhrases = normSeeds

		s.known = map[string]struct{}{}
		for _, p := range lex.SeverityPhrases() {
			s.known[p] = struct{}{}
		}
		for _, p := range normSeeds {
			s.known[p] = struct{}{}
		}
		s.classes = []string{domain.ClassComplain}
		if cfg.ContrastNormal {
			s.classes = append(s.classes, domain.ClassNormal)
		}
	}
	return s, nil
}

// Classes returns the class order of the pass
func (s *Service) Classes() []string { return slices.Clone(s.classes) }

// Run executes one pass. Cancellation and MaxMessages end reading early and the
// pass still finalizes; a source failure aborts without exporting
func (s *Service) Run(ctx context.Context) (domain.Report, error) {
	started := s.now()
	runID := s.newID()
	ctx = logger.WithRun(ctx, runID, string(s.Cfg.Variant))
	log := logger.C(ctx)

	stats := domain.NewRunStats(runID, s.Cfg.Variant)
	for _, c := range s.classes {
		stats.Labeled[c] = 0
	}

	internal, err := s.Directory.Load(ctx)
	if err != nil {
		return domain.Report{}, err
	}
	log.Info().Int("internal_ids", len(internal)).Strs("classes", s.classes).Msg("directory loaded")
	if s.seeds != nil {
		log.Info().Int("seed_phrases", s.seeds.Len()).Msg("seed phrases loaded")
	}

	cur, err := s.Source.Open(ctx, s.Cfg.Filter)
	if err != nil {
		return domain.Report{}, asUnavailable(err, "open message source")
	}
	defer func() {
		if cerr := cur.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("close message source")
		}
	}()

	agg := mining.NewAggregator(s.classes, s.Cfg.MaxExamples)
	stats.Stopped = domain.StopEOF
	for {
		if s.Cfg.MaxMessages > 0 && stats.Read >= s.Cfg.MaxMessages {
			stats.Stopped = domain.StopMaxMessages
			break
		}
		if ctx.Err() != nil {
			stats.Stopped = domain.StopCanceled
			break
		}
		msg, err := cur.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
				stats.Stopped = domain.StopCanceled
				break
			}
			return domain.Report{}, asUnavailable(err, "read message source")
		}
		stats.Read++
		if err := s.observe(ctx, msg, internal, agg, &stats); err != nil {
			return domain.Report{}, err
		}
	}
	if sc, ok := cur.(domain.SkipCounter); ok {
		stats.Skipped += sc.Skipped()
	}

	suggestions := mining.Ranker{
		Known:    s.known,
		Filter:   s.filter,
		MinTotal: s.Cfg.MinPhraseCount,
	}.Rank(agg)
	stats.DistinctPhrases = agg.Len()
	stats.Suggestions = len(suggestions)

	report := domain.Report{
		Variant:     s.Cfg.Variant,
		Classes:     s.Classes(),
		Suggestions: suggestions,
		Stats:       stats,
		GeneratedAt: started,
	}
	if err := s.Sink.Write(context.WithoutCancel(ctx), report); err != nil {
		if _, ok := perr.As(err); !ok {
			err = perr.Wrap(err, perr.ErrorCodeExport, "export suggestions")
		}
		return domain.Report{}, err
	}

	report.Stats.Elapsed = s.now().Sub(started)
	logStats(log, report.Stats)
	return report, nil
}

// observe applies the record filters in order and feeds one qualifying message to agg
func (s *Service) observe(ctx context.Context, msg domain.Message, internal domain.IdentifierSet, agg *mining.Aggregator, st *domain.RunStats) error {
	author, ok := s.norm.Author(msg.Author)
	if !ok || msg.Body == "" {
		st.Skipped++
		return nil
	}
	if internal.Has(author) {
		st.Internal++
		return nil
	}
	if !ptime.Within(msg.Timestamp, s.Cfg.Start, s.Cfg.End) {
		st.Filtered[domain.ReasonDateRange]++
		return nil
	}

	normText := s.norm.Text(msg.Body)
	if s.Cfg.RequireIndonesian && !langhint.IndonesianNormalized(normText, s.hints) {
		st.Filtered[domain.ReasonNotIndonesian]++
		return nil
	}
	if s.Cfg.RequirePlate && !plate.Has(msg.Body) {
		st.Filtered[domain.ReasonNoPlate]++
		return nil
	}

	var class string
	switch s.Cfg.Variant {
	case domain.VariantIntent:
		res := s.intent.Score(normText)
		st.Labeled[res.Label]++
		logger.C(ctx).Debug().
			Str("id", msg.ID).
			Str("body", msg.Body).
			Strs("plates", plate.Extract(msg.Body)).
			Str("intent", res.Label).
			Int("score", res.Score).
			Interface("scores", res.Scores).
			Msg("customer chat")
		if !res.IsCategory() {
			return nil
		}
		class = res.Label

	case domain.VariantComplain:
		sev := s.sev.ScoreText(msg.Body, normText)
		st.Severity[string(sev.Level)]++
		seeded := slices.Contains(s.seeds.Present(normText), true)
		logger.C(ctx).Debug().
			Str("id", msg.ID).
			Str("body", msg.Body).
			Bool("seed", seeded).
			Int("severity", sev.Score).
			Str("level", string(sev.Level)).
			Strs("categories", sev.Categories).
			Msg("customer chat")
		switch {
		case seeded && !sev.Level.AtLeast(s.Cfg.MinSeverity):
			st.Filtered[domain.ReasonBelowSeverity]++
			return nil
		case seeded:
			class = domain.ClassComplain
		case s.Cfg.ContrastNormal:
			class = domain.ClassNormal
		default:
			st.Filtered[domain.ReasonNoSeed]++
			return nil
		}
		st.Labeled[class]++
	}

	return agg.Observe(class, normText, s.phrases(normText))
}

// phrases extracts the unblocked n-grams of normalized text
func (s *Service) phrases(normText string) []string {
	tokens := s.tok.TokenizeNormalized(normText)
	var out []string
	tokenize.EachNgram(tokens, s.Cfg.MinN, s.Cfg.MaxN, func(g string) bool {
		if !s.filter.IsBlocked(g) {
			out = append(out, g)
		}
		return true
	})
	return out
}

func asUnavailable(err error, msg string) error {
	if _, ok := perr.As(err); ok {
		return err
	}
	return perr.Wrap(err, perr.ErrorCodeUnavailable, msg)
}

func logStats(log *logger.Logger, st domain.RunStats) {
	ev := log.Info().
		Int("read", st.Read).
		Int("skipped", st.Skipped).
		Int("internal", st.Internal).
		Interface("filtered", st.Filtered).
		Interface("labeled", st.Labeled).
		Int("distinct_phrases", st.DistinctPhrases).
		Int("suggestions", st.Suggestions).
		Str("stopped", st.Stopped).
		Dur("elapsed", st.Elapsed)
	if st.Variant == domain.VariantComplain {
		ev = ev.Interface("severity", st.Severity)
	}
	ev.Msg("mining pass finished")
}
