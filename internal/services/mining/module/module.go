// Package module wires one mining pass: lexicon, source, directory, sink and service
package module

import (
	"context"
	"time"

	"chatminer/internal/adapters/directory"
	"chatminer/internal/adapters/export"
	"chatminer/internal/adapters/source/jsonl"
	"chatminer/internal/adapters/source/sqlstore"
	"chatminer/internal/core/lexicon"
	"chatminer/internal/core/normalize"
	"chatminer/internal/modkit"
	perr "chatminer/internal/platform/errors"
	"chatminer/internal/platform/store"
	"chatminer/internal/services/mining/domain"
	"chatminer/internal/services/mining/service"
)

// Ports exposed by the mining module
type Ports struct {
	Runner domain.RunnerPort
}

// Module implements modkit.Module for one variant
type Module struct {
	deps  modkit.Deps
	opts  Options
	lex   *lexicon.Lexicon
	store *store.Store
	ports Ports
}

// Builder returns a modkit.Builder for variant v reading options from deps.Cfg
func Builder(v domain.Variant) modkit.Builder {
	return func(ctx context.Context, deps modkit.Deps) (modkit.Module, error) {
		m, err := New(ctx, deps, FromConfig(deps.Cfg, v, time.Now()))
		if err != nil {
			return nil, err
		}
		return m, nil
	}
}

// New validates opts and wires adapters and the service. Any store opened here
// is owned by the module and released by Close
func New(ctx context.Context, deps modkit.Deps, opts Options) (*Module, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	sc, err := opts.ServiceConfig()
	if err != nil {
		return nil, err
	}

	lex, err := lexicon.LoadPath(opts.LexiconPath)
	if err != nil {
		return nil, err
	}
	norm := &normalize.Normalizer{CountryCode: lex.CountryCode, TrunkPrefix: lex.TrunkPrefix}

	m := &Module{deps: deps, opts: opts, lex: lex}
	src, err := m.openSource(ctx)
	if err != nil {
		return nil, err
	}

	svc, err := service.New(src, directory.New(opts.UserAdminPath, norm), export.New(opts.Output), lex, sc)
	if err != nil {
		_ = m.Close(ctx)
		return nil, err
	}
	m.ports = Ports{Runner: svc}

	deps.Log.Info().
		Str("variant", string(opts.Variant)).
		Str("source", opts.SourceKind).
		Str("output", opts.Output).
		Str("lexicon", lex.String()).
		Msg("mining module ready")
	return m, nil
}

func (m *Module) openSource(ctx context.Context) (domain.SourcePort, error) {
	o := m.opts
	if o.SourceKind == SourceJSONL {
		return jsonl.New(o.SourceDSN), nil
	}

	cfg := store.Config{AppName: "chatminer"}
	var d store.Dialect
	switch o.SourceKind {
	case SourcePostgres:
		d = store.DialectPostgres
		cfg.PG = store.PGConfig{Enabled: true, URL: o.SourceDSN, MaxConns: o.PGMaxConns, LogSQL: o.LogSQL}
	case SourceSQLite:
		d = store.DialectSQLite
		cfg.Lite = store.SQLiteConfig{Enabled: true, Path: o.SourceDSN, LogSQL: o.LogSQL}
	case SourceClickhouse:
		d = store.DialectClickhouse
		cfg.CH = store.CHConfig{Enabled: true, URL: o.SourceDSN}
	default:
		return nil, perr.WithField(perr.Configf("unknown source kind %q", o.SourceKind), "SOURCE_KIND")
	}

	st, err := store.Open(ctx, cfg, store.WithLogger(m.deps.Log))
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "open %s source", o.SourceKind)
	}
	m.store = st

	q, err := st.Reader(d)
	if err != nil {
		_ = m.Close(ctx)
		return nil, perr.Wrap(err, perr.ErrorCodeConfig, "source reader")
	}
	src, err := sqlstore.New(q, d, o.SourceTable)
	if err != nil {
		_ = m.Close(ctx)
		return nil, err
	}
	return src, nil
}

// Run executes the pass
func (m *Module) Run(ctx context.Context) (domain.Report, error) {
	return m.ports.Runner.Run(ctx)
}

// Options returns the validated options the module was built with
func (m *Module) Options() Options { return m.opts }

// Lexicon returns the loaded lexicon
func (m *Module) Lexicon() *lexicon.Lexicon { return m.lex }

// Name satisfies modkit.Module
func (m *Module) Name() string { return "mining-" + string(m.opts.Variant) }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// Close releases the store, if one was opened
func (m *Module) Close(ctx context.Context) error {
	if m.store == nil {
		return nil
	}
	err := m.store.Close(ctx)
	m.store = nil
	return err
}
