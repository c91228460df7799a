// Package lexicon loads the static keyword, severity, stopword and blocklist
// tables from the embedded lexicon.yaml or an override file
package lexicon

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	perr "chatminer/internal/platform/errors"
	"chatminer/internal/platform/validate"

	"gopkg.in/yaml.v3"
)

//go:embed lexicon.yaml
var embedded []byte

// Weight types
const (
	TypeStrong = "strong"
	TypeMedium = "medium"
	TypeWeak   = "weak"
)

// TypeForWeight maps a keyword weight to its type label; 0 has no type
func TypeForWeight(w int) string {
	switch w {
	case 3:
		return TypeStrong
	case 2:
		return TypeMedium
	case 1:
		return TypeWeak
	}
	return ""
}

// Keyword is one weighted intent phrase
type Keyword struct {
	Phrase string `yaml:"phrase" validate:"required,phrase"`
	Weight int    `yaml:"weight" validate:"min=1,max=3"`
	Type   string `yaml:"type" validate:"oneof=strong medium weak"`
}

// Category is a named, ordered intent keyword list
type Category struct {
	Name     string    `yaml:"name" validate:"required,phrase"`
	Keywords []Keyword `yaml:"keywords" validate:"required,min=1,dive"`
}

// SeverityCategory is a complaint pattern list with a fixed weight per hit
type SeverityCategory struct {
	Name    string   `yaml:"name" validate:"required,phrase"`
	Weight  int      `yaml:"weight" validate:"min=1,max=10"`
	Phrases []string `yaml:"phrases" validate:"required,min=1,dive,phrase"`
}

// Blocklist holds phrases and tokens never mined as suggestions
type Blocklist struct {
	Tokens  []string `yaml:"tokens" validate:"dive,phrase"`
	Phrases []string `yaml:"phrases" validate:"dive,phrase"`
}

// Lexicon is the full static configuration of a run
type Lexicon struct {
	Version         int                `yaml:"version"`
	CountryCode     string             `yaml:"country_code" validate:"required,numeric"`
	TrunkPrefix     string             `yaml:"trunk_prefix" validate:"omitempty,numeric"`
	Intent          []Category         `yaml:"intent" validate:"required,min=1,dive"`
	Severity        []SeverityCategory `yaml:"severity" validate:"required,min=1,dive"`
	Stopwords       []string           `yaml:"stopwords" validate:"dive,phrase"`
	Blocklist       Blocklist          `yaml:"blocklist"`
	IndonesianHints []string           `yaml:"indonesian_hints" validate:"dive,phrase"`
	SeedPhrases     []string           `yaml:"complain_seed_phrases" validate:"dive,phrase"`
}

// Load parses and validates the embedded lexicon
func Load() (*Lexicon, error) {
	return Parse(embedded)
}

// Embedded returns a copy of the embedded lexicon source
func Embedded() []byte { return bytes.Clone(embedded) }

// LoadFile parses and validates a lexicon file. A missing or malformed file is a config error
func LoadFile(path string) (*Lexicon, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, perr.Wrapf(err, perr.ErrorCodeConfig, "lexicon: %s not found", path)
		}
		return nil, perr.Wrapf(err, perr.ErrorCodeConfig, "lexicon: read %s", path)
	}
	lex, err := Parse(b)
	if err != nil {
		return nil, perr.WithOp(err, path)
	}
	return lex, nil
}

// Parse decodes YAML strictly (unknown keys are rejected) and validates the result
func Parse(b []byte) (*Lexicon, error) {
	var lex Lexicon
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&lex); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, perr.Configf("lexicon: empty document")
		}
		return nil, perr.Wrap(err, perr.ErrorCodeConfig, "lexicon: decode yaml")
	}
	if err := lex.Validate(); err != nil {
		return nil, err
	}
	return &lex, nil
}

// Encode writes lex as YAML
func Encode(w io.Writer, lex *Lexicon) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(lex); err != nil {
		return err
	}
	return enc.Close()
}

// Validate runs struct validation plus the cross-field rules tags cannot express:
// unique category names and a type that agrees with each keyword's weight
func (l *Lexicon) Validate() error {
	if err := validate.Struct(l); err != nil {
		return err
	}
	seen := map[string]bool{}
	for _, c := range l.Intent {
		if seen[c.Name] {
			return perr.WithField(perr.Validationf("duplicate intent category %q", c.Name), "intent")
		}
		seen[c.Name] = true
		for _, k := range c.Keywords {
			if want := TypeForWeight(k.Weight); k.Type != want {
				return perr.WithField(
					perr.Validationf("keyword %q: weight %d must have type %s, got %s", k.Phrase, k.Weight, want, k.Type),
					"type")
			}
		}
	}
	clear(seen)
	for _, c := range l.Severity {
		if seen[c.Name] {
			return perr.WithField(perr.Validationf("duplicate severity category %q", c.Name), "severity")
		}
		seen[c.Name] = true
	}
	return nil
}

// CategoryNames returns intent category names in declaration order
func (l *Lexicon) CategoryNames() []string {
	out := make([]string, len(l.Intent))
	for i, c := range l.Intent {
		out[i] = c.Name
	}
	return out
}

// IntentPhrases returns the set of every intent keyword phrase
func (l *Lexicon) IntentPhrases() map[string]struct{} {
	out := make(map[string]struct{})
	for _, c := range l.Intent {
		for _, k := range c.Keywords {
			out[k.Phrase] = struct{}{}
		}
	}
	return out
}

// SeverityPhrases returns every severity phrase, in declaration order, without duplicates
func (l *Lexicon) SeverityPhrases() []string {
	var out []string
	seen := map[string]bool{}
	for _, c := range l.Severity {
		for _, p := range c.Phrases {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	return out
}

// Seeds returns the complaint seed phrases, defaulting to every severity phrase
func (l *Lexicon) Seeds() []string {
	if len(l.SeedPhrases) > 0 {
		return append([]string(nil), l.SeedPhrases...)
	}
	return l.SeverityPhrases()
}

// String is a short summary for logs
func (l *Lexicon) String() string {
	kw := 0
	for _, c := range l.Intent {
		kw += len(c.Keywords)
	}
	return fmt.Sprintf("lexicon v%d: %d intent categories (%d keywords), %d severity categories, %d stopwords, %d blocked tokens, %d blocked phrases",
		l.Version, len(l.Intent), kw, len(l.Severity), len(l.Stopwords), len(l.Blocklist.Tokens), len(l.Blocklist.Phrases))
}
