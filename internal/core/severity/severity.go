// Package severity scores complaint intensity from weighted pattern hits plus
// shouting signals (all caps, repeated exclamation marks)
package severity

import (
	"strings"
	"unicode/utf8"

	"chatminer/internal/core/lexicon"
	"chatminer/internal/core/matcher"
	"chatminer/internal/core/normalize"
	perr "chatminer/internal/platform/errors"
)

// Level is a discrete escalation tier
type Level string

// Levels from lowest to highest
const (
	LevelNone     Level = "none"
	LevelLow      Level = "low"
	LevelMedium   Level = "medium"
	LevelHigh     Level = "high"
	LevelCritical Level = "critical"
)

// Levels lists every level in ascending order
var Levels = []Level{LevelNone, LevelLow, LevelMedium, LevelHigh, LevelCritical}

// Signal bonuses
const (
	CapsBonus      = 2
	CapsMinRunes   = 11
	ExclaimBonus   = 1
	exclaimPattern = "!!"
)

// LevelFor maps a score to its level: >=7 critical, >=4 high, >=2 medium, >=1 low
func LevelFor(score int) Level {
	switch {
	case score >= 7:
		return LevelCritical
	case score >= 4:
		return LevelHigh
	case score >= 2:
		return LevelMedium
	case score >= 1:
		return LevelLow
	}
	return LevelNone
}

// Rank orders levels; unknown levels rank below none
func (l Level) Rank() int {
	for i, v := range Levels {
		if v == l {
			return i
		}
	}
	return -1
}

// AtLeast reports whether l is at or above min
func (l Level) AtLeast(min Level) bool { return l.Rank() >= min.Rank() }

// ParseLevel parses a level name case-insensitively; "" is none
func ParseLevel(s string) (Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return LevelNone, nil
	}
	if l := Level(s); l.Rank() >= 0 {
		return l, nil
	}
	return "", perr.InvalidArgf("unknown severity level %q", s)
}

// Result is the per-message severity outcome. Categories are deduplicated in first-match order
type Result struct {
	Score      int
	Categories []string
	Phrases    []string
	Caps       bool
	Exclaim    bool
	Level      Level
}

// Options tunes accumulation
type Options struct {
	// AccumulatePerCategory adds each category weight at most once instead of once per matching phrase
	AccumulatePerCategory bool
}

type pattern struct {
	category string
	weight   int
}

// Scorer is immutable after New and safe for concurrent use
type Scorer struct {
	opts     Options
	patterns []pattern // index == matcher pattern id, declaration order
	m        *matcher.Matcher
	norm     *normalize.Normalizer
}

// New builds a Scorer over the severity categories in declaration order
func New(cats []lexicon.SeverityCategory, opts Options) *Scorer {
	s := &Scorer{opts: opts, norm: normalize.Default}
	var phrases []string
	for _, c := range cats {
		for _, p := range c.Phrases {
			s.patterns = append(s.patterns, pattern{category: c.Name, weight: c.Weight})
			phrases = append(phrases, p)
		}
	}
	s.m = matcher.New(phrases)
	return s
}

// Score normalizes raw itself; see ScoreText
func (s *Scorer) Score(raw string) Result {
	return s.ScoreText(raw, s.norm.Text(raw))
}

// ScoreText scores patterns against normalized and the shouting signals against raw
func (s *Scorer) ScoreText(raw, normalized string) Result {
	var r Result
	if normalized != "" && len(s.patterns) > 0 {
		hit := s.m.Present(normalized)
		counted := map[string]bool{}
		for id, p := range s.patterns {
			if !hit[id] {
				continue
			}
			r.Phrases = append(r.Phrases, s.m.Pattern(id))
			if counted[p.category] {
				if !s.opts.AccumulatePerCategory {
					r.Score += p.weight
				}
				continue
			}
			counted[p.category] = true
			r.Score += p.weight
			r.Categories = append(r.Categories, p.category)
		}
	}

	if utf8.RuneCountInString(raw) >= CapsMinRunes && raw == strings.ToUpper(raw) {
		r.Caps = true
		r.Score += CapsBonus
	}
	if strings.Contains(raw, exclaimPattern) {
		r.Exclaim = true
		r.Score += ExclaimBonus
	}

	r.Level = LevelFor(r.Score)
	return r
}
