// Package intent scores normalized messages against the weighted intent keyword table
package intent

import (
	"chatminer/internal/core/lexicon"
	"chatminer/internal/core/matcher"
)

// Labels used when no single category wins
const (
	LabelUnknown = "unknown"
	LabelMixed   = "mixed"
)

// Match is one keyword found in a message
type Match struct {
	Category string
	Phrase   string
	Weight   int
	Type     string
}

// Result is the per-message intent outcome.
// Label is a category name, LabelUnknown or LabelMixed; Tied is only set for LabelMixed
type Result struct {
	Scores  map[string]int
	Matched []Match
	Label   string
	Score   int
	Tied    []string
}

// IsCategory reports whether the label is a real category (not unknown or mixed)
func (r Result) IsCategory() bool {
	return r.Label != LabelUnknown && r.Label != LabelMixed && r.Label != ""
}

// Scorer is immutable after New and safe for concurrent use
type Scorer struct {
	categories []string
	entries    []Match // flattened in declaration order; index == matcher pattern id
	m          *matcher.Matcher
}

// New builds a Scorer over the categories in declaration order
func New(cats []lexicon.Category) *Scorer {
	s := &Scorer{categories: make([]string, 0, len(cats))}
	var patterns []string
	for _, c := range cats {
		s.categories = append(s.categories, c.Name)
		for _, k := range c.Keywords {
			s.entries = append(s.entries, Match{Category: c.Name, Phrase: k.Phrase, Weight: k.Weight, Type: k.Type})
			patterns = append(patterns, k.Phrase)
		}
	}
	s.m = matcher.New(patterns)
	return s
}

// Categories returns category names in declaration order
func (s *Scorer) Categories() []string { return append([]string(nil), s.categories...) }

// Score matches every keyword as a plain substring of the normalized text.
// A unique strict maximum wins; a positive maximum shared by two or more
// categories is mixed; all zero is unknown
func (s *Scorer) Score(normalized string) Result {
	r := Result{Scores: make(map[string]int, len(s.categories)), Label: LabelUnknown}
	for _, c := range s.categories {
		r.Scores[c] = 0
	}
	if normalized == "" || len(s.entries) == 0 {
		return r
	}

	hit := s.m.Present(normalized)
	for id, e := range s.entries {
		if !hit[id] {
			continue
		}
		r.Scores[e.Category] += e.Weight
		r.Matched = append(r.Matched, e)
	}

	best := 0
	for _, c := range s.categories {
		if v := r.Scores[c]; v > best {
			best = v
		}
	}
	if best == 0 {
		return r
	}

	var top []string
	for _, c := range s.categories {
		if r.Scores[c] == best {
			top = append(top, c)
		}
	}
	r.Score = best
	if len(top) == 1 {
		r.Label = top[0]
		return r
	}
	r.Label = LabelMixed
	r.Tied = top
	return r
}
