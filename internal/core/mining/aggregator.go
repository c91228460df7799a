// Package mining accumulates per-phrase class counts over a message stream and
// ranks the phrases that discriminate between classes
package mining

import (
	"slices"

	perr "chatminer/internal/platform/errors"
)

// DefaultMaxExamples is the example cap used when none is configured
const DefaultMaxExamples = 3

// PhraseStat is the running tally for one phrase. Counts is aligned with the
// aggregator's class order; Examples holds distinct normalized messages up to the cap
type PhraseStat struct {
	Phrase   string
	Counts   []int
	Examples []string
}

// Total sums the class counts
func (p *PhraseStat) Total() int {
	n := 0
	for _, c := range p.Counts {
		n += c
	}
	return n
}

// Aggregator keys PhraseStats by phrase. It is not safe for concurrent use;
// a pass feeds it from a single goroutine
type Aggregator struct {
	classes     []string
	classIdx    map[string]int
	maxExamples int
	stats       map[string]*PhraseStat
	messages    []int // observed messages per class
}

// NewAggregator declares the classes up front; their order fixes count and column order.
// maxExamples <= 0 falls back to DefaultMaxExamples
func NewAggregator(classes []string, maxExamples int) *Aggregator {
	if maxExamples <= 0 {
		maxExamples = DefaultMaxExamples
	}
	a := &Aggregator{
		classes:     slices.Clone(classes),
		classIdx:    make(map[string]int, len(classes)),
		maxExamples: maxExamples,
		stats:       make(map[string]*PhraseStat),
		messages:    make([]int, len(classes)),
	}
	for i, c := range classes {
		a.classIdx[c] = i
	}
	return a
}

// Classes returns the declared class order
func (a *Aggregator) Classes() []string { return slices.Clone(a.classes) }

// Observe records one qualifying message: every phrase occurrence bumps the
// class count, and normalized is cached as an example while below the cap
func (a *Aggregator) Observe(class, normalized string, phrases []string) error {
	ci, ok := a.classIdx[class]
	if !ok {
		return perr.InvalidArgf("mining: undeclared class %q", class)
	}
	a.messages[ci]++
	for _, p := range phrases {
		st := a.stats[p]
		if st == nil {
			st = &PhraseStat{Phrase: p, Counts: make([]int, len(a.classes))}
			a.stats[p] = st
		}
		st.Counts[ci]++
		if len(st.Examples) < a.maxExamples && normalized != "" && !slices.Contains(st.Examples, normalized) {
			st.Examples = append(st.Examples, normalized)
		}
	}
	return nil
}

// Len returns the number of distinct phrases
func (a *Aggregator) Len() int { return len(a.stats) }

// Messages returns how many messages were observed for class
func (a *Aggregator) Messages(class string) int {
	if ci, ok := a.classIdx[class]; ok {
		return a.messages[ci]
	}
	return 0
}

// Stat returns the tally for phrase
func (a *Aggregator) Stat(phrase string) (*PhraseStat, bool) {
	st, ok := a.stats[phrase]
	return st, ok
}

// Each visits every PhraseStat in unspecified order until fn returns false
func (a *Aggregator) Each(fn func(*PhraseStat) bool) {
	for _, st := range a.stats {
		if !fn(st) {
			return
		}
	}
}
