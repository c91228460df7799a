package mining

import (
	"cmp"
	"slices"

	"chatminer/internal/core/lexicon"
	"chatminer/internal/core/phrasefilter"
)

// DefaultMinTotal is the occurrence floor used when Ranker.MinTotal is unset
const DefaultMinTotal = 2

// Suggestion is a candidate keyword derived from a PhraseStat.
// Counts is aligned with Classes
type Suggestion struct {
	Phrase   string
	Class    string
	Weight   int
	Type     string
	Classes  []string
	Counts   []int
	Total    int
	Ratio    float64
	Examples []string
}

// Count returns the count for class, 0 when the class is unknown
func (s Suggestion) Count(class string) int {
	if i := slices.Index(s.Classes, class); i >= 0 {
		return s.Counts[i]
	}
	return 0
}

// Ranker turns aggregator state into ordered suggestions
type Ranker struct {
	// Known phrases are already in the keyword table and never suggested
	Known map[string]struct{}
	// Filter drops blocked phrases; nil disables the check
	Filter *phrasefilter.Filter
	// MinTotal is the minimum occurrence count across classes
	MinTotal int
}

// Weigh grades a count vector. ratio = largest / max(second largest, 1);
// with one class the second largest is 0. weight 3 when ratio >= 3 and total >= 3,
// 2 when ratio >= 1.5 and total >= 2, otherwise 1. A zero total has weight 0
func Weigh(counts []int) (weight int, typ string, ratio float64) {
	var first, second, total int
	for _, c := range counts {
		total += c
		switch {
		case c > first:
			first, second = c, first
		case c > second:
			second = c
		}
	}
	if total == 0 {
		return 0, "", 0
	}
	ratio = float64(first) / float64(max(second, 1))
	switch {
	case ratio >= 3 && total >= 3:
		weight = 3
	case ratio >= 1.5 && total >= 2:
		weight = 2
	default:
		weight = 1
	}
	return weight, lexicon.TypeForWeight(weight), ratio
}

// Rank emits one Suggestion per surviving phrase ordered by weight desc,
// total desc, then phrase asc. The suggested class is the first declared class
// holding the largest count
func (r Ranker) Rank(a *Aggregator) []Suggestion {
	minTotal := r.MinTotal
	if minTotal <= 0 {
		minTotal = DefaultMinTotal
	}
	classes := a.Classes()

	var out []Suggestion
	a.Each(func(st *PhraseStat) bool {
		if _, known := r.Known[st.Phrase]; known {
			return true
		}
		if r.Filter != nil && r.Filter.IsBlocked(st.Phrase) {
			return true
		}
		total := st.Total()
		if total < minTotal {
			return true
		}
		weight, typ, ratio := Weigh(st.Counts)
		if weight == 0 {
			return true
		}
		best := 0
		for i, c := range st.Counts {
			if c > st.Counts[best] {
				best = i
			}
		}
		out = append(out, Suggestion{
			Phrase:   st.Phrase,
			Class:    classes[best],
			Weight:   weight,
			Type:     typ,
			Classes:  classes,
			Counts:   slices.Clone(st.Counts),
			Total:    total,
			Ratio:    ratio,
			Examples: slices.Clone(st.Examples),
		})
		return true
	})

	slices.SortFunc(out, func(x, y Suggestion) int {
		return cmp.Or(
			cmp.Compare(y.Weight, x.Weight),
			cmp.Compare(y.Total, x.Total),
			cmp.Compare(x.Phrase, y.Phrase),
		)
	})
	return out
}
