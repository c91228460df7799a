// Package tokenize splits normalized chat text into tokens and n-gram phrases
package tokenize

import (
	"strings"

	"chatminer/internal/core/normalize"
)

// Tokenizer normalizes text, splits it on spaces and drops short tokens and stopwords
type Tokenizer struct {
	norm      *normalize.Normalizer
	stopwords map[string]struct{}
}

// New creates a Tokenizer with the given stopword list.
// Stopwords are normalized the same way as text so lookups line up
func New(norm *normalize.Normalizer, stopwords []string) *Tokenizer {
	if norm == nil {
		norm = normalize.Default
	}
	stops := make(map[string]struct{}, len(stopwords))
	for _, w := range stopwords {
		if w = norm.Text(w); w != "" {
			stops[w] = struct{}{}
		}
	}
	return &Tokenizer{norm: norm, stopwords: stops}
}

// IsStopword reports whether the token is in the stopword set
func (t *Tokenizer) IsStopword(tok string) bool {
	_, ok := t.stopwords[tok]
	return ok
}

// Tokenize normalizes text and returns the surviving tokens in source order
func (t *Tokenizer) Tokenize(text string) []string {
	return t.TokenizeNormalized(t.norm.Text(text))
}

// TokenizeNormalized skips the normalization step for text that is already normalized
func (t *Tokenizer) TokenizeNormalized(norm string) []string {
	if norm == "" {
		return nil
	}
	fields := strings.Split(norm, " ")
	out := fields[:0]
	for _, f := range fields {
		if len(f) <= 1 {
			continue
		}
		if _, stop := t.stopwords[f]; stop {
			continue
		}
		out = append(out, f)
	}
	return out
}

// EachNgram yields every n-gram for n in [minN, maxN]: all minN-grams left to
// right, then minN+1, and so on. fn returning false stops the walk.
// Nothing is yielded when len(tokens) < minN
func EachNgram(tokens []string, minN, maxN int, fn func(string) bool) {
	if minN < 1 {
		minN = 1
	}
	for n := minN; n <= maxN; n++ {
		if n > len(tokens) {
			return
		}
		for i := 0; i+n <= len(tokens); i++ {
			var g string
			if n == 1 {
				g = tokens[i]
			} else {
				g = strings.Join(tokens[i:i+n], " ")
			}
			if !fn(g) {
				return
			}
		}
	}
}

// Ngrams materializes EachNgram into a slice
func Ngrams(tokens []string, minN, maxN int) []string {
	var out []string
	EachNgram(tokens, minN, maxN, func(g string) bool {
		out = append(out, g)
		return true
	})
	return out
}
