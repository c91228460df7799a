// Package langhint guesses whether a chat message is Indonesian from common function words
package langhint

import (
	"strings"

	"chatminer/internal/core/normalize"
)

// shortMessage is the token count at or below which one hint word is enough
const shortMessage = 3

// Hints is a set of normalized hint words
type Hints map[string]struct{}

// NewHints builds a hint set, normalizing each word
func NewHints(words []string) Hints {
	h := make(Hints, len(words))
	for _, w := range words {
		if w = normalize.Text(w); w != "" {
			h[w] = struct{}{}
		}
	}
	return h
}

// Count returns the number of tokens in normalized text that are hint words, and the token count
func (h Hints) Count(normalized string) (hits, tokens int) {
	for tok := range strings.FieldsSeq(normalized) {
		tokens++
		if _, ok := h[tok]; ok {
			hits++
		}
	}
	return hits, tokens
}

// Indonesian reports whether raw text is likely Indonesian: messages of up to
// three tokens need one hint word, longer ones need two. Empty text is not
func Indonesian(text string, hints Hints) bool {
	return IndonesianNormalized(normalize.Text(text), hints)
}

// IndonesianNormalized is Indonesian for text that is already normalized
func IndonesianNormalized(normalized string, hints Hints) bool {
	hits, tokens := hints.Count(normalized)
	if tokens == 0 {
		return false
	}
	if tokens <= shortMessage {
		return hits >= 1
	}
	return hits >= 2
}
