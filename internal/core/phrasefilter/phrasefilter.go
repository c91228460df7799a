// Package phrasefilter rejects candidate phrases that must never be mined
package phrasefilter

import "strings"

// Filter holds blocklisted whole phrases and tokens
type Filter struct {
	phrases map[string]struct{}
	tokens  map[string]struct{}

	// MinLength rejects phrases shorter than this many bytes; 0 disables the check
	MinLength int
}

// New builds a Filter from already normalized phrase and token lists
func New(phrases, tokens []string) *Filter {
	f := &Filter{
		phrases: make(map[string]struct{}, len(phrases)),
		tokens:  make(map[string]struct{}, len(tokens)),
	}
	for _, p := range phrases {
		f.phrases[p] = struct{}{}
	}
	for _, t := range tokens {
		f.tokens[t] = struct{}{}
	}
	return f
}

// WithMinLength returns a copy of f that also rejects phrases shorter than n
func (f *Filter) WithMinLength(n int) *Filter {
	c := *f
	c.MinLength = n
	return &c
}

// IsBlocked reports whether phrase is excluded from mining
func (f *Filter) IsBlocked(phrase string) bool {
	if f.MinLength > 0 && len(phrase) < f.MinLength {
		return true
	}
	if _, ok := f.phrases[phrase]; ok {
		return true
	}
	for tok := range strings.SplitSeq(phrase, " ") {
		if _, ok := f.tokens[tok]; ok {
			return true
		}
		if hasDigit(tok) {
			return true
		}
	}
	return false
}

func hasDigit(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			return true
		}
	}
	return false
}
