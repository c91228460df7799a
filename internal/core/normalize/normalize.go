// Package normalize canonicalizes chat text and phone-like author identifiers
// Text pipeline order
// 1 Drop invalid UTF-8 bytes
// 2 Unicode lower-casing
// 3 Every rune outside [a-z0-9] becomes a space
// 4 Collapse space runs to single spaces and trim
package normalize

import (
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

const (
	// DefaultCountryCode is the dialing prefix every identifier must start with
	DefaultCountryCode = "62"
	// DefaultTrunkPrefix is the local trunk digit replaced by the country code
	DefaultTrunkPrefix = "0"
)

// Normalizer is concurrency safe when used with the pool below
type Normalizer struct {
	CountryCode string
	TrunkPrefix string
}

// pool of fresh transformer chains
var chainPool = sync.Pool{
	New: func() any {
		// order matters and mirrors the documented pipeline
		return transform.Chain(
			cases.Lower(language.Und),
			runes.Map(foldRune),
		)
	},
}

// foldRune keeps ascii lower-case letters and digits and turns everything else into a space
func foldRune(r rune) rune {
	if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
		return r
	}
	return ' '
}

// New constructs a Normalizer with the default country code and trunk prefix
func New() *Normalizer {
	return &Normalizer{CountryCode: DefaultCountryCode, TrunkPrefix: DefaultTrunkPrefix}
}

// Default is the shared Normalizer behind the package-level helpers
var Default = New()

// Text returns the normalized form of s. Total: empty input yields ""
func (n *Normalizer) Text(s string) string {
	if s == "" {
		return ""
	}

	s = strings.ToValidUTF8(s, "")

	tr := chainPool.Get().(transform.Transformer)
	ns, _, err := transform.String(tr, s)
	tr.Reset()
	chainPool.Put(tr)
	if err != nil {
		// transformers above never fail on valid UTF-8; fall back to a rune walk
		ns = strings.Map(foldRune, strings.ToLower(s))
	}

	return collapseSpaces(ns)
}

// Identifier canonicalizes a phone-like identifier: digits only, a leading trunk
// prefix is replaced once by the country code and the country code is prepended
// when missing. ok is false when no digits remain. Idempotent
func (n *Normalizer) Identifier(raw string) (string, bool) {
	digits := onlyDigits(raw)
	if digits == "" {
		return "", false
	}
	cc, trunk := n.countryCode(), n.TrunkPrefix
	if trunk != "" && strings.HasPrefix(digits, trunk) {
		digits = cc + digits[len(trunk):]
	}
	if !strings.HasPrefix(digits, cc) {
		digits = cc + digits
	}
	return digits, true
}

// Author strips a messenger JID suffix ("628123@c.us") before Identifier
func (n *Normalizer) Author(raw string) (string, bool) {
	if i := strings.IndexByte(raw, '@'); i >= 0 {
		raw = raw[:i]
	}
	return n.Identifier(raw)
}

func (n *Normalizer) countryCode() string {
	if n.CountryCode == "" {
		return DefaultCountryCode
	}
	return n.CountryCode
}

// Text normalizes s with the Default normalizer
func Text(s string) string { return Default.Text(s) }

// Identifier normalizes raw with the Default normalizer
func Identifier(raw string) (string, bool) { return Default.Identifier(raw) }

// Author normalizes a raw author field with the Default normalizer
func Author(raw string) (string, bool) { return Default.Author(raw) }

func onlyDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// collapseSpaces converts space runs to a single space and trims both edges.
// Input is already folded so only ' ' can appear as whitespace
func collapseSpaces(s string) string {
	if s == "" {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	pending := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == ' ' {
			pending = b.Len() > 0
			continue
		}
		if pending {
			b.WriteByte(' ')
			pending = false
		}
		b.WriteByte(c)
	}
	return b.String()
}
