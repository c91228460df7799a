// Package plate pulls vehicle registration plates and truck number mentions out of raw chat text
package plate

import (
	"regexp"
	"strings"
)

var (
	// B 1234 CD, AB-1234-EF, B1234CD
	plateRe = regexp.MustCompile(`\b([A-Z]{1,2})\s?-?\s?(\d{1,4})\s?-?\s?([A-Z]{1,3})\b`)
	// truk 12A, truck no. XYZ-123, truk nomor 889, truck #AB12
	truckRe = regexp.MustCompile(`(?i)\b(?:truck|truk)\s*(?:nomor|number|no\.?|#)?\s*([A-Z0-9-]{3,})\b`)
)

// Extract returns plates as "B 1234 CD" followed by truck numbers, deduplicated in first-seen order.
// Matching runs over the upper-cased text so lower-case plates are found too
func Extract(text string) []string {
	if text == "" {
		return nil
	}
	up := strings.ToUpper(text)

	var out []string
	seen := map[string]bool{}
	add := func(s string) {
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}

	for _, m := range plateRe.FindAllStringSubmatch(up, -1) {
		add(m[1] + " " + m[2] + " " + m[3])
	}
	for _, m := range truckRe.FindAllStringSubmatch(up, -1) {
		add(strings.Join(strings.Fields(m[1]), ""))
	}
	return out
}

// Has reports whether text mentions at least one plate or truck number
func Has(text string) bool {
	if text == "" {
		return false
	}
	up := strings.ToUpper(text)
	return plateRe.MatchString(up) || truckRe.MatchString(up)
}
