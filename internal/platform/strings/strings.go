// Package strings provides string slice helpers
package strings

import std "strings"

// IfEmpty returns def if in is empty, otherwise returns in
func IfEmpty[T any](in []T, def []T) []T {
	if len(in) == 0 {
		return def
	}
	return in
}

// Dedupe trims each entry, drops blanks and keeps the first occurrence of each value.
// Order is preserved
func Dedupe(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = std.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// Map applies fn to every entry
func Map(in []string, fn func(string) string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = fn(s)
	}
	return out
}

// Truncate cuts s to at most n bytes without splitting a rune and marks the cut with "…"
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return std.ToValidUTF8(s[:n], "") + "…"
}
