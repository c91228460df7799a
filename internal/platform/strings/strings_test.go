package strings

import (
	"slices"
	std "strings"
	"testing"
)

func TestIfEmpty(t *testing.T) {
	def := []string{"a"}
	if got := IfEmpty(nil, def); !slices.Equal(got, def) {
		t.Fatalf("nil input: %v", got)
	}
	if got := IfEmpty([]string{"b"}, def); !slices.Equal(got, []string{"b"}) {
		t.Fatalf("non-empty input: %v", got)
	}
}

func TestDedupe(t *testing.T) {
	got := Dedupe([]string{" parah", "kecewa", "", "parah ", "  "})
	if !slices.Equal(got, []string{"parah", "kecewa"}) {
		t.Fatalf("Dedupe = %q", got)
	}
	if Dedupe(nil) != nil {
		t.Fatalf("nil in, nil out")
	}
}

func TestMap(t *testing.T) {
	got := Map([]string{"A", "b"}, std.ToLower)
	if !slices.Equal(got, []string{"a", "b"}) {
		t.Fatalf("Map = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if Truncate("short", 10) != "short" {
		t.Fatalf("short string changed")
	}
	if got := Truncate("abcdef", 3); got != "abc…" {
		t.Fatalf("Truncate = %q", got)
	}
	// "é" is two bytes; cutting inside it drops the partial rune
	if got := Truncate("aé", 2); got != "a…" {
		t.Fatalf("rune split: %q", got)
	}
}
