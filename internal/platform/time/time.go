// Package time contains time related helpers
package time

import (
	"strconv"
	"strings"
	"time"
)

// epochMillisThreshold separates epoch seconds from epoch milliseconds.
// Anything larger is read as milliseconds
const epochMillisThreshold = 1e12

// Ptr returns a pointer to t or nil if t is zero
func Ptr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// layouts tried in order by ParseString
var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05Z07:00",
	time.DateOnly,
	time.RFC1123Z,
	time.RFC1123,
}

// FromEpoch converts a unix timestamp to UTC time. Values above 1e12 are read
// as milliseconds, everything else as seconds
func FromEpoch(v float64) time.Time {
	if v > epochMillisThreshold {
		ms := int64(v)
		return time.UnixMilli(ms).UTC()
	}
	sec := int64(v)
	nsec := int64((v - float64(sec)) * 1e9)
	return time.Unix(sec, nsec).UTC()
}

// ParseString parses a date string in any supported layout. Purely numeric
// strings are treated as epoch values
func ParseString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return FromEpoch(f), true
	}
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// ParseAny converts a decoded value into a time. Supported inputs are
// time.Time, numbers (epoch s or ms) and strings. ok is false for anything else
func ParseAny(v any) (time.Time, bool) {
	switch x := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		if x.IsZero() {
			return time.Time{}, false
		}
		return x.UTC(), true
	case *time.Time:
		if x == nil || x.IsZero() {
			return time.Time{}, false
		}
		return x.UTC(), true
	case float64:
		return FromEpoch(x), true
	case float32:
		return FromEpoch(float64(x)), true
	case int:
		return FromEpoch(float64(x)), true
	case int64:
		return FromEpoch(float64(x)), true
	case int32:
		return FromEpoch(float64(x)), true
	case uint64:
		return FromEpoch(float64(x)), true
	case interface{ Float64() (float64, error) }:
		f, err := x.Float64()
		if err != nil {
			return time.Time{}, false
		}
		return FromEpoch(f), true
	case string:
		return ParseString(x)
	case []byte:
		return ParseString(string(x))
	}
	return time.Time{}, false
}

// Within reports whether t falls in [start, end]. Nil bounds are open.
// A nil t is never excluded
func Within(t, start, end *time.Time) bool {
	if t == nil {
		return true
	}
	if start != nil && t.Before(*start) {
		return false
	}
	if end != nil && t.After(*end) {
		return false
	}
	return true
}

// EndOfDay returns the last nanosecond of t's calendar day
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location()).Add(24*time.Hour - time.Nanosecond)
}

// ParseUpperBound parses an inclusive upper bound. A bare date covers the whole
// day; any other layout is taken as the exact instant
func ParseUpperBound(s string) (time.Time, bool) {
	if t, err := time.Parse(time.DateOnly, strings.TrimSpace(s)); err == nil {
		return EndOfDay(t.UTC()), true
	}
	return ParseString(s)
}
