// Package domain holds the data shapes and ports of a mining pass
package domain

import (
	"time"

	"chatminer/internal/core/mining"
)

// Variant selects the labeling strategy of a pass
type Variant string

const (
	// VariantIntent labels messages by intent keyword scoring
	VariantIntent Variant = "intent"
	// VariantComplain labels messages by complaint seed phrases
	VariantComplain Variant = "complain"
)

// Valid reports whether v is a known variant
func (v Variant) Valid() bool { return v == VariantIntent || v == VariantComplain }

// Complaint variant classes
const (
	ClassComplain = "complain"
	ClassNormal   = "normal"
)

// Filter reasons recorded in RunStats.Filtered
const (
	ReasonDateRange     = "date_range"
	ReasonNoPlate       = "no_plate"
	ReasonNotIndonesian = "not_indonesian"
	ReasonNoSeed        = "no_seed"
	ReasonBelowSeverity = "below_severity"
)

// Stop reasons
const (
	StopEOF         = "eof"
	StopMaxMessages = "max_messages"
	StopCanceled    = "canceled"
)

// Message is one chat record as produced by a source. Timestamp nil means unknown date
type Message struct {
	ID        string
	ChatID    string
	Author    string
	Body      string
	Forwarded bool
	Timestamp *time.Time
}

// Filter is the selector a source applies while iterating
type Filter struct {
	ChatID           string
	ExcludeForwarded bool
}

// IdentifierSet is the set of normalized internal identifiers
type IdentifierSet map[string]struct{}

// Has reports membership
func (s IdentifierSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// RunStats summarizes one pass
type RunStats struct {
	RunID           string
	Variant         Variant
	Read            int
	Skipped         int
	Internal        int
	Filtered        map[string]int
	Labeled         map[string]int
	Severity        map[string]int
	DistinctPhrases int
	Suggestions     int
	Stopped         string
	Elapsed         time.Duration
}

// NewRunStats returns stats with initialized maps
func NewRunStats(runID string, v Variant) RunStats {
	return RunStats{
		RunID:    runID,
		Variant:  v,
		Filtered: map[string]int{},
		Labeled:  map[string]int{},
		Severity: map[string]int{},
	}
}

// Report is the finalized result of a pass handed to the sink
type Report struct {
	Variant     Variant
	Classes     []string
	Suggestions []mining.Suggestion
	Stats       RunStats
	GeneratedAt time.Time
}
