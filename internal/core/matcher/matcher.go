// Package matcher finds every occurrence of a fixed pattern set in one pass.
//
// It is a byte-level Aho-Corasick automaton. Inputs are expected to be
// normalized ascii text; a fixed 256-way transition table per node avoids map
// lookups in the hot path. Matching is plain substring matching with no notion
// of token boundaries, so "telat" also matches inside "terlambat telatnya".
package matcher

type node struct {
	// trans[b] = next state or -1 if absent
	trans  [256]int32
	fail   int32
	output []int // pattern ids ending at this node
}

// Matcher is immutable after New and safe for concurrent use
type Matcher struct {
	nodes    []node
	patterns []string
}

func newNode() node {
	var n node
	for i := range n.trans {
		n.trans[i] = -1
	}
	return n
}

// New builds an automaton over patterns. Pattern ids are slice indexes.
// Empty patterns are kept as ids but never match
func New(patterns []string) *Matcher {
	m := &Matcher{nodes: []node{newNode()}, patterns: append([]string(nil), patterns...)}
	for id, p := range patterns {
		m.add(p, id)
	}
	m.build()
	return m
}

// Len returns the number of patterns
func (m *Matcher) Len() int { return len(m.patterns) }

// Pattern returns the pattern for id
func (m *Matcher) Pattern(id int) string { return m.patterns[id] }

func (m *Matcher) add(pat string, id int) {
	if pat == "" {
		return
	}
	state := int32(0)
	for i := 0; i < len(pat); i++ {
		b := pat[i]
		nxt := m.nodes[state].trans[b]
		if nxt == -1 {
			nxt = int32(len(m.nodes))
			m.nodes[state].trans[b] = nxt
			m.nodes = append(m.nodes, newNode())
		}
		state = nxt
	}
	m.nodes[state].output = append(m.nodes[state].output, id)
}

// build finalizes failure links breadth first
func (m *Matcher) build() {
	q := make([]int32, 0, 64)
	for b := range 256 {
		if s := m.nodes[0].trans[b]; s != -1 {
			m.nodes[s].fail = 0
			q = append(q, s)
		}
	}

	for qi := 0; qi < len(q); qi++ {
		r := q[qi]
		for b := range 256 {
			s := m.nodes[r].trans[b]
			if s == -1 {
				continue
			}
			q = append(q, s)

			f := m.nodes[r].fail
			for f != 0 && m.nodes[f].trans[b] == -1 {
				f = m.nodes[f].fail
			}
			if nxt := m.nodes[f].trans[b]; nxt != -1 {
				m.nodes[s].fail = nxt
			} else {
				m.nodes[s].fail = 0
			}

			m.nodes[s].output = append(m.nodes[s].output, m.nodes[m.nodes[s].fail].output...)
		}
	}
}

// FindAll scans text and calls cb(end, id) for every match, end being the
// exclusive byte offset. Returning false from cb stops the scan
func (m *Matcher) FindAll(text string, cb func(end, id int) bool) {
	state := int32(0)
	for i := 0; i < len(text); i++ {
		b := text[i]
		for state != 0 && m.nodes[state].trans[b] == -1 {
			state = m.nodes[state].fail
		}
		if nxt := m.nodes[state].trans[b]; nxt != -1 {
			state = nxt
		}
		for _, id := range m.nodes[state].output {
			if !cb(i+1, id) {
				return
			}
		}
	}
}

// Present reports, per pattern id, whether the pattern occurs anywhere in text.
// The result matches strings.Contains(text, pattern) for every non-empty pattern
func (m *Matcher) Present(text string) []bool {
	hit := make([]bool, len(m.patterns))
	remaining := 0
	for _, p := range m.patterns {
		if p != "" {
			remaining++
		}
	}
	if remaining == 0 {
		return hit
	}
	m.FindAll(text, func(_, id int) bool {
		if !hit[id] {
			hit[id] = true
			remaining--
		}
		return remaining > 0
	})
	return hit
}
