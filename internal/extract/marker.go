package extract

import (
	"sort"
	"strings"
)

// Marker implements deferred deletion over an immutable base string.
// Every extraction pass records the ranges it consumed against the
// original offsets; nothing is physically removed until Apply, so later
// passes never see shifted indexes.
type Marker struct {
	base  string
	spans []span
}

type span struct{ start, end int }

// NewMarker wraps base for range marking.
func NewMarker(base string) *Marker {
	return &Marker{base: base}
}

// Base returns the original string the offsets refer to.
func (m *Marker) Base() string {
	return m.base
}

// Mark flags [start,end) for deletion. Empty or out-of-range spans are
// clamped; overlapping spans are merged at Apply time.
func (m *Marker) Mark(start, end int) {
	if start < 0 {
		start = 0
	}
	if end > len(m.base) {
		end = len(m.base)
	}
	if start >= end {
		return
	}
	m.spans = append(m.spans, span{start, end})
}

// MarkToken flags a token plus the whitespace run that separates it from
// its neighbor, so deletion does not leave doubled spaces. Leading
// whitespace is preferred; a token at the start of the string swallows
// its trailing whitespace instead.
func (m *Marker) MarkToken(start, end int) {
	s := start
	for s > 0 && (m.base[s-1] == ' ' || m.base[s-1] == '\t') {
		s--
	}
	e := end
	if s == 0 {
		for e < len(m.base) && (m.base[e] == ' ' || m.base[e] == '\t') {
			e++
		}
	}
	m.Mark(s, e)
}

// Marked reports whether any part of [start,end) is already flagged.
func (m *Marker) Marked(start, end int) bool {
	for _, sp := range m.spans {
		if start < sp.end && end > sp.start {
			return true
		}
	}
	return false
}

// Apply materializes the deletions: unmarked ranges are concatenated in
// original order and the result is trimmed.
func (m *Marker) Apply() string {
	if len(m.spans) == 0 {
		return strings.TrimSpace(m.base)
	}

	merged := make([]span, len(m.spans))
	copy(merged, m.spans)
	sort.Slice(merged, func(i, j int) bool { return merged[i].start < merged[j].start })

	var b strings.Builder
	pos := 0
	for _, sp := range merged {
		if sp.start > pos {
			b.WriteString(m.base[pos:sp.start])
		}
		if sp.end > pos {
			pos = sp.end
		}
	}
	if pos < len(m.base) {
		b.WriteString(m.base[pos:])
	}
	return strings.TrimSpace(b.String())
}
