// Package mutate applies targeted metadata mutations to board markdown
// at the raw-text line level, so one card's change never perturbs the
// rest of the file. Structural changes (lane moves, archiving) go
// through the full parse -> splice -> serialize path instead.
//
// Every function returns the input text unchanged alongside the error
// when the target cannot be located; a mutation is never partially
// applied.
package mutate

import (
	"strings"

	"github.com/boardmd/boardmd/internal/board"
	"github.com/boardmd/boardmd/internal/domain"
	"github.com/boardmd/boardmd/internal/extract"
	"github.com/boardmd/boardmd/internal/settings"
)

// CardRef identifies a card for mutation. BlockID is the preferred,
// stable key; Title (the raw title captured at parse time) feeds the
// best-effort fallback search when no block id exists.
type CardRef struct {
	BlockID string
	Title   string
}

// RefFor captures a card's identity for later mutation.
func RefFor(c *domain.Card) CardRef {
	return CardRef{BlockID: c.BlockID, Title: c.Title}
}

func (r CardRef) key() string {
	if r.BlockID != "" {
		return "^" + r.BlockID
	}
	return r.Title
}

// locateLine finds the line index of the target card's list item.
//
// With a block id the line carrying `^id` wins; for multi-line items the
// index is walked back to the item's first line, where the checkbox and
// metadata tokens live. Without one, a base string is derived from the
// captured title with all recognized metadata tokens stripped, and a
// single list item line whose similarly-stripped content contains that
// base is required; zero or several candidates are reported, never
// guessed at.
func locateLine(lines []string, ref CardRef, cfg settings.Settings) (int, error) {
	if ref.BlockID != "" {
		for i, line := range lines {
			if board.LineBlockID(line) == ref.BlockID {
				return itemFirstLine(lines, i), nil
			}
		}
		return 0, NotFoundError{Kind: "card", Key: "^" + ref.BlockID}
	}

	base := strippedBase(ref.Title, cfg)
	if base == "" {
		return 0, NotFoundError{Kind: "card", Key: ref.Title}
	}

	var candidates []int
	for i, line := range lines {
		_, content, ok := board.ItemLine(line)
		if !ok {
			continue
		}
		if strings.Contains(strippedBase(content, cfg), base) {
			candidates = append(candidates, i)
		}
	}
	switch len(candidates) {
	case 0:
		return 0, NotFoundError{Kind: "card", Key: ref.Title}
	case 1:
		return candidates[0], nil
	default:
		return 0, AmbiguousMatchError{Title: ref.Title, Lines: candidates}
	}
}

// strippedBase removes every token a mutation might rewrite (dates,
// times, priority, members, block id) so that matching survives earlier
// metadata edits. Tags and links are content and stay put.
func strippedBase(s string, cfg settings.Settings) string {
	s = board.StripLineBlockID(s)
	cfg.MoveTags = false
	cfg.MoveDates = true
	cfg.MoveInlineFields = false
	m := extract.NewMarker(s)
	extract.New(cfg).Run(m)
	return strings.Join(strings.Fields(m.Apply()), " ")
}

// itemFirstLine walks from a matched line back to the first line of its
// list item. A block id can sit on the last line of a multi-line item.
func itemFirstLine(lines []string, idx int) int {
	for idx > 0 {
		if _, _, ok := board.ItemLine(lines[idx]); ok {
			return idx
		}
		if !strings.HasPrefix(lines[idx], " ") && !strings.HasPrefix(lines[idx], "\t") {
			return idx
		}
		idx--
	}
	return idx
}
