// Package domain defines the normalized domain types for markdown kanban
// boards. These types represent the core concepts independent of the
// markdown text they were parsed from; Card and Lane are value records
// and are never mutated in place after a parse.
package domain

import "time"

// Priority is the three-level card priority. The zero value means no
// priority is set.
type Priority string

const (
	PriorityNone   Priority = ""
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Valid reports whether p is one of the recognized priority levels.
func (p Priority) Valid() bool {
	switch p {
	case PriorityNone, PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Rank orders priorities for sorting: high < medium < low < none.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	}
	return 3
}

// Position records where a card's list item sits in the source document.
// Lines are zero-based and the range is inclusive; a single-line item has
// StartLine == EndLine. The mutation writer's fallback path depends on it.
type Position struct {
	StartLine int
	EndLine   int
}

// FileAccessor is a reference to another file embedded in or linked from
// a card title (`[[target|display]]` or `![[target]]`).
type FileAccessor struct {
	Target  string // Link target as written, without brackets
	Display string // Alias text, empty if none
	Embed   bool   // True for `![[..]]` embeds
}

// InlineField is one `key:: value` pair from a card's inline metadata.
type InlineField struct {
	Key   string
	Value string
}

// CardMetadata holds the structured metadata extracted from a card's
// inline tokens.
type CardMetadata struct {
	Tags []string // Normalized with leading #, sorted

	DateStr string    // Due date exactly as written, empty if none
	Date    time.Time // Hydrated from DateStr, zero if absent or unparseable

	StartDateStr string    // Start date as written (`@start{..}` token)
	StartDate    time.Time // Hydrated from StartDateStr

	TimeStr string // HH:MM as written, empty if none

	Priority Priority

	File *FileAccessor // First linked or embedded file, nil if none

	Fields []InlineField // `key:: value` pairs in source order
}

// Card is one markdown list item rendered as a kanban card.
type Card struct {
	// Title is the exact original markdown substring spanning the item's
	// content, minus the checkbox prefix and block-id suffix.
	Title string

	// DisplayTitle is Title with every token the extractor stripped
	// physically removed, trimmed.
	DisplayTitle string

	// TitleSearch is a search-only concatenation of the item's text and
	// link contents, independent of title stripping.
	TitleSearch string

	Checked   bool
	CheckChar string // Literal character inside [ ], preserved verbatim

	// BlockID is the stable `^id` anchor without the caret, empty if the
	// line carries none. It is the primary identity for later mutation.
	BlockID string

	Metadata        CardMetadata
	AssignedMembers []string // From `@@Name` tokens, first-occurrence order

	Position Position
}

// Lane is one board column: a heading plus the list that follows it.
type Lane struct {
	// ID is stable across parses: either declared in the lane's HTML
	// comment or generated once and persisted back on serialize.
	ID string

	Title           string
	MaxItems        int    // From a `(N)` title suffix, 0 if none
	BackgroundColor string // From the lane's HTML comment, empty if none

	// ShouldMarkItemsComplete is set by the "Complete" convention
	// paragraph between the heading and the list.
	ShouldMarkItemsComplete bool

	Cards []*Card

	// RawBlocks holds unrecognized content found in this lane's section,
	// re-emitted verbatim after the cards.
	RawBlocks []RawBlock
}

// ParseNote records a region the parser could not interpret. The region
// is left untouched in the source; the note exists so callers can surface
// it instead of silently dropping content.
type ParseNote struct {
	Line int // Zero-based line number in the source document
	Text string
	Why  string
}

// RawBlock is a contiguous run of source lines the parser could not
// interpret, preserved verbatim. Serialization re-emits raw blocks in
// their document slot, so content a user never touched survives a full
// rewrite of the file.
type RawBlock struct {
	Line int // Zero-based line of the block's first line in the source
	Text string
}

// Board is the parsed form of one kanban markdown document.
type Board struct {
	Lanes []*Lane

	// Preamble holds unrecognized content found before the first lane
	// heading, including list items that precede any lane.
	Preamble []RawBlock

	// Archive holds the cards of the designated Archive section, kept
	// apart from the lanes.
	Archive []*Card

	// ArchiveBlocks holds unrecognized content inside the Archive
	// section.
	ArchiveBlocks []RawBlock

	// FrontmatterRaw is the document's YAML frontmatter block verbatim,
	// including delimiters, empty if the document has none. Frontmatter
	// is the parsed view of the same block.
	FrontmatterRaw string
	Frontmatter    map[string]any

	// SettingsRaw is the trailing settings code block verbatim, empty if
	// the document has none. Serialization re-emits it byte-stable when
	// the settings were not changed.
	SettingsRaw string

	Notes []ParseNote
}

// AllCards returns lane cards followed by archive cards, in board order.
func (b *Board) AllCards() []*Card {
	var out []*Card
	for _, l := range b.Lanes {
		out = append(out, l.Cards...)
	}
	out = append(out, b.Archive...)
	return out
}

// FindLane returns the lane with the given id, or nil.
func (b *Board) FindLane(id string) *Lane {
	for _, l := range b.Lanes {
		if l.ID == id {
			return l
		}
	}
	return nil
}

// FindCard returns the card with the given block id and the lane holding
// it. Archive cards are returned with a nil lane.
func (b *Board) FindCard(blockID string) (*Card, *Lane) {
	if blockID == "" {
		return nil, nil
	}
	for _, l := range b.Lanes {
		for _, c := range l.Cards {
			if c.BlockID == blockID {
				return c, l
			}
		}
	}
	for _, c := range b.Archive {
		if c.BlockID == blockID {
			return c, nil
		}
	}
	return nil, nil
}
