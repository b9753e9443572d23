package board

import (
	"fmt"
	"strings"

	"github.com/boardmd/boardmd/internal/domain"
	"github.com/boardmd/boardmd/internal/settings"
)

// Serialize renders a Board back to markdown: frontmatter verbatim,
// lanes as headings plus metadata comments plus list items, the Archive
// section behind its thematic break, and the trailing settings block.
// An unchanged settings block round-trips byte-stable via SettingsRaw,
// and regions the parser could not interpret come back verbatim from
// their RawBlocks so a full rewrite never drops content.
func Serialize(b *domain.Board, eff settings.Settings) string {
	var out []string

	if b.FrontmatterRaw != "" {
		out = append(out, strings.TrimSuffix(b.FrontmatterRaw, "\n"), "")
	}

	for _, blk := range b.Preamble {
		out = append(out, strings.Split(blk.Text, "\n")...)
		out = append(out, "")
	}

	for _, lane := range b.Lanes {
		out = append(out, "## "+laneHeading(lane))
		out = append(out, fmt.Sprintf("<!-- kanban-lane-id: %s -->", lane.ID))
		if lane.BackgroundColor != "" {
			out = append(out, fmt.Sprintf("<!-- kanban-lane-background-color: %s -->", lane.BackgroundColor))
		}
		out = append(out, "")
		if lane.ShouldMarkItemsComplete {
			out = append(out, completeMarker, "")
		}
		for _, card := range lane.Cards {
			out = append(out, renderCard(card)...)
		}
		out = appendRawBlocks(out, lane.RawBlocks, len(lane.Cards) > 0)
		out = append(out, "")
	}

	if len(b.Archive) > 0 || len(b.ArchiveBlocks) > 0 {
		out = append(out, "---", "", "## "+eff.ArchiveLabel, "")
		for _, card := range b.Archive {
			out = append(out, renderCard(card)...)
		}
		out = appendRawBlocks(out, b.ArchiveBlocks, len(b.Archive) > 0)
		out = append(out, "")
	}

	// The settings block is always emitted, even when empty, so every
	// document has a stable location for per-board overrides.
	if b.SettingsRaw != "" {
		out = append(out, strings.TrimSuffix(b.SettingsRaw, "\n"))
	} else {
		out = append(out, strings.TrimSuffix(settings.EncodeBlock(eff), "\n"))
	}

	return strings.Join(out, "\n") + "\n"
}

// appendRawBlocks emits preserved unrecognized content at the end of its
// section, each block separated from its neighbors by a blank line.
func appendRawBlocks(out []string, blocks []domain.RawBlock, afterCards bool) []string {
	for i, blk := range blocks {
		if afterCards || i > 0 {
			out = append(out, "")
		}
		out = append(out, strings.Split(blk.Text, "\n")...)
	}
	return out
}

func laneHeading(lane *domain.Lane) string {
	if lane.MaxItems > 0 {
		return fmt.Sprintf("%s (%d)", lane.Title, lane.MaxItems)
	}
	return lane.Title
}

// renderCard emits the card's list item lines. The title is written back
// exactly as parsed (continuation lines included) with the block id
// re-appended to the final line.
func renderCard(card *domain.Card) []string {
	lines := strings.Split(card.Title, "\n")

	prefix := "- "
	if card.CheckChar != "" {
		prefix = "- [" + card.CheckChar + "] "
	}
	if lines[0] == "" && len(lines) == 1 {
		if card.CheckChar != "" {
			lines[0] = strings.TrimRight(prefix, " ")
		} else {
			// A bare "-" would stop being a list item on re-parse; the
			// trailing space keeps an empty plain item an item.
			lines[0] = prefix
		}
	} else {
		lines[0] = prefix + lines[0]
	}

	if card.BlockID != "" {
		lines[len(lines)-1] += " ^" + card.BlockID
	}
	return lines
}
