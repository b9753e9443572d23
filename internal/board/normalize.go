package board

import (
	"regexp"
	"sort"
	"strings"

	"github.com/boardmd/boardmd/internal/domain"
	"github.com/boardmd/boardmd/internal/extract"
	"github.com/boardmd/boardmd/internal/settings"
)

var (
	// checkItemRe matches `- [c] content`; the checkbox char is captured
	// verbatim to support non-standard markers (`-`, `/`, `>`).
	checkItemRe = regexp.MustCompile(`^[-*+]\s+\[(.)\]\s?(.*)$`)
	// plainItemRe matches a list item without a checkbox.
	plainItemRe = regexp.MustCompile(`^[-*+]\s+(.*)$`)
	// blockIDRe captures the trailing block-reference anchor.
	blockIDRe = regexp.MustCompile(`(?:^|\s+)\^([A-Za-z0-9-]+)\s*$`)

	linkFlattenRe = regexp.MustCompile(`!?\[\[([^\[\]|]+)(?:\|([^\[\]]+))?\]\]`)
)

// normalizeItem converts one markdown list item (first line plus any
// indented continuation lines) into a Card.
func normalizeItem(itemLines []string, startLine int, cfg settings.Settings, ex *extract.Extractor) *domain.Card {
	card := &domain.Card{
		Position: domain.Position{
			StartLine: startLine,
			EndLine:   startLine + len(itemLines) - 1,
		},
	}

	first := itemLines[0]
	var content string
	if m := checkItemRe.FindStringSubmatch(first); m != nil {
		card.CheckChar = m[1]
		card.Checked = m[1] != " "
		content = m[2]
	} else if m := plainItemRe.FindStringSubmatch(first); m != nil {
		content = m[1]
	} else {
		content = first
	}

	raw := content
	if len(itemLines) > 1 {
		raw += "\n" + strings.Join(itemLines[1:], "\n")
	}

	// The block id is part of the item's identity, not its content.
	if m := blockIDRe.FindStringSubmatchIndex(raw); m != nil {
		card.BlockID = raw[m[2]:m[3]]
		raw = raw[:m[0]]
	}
	card.Title = raw

	// An item whose entire content was just the checkbox marker.
	if strings.TrimSpace(raw) == "" {
		return card
	}

	card.TitleSearch = flattenForSearch(raw)

	marker := extract.NewMarker(raw)
	res := ex.Run(marker)
	card.DisplayTitle = marker.Apply()

	card.AssignedMembers = res.Members
	card.Metadata = domain.CardMetadata{
		Tags:         sortedTags(res.Tags),
		DateStr:      res.DateStr,
		StartDateStr: res.StartDateStr,
		TimeStr:      res.TimeStr,
		Priority:     res.Priority,
		File:         res.File,
		Fields:       res.Fields,
	}

	// Hydrate dates right away so consumers never see a DateStr without
	// its parsed counterpart.
	if res.DateStr != "" {
		if d, err := cfg.ParseDate(res.DateStr); err == nil {
			card.Metadata.Date = d
		}
	}
	if res.StartDateStr != "" {
		if d, err := cfg.ParseDate(res.StartDateStr); err == nil {
			card.Metadata.StartDate = d
		}
	}

	return card
}

// flattenForSearch produces the search-only text concatenation: link
// targets and aliases expanded, code markers dropped. Computed
// independently of title stripping.
func flattenForSearch(raw string) string {
	s := linkFlattenRe.ReplaceAllString(raw, "$1 $2")
	s = strings.ReplaceAll(s, "`", "")
	return strings.Join(strings.Fields(s), " ")
}

func sortedTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, len(tags))
	copy(out, tags)
	sort.Strings(out)
	return out
}

// ItemLine splits a top-level list item line into its prefix (bullet
// plus optional checkbox, including the separating space) and content.
// ok is false for lines that do not begin a list item.
func ItemLine(line string) (prefix, content string, ok bool) {
	if m := checkItemRe.FindStringSubmatchIndex(line); m != nil {
		return line[:m[4]], line[m[4]:], true
	}
	if m := plainItemRe.FindStringSubmatchIndex(line); m != nil {
		return line[:m[2]], line[m[2]:], true
	}
	return "", "", false
}

// LineBlockID returns the trailing block-reference id of a line, or "".
func LineBlockID(line string) string {
	if m := blockIDRe.FindStringSubmatch(strings.TrimRight(line, " \t")); m != nil {
		return m[1]
	}
	return ""
}

// StripLineBlockID removes the trailing block id token from a line.
func StripLineBlockID(line string) string {
	if m := blockIDRe.FindStringSubmatchIndex(line); m != nil {
		return line[:m[0]]
	}
	return line
}

// isListItem reports whether the line begins a top-level list item.
func isListItem(line string) bool {
	return plainItemRe.MatchString(line)
}

// isItemContinuation reports whether the line belongs to the item opened
// above it (indented content such as sub-tasks or wrapped text).
func isItemContinuation(line string) bool {
	if strings.TrimSpace(line) == "" {
		return false
	}
	return strings.HasPrefix(line, "  ") || strings.HasPrefix(line, "\t")
}
