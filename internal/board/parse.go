// Package board implements the bidirectional markdown <-> board
// transformation: parsing the kanban dialect into a Board, normalizing
// list items into Cards, and serializing a Board back to markdown. The
// parse is total: constructs it cannot interpret become ParseNotes, are
// carried as RawBlocks so serialization re-emits them verbatim, and the
// rest of the document is still processed.
package board

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/boardmd/boardmd/internal/domain"
	"github.com/boardmd/boardmd/internal/extract"
	"github.com/boardmd/boardmd/internal/logger"
	"github.com/boardmd/boardmd/internal/settings"
)

var (
	headingRe       = regexp.MustCompile(`^(#{1,6})\s+(.+?)\s*$`)
	laneIDRe        = regexp.MustCompile(`^<!--\s*kanban-lane-id:\s*(.+?)\s*-->\s*$`)
	laneColorRe     = regexp.MustCompile(`^<!--\s*kanban-lane-background-color:\s*(.+?)\s*-->\s*$`)
	maxItemsRe      = regexp.MustCompile(`^(.*\S)\s+\((\d+)\)$`)
	thematicBreakRe = regexp.MustCompile(`^(-{3,}|\*{3,}|_{3,})\s*$`)
)

// completeMarker is the lane-level convention paragraph: a lane whose
// preamble contains exactly this text marks items complete on entry.
const completeMarker = "Complete"

// Parser turns kanban markdown documents into Boards. The zero value is
// not usable; construct with NewParser. File is optional log context.
type Parser struct {
	Base settings.Settings
	IDs  IDGenerator
	Log  *logger.Logger
	File string
}

// NewParser creates a parser with the given base settings. A nil log
// discards output.
func NewParser(base settings.Settings, log *logger.Logger) *Parser {
	if log == nil {
		log = logger.Discard()
	}
	return &Parser{Base: base, IDs: DefaultIDs(), Log: log}
}

// Parse walks the document's top-level structure and returns the Board
// along with the effective settings (base overridden by the document's
// trailing settings block). Parse never fails outright: problem regions
// become Board.Notes and everything else is still parsed.
func (p *Parser) Parse(text string) (*domain.Board, settings.Settings) {
	lines := strings.Split(text, "\n")

	b := &domain.Board{}

	fmRaw, fmParsed, bodyStart, fmErr := splitFrontmatter(lines)
	b.FrontmatterRaw = fmRaw
	b.Frontmatter = fmParsed
	if fmErr != nil {
		b.Notes = append(b.Notes, domain.ParseNote{Line: 0, Text: "---", Why: fmErr.Error()})
		p.Log.ParseNote(p.File, 0, fmErr.Error())
	}

	setRaw, setBody, bodyEnd := splitSettingsBlock(lines, settings.FenceInfo)
	b.SettingsRaw = setRaw
	eff, err := settings.ParseOverride(setBody, p.Base)
	if err != nil {
		p.Log.SettingsFallback(p.File, err)
		eff = p.Base
	}
	if bodyEnd < bodyStart {
		bodyEnd = bodyStart
	}

	ex := extract.New(eff)
	seenIDs := map[string]bool{}

	var (
		cur          *domain.Lane
		inArchive    bool
		inPreamble   bool
		itemLines    []string
		itemStart    int
		prevNonBlank string
	)

	// appendRaw preserves a line the parser cannot place, anchored to the
	// enclosing region. Contiguous lines coalesce into one block.
	appendRaw := func(i int, text string) {
		var blocks *[]domain.RawBlock
		switch {
		case inArchive:
			blocks = &b.ArchiveBlocks
		case cur != nil:
			blocks = &cur.RawBlocks
		default:
			blocks = &b.Preamble
		}
		if n := len(*blocks); n > 0 {
			last := &(*blocks)[n-1]
			if last.Line+strings.Count(last.Text, "\n")+1 == i {
				last.Text += "\n" + text
				return
			}
		}
		*blocks = append(*blocks, domain.RawBlock{Line: i, Text: text})
	}

	flushItem := func() {
		if itemLines == nil {
			return
		}
		card := normalizeItem(itemLines, itemStart, eff, ex)
		switch {
		case inArchive:
			b.Archive = append(b.Archive, card)
		case cur != nil:
			cur.Cards = append(cur.Cards, card)
		default:
			b.Notes = append(b.Notes, domain.ParseNote{
				Line: itemStart,
				Text: itemLines[0],
				Why:  "list item before any lane heading",
			})
			p.Log.ParseNote(p.File, itemStart, "list item before any lane heading")
			appendRaw(itemStart, strings.Join(itemLines, "\n"))
		}
		itemLines = nil
	}

	for i := bodyStart; i < bodyEnd; i++ {
		line := lines[i]
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "":
			flushItem()

		case headingRe.MatchString(line):
			flushItem()
			title := headingRe.FindStringSubmatch(line)[2]
			if thematicBreakRe.MatchString(prevNonBlank) && title == eff.ArchiveLabel {
				// Archive requires both the label and the preceding
				// thematic break; a bare "Archive" heading is a lane.
				cur = nil
				inArchive = true
				inPreamble = false
				break
			}
			lane := &domain.Lane{Title: title}
			if m := maxItemsRe.FindStringSubmatch(title); m != nil {
				lane.Title = m[1]
				lane.MaxItems, _ = strconv.Atoi(m[2])
			}
			b.Lanes = append(b.Lanes, lane)
			cur = lane
			inArchive = false
			inPreamble = true

		case itemLines != nil && isItemContinuation(line):
			itemLines = append(itemLines, line)

		case isListItem(line):
			flushItem()
			itemLines = []string{line}
			itemStart = i
			inPreamble = false

		case laneIDRe.MatchString(line):
			id := laneIDRe.FindStringSubmatch(line)[1]
			if cur != nil && inPreamble {
				if seenIDs[id] {
					fresh := p.IDs.LaneID()
					p.Log.LaneIDRepaired(cur.Title, fresh, "duplicate id "+id)
					id = fresh
				}
				cur.ID = id
				seenIDs[id] = true
			} else {
				appendRaw(i, line)
			}

		case laneColorRe.MatchString(line):
			if cur != nil && inPreamble {
				cur.BackgroundColor = laneColorRe.FindStringSubmatch(line)[1]
			} else {
				appendRaw(i, line)
			}

		case trimmed == completeMarker && cur != nil && inPreamble:
			cur.ShouldMarkItemsComplete = true

		case thematicBreakRe.MatchString(line):
			flushItem()
			// Structural only when it precedes the Archive heading; the
			// serializer re-emits that one itself. Any other break is
			// plain content and must survive the round trip.
			if !archiveAhead(lines, i+1, bodyEnd, eff.ArchiveLabel) {
				appendRaw(i, line)
			}

		default:
			flushItem()
			b.Notes = append(b.Notes, domain.ParseNote{
				Line: i,
				Text: line,
				Why:  "unrecognized construct, left untouched",
			})
			p.Log.ParseNote(p.File, i, "unrecognized construct")
			appendRaw(i, line)
		}

		if trimmed != "" {
			prevNonBlank = trimmed
		}
	}
	flushItem()

	// Lanes without a declared id get a generated one; the serializer
	// persists it so the id does not churn on every parse.
	for _, lane := range b.Lanes {
		if lane.ID == "" {
			lane.ID = p.IDs.LaneID()
			seenIDs[lane.ID] = true
			p.Log.LaneIDRepaired(lane.Title, lane.ID, "no id comment")
		}
	}

	return b, eff
}

// archiveAhead reports whether the next non-blank line is the Archive
// heading, which makes a thematic break structural rather than content.
func archiveAhead(lines []string, from, to int, label string) bool {
	for i := from; i < to; i++ {
		if strings.TrimSpace(lines[i]) == "" {
			continue
		}
		m := headingRe.FindStringSubmatch(lines[i])
		return m != nil && m[2] == label
	}
	return false
}
