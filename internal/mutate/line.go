package mutate

import (
	"fmt"
	"strings"

	"github.com/boardmd/boardmd/internal/board"
	"github.com/boardmd/boardmd/internal/domain"
	"github.com/boardmd/boardmd/internal/extract"
	"github.com/boardmd/boardmd/internal/settings"
)

// lineParts is a single item line exploded into editable pieces. Tags,
// links, and inline fields are content and stay inside Content; only the
// tokens a mutation can rewrite are lifted out.
type lineParts struct {
	prefix   string // bullet and checkbox, including trailing space
	content  string
	priority domain.Priority
	members  []string
	start    string
	due      string
	clock    string
	blockID  string
}

// explodeLine splits a located item line. The extraction mirrors parsing
// so a rebuilt line re-parses to the same card.
func explodeLine(line string, cfg settings.Settings) (lineParts, bool) {
	prefix, content, ok := board.ItemLine(line)
	if !ok {
		return lineParts{}, false
	}
	p := lineParts{prefix: prefix}
	p.blockID = board.LineBlockID(content)
	content = strings.TrimRight(board.StripLineBlockID(content), " \t")

	cfg.MoveTags = false
	cfg.MoveDates = true
	cfg.MoveInlineFields = false
	m := extract.NewMarker(content)
	res := extract.New(cfg).Run(m)

	p.content = m.Apply()
	p.priority = res.Priority
	p.members = res.Members
	p.start = res.StartDateStr
	p.due = res.DateStr
	p.clock = res.TimeStr
	return p, true
}

// rebuild renders the parts back to a line in canonical token order:
// content, priority, members, start date, due date, time, block id.
func (p lineParts) rebuild(cfg settings.Settings) string {
	fields := []string{}
	if p.content != "" {
		fields = append(fields, p.content)
	}
	if p.priority != domain.PriorityNone {
		fields = append(fields, "!"+string(p.priority))
	}
	for _, m := range p.members {
		fields = append(fields, cfg.MemberPrefix+m)
	}
	if p.start != "" {
		fields = append(fields, cfg.DateTrigger+"start{"+p.start+"}")
	}
	if p.due != "" {
		fields = append(fields, cfg.DateTrigger+"{"+p.due+"}")
	}
	if p.clock != "" {
		fields = append(fields, cfg.TimeTrigger+"{"+p.clock+"}")
	}
	if p.blockID != "" {
		fields = append(fields, "^"+p.blockID)
	}
	line := strings.TrimRight(p.prefix, " ")
	if len(fields) > 0 {
		line += " " + strings.Join(fields, " ")
	}
	return line
}

// SetPriority rewrites the card's priority marker. PriorityNone removes
// it. Any duplicate markers on the line collapse into the one canonical
// token.
func SetPriority(text string, ref CardRef, cfg settings.Settings, p domain.Priority) (string, error) {
	if p != domain.PriorityNone && !p.Valid() {
		return text, fmt.Errorf("invalid priority %q", p)
	}
	return editLine(text, ref, cfg, func(parts *lineParts) error {
		parts.priority = p
		return nil
	})
}

// Assign adds a member to the card. Assigning an already-assigned
// member is a no-op rewrite, not an error.
func Assign(text string, ref CardRef, cfg settings.Settings, member string) (string, error) {
	if member == "" {
		return text, fmt.Errorf("member name must not be empty")
	}
	return editLine(text, ref, cfg, func(parts *lineParts) error {
		for _, m := range parts.members {
			if m == member {
				return nil
			}
		}
		parts.members = append(parts.members, member)
		return nil
	})
}

// Unassign removes a member from the card.
func Unassign(text string, ref CardRef, cfg settings.Settings, member string) (string, error) {
	return editLine(text, ref, cfg, func(parts *lineParts) error {
		for i, m := range parts.members {
			if m == member {
				parts.members = append(parts.members[:i], parts.members[i+1:]...)
				return nil
			}
		}
		return NotFoundError{Kind: "member", Key: member}
	})
}

// editLine locates the target line, explodes it, applies fn, and writes
// the rebuilt line back. The surrounding lines are untouched.
func editLine(text string, ref CardRef, cfg settings.Settings, fn func(*lineParts) error) (string, error) {
	lines := strings.Split(text, "\n")
	idx, err := locateLine(lines, ref, cfg)
	if err != nil {
		return text, err
	}
	parts, ok := explodeLine(lines[idx], cfg)
	if !ok {
		return text, NotFoundError{Kind: "card", Key: ref.key()}
	}
	if err := fn(&parts); err != nil {
		return text, err
	}
	lines[idx] = parts.rebuild(cfg)
	return strings.Join(lines, "\n"), nil
}
