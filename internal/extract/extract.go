// Package extract recognizes the inline tokens of the board dialect
// inside a single list item's text: tags, due and start dates, times,
// member assignments, priority markers, wikilinks and embeds, and
// `key:: value` inline fields. Each pass decides whether a token is
// structural metadata (recorded and, depending on policy, flagged for
// deletion from the display title) or inert content that must survive
// untouched.
//
// Deletion is two-phase: passes mark ranges on a Marker against the
// original string offsets, and the caller materializes all deletions at
// once with Marker.Apply.
package extract

import (
	"regexp"
	"strings"

	"github.com/boardmd/boardmd/internal/domain"
	"github.com/boardmd/boardmd/internal/settings"
)

// Result is the structured metadata one extraction run produced. Tags
// and members are in first-occurrence order; the caller owns collation
// and date hydration.
type Result struct {
	Tags         []string
	DateStr      string
	StartDateStr string
	TimeStr      string
	Members      []string
	Priority     domain.Priority
	File         *domain.FileAccessor
	Fields       []domain.InlineField
}

// Extractor scans list-item text using the trigger characters from one
// settings snapshot. It is safe for concurrent use.
type Extractor struct {
	cfg settings.Settings

	dateRe      *regexp.Regexp
	startDateRe *regexp.Regexp
	timeRe      *regexp.Regexp
	memberRe    *regexp.Regexp
}

var (
	tagRe         = regexp.MustCompile(`(^|\s)(#[\p{L}\d_-]+(?:/[\p{L}\d_-]+)*)`)
	priorityRe    = regexp.MustCompile(`(?i)(^|\s)(!(?:high|medium|low))\b`)
	wikilinkRe    = regexp.MustCompile(`(!?)\[\[([^\[\]|]+)(?:\|([^\[\]]+))?\]\]`)
	bracketedRe   = regexp.MustCompile(`(^|\s)\[([\p{L}][\w-]*)::\s*([^\[\]]*?)\]`)
	trailFieldRe  = regexp.MustCompile(`(^|\s)([\p{L}][\w-]*)::\s*(\S[^\[\]]*)$`)
	codeSpanDelim = "`"
)

// New compiles an extractor for the given settings.
func New(cfg settings.Settings) *Extractor {
	dq := regexp.QuoteMeta(cfg.DateTrigger)
	tq := regexp.QuoteMeta(cfg.TimeTrigger)
	mq := regexp.QuoteMeta(cfg.MemberPrefix)
	return &Extractor{
		cfg:         cfg,
		dateRe:      regexp.MustCompile(`(^|\s)(` + dq + `\{([^{}\n]+)\})`),
		startDateRe: regexp.MustCompile(`(^|\s)(` + dq + `start\{([^{}\n]+)\})`),
		timeRe:      regexp.MustCompile(`(^|\s)(` + tq + `\{(\d{1,2}:\d{2})\})`),
		memberRe:    regexp.MustCompile(`(^|\s)(` + mq + `([\p{L}\d_-]+))`),
	}
}

// Run executes every extraction pass over the marker's base string. The
// marker accumulates the deletions; callers Apply it afterwards to get
// the display title.
func (e *Extractor) Run(m *Marker) Result {
	var res Result
	code := codeSpans(m.Base())

	e.startDates(m, code, &res)
	e.dueDates(m, code, &res)
	e.times(m, code, &res)
	e.wikilinks(m, code, &res)
	e.tags(m, code, &res)
	e.members(m, code, &res)
	e.priority(m, code, &res)
	e.inlineFields(m, code, &res)

	return res
}

// startDates runs before dueDates so `@start{..}` is never claimed by
// the due-date pattern.
func (e *Extractor) startDates(m *Marker, code []span, res *Result) {
	for _, idx := range e.startDateRe.FindAllStringSubmatchIndex(m.Base(), -1) {
		tokStart, tokEnd := idx[4], idx[5]
		if inSpans(code, tokStart) || res.StartDateStr != "" {
			continue
		}
		res.StartDateStr = m.Base()[idx[6]:idx[7]]
		if e.cfg.MoveDates {
			m.MarkToken(tokStart, tokEnd)
		}
	}
}

func (e *Extractor) dueDates(m *Marker, code []span, res *Result) {
	for _, idx := range e.dateRe.FindAllStringSubmatchIndex(m.Base(), -1) {
		tokStart, tokEnd := idx[4], idx[5]
		if inSpans(code, tokStart) || m.Marked(tokStart, tokEnd) || res.DateStr != "" {
			continue
		}
		res.DateStr = m.Base()[idx[6]:idx[7]]
		if e.cfg.MoveDates {
			m.MarkToken(tokStart, tokEnd)
		}
	}
}

func (e *Extractor) times(m *Marker, code []span, res *Result) {
	for _, idx := range e.timeRe.FindAllStringSubmatchIndex(m.Base(), -1) {
		tokStart, tokEnd := idx[4], idx[5]
		if inSpans(code, tokStart) || m.Marked(tokStart, tokEnd) || res.TimeStr != "" {
			continue
		}
		res.TimeStr = m.Base()[idx[6]:idx[7]]
		if e.cfg.MoveDates {
			m.MarkToken(tokStart, tokEnd)
		}
	}
}

// wikilinks resolves `[[..]]` and `![[..]]`. A date-like link (no alias,
// no embed, target parses with the configured format) counts as the due
// date when none was set by a trigger token; anything else is an inert
// file reference, the first of which becomes the card's file accessor.
// Embeds take precedence over plain links for the accessor.
func (e *Extractor) wikilinks(m *Marker, code []span, res *Result) {
	var firstLink *domain.FileAccessor
	for _, idx := range wikilinkRe.FindAllStringSubmatchIndex(m.Base(), -1) {
		tokStart, tokEnd := idx[0], idx[1]
		if inSpans(code, tokStart) || m.Marked(tokStart, tokEnd) {
			continue
		}
		embed := idx[3] > idx[2]
		target := m.Base()[idx[4]:idx[5]]
		display := ""
		if idx[6] >= 0 {
			display = m.Base()[idx[6]:idx[7]]
		}

		if !embed && display == "" && res.DateStr == "" {
			if _, err := e.cfg.ParseDate(target); err == nil {
				res.DateStr = target
				if e.cfg.MoveDates {
					m.MarkToken(tokStart, tokEnd)
				}
				continue
			}
		}

		acc := &domain.FileAccessor{Target: target, Display: display, Embed: embed}
		if embed && (res.File == nil || !res.File.Embed) {
			res.File = acc
		} else if firstLink == nil {
			firstLink = acc
		}
	}
	if res.File == nil {
		res.File = firstLink
	}
}

func (e *Extractor) tags(m *Marker, code []span, res *Result) {
	seen := map[string]bool{}
	for _, idx := range tagRe.FindAllStringSubmatchIndex(m.Base(), -1) {
		tokStart, tokEnd := idx[4], idx[5]
		if inSpans(code, tokStart) || m.Marked(tokStart, tokEnd) {
			continue
		}
		tag := m.Base()[tokStart:tokEnd]
		if !seen[tag] {
			seen[tag] = true
			res.Tags = append(res.Tags, tag)
		}
		if e.cfg.MoveTags {
			m.MarkToken(tokStart, tokEnd)
		}
	}
}

// members is the secondary textual pass for `@@Name` tokens. Assignments
// are uniqued by first occurrence; every occurrence is stripped.
func (e *Extractor) members(m *Marker, code []span, res *Result) {
	seen := map[string]bool{}
	for _, idx := range e.memberRe.FindAllStringSubmatchIndex(m.Base(), -1) {
		tokStart, tokEnd := idx[4], idx[5]
		if inSpans(code, tokStart) || m.Marked(tokStart, tokEnd) {
			continue
		}
		name := m.Base()[idx[6]:idx[7]]
		if !seen[name] {
			seen[name] = true
			res.Members = append(res.Members, name)
		}
		m.MarkToken(tokStart, tokEnd)
	}
}

// priority takes the first `!high|!medium|!low` token, lowercased, and
// strips every occurrence.
func (e *Extractor) priority(m *Marker, code []span, res *Result) {
	for _, idx := range priorityRe.FindAllStringSubmatchIndex(m.Base(), -1) {
		tokStart, tokEnd := idx[4], idx[5]
		if inSpans(code, tokStart) || m.Marked(tokStart, tokEnd) {
			continue
		}
		if res.Priority == domain.PriorityNone {
			res.Priority = domain.Priority(strings.ToLower(m.Base()[tokStart+1 : tokEnd]))
		}
		m.MarkToken(tokStart, tokEnd)
	}
}

// inlineFields parses `[key:: value]` segments anywhere plus a bare
// trailing `key:: value`. Fields stay in the title unless the
// move-inline-fields policy is active.
func (e *Extractor) inlineFields(m *Marker, code []span, res *Result) {
	for _, idx := range bracketedRe.FindAllStringSubmatchIndex(m.Base(), -1) {
		tokStart, tokEnd := idx[3], idx[1]
		if inSpans(code, tokStart) || m.Marked(tokStart, tokEnd) {
			continue
		}
		res.Fields = append(res.Fields, domain.InlineField{
			Key:   m.Base()[idx[4]:idx[5]],
			Value: strings.TrimSpace(m.Base()[idx[6]:idx[7]]),
		})
		if e.cfg.MoveInlineFields {
			m.MarkToken(tokStart, tokEnd)
		}
	}
	if idx := trailFieldRe.FindStringSubmatchIndex(m.Base()); idx != nil {
		tokStart, tokEnd := idx[3], idx[1]
		if !inSpans(code, tokStart) && !m.Marked(tokStart, tokEnd) {
			res.Fields = append(res.Fields, domain.InlineField{
				Key:   m.Base()[idx[4]:idx[5]],
				Value: strings.TrimSpace(m.Base()[idx[6]:idx[7]]),
			})
			if e.cfg.MoveInlineFields {
				m.MarkToken(tokStart, tokEnd)
			}
		}
	}
}

// codeSpans pairs backticks into inline code ranges. Tokens starting
// inside a code span are never treated as metadata.
func codeSpans(s string) []span {
	var spans []span
	open := -1
	for i := 0; i < len(s); i++ {
		if s[i] != codeSpanDelim[0] {
			continue
		}
		if open < 0 {
			open = i
		} else {
			spans = append(spans, span{open, i + 1})
			open = -1
		}
	}
	return spans
}

func inSpans(spans []span, pos int) bool {
	for _, sp := range spans {
		if pos >= sp.start && pos < sp.end {
			return true
		}
	}
	return false
}
