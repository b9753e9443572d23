package mutate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/boardmd/boardmd/internal/board"
	"github.com/boardmd/boardmd/internal/settings"
)

// SetDate rewrites the card's due date token. An existing token is
// substituted in place; otherwise a new one is inserted before the
// block-id suffix, or appended. An empty date removes the token.
func SetDate(text string, ref CardRef, cfg settings.Settings, date string) (string, error) {
	return setDateToken(text, ref, cfg, date, false)
}

// SetStartDate is SetDate for the parallel `@start{..}` token. Due and
// start dates are independent; a card may carry both.
func SetStartDate(text string, ref CardRef, cfg settings.Settings, date string) (string, error) {
	return setDateToken(text, ref, cfg, date, true)
}

func setDateToken(text string, ref CardRef, cfg settings.Settings, date string, start bool) (string, error) {
	if date != "" {
		if _, err := cfg.ParseDate(date); err != nil {
			return text, fmt.Errorf("date %q does not match format %q", date, cfg.DateFormat)
		}
	}

	lines := strings.Split(text, "\n")
	idx, err := locateLine(lines, ref, cfg)
	if err != nil {
		return text, err
	}

	trigger := cfg.DateTrigger
	if start {
		trigger += "start"
	}
	re := dateTokenRe(trigger)
	token := trigger + "{" + date + "}"
	line := lines[idx]

	switch {
	case date == "":
		line = re.ReplaceAllString(line, "")
	case re.MatchString(line):
		line = replaceFirst(re, line, "${1}"+token)
	default:
		line = insertBeforeBlockID(line, token)
	}

	lines[idx] = line
	return strings.Join(lines, "\n"), nil
}

// dateTokenRe anchors the token at a whitespace boundary so a `@{..}`
// pattern never matches the tail of the `@@{..}` time token.
func dateTokenRe(trigger string) *regexp.Regexp {
	return regexp.MustCompile(`(^|\s)` + regexp.QuoteMeta(trigger) + `\{[^{}\n]*\}`)
}

// replaceFirst substitutes only the first match; a line carrying a
// stray duplicate token keeps the duplicate untouched.
func replaceFirst(re *regexp.Regexp, s, repl string) string {
	done := false
	return re.ReplaceAllStringFunc(s, func(m string) string {
		if done {
			return m
		}
		done = true
		return re.ReplaceAllString(m, repl)
	})
}

// insertBeforeBlockID appends a token to a line, keeping the block-id
// anchor in final position.
func insertBeforeBlockID(line, token string) string {
	if id := board.LineBlockID(line); id != "" {
		stripped := strings.TrimRight(board.StripLineBlockID(line), " \t")
		return stripped + " " + token + " ^" + id
	}
	return strings.TrimRight(line, " \t") + " " + token
}
