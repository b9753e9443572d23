package mutate

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/boardmd/boardmd/internal/settings"
)

// checkCharRe captures the three pieces of a checkbox prefix so only the
// marker character itself is substituted.
var checkCharRe = regexp.MustCompile(`^([-*+]\s+\[)(.)(\])`)

// SetChecked flips the card's checkbox between done and open. Only the
// single marker character changes, so custom markers elsewhere in the
// file and everything after the checkbox survive byte for byte. Checking
// writes `x`; unchecking writes a space, regardless of which custom
// character was there before.
func SetChecked(text string, ref CardRef, cfg settings.Settings, checked bool) (string, error) {
	return SetCheckChar(text, ref, cfg, checkChar(checked))
}

// SetCheckChar sets the checkbox marker to an arbitrary single
// character, for states like `-`, `/`, or `>`.
func SetCheckChar(text string, ref CardRef, cfg settings.Settings, ch string) (string, error) {
	if utf8.RuneCountInString(ch) != 1 {
		return text, fmt.Errorf("checkbox marker must be one character, got %q", ch)
	}
	lines := strings.Split(text, "\n")
	idx, err := locateLine(lines, ref, cfg)
	if err != nil {
		return text, err
	}
	m := checkCharRe.FindStringSubmatchIndex(lines[idx])
	if m == nil {
		return text, NotFoundError{Kind: "checkbox", Key: ref.key()}
	}
	line := lines[idx]
	lines[idx] = line[:m[4]] + ch + line[m[5]:]
	return strings.Join(lines, "\n"), nil
}

func checkChar(checked bool) string {
	if checked {
		return "x"
	}
	return " "
}
