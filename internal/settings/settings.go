// Package settings holds the effective configuration for parsing and
// writing board documents. A document's trailing settings block overrides
// the global defaults for that document only; malformed overrides fall
// back to the globals and never abort a parse.
package settings

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FenceInfo is the info string of the trailing settings code block.
const FenceInfo = "boardmd-settings"

// Settings is the effective per-document configuration. Date and time
// formats are Go time layouts.
type Settings struct {
	DateFormat   string `yaml:"date-format"`
	TimeFormat   string `yaml:"time-format"`
	DateTrigger  string `yaml:"date-trigger"`
	TimeTrigger  string `yaml:"time-trigger"`
	MemberPrefix string `yaml:"member-prefix"`
	ArchiveLabel string `yaml:"archive-label"`

	// MoveTags and MoveDates control whether tag and date tokens are
	// stripped from the display title. Both default to true.
	MoveTags  bool `yaml:"move-tags"`
	MoveDates bool `yaml:"move-dates"`

	// MoveInlineFields moves `key:: value` pairs out of the display
	// title. Off by default; fields are parsed either way.
	MoveInlineFields bool `yaml:"move-inline-fields"`
}

// Default returns the global default settings.
func Default() Settings {
	return Settings{
		DateFormat:   "2006-01-02",
		TimeFormat:   "15:04",
		DateTrigger:  "@",
		TimeTrigger:  "@@",
		MemberPrefix: "@@",
		ArchiveLabel: "Archive",
		MoveTags:     true,
		MoveDates:    true,
	}
}

// ParseOverride applies a document's settings-block YAML body on top of
// base. Keys absent from the body keep their base values. On malformed
// YAML the base settings are returned unchanged along with the error.
func ParseOverride(body string, base Settings) (Settings, error) {
	merged := base
	if strings.TrimSpace(body) == "" {
		return merged, nil
	}
	if err := yaml.Unmarshal([]byte(body), &merged); err != nil {
		return base, fmt.Errorf("settings block: %w", err)
	}
	if err := merged.validate(); err != nil {
		return base, err
	}
	return merged, nil
}

// EncodeBlock renders s as a complete fenced settings block, ending with
// a newline.
func EncodeBlock(s Settings) string {
	out, err := yaml.Marshal(s)
	if err != nil {
		// Settings is a plain struct; Marshal cannot fail on it.
		out = nil
	}
	return "```" + FenceInfo + "\n" + string(out) + "```\n"
}

// ParseDate parses a date string with the configured layout.
func (s Settings) ParseDate(v string) (time.Time, error) {
	return time.Parse(s.DateFormat, v)
}

// FormatDate renders t with the configured layout.
func (s Settings) FormatDate(t time.Time) string {
	return t.Format(s.DateFormat)
}

func (s Settings) validate() error {
	if s.DateTrigger == "" {
		return fmt.Errorf("settings block: date-trigger must not be empty")
	}
	if s.TimeTrigger == "" {
		return fmt.Errorf("settings block: time-trigger must not be empty")
	}
	if s.MemberPrefix == "" {
		return fmt.Errorf("settings block: member-prefix must not be empty")
	}
	if s.DateFormat == "" {
		return fmt.Errorf("settings block: date-format must not be empty")
	}
	return nil
}
