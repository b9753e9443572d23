package board

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// splitFrontmatter separates a leading YAML frontmatter block from the
// document lines. The raw block (delimiters included, trailing newline
// preserved) is returned verbatim for byte-stable round-tripping along
// with its parsed form and the index of the first body line.
func splitFrontmatter(lines []string) (raw string, parsed map[string]any, bodyStart int, err error) {
	if len(lines) == 0 || strings.TrimRight(lines[0], " \t") != "---" {
		return "", nil, 0, nil
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimRight(lines[i], " \t") == "---" {
			raw = strings.Join(lines[:i+1], "\n") + "\n"
			body := strings.Join(lines[1:i], "\n")
			parsed = map[string]any{}
			if yamlErr := yaml.Unmarshal([]byte(body), &parsed); yamlErr != nil {
				return raw, nil, i + 1, fmt.Errorf("frontmatter: %w", yamlErr)
			}
			return raw, parsed, i + 1, nil
		}
	}
	// Unterminated delimiter: not frontmatter, treat as body.
	return "", nil, 0, nil
}

// splitSettingsBlock finds the trailing fenced settings code block. It
// returns the block verbatim, the YAML body inside the fences, and the
// index just past the last body line (i.e. the block's opening fence).
// A document without a settings block returns bodyEnd == len(lines).
func splitSettingsBlock(lines []string, fenceInfo string) (raw string, body string, bodyEnd int) {
	end := len(lines)
	for end > 0 && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	if end == 0 || strings.TrimSpace(lines[end-1]) != "```" {
		return "", "", len(lines)
	}
	open := "```" + fenceInfo
	for i := end - 2; i >= 0; i-- {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == open {
			raw = strings.Join(lines[i:end], "\n") + "\n"
			body = strings.Join(lines[i+1:end-1], "\n")
			return raw, body, i
		}
		if strings.HasPrefix(trimmed, "```") {
			// Some other fence closes the document; leave it alone.
			return "", "", len(lines)
		}
	}
	return "", "", len(lines)
}
