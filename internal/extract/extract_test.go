package extract

import (
	"testing"

	"github.com/boardmd/boardmd/internal/domain"
	"github.com/boardmd/boardmd/internal/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, cfg settings.Settings, title string) (Result, string) {
	t.Helper()
	m := NewMarker(title)
	res := New(cfg).Run(m)
	return res, m.Apply()
}

func TestMarker(t *testing.T) {
	t.Run("no marks returns trimmed base", func(t *testing.T) {
		m := NewMarker("  hello world ")
		assert.Equal(t, "hello world", m.Apply())
	})

	t.Run("overlapping spans merge", func(t *testing.T) {
		m := NewMarker("abcdef")
		m.Mark(1, 4)
		m.Mark(3, 5)
		assert.Equal(t, "af", m.Apply())
	})

	t.Run("token marking swallows separating space", func(t *testing.T) {
		m := NewMarker("keep #tag keep")
		m.MarkToken(5, 9)
		assert.Equal(t, "keep keep", m.Apply())
	})

	t.Run("leading token swallows trailing space", func(t *testing.T) {
		m := NewMarker("#tag keep")
		m.MarkToken(0, 4)
		assert.Equal(t, "keep", m.Apply())
	})

	t.Run("marked reports overlap", func(t *testing.T) {
		m := NewMarker("abcdef")
		m.Mark(2, 4)
		assert.True(t, m.Marked(3, 5))
		assert.False(t, m.Marked(4, 6))
	})
}

func TestTags(t *testing.T) {
	res, title := run(t, settings.Default(), "Buy milk #errands #home/kitchen")
	assert.Equal(t, []string{"#errands", "#home/kitchen"}, res.Tags)
	assert.Equal(t, "Buy milk", title)
}

func TestTagsInsideCodeSpanIgnored(t *testing.T) {
	res, title := run(t, settings.Default(), "Fix `#include <stdio.h>` bug #cpp")
	assert.Equal(t, []string{"#cpp"}, res.Tags)
	assert.Equal(t, "Fix `#include <stdio.h>` bug", title)
}

func TestTagsKeptWhenPolicyOff(t *testing.T) {
	cfg := settings.Default()
	cfg.MoveTags = false
	res, title := run(t, cfg, "Buy milk #errands")
	assert.Equal(t, []string{"#errands"}, res.Tags)
	assert.Equal(t, "Buy milk #errands", title)
}

func TestDates(t *testing.T) {
	t.Run("due date", func(t *testing.T) {
		res, title := run(t, settings.Default(), "Ship release @{2024-01-15}")
		assert.Equal(t, "2024-01-15", res.DateStr)
		assert.Equal(t, "Ship release", title)
	})

	t.Run("start and due together", func(t *testing.T) {
		res, title := run(t, settings.Default(), "Sprint @start{2024-01-08} @{2024-01-15}")
		assert.Equal(t, "2024-01-08", res.StartDateStr)
		assert.Equal(t, "2024-01-15", res.DateStr)
		assert.Equal(t, "Sprint", title)
	})

	t.Run("time token", func(t *testing.T) {
		res, title := run(t, settings.Default(), "Standup @{2024-01-15} @@{09:30}")
		assert.Equal(t, "2024-01-15", res.DateStr)
		assert.Equal(t, "09:30", res.TimeStr)
		assert.Equal(t, "Standup", title)
	})

	t.Run("dates left in title when policy off", func(t *testing.T) {
		cfg := settings.Default()
		cfg.MoveDates = false
		res, title := run(t, cfg, "Ship @{2024-01-15}")
		assert.Equal(t, "2024-01-15", res.DateStr)
		assert.Equal(t, "Ship @{2024-01-15}", title)
	})

	t.Run("custom trigger", func(t *testing.T) {
		cfg := settings.Default()
		cfg.DateTrigger = "due:"
		res, title := run(t, cfg, "Pay rent due:{2024-02-01}")
		assert.Equal(t, "2024-02-01", res.DateStr)
		assert.Equal(t, "Pay rent", title)
	})
}

func TestDateWikilink(t *testing.T) {
	t.Run("parseable link text is a date", func(t *testing.T) {
		res, title := run(t, settings.Default(), "Review notes [[2024-03-01]]")
		assert.Equal(t, "2024-03-01", res.DateStr)
		assert.Nil(t, res.File)
		assert.Equal(t, "Review notes", title)
	})

	t.Run("non-date link is a file reference", func(t *testing.T) {
		res, title := run(t, settings.Default(), "Review [[meeting notes]]")
		assert.Empty(t, res.DateStr)
		require.NotNil(t, res.File)
		assert.Equal(t, "meeting notes", res.File.Target)
		assert.False(t, res.File.Embed)
		assert.Equal(t, "Review [[meeting notes]]", title)
	})

	t.Run("aliased date-shaped link is a file reference", func(t *testing.T) {
		res, _ := run(t, settings.Default(), "See [[2024-03-01|daily note]]")
		assert.Empty(t, res.DateStr)
		require.NotNil(t, res.File)
		assert.Equal(t, "2024-03-01", res.File.Target)
		assert.Equal(t, "daily note", res.File.Display)
	})

	t.Run("embed wins over plain link", func(t *testing.T) {
		res, _ := run(t, settings.Default(), "See [[a]] and ![[b.png]]")
		require.NotNil(t, res.File)
		assert.Equal(t, "b.png", res.File.Target)
		assert.True(t, res.File.Embed)
	})
}

func TestMembers(t *testing.T) {
	res, title := run(t, settings.Default(), "Pair on parser @@ana @@ben @@ana")
	assert.Equal(t, []string{"ana", "ben"}, res.Members)
	assert.Equal(t, "Pair on parser", title)
}

func TestPriority(t *testing.T) {
	t.Run("case-insensitive, lowercased", func(t *testing.T) {
		res, title := run(t, settings.Default(), "Hotfix !HIGH now")
		assert.Equal(t, domain.PriorityHigh, res.Priority)
		assert.Equal(t, "Hotfix now", title)
	})

	t.Run("first token wins, all stripped", func(t *testing.T) {
		res, title := run(t, settings.Default(), "Tune !low cache !medium")
		assert.Equal(t, domain.PriorityLow, res.Priority)
		assert.Equal(t, "Tune cache", title)
	})

	t.Run("non-priority bang left alone", func(t *testing.T) {
		res, title := run(t, settings.Default(), "Deploy !highly experimental build")
		assert.Equal(t, domain.PriorityNone, res.Priority)
		assert.Equal(t, "Deploy !highly experimental build", title)
	})
}

func TestInlineFields(t *testing.T) {
	t.Run("bracketed fields parsed, left in title", func(t *testing.T) {
		res, title := run(t, settings.Default(), "Refactor [effort:: 3d] soon")
		require.Len(t, res.Fields, 1)
		assert.Equal(t, domain.InlineField{Key: "effort", Value: "3d"}, res.Fields[0])
		assert.Equal(t, "Refactor [effort:: 3d] soon", title)
	})

	t.Run("move policy strips fields", func(t *testing.T) {
		cfg := settings.Default()
		cfg.MoveInlineFields = true
		res, title := run(t, cfg, "Refactor [effort:: 3d] soon")
		require.Len(t, res.Fields, 1)
		assert.Equal(t, "Refactor soon", title)
	})

	t.Run("bare trailing field", func(t *testing.T) {
		res, _ := run(t, settings.Default(), "Write docs repeat:: weekly")
		require.Len(t, res.Fields, 1)
		assert.Equal(t, domain.InlineField{Key: "repeat", Value: "weekly"}, res.Fields[0])
	})
}

// TestTokenIsolation is the §-style worst case: every token type present
// at once, in varying order. All must be extracted and the remaining
// title must contain none of them, while inert content survives.
func TestTokenIsolation(t *testing.T) {
	titles := []string{
		"Do the thing #a !high @@sam @start{2024-01-01} @{2024-01-05} @@{10:00} [[ref doc]] `#notatag`",
		"@@sam !high #a Do the thing [[ref doc]] @{2024-01-05} @start{2024-01-01} @@{10:00} `#notatag`",
		"#a @{2024-01-05} Do the @@sam thing @start{2024-01-01} !high `#notatag` @@{10:00} [[ref doc]]",
	}
	for _, raw := range titles {
		res, title := run(t, settings.Default(), raw)

		assert.Equal(t, []string{"#a"}, res.Tags, raw)
		assert.Equal(t, "2024-01-05", res.DateStr, raw)
		assert.Equal(t, "2024-01-01", res.StartDateStr, raw)
		assert.Equal(t, "10:00", res.TimeStr, raw)
		assert.Equal(t, []string{"sam"}, res.Members, raw)
		assert.Equal(t, domain.PriorityHigh, res.Priority, raw)
		require.NotNil(t, res.File, raw)
		assert.Equal(t, "ref doc", res.File.Target, raw)

		assert.NotContains(t, title, "#a", raw)
		assert.NotContains(t, title, "@{", raw)
		assert.NotContains(t, title, "@start{", raw)
		assert.NotContains(t, title, "@@sam", raw)
		assert.NotContains(t, title, "!high", raw)
		assert.Contains(t, title, "thing", raw)
		assert.Contains(t, title, "`#notatag`", raw)
		assert.Contains(t, title, "[[ref doc]]", raw)
	}
}

// Unrecognized syntax must survive in the stripped title untouched.
func TestUnknownTokensSurvive(t *testing.T) {
	raw := "Keep ~~struck~~ **bold** %weird% @{2024-01-05} {braces} end"
	_, title := run(t, settings.Default(), raw)
	assert.Equal(t, "Keep ~~struck~~ **bold** %weird% {braces} end", title)
}
