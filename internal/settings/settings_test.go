package settings

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	s := Default()
	assert.Equal(t, "2006-01-02", s.DateFormat)
	assert.Equal(t, "@", s.DateTrigger)
	assert.Equal(t, "@@", s.MemberPrefix)
	assert.Equal(t, "Archive", s.ArchiveLabel)
	assert.True(t, s.MoveTags)
	assert.True(t, s.MoveDates)
	assert.False(t, s.MoveInlineFields)
}

func TestParseOverride(t *testing.T) {
	t.Run("partial override keeps base values", func(t *testing.T) {
		base := Default()
		got, err := ParseOverride("date-trigger: \"!\"\nmove-tags: false\n", base)
		require.NoError(t, err)
		assert.Equal(t, "!", got.DateTrigger)
		assert.False(t, got.MoveTags)
		// Untouched keys come from base.
		assert.Equal(t, base.DateFormat, got.DateFormat)
		assert.True(t, got.MoveDates)
	})

	t.Run("empty body is a no-op", func(t *testing.T) {
		base := Default()
		got, err := ParseOverride("   \n", base)
		require.NoError(t, err)
		assert.Equal(t, base, got)
	})

	t.Run("malformed yaml falls back to base", func(t *testing.T) {
		base := Default()
		got, err := ParseOverride("date-format: [unterminated", base)
		assert.Error(t, err)
		assert.Equal(t, base, got)
	})

	t.Run("empty trigger is rejected", func(t *testing.T) {
		base := Default()
		got, err := ParseOverride("date-trigger: \"\"\n", base)
		assert.Error(t, err)
		assert.Equal(t, base, got)
	})
}

func TestEncodeBlockRoundTrip(t *testing.T) {
	s := Default()
	s.DateTrigger = "%"
	block := EncodeBlock(s)

	assert.True(t, len(block) > 0)
	assert.Contains(t, block, "```"+FenceInfo+"\n")
	assert.Contains(t, block, "date-trigger: '%'")

	// The encoded body parses back to the same settings.
	body := block[len("```"+FenceInfo+"\n") : len(block)-len("```\n")]
	got, err := ParseOverride(body, Default())
	require.NoError(t, err)
	assert.Equal(t, s, got)
}

func TestDateHelpers(t *testing.T) {
	s := Default()
	d, err := s.ParseDate("2024-01-15")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), d)
	assert.Equal(t, "2024-01-15", s.FormatDate(d))

	_, err = s.ParseDate("tomorrow")
	assert.Error(t, err)
}
