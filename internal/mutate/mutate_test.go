package mutate

import (
	"strings"
	"testing"

	"github.com/boardmd/boardmd/internal/board"
	"github.com/boardmd/boardmd/internal/domain"
	"github.com/boardmd/boardmd/internal/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mutateDoc = `## Todo
<!-- kanban-lane-id: todo -->

- [ ] Buy milk #errands @{2024-01-15} ^abc123
- [ ] Fix bug !low ^x1
- [ ] Walk dog
- [/] Draft report @@kim @start{2024-01-02} @{2024-01-09} ^rep1

## Done
<!-- kanban-lane-id: done -->

Complete

- [x] Shipped ^s1
`

func testCfg() settings.Settings {
	return settings.Default()
}

// assertOnlyLineChanged is the locality property: a line-level mutation
// leaves every other line of the document byte-identical.
func assertOnlyLineChanged(t *testing.T, before, after string, idx int) {
	t.Helper()
	b := strings.Split(before, "\n")
	a := strings.Split(after, "\n")
	require.Equal(t, len(b), len(a), "line count must not change")
	for i := range b {
		if i == idx {
			continue
		}
		assert.Equal(t, b[i], a[i], "line %d must be untouched", i)
	}
}

func TestSetDateReplacesInPlace(t *testing.T) {
	out, err := SetDate(mutateDoc, CardRef{BlockID: "abc123"}, testCfg(), "2024-02-01")
	require.NoError(t, err)

	assert.Contains(t, out, "- [ ] Buy milk #errands @{2024-02-01} ^abc123")
	assertOnlyLineChanged(t, mutateDoc, out, 3)
}

func TestSetDateInsertsBeforeBlockID(t *testing.T) {
	out, err := SetDate(mutateDoc, CardRef{BlockID: "x1"}, testCfg(), "2024-03-01")
	require.NoError(t, err)
	assert.Contains(t, out, "- [ ] Fix bug !low @{2024-03-01} ^x1")
}

func TestSetDateAppendsWithoutBlockID(t *testing.T) {
	out, err := SetDate(mutateDoc, CardRef{Title: "Walk dog"}, testCfg(), "2024-03-01")
	require.NoError(t, err)
	assert.Contains(t, out, "- [ ] Walk dog @{2024-03-01}")
}

func TestSetDateEmptyRemovesToken(t *testing.T) {
	out, err := SetDate(mutateDoc, CardRef{BlockID: "abc123"}, testCfg(), "")
	require.NoError(t, err)
	assert.Contains(t, out, "- [ ] Buy milk #errands ^abc123")
}

func TestSetDateRejectsBadFormat(t *testing.T) {
	out, err := SetDate(mutateDoc, CardRef{BlockID: "abc123"}, testCfg(), "01/02/2024")
	require.Error(t, err)
	assert.Equal(t, mutateDoc, out, "file must be unchanged on error")
}

func TestSetStartDateLeavesDueDateAlone(t *testing.T) {
	out, err := SetStartDate(mutateDoc, CardRef{BlockID: "rep1"}, testCfg(), "2024-01-05")
	require.NoError(t, err)
	assert.Contains(t, out, "@start{2024-01-05}")
	assert.Contains(t, out, "@{2024-01-09}")
	assert.NotContains(t, out, "@start{2024-01-02}")
}

func TestLocateNotFoundLeavesFileUnchanged(t *testing.T) {
	out, err := SetDate(mutateDoc, CardRef{BlockID: "nope"}, testCfg(), "2024-02-01")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, mutateDoc, out)
}

// A card whose title was edited externally must fail the fallback match
// rather than mutate a near-miss line.
func TestLocateFallbackRejectsChangedTitle(t *testing.T) {
	out, err := SetDate(mutateDoc, CardRef{Title: "Buy oat milk"}, testCfg(), "2024-02-01")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, mutateDoc, out)
}

func TestLocateFallbackAmbiguous(t *testing.T) {
	doc := "## Todo\n\n- [ ] Walk dog\n- [ ] Walk dog again\n"
	out, err := SetDate(doc, CardRef{Title: "Walk dog"}, testCfg(), "2024-02-01")
	require.Error(t, err)

	var amb AmbiguousMatchError
	require.ErrorAs(t, err, &amb)
	assert.Len(t, amb.Lines, 2)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, doc, out)
}

// The fallback survives earlier metadata edits: a ref captured before a
// date change still matches, because dates are stripped on both sides.
func TestLocateFallbackIgnoresMetadataDrift(t *testing.T) {
	ref := CardRef{Title: "Buy milk #errands @{2023-12-31}"}
	out, err := SetDate(mutateDoc, ref, testCfg(), "2024-02-01")
	require.NoError(t, err)
	assert.Contains(t, out, "- [ ] Buy milk #errands @{2024-02-01} ^abc123")
}

func TestSetPriorityReplaces(t *testing.T) {
	out, err := SetPriority(mutateDoc, CardRef{BlockID: "x1"}, testCfg(), domain.PriorityHigh)
	require.NoError(t, err)
	assert.Contains(t, out, "- [ ] Fix bug !high ^x1")
	assert.NotContains(t, out, "!low")
}

func TestSetPriorityNoneRemoves(t *testing.T) {
	out, err := SetPriority(mutateDoc, CardRef{BlockID: "x1"}, testCfg(), domain.PriorityNone)
	require.NoError(t, err)
	assert.Contains(t, out, "- [ ] Fix bug ^x1")
}

func TestSetPriorityInvalid(t *testing.T) {
	out, err := SetPriority(mutateDoc, CardRef{BlockID: "x1"}, testCfg(), domain.Priority("urgent"))
	require.Error(t, err)
	assert.Equal(t, mutateDoc, out)
}

func TestAssignAddsMember(t *testing.T) {
	out, err := Assign(mutateDoc, CardRef{BlockID: "x1"}, testCfg(), "sam")
	require.NoError(t, err)
	assert.Contains(t, out, "- [ ] Fix bug !low @@sam ^x1")
}

func TestAssignExistingMemberIsStable(t *testing.T) {
	out, err := Assign(mutateDoc, CardRef{BlockID: "rep1"}, testCfg(), "kim")
	require.NoError(t, err)

	b, _ := board.NewParser(testCfg(), nil).Parse(out)
	card, _ := b.FindCard("rep1")
	require.NotNil(t, card)
	assert.Equal(t, []string{"kim"}, card.AssignedMembers)
}

func TestUnassignRemovesMember(t *testing.T) {
	out, err := Unassign(mutateDoc, CardRef{BlockID: "rep1"}, testCfg(), "kim")
	require.NoError(t, err)
	assert.NotContains(t, out, "@@kim")
	assert.Contains(t, out, "@{2024-01-09}")
}

func TestUnassignMissingMember(t *testing.T) {
	out, err := Unassign(mutateDoc, CardRef{BlockID: "x1"}, testCfg(), "kim")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, mutateDoc, out)
}

func TestSetCheckedTouchesOnlyMarker(t *testing.T) {
	out, err := SetChecked(mutateDoc, CardRef{BlockID: "abc123"}, testCfg(), true)
	require.NoError(t, err)
	assert.Contains(t, out, "- [x] Buy milk #errands @{2024-01-15} ^abc123")
	assertOnlyLineChanged(t, mutateDoc, out, 3)
}

func TestSetCheckedUnchecksCustomMarker(t *testing.T) {
	out, err := SetChecked(mutateDoc, CardRef{BlockID: "rep1"}, testCfg(), false)
	require.NoError(t, err)
	assert.Contains(t, out, "- [ ] Draft report @@kim @start{2024-01-02} @{2024-01-09} ^rep1")
}

func TestSetCheckChar(t *testing.T) {
	out, err := SetCheckChar(mutateDoc, CardRef{BlockID: "x1"}, testCfg(), ">")
	require.NoError(t, err)
	assert.Contains(t, out, "- [>] Fix bug !low ^x1")
}

func TestSetCheckCharOnPlainItem(t *testing.T) {
	doc := "## Todo\n\n- plain item ^p1\n"
	out, err := SetChecked(doc, CardRef{BlockID: "p1"}, testCfg(), true)
	require.Error(t, err)
	assert.Equal(t, doc, out)
}

func TestMoveToLane(t *testing.T) {
	p := board.NewParser(testCfg(), nil)
	out, err := MoveToLane(p, mutateDoc, CardRef{BlockID: "x1"}, "done")
	require.NoError(t, err)

	b, _ := p.Parse(out)
	card, lane := b.FindCard("x1")
	require.NotNil(t, card)
	require.NotNil(t, lane)
	assert.Equal(t, "done", lane.ID)
	// The destination lane carries the Complete convention.
	assert.True(t, card.Checked)
	assert.Equal(t, "x", card.CheckChar)
}

func TestMoveToLaneByTitle(t *testing.T) {
	p := board.NewParser(testCfg(), nil)
	out, err := MoveToLane(p, mutateDoc, CardRef{BlockID: "abc123"}, "Done")
	require.NoError(t, err)

	b, _ := p.Parse(out)
	_, lane := b.FindCard("abc123")
	require.NotNil(t, lane)
	assert.Equal(t, "Done", lane.Title)
}

// Moving a card rewrites the whole document, so prose sitting between
// lanes has to come back out the other side.
func TestMoveToLaneKeepsSurroundingProse(t *testing.T) {
	doc := "## Todo\n<!-- kanban-lane-id: todo -->\n\n" +
		"- [ ] ship it ^s1\n\n" +
		"See the roadmap doc for context.\n\n" +
		"## Done\n<!-- kanban-lane-id: done -->\n\n" +
		"- [x] landed ^d1\n"
	p := board.NewParser(testCfg(), nil)
	out, err := MoveToLane(p, doc, CardRef{BlockID: "s1"}, "done")
	require.NoError(t, err)
	assert.Contains(t, out, "See the roadmap doc for context.")
}

// A card without a block id gains one on a structural move, so it stays
// addressable in its new lane.
func TestMoveAnchorsUnanchoredCard(t *testing.T) {
	p := board.NewParser(testCfg(), nil)
	out, err := MoveToLane(p, mutateDoc, CardRef{Title: "Walk dog"}, "done")
	require.NoError(t, err)

	b, _ := p.Parse(out)
	lane := b.FindLane("done")
	require.NotNil(t, lane)
	moved := lane.Cards[len(lane.Cards)-1]
	assert.Equal(t, "Walk dog", moved.DisplayTitle)
	assert.NotEmpty(t, moved.BlockID)
}

func TestMoveToMissingLane(t *testing.T) {
	p := board.NewParser(testCfg(), nil)
	out, err := MoveToLane(p, mutateDoc, CardRef{BlockID: "x1"}, "Someday")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, mutateDoc, out)
}

func TestArchiveCardCreatesSection(t *testing.T) {
	p := board.NewParser(testCfg(), nil)
	out, err := ArchiveCard(p, mutateDoc, CardRef{BlockID: "s1"})
	require.NoError(t, err)

	b, _ := p.Parse(out)
	require.Len(t, b.Archive, 1)
	assert.Equal(t, "s1", b.Archive[0].BlockID)
	_, lane := b.FindCard("s1")
	assert.Nil(t, lane, "archived card must leave its lane")
}

func TestArchiveAlreadyArchivedIsNoop(t *testing.T) {
	doc := "## Todo\n\n- [ ] a\n\n---\n\n## Archive\n\n- [x] old ^o1\n"
	p := board.NewParser(testCfg(), nil)
	out, err := ArchiveCard(p, doc, CardRef{BlockID: "o1"})
	require.NoError(t, err)
	assert.Equal(t, doc, out)
}
