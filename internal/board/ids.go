package board

import (
	"strings"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// IDGenerator produces the stable identifiers persisted into board
// documents. The host can supply its own; DefaultIDs is used otherwise.
type IDGenerator interface {
	// LaneID returns a new lane id for the kanban-lane-id comment.
	LaneID() string
	// BlockID returns a new block-reference anchor (without the caret).
	BlockID() string
}

type defaultIDs struct{}

// DefaultIDs returns the standard generator: ULID lane ids (sortable by
// creation) and short hex block ids.
func DefaultIDs() IDGenerator {
	return defaultIDs{}
}

func (defaultIDs) LaneID() string {
	return strings.ToLower(ulid.Make().String())
}

func (defaultIDs) BlockID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
}
