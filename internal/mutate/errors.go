package mutate

import (
	"errors"
	"fmt"
)

// ErrNotFound is the sentinel for any identity lookup that failed.
// Concrete errors carry context and satisfy errors.Is(err, ErrNotFound).
var ErrNotFound = errors.New("not found")

// NotFoundError reports that a mutation target could not be located.
// The file is guaranteed to be unmodified.
type NotFoundError struct {
	Kind string // "card", "lane", "member", or "checkbox"
	Key  string // block id, lane id, or search title
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Key)
}

func (e NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// AmbiguousMatchError reports that the title-based fallback matched more
// than one line. Guessing between them would risk mutating the wrong
// card, so the file is left unmodified.
type AmbiguousMatchError struct {
	Title string
	Lines []int // Zero-based line numbers of the candidates
}

func (e AmbiguousMatchError) Error() string {
	return fmt.Sprintf("ambiguous match for %q: %d candidate lines", e.Title, len(e.Lines))
}

func (e AmbiguousMatchError) Is(target error) bool {
	return target == ErrNotFound
}
