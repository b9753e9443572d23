// Package store provides the in-memory aggregation layer over scanned
// board documents. It holds parsed boards keyed by path and answers
// filtered, sorted card projections and a timeline projection following
// the "deep modules" principle - simple interface hiding the grouping
// and ordering logic.
package store

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/boardmd/boardmd/internal/domain"
)

var (
	// ErrUnknownSortKey indicates an unrecognized sort key was requested.
	ErrUnknownSortKey = errors.New("unknown sort key")
)

// Sort keys accepted by Cards.
const (
	SortByPath     = "path"
	SortByDue      = "due"
	SortByPriority = "priority"
	SortByTitle    = "title"
)

// Entry is one card with its provenance: the document it came from and
// the lane holding it. Archived cards have no lane.
type Entry struct {
	Path     string
	Lane     string
	LaneID   string
	Archived bool
	Card     *domain.Card
}

// Filter narrows a card projection. Zero values match everything; list
// fields require every listed value to be present on the card.
type Filter struct {
	Tags      []string // With or without the leading #
	Members   []string
	Priority  domain.Priority
	DueBefore time.Time
	Search    string // Case-insensitive substring of the searchable text

	IncludeArchived bool
}

// Store manages the aggregated state of a workspace scan. It is not
// safe for concurrent use; callers serialize access.
type Store struct {
	boards  map[string]*domain.Board
	entries []Entry
}

// New creates a new empty Store instance.
func New() *Store {
	return &Store{boards: make(map[string]*domain.Board)}
}

// UpsertBoard adds or replaces one document's parsed board. The entry
// projection is rebuilt automatically.
func (s *Store) UpsertBoard(path string, b *domain.Board) {
	s.boards[path] = b
	s.rebuildEntries()
}

// RemoveBoard drops one document from the store.
func (s *Store) RemoveBoard(path string) {
	delete(s.boards, path)
	s.rebuildEntries()
}

// Paths returns the loaded document paths in sorted order.
func (s *Store) Paths() []string {
	paths := make([]string, 0, len(s.boards))
	for p := range s.boards {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Board returns one loaded board, or nil.
func (s *Store) Board(path string) *domain.Board {
	return s.boards[path]
}

// Cards returns the entries matching the filter, ordered by the given
// sort key. Ties fall back to document order, so the projection is
// stable across calls.
func (s *Store) Cards(f Filter, sortKey string) ([]Entry, error) {
	if sortKey == "" {
		sortKey = SortByPath
	}
	less, err := lessFunc(sortKey)
	if err != nil {
		return nil, err
	}

	var out []Entry
	for _, e := range s.entries {
		if matches(e, f) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out, nil
}

// TimelineEntry is one card placed on the time axis. Start is zero for
// cards carrying only a due date.
type TimelineEntry struct {
	Entry
	Start time.Time
	Due   time.Time
}

// Timeline returns every non-archived card with at least one hydrated
// date, ordered chronologically: by start date when present, otherwise
// by due date.
func (s *Store) Timeline() []TimelineEntry {
	var out []TimelineEntry
	for _, e := range s.entries {
		if e.Archived {
			continue
		}
		md := e.Card.Metadata
		if md.Date.IsZero() && md.StartDate.IsZero() {
			continue
		}
		out = append(out, TimelineEntry{Entry: e, Start: md.StartDate, Due: md.Date})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].anchor().Before(out[j].anchor())
	})
	return out
}

func (t TimelineEntry) anchor() time.Time {
	if !t.Start.IsZero() {
		return t.Start
	}
	return t.Due
}

// Clear resets the store to empty state.
func (s *Store) Clear() {
	s.boards = make(map[string]*domain.Board)
	s.entries = nil
}

// rebuildEntries reconstructs the flat entry projection from current
// boards, in path order, then board order.
func (s *Store) rebuildEntries() {
	s.entries = s.entries[:0]
	for _, path := range s.Paths() {
		b := s.boards[path]
		for _, lane := range b.Lanes {
			for _, card := range lane.Cards {
				s.entries = append(s.entries, Entry{
					Path: path, Lane: lane.Title, LaneID: lane.ID, Card: card,
				})
			}
		}
		for _, card := range b.Archive {
			s.entries = append(s.entries, Entry{Path: path, Archived: true, Card: card})
		}
	}
}

func matches(e Entry, f Filter) bool {
	if e.Archived && !f.IncludeArchived {
		return false
	}
	md := e.Card.Metadata
	for _, tag := range f.Tags {
		if !hasTag(md.Tags, tag) {
			return false
		}
	}
	for _, member := range f.Members {
		if !contains(e.Card.AssignedMembers, member) {
			return false
		}
	}
	if f.Priority != domain.PriorityNone && md.Priority != f.Priority {
		return false
	}
	if !f.DueBefore.IsZero() {
		if md.Date.IsZero() || !md.Date.Before(f.DueBefore) {
			return false
		}
	}
	if f.Search != "" {
		hay := strings.ToLower(e.Card.TitleSearch + " " + e.Card.DisplayTitle)
		if !strings.Contains(hay, strings.ToLower(f.Search)) {
			return false
		}
	}
	return true
}

func hasTag(tags []string, want string) bool {
	if !strings.HasPrefix(want, "#") {
		want = "#" + want
	}
	for _, t := range tags {
		if strings.EqualFold(t, want) {
			return true
		}
	}
	return false
}

func contains(list []string, want string) bool {
	for _, v := range list {
		if v == want {
			return true
		}
	}
	return false
}

func lessFunc(sortKey string) (func(a, b Entry) bool, error) {
	switch sortKey {
	case SortByPath:
		return func(a, b Entry) bool { return false }, nil // document order
	case SortByDue:
		return func(a, b Entry) bool {
			ad, bd := a.Card.Metadata.Date, b.Card.Metadata.Date
			switch {
			case ad.IsZero():
				return false
			case bd.IsZero():
				return true
			}
			return ad.Before(bd)
		}, nil
	case SortByPriority:
		return func(a, b Entry) bool {
			return a.Card.Metadata.Priority.Rank() < b.Card.Metadata.Priority.Rank()
		}, nil
	case SortByTitle:
		return func(a, b Entry) bool {
			return strings.ToLower(a.Card.DisplayTitle) < strings.ToLower(b.Card.DisplayTitle)
		}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownSortKey, sortKey)
	}
}
