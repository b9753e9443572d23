package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/boardmd/boardmd/internal/domain"
	"github.com/boardmd/boardmd/internal/store"
)

func newWorkspaceCmd() *cobra.Command {
	var (
		tags      []string
		members   []string
		priority  string
		dueBefore string
		search    string
		archived  bool
		sortKey   string
	)

	cmd := &cobra.Command{
		Use:   "workspace <dir>",
		Short: "List cards aggregated across a directory of board documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := scanInto(cmd, args[0])
			if err != nil {
				return err
			}

			f := store.Filter{
				Tags:            tags,
				Members:         members,
				Priority:        domain.Priority(priority),
				Search:          search,
				IncludeArchived: archived,
			}
			if dueBefore != "" {
				d, err := time.Parse("2006-01-02", dueBefore)
				if err != nil {
					return fmt.Errorf("--due-before: %w", err)
				}
				f.DueBefore = d
			}

			entries, err := s.Cards(f, sortKey)
			if err != nil {
				return err
			}
			for _, e := range entries {
				fmt.Println(formatEntry(e))
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Require a tag (repeatable)")
	cmd.Flags().StringSliceVar(&members, "member", nil, "Require an assigned member (repeatable)")
	cmd.Flags().StringVar(&priority, "priority", "", "Filter by priority (high, medium, low)")
	cmd.Flags().StringVar(&dueBefore, "due-before", "", "Only cards due before this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&search, "search", "", "Substring match on card text")
	cmd.Flags().BoolVar(&archived, "archived", false, "Include archived cards")
	cmd.Flags().StringVar(&sortKey, "sort", "path", "Sort order: path, due, priority, title")

	return cmd
}

func newTimelineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "timeline <dir>",
		Short: "List dated cards across a directory in chronological order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := scanInto(cmd, args[0])
			if err != nil {
				return err
			}

			for _, t := range s.Timeline() {
				fmt.Println(formatTimelineEntry(t))
			}
			return nil
		},
	}
}

// scanInto walks the directory and loads every parsed board into a
// fresh store.
func scanInto(cmd *cobra.Command, dir string) (*store.Store, error) {
	v := dirVault(dir)
	boards, err := v.Scan(cmd.Context(), nil)
	if err != nil {
		return nil, err
	}
	s := store.New()
	for _, fb := range boards {
		s.UpsertBoard(fb.Path, fb.Board)
	}
	return s, nil
}

func formatEntry(e store.Entry) string {
	var marks []string
	if p := e.Card.Metadata.Priority; p != domain.PriorityNone {
		marks = append(marks, "!"+string(p))
	}
	if e.Card.Metadata.DateStr != "" {
		marks = append(marks, "due "+e.Card.Metadata.DateStr)
	}
	for _, m := range e.Card.AssignedMembers {
		marks = append(marks, "@"+m)
	}
	marks = append(marks, e.Card.Metadata.Tags...)

	lane := e.Lane
	if e.Archived {
		lane = "archived"
	}

	line := fmt.Sprintf("%s  %s  [%s] %s", e.Path, lane, checkMark(e.Card), e.Card.DisplayTitle)
	if len(marks) > 0 {
		line += "  (" + strings.Join(marks, " ") + ")"
	}
	return line
}

func formatTimelineEntry(t store.TimelineEntry) string {
	const layout = "2006-01-02"
	span := ""
	switch {
	case !t.Start.IsZero() && !t.Due.IsZero():
		span = t.Start.Format(layout) + " → " + t.Due.Format(layout)
	case !t.Start.IsZero():
		span = t.Start.Format(layout) + " →"
	default:
		span = "        → " + t.Due.Format(layout)
	}
	return fmt.Sprintf("%s  %s  (%s, %s)", span, t.Card.DisplayTitle, t.Path, t.Lane)
}

func checkMark(c *domain.Card) string {
	if c.CheckChar == "" {
		return "-"
	}
	return c.CheckChar
}
