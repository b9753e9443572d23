package main

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"
	"github.com/spf13/cobra"

	"github.com/boardmd/boardmd/internal/domain"
	"github.com/boardmd/boardmd/internal/logger"
	"github.com/boardmd/boardmd/internal/mutate"
	"github.com/boardmd/boardmd/internal/settings"
)

var (
	idFlag     string
	matchFlag  string
	dryRunFlag bool
)

// mutationCmds returns the card mutation subcommands. They share the
// --id / --match targeting flags and --dry-run.
func mutationCmds() []*cobra.Command {
	cmds := []*cobra.Command{
		newSetDateCmd(),
		newSetStartCmd(),
		newSetPriorityCmd(),
		newAssignCmd(),
		newUnassignCmd(),
		newCheckCmd(true),
		newCheckCmd(false),
		newMoveCmd(),
		newArchiveCmd(),
	}
	for _, c := range cmds {
		c.Flags().StringVar(&idFlag, "id", "", "Target card by block id (without the ^)")
		c.Flags().StringVar(&matchFlag, "match", "", "Target card by title text")
		c.Flags().BoolVar(&dryRunFlag, "dry-run", false, "Print a diff instead of writing")
	}
	return cmds
}

// cardRef resolves the targeting flags. Exactly one of --id and --match
// must be set.
func cardRef() (mutate.CardRef, error) {
	switch {
	case idFlag != "" && matchFlag != "":
		return mutate.CardRef{}, fmt.Errorf("--id and --match are mutually exclusive")
	case idFlag != "":
		return mutate.CardRef{BlockID: idFlag}, nil
	case matchFlag != "":
		return mutate.CardRef{Title: matchFlag}, nil
	}
	return mutate.CardRef{}, fmt.Errorf("one of --id or --match is required")
}

// textMutation is one mutation over a document's raw text. The
// effective settings come from the document itself.
type textMutation func(text string, eff settings.Settings) (string, error)

// applyMutation runs the mutation through the vault, or prints a diff
// when --dry-run is set.
func applyMutation(cmd *cobra.Command, file, kind string, fn textMutation) error {
	v, path := vaultFor(file)
	log := logger.Stderr(verboseFlag)

	withEff := func(text string) (string, error) {
		_, eff := v.Parser.Parse(text)
		return fn(text, eff)
	}

	if dryRunFlag {
		text, err := v.Host.ReadFile(cmd.Context(), path)
		if err != nil {
			return err
		}
		out, err := withEff(text)
		if err != nil {
			return err
		}
		return printDiff(path, text, out)
	}

	if err := v.Update(cmd.Context(), path, withEff); err != nil {
		return err
	}
	log.MutationApplied(path, kind, idFlag+matchFlag)
	return nil
}

// printDiff renders a unified diff of the pending change.
func printDiff(path, before, after string) error {
	if before == after {
		fmt.Println("no changes")
		return nil
	}
	edits := myers.ComputeEdits(span.URIFromPath(path), before, after)
	unified := fmt.Sprint(gotextdiff.ToUnified(path, path+" (modified)", before, edits))

	fenced := "```diff\n" + unified + "```\n"
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(120),
	)
	if err != nil {
		fmt.Print(fenced)
		return nil
	}
	rendered, err := r.Render(fenced)
	if err != nil {
		fmt.Print(fenced)
		return nil
	}
	fmt.Print(rendered)
	return nil
}

func newSetDateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-date <file> [date]",
		Short: "Set or clear a card's due date",
		Long:  "Set a card's due date token. Omit the date to remove it.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := cardRef()
			if err != nil {
				return err
			}
			date := ""
			if len(args) == 2 {
				date = args[1]
			}
			return applyMutation(cmd, args[0], "set-date", func(text string, eff settings.Settings) (string, error) {
				return mutate.SetDate(text, ref, eff, date)
			})
		},
	}
}

func newSetStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-start <file> [date]",
		Short: "Set or clear a card's start date",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := cardRef()
			if err != nil {
				return err
			}
			date := ""
			if len(args) == 2 {
				date = args[1]
			}
			return applyMutation(cmd, args[0], "set-start", func(text string, eff settings.Settings) (string, error) {
				return mutate.SetStartDate(text, ref, eff, date)
			})
		},
	}
}

func newSetPriorityCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-priority <file> <high|medium|low|none>",
		Short: "Set or clear a card's priority",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := cardRef()
			if err != nil {
				return err
			}
			p := domain.Priority(args[1])
			if args[1] == "none" {
				p = domain.PriorityNone
			}
			return applyMutation(cmd, args[0], "set-priority", func(text string, eff settings.Settings) (string, error) {
				return mutate.SetPriority(text, ref, eff, p)
			})
		},
	}
}

func newAssignCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "assign <file> <member>",
		Short: "Assign a member to a card",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := cardRef()
			if err != nil {
				return err
			}
			return applyMutation(cmd, args[0], "assign", func(text string, eff settings.Settings) (string, error) {
				return mutate.Assign(text, ref, eff, args[1])
			})
		},
	}
}

func newUnassignCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unassign <file> <member>",
		Short: "Remove a member from a card",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := cardRef()
			if err != nil {
				return err
			}
			return applyMutation(cmd, args[0], "unassign", func(text string, eff settings.Settings) (string, error) {
				return mutate.Unassign(text, ref, eff, args[1])
			})
		},
	}
}

func newCheckCmd(checked bool) *cobra.Command {
	use, short := "check <file>", "Mark a card's checkbox done"
	if !checked {
		use, short = "uncheck <file>", "Mark a card's checkbox open"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := cardRef()
			if err != nil {
				return err
			}
			kind := "check"
			if !checked {
				kind = "uncheck"
			}
			return applyMutation(cmd, args[0], kind, func(text string, eff settings.Settings) (string, error) {
				return mutate.SetChecked(text, ref, eff, checked)
			})
		},
	}
}

func newMoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move <file> <lane>",
		Short: "Move a card to another lane (by lane id or title)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := cardRef()
			if err != nil {
				return err
			}
			v, _ := vaultFor(args[0])
			parser := v.Parser
			return applyMutation(cmd, args[0], "move", func(text string, _ settings.Settings) (string, error) {
				return mutate.MoveToLane(parser, text, ref, args[1])
			})
		},
	}
}

func newArchiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "archive <file>",
		Short: "Mark a card done and move it to the Archive section",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := cardRef()
			if err != nil {
				return err
			}
			v, _ := vaultFor(args[0])
			parser := v.Parser
			return applyMutation(cmd, args[0], "archive", func(text string, eff settings.Settings) (string, error) {
				out, err := mutate.SetChecked(text, ref, eff, true)
				if err != nil && !isMissingCheckbox(err) {
					return text, err
				}
				if err != nil {
					out = text
				}
				return mutate.ArchiveCard(parser, out, ref)
			})
		},
	}
}

// isMissingCheckbox reports the one SetChecked failure archive
// tolerates: a plain list item with no checkbox to mark.
func isMissingCheckbox(err error) bool {
	var nf mutate.NotFoundError
	return errors.As(err, &nf) && nf.Kind == "checkbox"
}
