package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/boardmd/boardmd/internal/board"
	"github.com/boardmd/boardmd/internal/logger"
	"github.com/boardmd/boardmd/internal/settings"
	"github.com/boardmd/boardmd/internal/tui"
	"github.com/boardmd/boardmd/internal/vault"
)

var (
	// Global flags
	verboseFlag bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "boardmd",
		Short: "Kanban boards stored as plain markdown files",
		Long: `boardmd reads and writes kanban boards kept in markdown documents:
headings are lanes, list items are cards, and inline tokens carry
dates, priorities, tags, and assignments.

Documents stay valid markdown at all times. Targeted edits touch only
the line of the card they change.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Verbose logging to stderr")

	rootCmd.AddCommand(
		newBoardCmd(),
		newShowCmd(),
		newWorkspaceCmd(),
		newTimelineCmd(),
	)
	rootCmd.AddCommand(mutationCmds()...)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// vaultFor builds a vault rooted at the file's directory and returns
// the document's path relative to it.
func vaultFor(file string) (*vault.Vault, string) {
	dir := filepath.Dir(file)
	log := logger.Stderr(verboseFlag)
	v := vault.New(vault.NewDirHost(dir), settings.Default(), log)
	return v, filepath.Base(file)
}

// dirVault builds a vault over a whole directory tree.
func dirVault(dir string) *vault.Vault {
	log := logger.Stderr(verboseFlag)
	return vault.New(vault.NewDirHost(dir), settings.Default(), log)
}

func newBoardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "board <file>",
		Short: "Open the interactive board view for one document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, path := vaultFor(args[0])
			return tui.Run(cmd.Context(), v, path)
		},
	}
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <file>",
		Short: "Render a board document to the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, path := vaultFor(args[0])
			b, eff, err := v.Load(cmd.Context(), path)
			if err != nil {
				return err
			}

			rendered := board.Serialize(b, eff)
			r, err := glamour.NewTermRenderer(
				glamour.WithAutoStyle(),
				glamour.WithWordWrap(100),
			)
			if err != nil {
				fmt.Print(rendered)
				return nil
			}
			out, err := r.Render(rendered)
			if err != nil {
				fmt.Print(rendered)
				return nil
			}
			fmt.Print(out)
			return nil
		},
	}
}
