package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/boardmd/boardmd/internal/vault"
)

// Run starts the interactive board view for one document and blocks
// until the user quits.
func Run(ctx context.Context, v *vault.Vault, path string) error {
	app := NewBoardModel(ctx, v, path)

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("program error: %w", err)
	}
	return nil
}
