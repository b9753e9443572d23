// Package tui provides Bubble Tea models for the interactive board view.
package tui

import (
	"github.com/boardmd/boardmd/internal/domain"
	"github.com/boardmd/boardmd/internal/settings"
)

// boardLoadedMsg is emitted when the document has been (re)read and
// parsed.
type boardLoadedMsg struct {
	board *domain.Board
	eff   settings.Settings
	err   error
}

// mutationDoneMsg is emitted when a write-through mutation finished;
// the board is reloaded afterwards either way.
type mutationDoneMsg struct {
	err error
}

// ErrorMsg is emitted when an error should surface to the user.
type ErrorMsg struct {
	Err error
}
