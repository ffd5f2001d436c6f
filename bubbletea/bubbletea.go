// Package bubbletea provides a Bubble Tea TUI for interactive code rewrites.
//
// The TUI shows the current code, an instruction box and a status line. A
// rewrite runs as a tea.Cmd, off the event loop, so the interface stays
// responsive and a running call can be cancelled.
package bubbletea

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// RewriteFunc rewrites code according to instruction. It blocks until the
// rewrite completes or ctx is cancelled.
type RewriteFunc func(ctx context.Context, instruction, code string) (string, error)

// Run creates and runs the Bubble Tea TUI program. It blocks until the program
// exits. When ctx is cancelled, the program quits.
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	go func() {
		<-ctx.Done()
		p.Quit()
	}()
	_, err := p.Run()
	return err
}

// RewriteDoneMsg carries the outcome of a rewrite.
type RewriteDoneMsg struct {
	Code string
	Err  error
}

// SavedMsg carries the outcome of a save.
type SavedMsg struct {
	Path string
	Err  error
}
