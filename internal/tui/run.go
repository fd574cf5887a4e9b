package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rohitmondal03/amplication/internal/commitfeed"
)

// Run shows the UI until the user quits or ctx is cancelled.
func Run(ctx context.Context, opts Options, programOpts ...tea.ProgramOption) error {
	programOpts = append([]tea.ProgramOption{tea.WithContext(ctx)}, programOpts...)
	p := tea.NewProgram(New(ctx, opts), programOpts...)

	if opts.View != nil {
		unsubscribe := opts.View.Subscribe(func() { p.Send(refreshMsg{}) })
		defer unsubscribe()
	}
	if opts.Feed != nil {
		unsubscribe := opts.Feed.Subscribe(func(commitfeed.Snapshot) { p.Send(refreshMsg{}) })
		defer unsubscribe()
	}

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
