package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/shiftswap/internal/notify"
	"github.com/desertthunder/shiftswap/internal/shared"
	"github.com/desertthunder/shiftswap/internal/ui"
)

// TUI launches the interactive terminal client.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(r.config.Log.File)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	fileLogger.SetLevel(shared.ParseLogLevel(r.config.Log.Level))
	r.SetLogger(fileLogger)

	inbox := ui.NewInbox()
	c, err := r.newClient(notify.Multi(inbox, notify.NewLogNotifier(fileLogger.WithPrefix("toast"))), inbox)
	if err != nil {
		return err
	}
	defer c.close()

	c.store.Init(ctx)

	model := ui.NewModel(ctx, ui.Deps{
		Session:  c.store,
		Channel:  c.channel,
		Bridge:   c.bridge,
		Events:   c.events,
		Market:   c.market,
		Requests: c.requests,
		Inbox:    inbox,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
