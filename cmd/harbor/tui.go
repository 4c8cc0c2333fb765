package main

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v2"

	"github.com/abelbrown/harbor/internal/logging"
	"github.com/abelbrown/harbor/internal/ui"
)

func runTUI(c *cli.Context) error {
	e, err := setup(c, true)
	if err != nil {
		return err
	}
	defer e.close()

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	var user string
	if u := e.app.User(); u != nil {
		user = u.Username
	}
	model := ui.NewApp(ui.Deps{
		Engine:   e.app.Suggest,
		Feed:     e.app.Notify,
		Engage:   e.app.Engage,
		Authed:   e.app.IsAuthenticated,
		User:     user,
		Theme:    e.app.Theme(),
		PageSize: e.cfg.Notifications.PageSize,
	})

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	poller := e.app.StartPolling(ctx, func(n int) {
		program.Send(ui.UnreadCountMsg{Count: n})
	})

	final, err := program.Run()
	if err != nil {
		logging.Error("TUI exited with error", "error", err)
	}
	if m, ok := final.(ui.App); ok {
		m.Shutdown()
	}

	cancel()
	if poller != nil {
		poller.Wait()
	}
	e.app.EndSession()
	return err
}
