// Command tui is the terminal focus dashboard. It runs the same timer,
// board and stats components as the web dashboard against the API server.
package main

import (
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"focusforge/internal/config"
	"focusforge/pkg/client"
	"focusforge/pkg/dashboard"
	"focusforge/pkg/notify"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if cfg.UserID == "" && cfg.APIToken == "" {
		fmt.Fprintln(os.Stderr, "set USER_ID (dev server) or API_TOKEN")
		os.Exit(1)
	}

	// The alt screen owns stdout; logs go to a file when LOG_FILE is set.
	var logOut io.Writer = io.Discard
	if path := os.Getenv("LOG_FILE"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open log: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logOut = f
	}
	logger := cfg.Logger(logOut)

	api := client.New(cfg.APIBase, cfg.APIToken, cfg.UserID)
	bus := notify.NewBus(logger)
	notices := bus.Subscribe()
	defer bus.Unsubscribe(notices)

	var p *tea.Program
	d := dashboard.New(cfg.UserID, dashboard.Backends{
		Tasks:    api.Tasks,
		Sessions: api.Sessions,
		Users:    api.Users,
		Quotes:   api.Quotes,
	}, dashboard.Options{
		Log:             logger,
		Notifier:        bus,
		CompleteTimeout: cfg.CompleteTimeout,
		OnChange: func() {
			if p != nil {
				p.Send(changedMsg{})
			}
		},
	})
	defer d.Close()

	p = tea.NewProgram(newModel(d, notices), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}
