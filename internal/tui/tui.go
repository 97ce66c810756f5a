package tui

import (
	"context"
	"errors"
	"log/slog"
	"os"

	syncpkg "claudeswap/config/sync"
	"claudeswap/internal/daemon"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"
)

// Run starts the TUI. When settingsPath is set, edits to that file made
// while the TUI is open are picked up.
func Run(svc Service, cb syncpkg.Clipboard, settingsPath string, logger *slog.Logger) error {
	if !isTerminal() {
		return errors.New("claudeswap TUI requires a terminal. Use subcommands for non-interactive mode")
	}

	m := NewModel(svc, cb)

	opts := []tea.ProgramOption{
		tea.WithAltScreen(),
		tea.WithReportFocus(),
	}
	p := tea.NewProgram(m, opts...)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if settingsPath != "" {
		w := daemon.New(settingsPath, func() error {
			p.Send(SettingsFileChangedMsg{})
			return nil
		}, daemon.WithLogger(logger))
		go func() {
			if err := w.Run(ctx); err != nil && logger != nil {
				logger.Warn("settings watcher stopped", "error", err)
			}
		}()
	}

	_, err := p.Run()
	return err
}

// isTerminal checks if stdin is a terminal
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}
