package tui

import (
	"fmt"

	"walletdash/pkg/config"
	"walletdash/pkg/provider"
	"walletdash/pkg/watcher"

	tea "github.com/charmbracelet/bubbletea"
)

// Start runs the dashboard until the user quits.
func Start(w *watcher.Watcher, injected *provider.Injected, cfg config.Config, configPath, version string) error {
	Version = version
	m := initialModel(w, injected, cfg, configPath)
	defer w.Bus().Unsubscribe(m.sub)

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running dashboard: %w", err)
	}
	return nil
}
