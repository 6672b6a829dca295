package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/handoffdev/handoff/internal/tui"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live delegation dashboard",
	Long: `Open a terminal dashboard showing the session counters and the
queued, active, and finished units. The view refreshes whenever the
persisted state changes on disk.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEngineEnv()
		if err != nil {
			return err
		}
		defer env.close()

		watcher, err := tui.NewDirWatcher(env.dir)
		if err != nil {
			// Fall back to polling only.
			watcher = nil
		}
		if watcher != nil {
			defer watcher.Close()
		}

		app := tui.NewWatchApp(env.engine.Status, watcher)
		if _, err := tea.NewProgram(app, tea.WithAltScreen()).Run(); err != nil {
			return fmt.Errorf("run dashboard: %w", err)
		}
		return nil
	},
}
