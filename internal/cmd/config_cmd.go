package cmd

import (
	"fmt"

	configui "github.com/Digital-Shane/csv-notes/internal/tui/config"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Edit naming and logging settings",
	Long: `Open the interactive settings editor.

Settings cover the characters stripped from note names, operation logging
and retention, and how many notes are written in parallel. Values are
stored in ~/.csv-notes/config.json.`,
	RunE: runConfigCommand,
}

// runConfigCommand launches the configuration UI
func runConfigCommand(cmd *cobra.Command, args []string) error {
	model, err := configui.New()
	if err != nil {
		return fmt.Errorf("failed to initialize config UI: %w", err)
	}

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run config UI: %w", err)
	}

	return nil
}

func init() {
	rootCmd.AddCommand(configCmd)
}
