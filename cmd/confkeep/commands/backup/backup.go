// Package backup provides CLI commands for managing config backups.
package backup

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// Terminal styles. fatih/color disables them when stdout is not a terminal.
var (
	headerStyle = color.New(color.FgCyan, color.Bold)
	okStyle     = color.New(color.FgGreen)
	dimStyle    = color.New(color.FgHiBlack)
)

// Cmd is the root backup command.
var Cmd = &cobra.Command{
	Use:   "backup",
	Short: "Manage config backups",
	Long: `Manage the backups confkeep writes before it repairs or edits a config file.

Backups live next to the file they copy, as <file>.backup.<n>, where a higher
n is newer. Existing backups are never overwritten.`,
	Example: `  # List backups of a file
  confkeep backup list app.yaml

  # Pick a backup to restore interactively
  confkeep backup restore app.yaml

  # Restore a specific backup
  confkeep backup restore app.yaml 3

  # Remove old backups, keeping the 3 most recent
  confkeep backup prune app.yaml --keep 3

  See Also:
    confkeep backup list    - List available backups
    confkeep backup restore - Restore from a backup
    confkeep backup prune   - Remove old backups`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}
