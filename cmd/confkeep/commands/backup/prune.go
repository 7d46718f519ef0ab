package backup

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/confkeep/cmd/confkeep/commands/flags"
	"github.com/thoreinstein/confkeep/internal/backup"
	"github.com/thoreinstein/confkeep/internal/errors"
	"github.com/thoreinstein/confkeep/internal/paths"
)

var pruneKeep int

func init() {
	pruneCmd.Flags().IntVar(&pruneKeep, "keep", -1,
		"Number of backups to retain (default from settings, normally 5)")
	Cmd.AddCommand(pruneCmd)
}

var pruneCmd = &cobra.Command{
	Use:   "prune <path>",
	Short: "Remove old backups",
	Long: `Remove backups of a config file beyond the retention count.

By default keeps backup_retention (5 unless configured) of the most recent
backups. Use --keep to choose a different count.`,
	Example: `  # Keep the default number of backups
  confkeep backup prune app.yaml

  # Keep only the 3 most recent backups
  confkeep backup prune app.yaml --keep 3

  # Remove all backups (keep 0)
  confkeep backup prune app.yaml --keep 0`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		keep := pruneKeep
		if !cmd.Flags().Changed("keep") {
			keep = flags.Settings().BackupRetention
		}
		return runPruneWithWriter(paths.ExpandHome(args[0]), keep, cmd.OutOrStdout())
	},
}

func runPruneWithWriter(path string, keep int, w io.Writer) error {
	if keep < 0 {
		return errors.NewUserError(errors.New("--keep must be non-negative"), "Pass --keep 0 to remove every backup")
	}

	mgr := backup.NewManager()

	records, err := mgr.List(path)
	if err != nil {
		if errors.Is(err, backup.ErrNoBackupsFound) {
			fmt.Fprintln(w, "No backups to prune")
			return nil
		}
		return errors.Wrapf(err, "listing backups for %s", path)
	}

	toRemove := len(records) - keep
	if toRemove <= 0 {
		fmt.Fprintln(w, "No backups to prune")
		return nil
	}

	if err := mgr.Prune(path, keep); err != nil {
		return errors.Wrapf(err, "pruning backups for %s", path)
	}

	okStyle.Fprintf(w, "✓ %s: removed %d old backup(s)\n", path, toRemove)
	return nil
}
