package backup

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/confkeep/cmd/confkeep/commands/flags"
	"github.com/thoreinstein/confkeep/internal/backup"
	"github.com/thoreinstein/confkeep/internal/errors"
	"github.com/thoreinstein/confkeep/internal/paths"
)

var listJSON bool

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	Cmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list <path>",
	Short: "List available backups",
	Long: `List the backups of a config file, most recent first.`,
	Example: `  # List backups
  confkeep backup list app.yaml

  # Output as JSON
  confkeep backup list app.yaml --json

  See Also:
    confkeep backup restore - Restore from a backup`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runListWithWriter(paths.ExpandHome(args[0]), cmd.OutOrStdout())
	},
}

func runListWithWriter(path string, w io.Writer) error {
	records, err := flags.BackupManager().List(path)
	if err != nil && !errors.Is(err, backup.ErrNoBackupsFound) {
		return errors.Wrapf(err, "listing backups for %s", path)
	}

	if listJSON {
		if records == nil {
			records = []backup.Record{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(records), "encoding output")
	}

	headerStyle.Fprintf(w, "Backups of %s\n", path)

	if len(records) == 0 {
		dimStyle.Fprintln(w, "  (no backups available)")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  SEQ\tCREATED\tMODE\tSHA256")
	for _, r := range records {
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n",
			okStyle.Sprint(r.Seq),
			r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			r.Mode,
			shortHash(r.SHA256Hash))
	}
	return tw.Flush()
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
