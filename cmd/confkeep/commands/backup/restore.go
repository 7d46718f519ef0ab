package backup

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ktr0731/go-fuzzyfinder"
	"github.com/spf13/cobra"

	"github.com/thoreinstein/confkeep/internal/backup"
	"github.com/thoreinstein/confkeep/internal/diff"
	"github.com/thoreinstein/confkeep/internal/errors"
	"github.com/thoreinstein/confkeep/internal/logging"
	"github.com/thoreinstein/confkeep/internal/paths"
)

var restoreLatest bool

// pickRecord chooses a record when no sequence number is given. Tests
// replace it.
var pickRecord = pickRecordInteractive

var interactive = func() bool { return logging.IsTTY(os.Stdin) }

func init() {
	restoreCmd.Flags().BoolVar(&restoreLatest, "latest", false,
		"restore the most recent backup without prompting")
	Cmd.AddCommand(restoreCmd)
}

var restoreCmd = &cobra.Command{
	Use:   "restore <path> [seq]",
	Short: "Restore from a backup",
	Long: `Restore a config file from one of its backups.

Without a sequence number an interactive picker lists the backups with a
preview of their contents. When stdin is not a terminal, or with --latest,
the most recent backup is restored.

The file is overwritten atomically and takes the permissions recorded with
the backup.`,
	Example: `  # Pick interactively
  confkeep backup restore app.yaml

  # Restore backup 3
  confkeep backup restore app.yaml 3

  # Restore the most recent backup in a script
  confkeep backup restore app.yaml --latest`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRestoreWithWriter(args, cmd.OutOrStdout())
	},
}

func runRestoreWithWriter(args []string, w io.Writer) error {
	path := paths.ExpandHome(args[0])
	mgr := backup.NewManager()

	var seq int
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 1 {
			return errors.NewUserError(errors.Newf("invalid backup sequence %q", args[1]),
				"Run 'confkeep backup list "+args[0]+"' to see available backups")
		}
		seq = n
	} else {
		records, err := mgr.List(path)
		if err != nil {
			if errors.Is(err, backup.ErrNoBackupsFound) {
				return errors.NewUserError(errors.Newf("no backups found for %s", path), "")
			}
			return errors.Wrap(err, "listing backups")
		}

		if restoreLatest || !interactive() {
			seq = records[0].Seq
			fmt.Fprintf(w, "Using most recent backup: %d\n", seq)
		} else {
			rec, err := pickRecord(records)
			if err != nil {
				return err
			}
			if rec == nil {
				return nil // aborted
			}
			seq = rec.Seq
		}
	}

	if err := mgr.Restore(path, seq); err != nil {
		return errors.Wrap(err, "restoring backup")
	}

	okStyle.Fprintf(w, "✓ Restored %s from backup %d\n", path, seq)
	return nil
}

// previewRecord shows what restoring r would change in its source file.
func previewRecord(r backup.Record) string {
	data, err := os.ReadFile(r.Path)
	if err != nil {
		return err.Error()
	}
	current, _ := os.ReadFile(r.Source)
	d := diff.Unified(filepath.Base(r.Source), filepath.Base(r.Path), current, data)
	if d == "" {
		return "(identical to the current file)\n\n" + string(data)
	}
	return d
}

// pickRecordInteractive shows a fuzzy finder over records, previewing each
// as a diff against the current file. It returns nil if the user aborts.
func pickRecordInteractive(records []backup.Record) (*backup.Record, error) {
	idx, err := fuzzyfinder.Find(
		records,
		func(i int) string {
			r := records[i]
			return fmt.Sprintf("%d  %s", r.Seq, r.CreatedAt.Local().Format("2006-01-02 15:04:05"))
		},
		fuzzyfinder.WithPromptString("restore> "),
		fuzzyfinder.WithPreviewWindow(func(i, _, _ int) string {
			if i == -1 {
				return ""
			}
			return previewRecord(records[i])
		}),
	)
	if err != nil {
		if errors.Is(err, fuzzyfinder.ErrAbort) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "interactive selection failed")
	}
	return &records[idx], nil
}
