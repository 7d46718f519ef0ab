package commands

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/confkeep/cmd/confkeep/commands/flags"
	"github.com/thoreinstein/confkeep/internal/backup"
	"github.com/thoreinstein/confkeep/internal/editor"
	"github.com/thoreinstein/confkeep/internal/errors"
	"github.com/thoreinstein/confkeep/internal/logging"
	"github.com/thoreinstein/confkeep/internal/paths"
	"github.com/thoreinstein/confkeep/internal/validator"
)

var (
	editFlags pipelineFlags
	editKeep  bool
)

func init() {
	editFlags.register(editCmd)
	editCmd.Flags().BoolVar(&editKeep, "keep", false,
		"keep the edited file even when it no longer parses or validates")
	rootCmd.AddCommand(editCmd)
}

var editCmd = &cobra.Command{
	Use:   "edit <path>",
	Short: "Edit a config file, then check it",
	Long: `Back up a config file, open it in $EDITOR (then $VISUAL, nano, vi) and run
the check pipeline on the result.

If the edited file no longer parses, or the check level makes a finding
fatal, the pre-edit backup is restored. Pass --keep to leave the edit in
place anyway.`,
	Example: `  confkeep edit app.yaml -r defaults.yaml
  EDITOR="code --wait" confkeep edit app.toml --level 2220`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEdit(cmd, args, cmd.OutOrStdout())
	},
}

func runEdit(cmd *cobra.Command, args []string, w io.Writer) error {
	path := paths.ExpandHome(args[0])
	logger := logging.FromContext(cmd.Context())

	var rec *backup.Record
	if _, err := os.Stat(path); err == nil {
		rec, err = flags.BackupManager().Backup(path)
		if err != nil {
			return errors.Mark(errors.Wrap(err, "backing up before edit"), errors.ErrPersist)
		}
		logger.Debug("backed up before edit", "path", path, "backup", rec.Path)
	}

	if err := editor.Open(cmd.Context(), path, editor.Streams{
		In:  cmd.InOrStdin(),
		Out: cmd.OutOrStdout(),
		Err: cmd.ErrOrStderr(),
	}); err != nil {
		return errors.NewSystemError(err, "Set $EDITOR to an editor that blocks until the file is closed")
	}

	reporter := validator.NewReporter(w, validator.FormatText)

	s, err := editFlags.open(cmd, args[0])
	if err != nil {
		var verr *validator.Error
		if errors.As(err, &verr) {
			level, _ := validator.ParseCheckLevel(editFlags.checkLevel())
			if rerr := reporter.Report(args[0], level, &validator.Result{Findings: verr.Findings, Fatal: true}); rerr != nil {
				err = errors.CombineErrors(err, errors.Wrap(rerr, "reporting findings"))
			}
		}

		revertable := errors.Is(err, errors.ErrFormat) || errors.Is(err, errors.ErrValidation)
		if rec == nil || editKeep || !revertable {
			return err
		}
		if rerr := flags.BackupManager().Restore(path, rec.Seq); rerr != nil {
			return errors.CombineErrors(err, errors.Wrap(rerr, "reverting edit"))
		}
		logger.Warn("edit reverted", "path", path, "backup", rec.Path)
		return errors.NewUserError(errors.Wrap(err, "edit reverted"),
			"Fix the file and try again, or pass --keep")
	}

	return reporter.Report(args[0], s.CheckLevel(), &validator.Result{Findings: s.Findings()})
}
