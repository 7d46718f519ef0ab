package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/confkeep/internal/diff"
	"github.com/thoreinstein/confkeep/internal/errors"
	"github.com/thoreinstein/confkeep/internal/paths"
	"github.com/thoreinstein/confkeep/internal/validator"
)

var (
	checkFlags pipelineFlags
	checkJSON  bool
	checkDiff  bool
)

func init() {
	checkFlags.register(checkCmd)
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "Output in JSON format")
	checkCmd.Flags().BoolVar(&checkDiff, "diff", false, "show what the pipeline changed in the file")
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check <path>",
	Short: "Validate, repair and persist a config file",
	Long: `Run the full pipeline on a config file: load it, validate it against the
reference given by --recover-path, apply the recovery digit of the check
level, and write the result back.

Findings are printed to stdout. The command fails when the check level makes
a finding fatal, when the file or reference cannot be parsed, or when the
result cannot be written.`,
	Example: `  # Fill missing keys and coerce wrong types, patching the file
  confkeep check app.yaml --recover-path defaults.yaml

  # Strict: report missing keys and wrong types as errors, change nothing
  confkeep check app.toml -r defaults.toml --level 2220

  # Replace the file with the reference
  confkeep check app.ini -r https://example.com/defaults.yaml --level 1112

  # Show the changes written to the file
  confkeep check app.yaml -r defaults.yaml --diff

  # Machine-readable findings
  confkeep check app.yaml -r defaults.yaml --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCheck(cmd, args, cmd.OutOrStdout())
	},
}

func runCheck(cmd *cobra.Command, args []string, w io.Writer) error {
	format := validator.FormatText
	if checkJSON {
		format = validator.FormatJSON
	}
	reporter := validator.NewReporter(w, format)

	var before []byte
	if checkDiff {
		// A missing file diffs from empty.
		before, _ = os.ReadFile(paths.ExpandHome(args[0]))
	}

	s, err := checkFlags.open(cmd, args[0])
	if err != nil {
		var verr *validator.Error
		if errors.As(err, &verr) {
			level, _ := validator.ParseCheckLevel(checkFlags.checkLevel())
			result := &validator.Result{Findings: verr.Findings, Fatal: true}
			if rerr := reporter.Report(args[0], level, result); rerr != nil {
				return rerr
			}
		}
		return err
	}

	result := &validator.Result{Findings: s.Findings()}
	if err := reporter.Report(args[0], s.CheckLevel(), result); err != nil {
		return err
	}

	if b := s.Backup(); b != nil && !checkJSON {
		cmd.PrintErrf("Backed up previous version to %s\n", b.Path)
	}

	if checkDiff && !checkJSON {
		after, err := os.ReadFile(s.Path())
		if err != nil {
			return errors.Wrap(err, "reading result for diff")
		}
		if d := diff.Unified(args[0], args[0]+" (written)", before, after); d != "" {
			fmt.Fprintf(w, "\n%s", d)
		}
	}
	return nil
}
