package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/confkeep/cmd/confkeep/commands/flags"
	"github.com/thoreinstein/confkeep/internal/doctor"
	"github.com/thoreinstein/confkeep/internal/errors"
	"github.com/thoreinstein/confkeep/internal/paths"
)

var (
	doctorJSON bool
	doctorAll  bool
	doctorFix  bool
	doctorType string
)

func init() {
	doctorCmd.Flags().BoolVar(&doctorJSON, "json", false,
		"output results as JSON")
	doctorCmd.Flags().BoolVar(&doctorAll, "all", false,
		"show all checks including passed ones")
	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false,
		"fix what can be fixed automatically")
	doctorCmd.Flags().StringVarP(&doctorType, "type", "t", "",
		"config format for the given files, overriding their extensions")
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor [path...]",
	Short: "Diagnose settings and config files",
	Long: `Run diagnostic checks on confkeep's settings and environment, and on
each config file given.

For a config file, doctor checks that it parses, that only its owner can
write it, and that it has no more backups than backup_retention.

Output modes:
  (default)   Show errors and warnings
  --all       Show all checks including passed ones
  --json      Machine-readable JSON output
  -q          No output, exit code only

Exit codes:
  0 - No errors or warnings
  1 - Warnings present, no errors
  2 - Errors present`,
	Example: `  confkeep doctor
  confkeep doctor app.yaml /etc/svc/app.ini --all
  confkeep doctor app.yaml --fix`,
	PreRunE: func(_ *cobra.Command, _ []string) error {
		if doctorJSON && doctorAll {
			return errors.NewUserError(errors.New("flags --json and --all are mutually exclusive"), "")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDoctor(args, cmd.OutOrStdout())
	},
}

func runDoctor(args []string, w io.Writer) error {
	settingsFile := paths.SettingsFile()
	if settingsPath != "" {
		settingsFile = paths.ExpandHome(settingsPath)
	}

	runner := doctor.NewRunner()
	runner.AddCheck(doctor.NewSettingsCheck(settingsFile, settingsLoadErr))
	runner.AddCheck(doctor.NewEditorCheck())
	for _, arg := range args {
		runner.AddCheck(doctor.NewFileCheck(paths.ExpandHome(arg), doctorType, flags.Settings().BackupRetention))
	}

	report := runner.Run()

	if doctorFix {
		fixed := applyFixes(runner, w)
		if fixed > 0 {
			report = runner.Run()
		}
	}

	if err := outputDoctorReport(report, w); err != nil {
		return err
	}

	if report.HasErrors() {
		return errors.NewExitError(errDoctorErrors, errors.ExitSystem)
	}
	if report.HasWarnings() {
		return errors.NewExitError(errDoctorWarnings, errors.ExitUser)
	}
	return nil
}

// applyFixes runs every fixable check's fixer and returns how many fixes
// succeeded.
func applyFixes(runner *doctor.Runner, w io.Writer) int {
	fixed := 0
	for _, check := range runner.Checks() {
		fixer, ok := check.(doctor.Fixer)
		if !ok || !fixer.CanFix() {
			continue
		}
		for _, r := range fixer.Fix() {
			if r.Fixed {
				fixed++
			}
			if quiet || doctorJSON {
				continue
			}
			icon := "✓"
			if !r.Fixed {
				icon = "✗"
			}
			fmt.Fprintf(w, "%s fix %s: %s\n", icon, r.Path, r.Description)
		}
	}
	return fixed
}

func outputDoctorReport(report *doctor.Report, w io.Writer) error {
	if quiet {
		return nil
	}

	if doctorJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(report), "encoding JSON")
	}

	hasOutput := false
	for _, result := range report.Results {
		if !doctorAll && result.Status != doctor.SeverityError && result.Status != doctor.SeverityWarning {
			continue
		}

		hasOutput = true
		fmt.Fprintf(w, "%s [%s] %s: %s\n", statusIcon(result.Status), result.Category, result.Name, result.Message)

		if result.FixHint != "" && result.Status != doctor.SeverityPass {
			fmt.Fprintf(w, "  hint: %s\n", result.FixHint)
		}
	}

	if hasOutput {
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Summary: %d passed, %d info, %d warnings, %d errors\n",
		report.Summary.Passed, report.Summary.Info, report.Summary.Warnings, report.Summary.Errors)

	return nil
}

func statusIcon(s doctor.Severity) string {
	switch s {
	case doctor.SeverityPass:
		return "✓"
	case doctor.SeverityInfo:
		return "ℹ"
	case doctor.SeverityWarning:
		return "⚠"
	case doctor.SeverityError:
		return "✗"
	default:
		return "?"
	}
}

var (
	errDoctorWarnings = errors.New("warnings found")
	errDoctorErrors   = errors.New("errors found")
)
