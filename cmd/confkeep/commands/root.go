// Package commands implements the CLI commands for confkeep.
package commands

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/thoreinstein/confkeep/cmd"
	"github.com/thoreinstein/confkeep/cmd/confkeep/commands/backup"
	"github.com/thoreinstein/confkeep/cmd/confkeep/commands/flags"
	"github.com/thoreinstein/confkeep/internal/errors"
	"github.com/thoreinstein/confkeep/internal/logging"
	"github.com/thoreinstein/confkeep/internal/paths"
	"github.com/thoreinstein/confkeep/internal/settings"
)

// verbosity holds the count of -v flags.
var verbosity int

// quiet holds the value of the -q/--quiet flag.
var quiet bool

// logFormat holds the value of the --log-format flag.
var logFormat string

// logFile holds the path to the log file.
var logFile string

// settingsPath holds the value of the --settings flag.
var settingsPath string

// settingsLoadErr holds any error that occurred during settings loading.
var settingsLoadErr error

func init() {
	cobra.OnInitialize(initSettings)

	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v",
		"increase verbosity level (e.g., -v, -vv)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false,
		"suppress non-error output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"log format: text, json (default from settings)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "",
		"also write JSON logs to file; --log-file=path, or bare for "+paths.DefaultLogFile())
	rootCmd.PersistentFlags().Lookup("log-file").NoOptDefVal = paths.DefaultLogFile()
	rootCmd.PersistentFlags().StringVar(&settingsPath, "settings", "",
		"settings file (default "+paths.SettingsFile()+")")

	rootCmd.AddCommand(backup.Cmd)

	rootCmd.Version = cmd.Version
	rootCmd.SetVersionTemplate("confkeep version {{.Version}}\n")

	// Silence errors and usage so we can control error output
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
}

func initSettings() {
	settings.Init()
	s, err := settings.Load(paths.ExpandHome(settingsPath))
	settingsLoadErr = err
	// nil on failure, so commands fall back to the defaults
	flags.SetSettings(s)
}

var rootCmd = &cobra.Command{
	Use:   "confkeep",
	Short: "Validate, repair and persist TOML, INI and YAML config files",
	Long: `confkeep loads a config file, checks it against a reference config,
optionally repairs or replaces it, and writes it back.

What happens is controlled by a four-digit check level:

  digit 1  errors    0 skip, 1 warn, 2 fatal
  digit 2  types     0 off, 1 warn and coerce, 2 strict
  digit 3  fields    0 off, 1 fill missing, 2 strict, 3 fill missing and drop extra
  digit 4  recovery  0 none, 1 patch in place, 2 replace with reference

Every repair backs up the file first as <file>.backup.<n>.`,
	Example: `  # Check a config against its defaults
  confkeep check app.yaml --recover-path defaults.yaml

  # Fail on any missing field or wrong type
  confkeep check app.toml --recover-path https://example.com/defaults.yaml --level 2220

  # Read and write single keys
  confkeep get app.ini name
  confkeep set app.yaml port 9090

  See Also: confkeep edit, confkeep doctor, confkeep backup, confkeep version`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		// Initialize logging first
		if err := setupLogging(cmd); err != nil {
			return err
		}
		return checkSettings(cmd)
	},
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// setupLogging configures the logger based on verbosity flags and settings.
func setupLogging(cmd *cobra.Command) error {
	if quiet && verbosity > 0 {
		return errors.NewUserError(errors.New("conflicting flags"), "cannot use --quiet and --verbose together")
	}

	var level slog.Level
	if quiet {
		level = slog.LevelError
	} else {
		v := verbosity

		// CLI flags take precedence, but if not set, check env var
		if v == 0 {
			if val, ok := os.LookupEnv("CONFKEEP_DEBUG"); ok {
				switch val {
				case "1", "true":
					v = 2 // Debug
				case "2":
					v = 3 // Trace
				}
			}
		}
		level = logging.LevelFromVerbosity(v)
	}

	s := flags.Settings()
	rawFormat := logFormat
	if rawFormat == "" {
		rawFormat = s.LogFormat
	}
	format, err := logging.ParseFormat(rawFormat)
	if err != nil {
		return errors.NewUserError(err, "Use --log-format text or --log-format json")
	}
	file := logFile
	if file == "" {
		file = s.LogFile
	}

	primary := logging.New(logging.Config{
		Level:  level,
		Format: format,
		Output: cmd.ErrOrStderr(),
	}).Handler()

	handlers := []slog.Handler{primary}

	if file != "" {
		file = paths.ExpandHome(file)
		if err := paths.EnsureDir(filepath.Dir(file), 0); err != nil {
			return errors.NewUserError(err, "failed to create log directory")
		}
		f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return errors.NewUserError(err, "failed to open log file")
		}
		// The log file is shared across runs; tag each run's records.
		fileHandler := logging.New(logging.Config{
			Level:  level,
			Format: logging.FormatJSON,
			Output: f,
		}).Handler().WithAttrs([]slog.Attr{slog.String("run", uuid.NewString())})
		handlers = append(handlers, fileHandler)
	}

	logger := slog.New(logging.NewFanout(handlers...))
	slog.SetDefault(logger)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(logging.NewContext(ctx, logger))

	return nil
}

// checkSettings surfaces a settings load failure for commands that use them.
func checkSettings(cmd *cobra.Command) error {
	// help and version never read settings; doctor reports the failure itself
	switch cmd.Name() {
	case "help", "version", "doctor":
		return nil
	}
	if settingsLoadErr != nil {
		return errors.NewUserError(settingsLoadErr, "Fix or remove "+paths.SettingsFile())
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
