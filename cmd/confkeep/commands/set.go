package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/thoreinstein/confkeep/cmd/confkeep/commands/flags"
	"github.com/thoreinstein/confkeep/internal/backup"
	"github.com/thoreinstein/confkeep/internal/errors"
	"github.com/thoreinstein/confkeep/pkg/confmap"
)

var (
	setFlags  pipelineFlags
	setString bool
)

func init() {
	setFlags.register(setCmd)
	setCmd.Flags().BoolVar(&setString, "string", false, "store value as a string without parsing it")
	rootCmd.AddCommand(setCmd)
}

var setCmd = &cobra.Command{
	Use:   "set <path> <key> <value>",
	Short: "Set one top-level value and save",
	Long: `Load a config file through the pipeline, set key to value and write the
file back. The file is backed up once per invocation before it is changed.

The value is parsed as a YAML scalar, so 8080 is an integer, true a boolean
and "8080" a string. Use --string to skip parsing.`,
	Example: `  confkeep set app.yaml port 9090
  confkeep set app.toml name '"8080"'
  confkeep set app.ini version 1.2 --string`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSet(cmd, args, cmd.OutOrStdout())
	},
}

func runSet(cmd *cobra.Command, args []string, w io.Writer) error {
	path, key, raw := args[0], args[1], args[2]

	v, err := parseValue(raw, setString)
	if err != nil {
		return errors.NewUserError(err, "Quote the value or pass --string")
	}

	s, err := setFlags.open(cmd, path)
	if err != nil {
		return err
	}

	// Recovery may already have backed the file up in this run.
	if s.Backup() == nil {
		if err := backup.EnsureBackedUp(flags.BackupManager(), s.Path()); err != nil {
			return errors.Mark(err, errors.ErrPersist)
		}
	}

	s.Set(key, v)
	if err := s.Save(); err != nil {
		return err
	}

	fmt.Fprintf(w, "✓ %s: %s = %s\n", path, key, v.String())
	return nil
}

// parseValue reads raw as a YAML scalar unless asString is set.
func parseValue(raw string, asString bool) (confmap.Value, error) {
	if asString {
		return confmap.String(raw), nil
	}

	var x any
	if err := yaml.Unmarshal([]byte(raw), &x); err != nil {
		return confmap.Value{}, errors.Wrapf(err, "parsing value %q", raw)
	}
	switch x.(type) {
	case map[string]any, []any:
		return confmap.Value{}, errors.Newf("value %q is not a scalar", raw)
	case time.Time:
		return confmap.String(raw), nil
	}
	return confmap.FromAny(x)
}
