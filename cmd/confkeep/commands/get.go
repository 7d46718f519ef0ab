package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/thoreinstein/confkeep/internal/codec"
	"github.com/thoreinstein/confkeep/internal/errors"
	"github.com/thoreinstein/confkeep/pkg/confmap"
)

var getFlags pipelineFlags

func init() {
	getFlags.register(getCmd)
	rootCmd.AddCommand(getCmd)
}

var getCmd = &cobra.Command{
	Use:   "get <path> <key>",
	Short: "Print one top-level value",
	Long: `Load a config file through the pipeline and print the value stored under
key. Scalars print as-is; mappings and lists print as YAML.`,
	Example: `  confkeep get app.yaml port
  confkeep get app.ini database --type ini`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGet(cmd, args, cmd.OutOrStdout())
	},
}

func runGet(cmd *cobra.Command, args []string, w io.Writer) error {
	s, err := getFlags.open(cmd, args[0])
	if err != nil {
		return err
	}

	v, ok := s.Get(args[1])
	if !ok {
		return errors.NewUserError(
			errors.Mark(errors.Newf("key %q not found in %s", args[1], args[0]), errors.ErrNotFound),
			"Top-level keys only; nested keys are shown by getting their parent")
	}

	return printValue(w, v)
}

func printValue(w io.Writer, v confmap.Value) error {
	switch v.Kind() {
	case confmap.KindMap:
		m, _ := v.AsMap()
		c, err := codec.ForFormat(string(codec.FormatYAML))
		if err != nil {
			return err
		}
		out, err := c.Encode(m)
		if err != nil {
			return errors.Wrap(err, "rendering value")
		}
		_, err = w.Write(out)
		return err
	case confmap.KindList:
		out, err := yaml.Marshal(v.Any())
		if err != nil {
			return errors.Wrap(err, "rendering value")
		}
		_, err = w.Write(out)
		return err
	case confmap.KindNull:
		_, err := fmt.Fprintln(w, "null")
		return err
	default:
		_, err := fmt.Fprintln(w, v.String())
		return err
	}
}
