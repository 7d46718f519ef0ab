package commands

import (
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/confkeep/cmd/confkeep/commands/flags"
	"github.com/thoreinstein/confkeep/internal/backup"
	"github.com/thoreinstein/confkeep/internal/codec"
	"github.com/thoreinstein/confkeep/internal/errors"
	"github.com/thoreinstein/confkeep/internal/paths"
	"github.com/thoreinstein/confkeep/pkg/fileutil"
)

var (
	convertFrom string
	convertTo   string
)

func init() {
	convertCmd.Flags().StringVar(&convertFrom, "from", "",
		"source format ("+formatList()+"), overriding the source extension")
	convertCmd.Flags().StringVar(&convertTo, "to", "",
		"target format ("+formatList()+"), overriding the target extension")
	rootCmd.AddCommand(convertCmd)
}

var convertCmd = &cobra.Command{
	Use:   "convert <src> [dst]",
	Short: "Convert a config file between TOML, INI and YAML",
	Long: `Decode a config file and encode it in another format. Without dst the
result goes to stdout and --to is required.

An existing dst is backed up before it is overwritten. INI holds only strings
and one level of sections, so converting from INI loses types and converting
deeper nesting to INI fails.`,
	Example: `  confkeep convert app.toml app.yaml
  confkeep convert app.ini --to yaml
  confkeep convert settings.conf out.toml --from ini`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConvert(args, cmd.OutOrStdout())
	},
}

func runConvert(args []string, w io.Writer) error {
	src := paths.ExpandHome(args[0])
	var dst string
	if len(args) == 2 {
		dst = paths.ExpandHome(args[1])
	}

	from, err := pickFormat(convertFrom, src)
	if err != nil {
		return err
	}
	if convertTo == "" && dst == "" {
		return errors.NewUserError(errors.New("no target format"), "Pass --to or a destination file")
	}
	to, err := pickFormat(convertTo, dst)
	if err != nil {
		return err
	}

	data, err := fileutil.ReadFileWithLimit(src)
	if err != nil {
		return errors.NewUserError(errors.Wrapf(err, "reading %s", src), "")
	}
	out, err := codec.Convert(data, from, to)
	if err != nil {
		return err
	}

	if dst == "" {
		_, err := w.Write(out)
		return err
	}
	if err := backup.EnsureBackedUp(flags.BackupManager(), dst); err != nil {
		return errors.Mark(err, errors.ErrPersist)
	}
	if err := fileutil.AtomicWriteFile(dst, out, fileutil.DefaultFilePerm); err != nil {
		return errors.Mark(errors.Wrapf(err, "writing %s", dst), errors.ErrPersist)
	}
	return nil
}

// pickFormat returns the explicit format name, else the one implied by
// path's extension.
func pickFormat(explicit, path string) (codec.Format, error) {
	var (
		c   codec.Codec
		err error
	)
	if explicit != "" {
		c, err = codec.ForFormat(explicit)
	} else {
		c, err = codec.ForPath(path)
	}
	if err != nil {
		return "", errors.NewUserError(err, "Supported formats: "+formatList())
	}
	return c.Format(), nil
}

func formatList() string {
	names := make([]string, 0, len(codec.Formats()))
	for _, f := range codec.Formats() {
		names = append(names, string(f))
	}
	return strings.Join(names, ", ")
}
