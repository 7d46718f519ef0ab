// Package editor launches the user's preferred text editor on a config file.
package editor

import (
	"context"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/thoreinstein/confkeep/internal/errors"
)

// Streams are the terminal streams handed to the editor process.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// Open runs the user's editor on path and waits for it to exit.
//
// The editor comes from $EDITOR, then $VISUAL, then nano, then vi. The
// variable may carry arguments, e.g. "code --wait".
func Open(ctx context.Context, path string, s Streams) error {
	argv := strings.Fields(Command())
	if len(argv) == 0 {
		return errors.New("no editor configured")
	}

	cmd := exec.CommandContext(ctx, argv[0], append(argv[1:], path)...)
	cmd.Stdin = s.In
	cmd.Stdout = s.Out
	cmd.Stderr = s.Err

	if err := cmd.Run(); err != nil {
		return errors.Wrapf(err, "running editor %q", argv[0])
	}
	return nil
}

// Command returns the editor command line that Open will run.
func Command() string {
	if editor := strings.TrimSpace(os.Getenv("EDITOR")); editor != "" {
		return editor
	}
	if visual := strings.TrimSpace(os.Getenv("VISUAL")); visual != "" {
		return visual
	}
	if _, err := exec.LookPath("nano"); err == nil {
		return "nano"
	}
	return "vi"
}
