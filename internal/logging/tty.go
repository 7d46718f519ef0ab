package logging

import (
	"io"
	"os"

	"golang.org/x/term"
)

// fder is implemented by *os.File and wrappers around it.
type fder interface{ Fd() uintptr }

// IsTTY reports whether v is backed by a terminal. Anything without an Fd
// method, such as a bytes.Buffer, is not.
func IsTTY(v any) bool {
	f, ok := v.(fder)
	return ok && term.IsTerminal(int(f.Fd()))
}

// SupportsColor reports whether ANSI colors should be written to w: it must
// be a terminal, NO_COLOR (https://no-color.org) must be unset and TERM must
// not be "dumb".
func SupportsColor(w io.Writer) bool {
	return colorAllowed(os.LookupEnv) && IsTTY(w)
}

func colorAllowed(lookup func(string) (string, bool)) bool {
	if _, ok := lookup("NO_COLOR"); ok {
		return false
	}
	if t, _ := lookup("TERM"); t == "dumb" {
		return false
	}
	return true
}
