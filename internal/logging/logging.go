package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/thoreinstein/confkeep/internal/errors"
)

// LevelTrace is below Debug, for per-key detail.
const LevelTrace = slog.LevelDebug - 4

// Format selects a handler: the terminal text handler or slog's JSON.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat accepts text or json in any case. The empty string is text.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", errors.Newf("unknown log format %q: must be text or json", s)
	}
}

// Config holds the configuration for creating a new logger.
type Config struct {
	// Level is the minimum level written.
	Level slog.Level
	// Format selects the handler. Unknown values fall back to text.
	Format Format
	// Output defaults to os.Stderr.
	Output io.Writer
}

// New creates a logger with the given configuration. Both formats mask
// secret-looking attributes.
func New(cfg Config) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: cfg.Level}

	if cfg.Format == FormatJSON {
		opts.ReplaceAttr = redactAttr
		return slog.New(slog.NewJSONHandler(out, opts))
	}
	return slog.New(NewHandler(out, opts))
}

// LevelFromVerbosity maps a -v count to a level: 0 is Warn, 1 Info,
// 2 Debug and 3 or more Trace.
func LevelFromVerbosity(v int) slog.Level {
	switch {
	case v <= 0:
		return slog.LevelWarn
	case v == 1:
		return slog.LevelInfo
	case v == 2:
		return slog.LevelDebug
	default:
		return LevelTrace
	}
}

type ctxKey struct{}

// NewContext returns a copy of ctx carrying logger.
func NewContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext returns the logger stored by NewContext, or a discard logger.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && l != nil {
			return l
		}
	}
	return NewDiscard()
}

// NewDiscard returns a logger that drops everything.
func NewDiscard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// tbWriter sends each log line to t.Log.
type tbWriter struct {
	t testing.TB
}

func (w tbWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(strings.TrimSuffix(string(p), "\n"))
	return len(p), nil
}

// ForTest returns a Debug-level text logger whose output shows up with the
// test's own log, i.e. on failure or with -v.
func ForTest(t testing.TB) *slog.Logger {
	t.Helper()
	return New(Config{Level: slog.LevelDebug, Output: tbWriter{t: t}})
}
