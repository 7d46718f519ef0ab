package logging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// palette colors the parts of a text log line.
type palette struct {
	time, key, path *color.Color
	levels          map[slog.Level]*color.Color
}

// newPalette returns the line colors, switched off unless enabled. Colors
// are toggled per handler, not through the color.NoColor global.
func newPalette(enabled bool) *palette {
	p := &palette{
		time: color.New(color.FgHiBlack),
		key:  color.New(color.FgCyan),
		path: color.New(color.FgBlue, color.Underline),
		levels: map[slog.Level]*color.Color{
			LevelTrace:      color.New(color.FgHiBlack),
			slog.LevelDebug: color.New(color.FgMagenta),
			slog.LevelInfo:  color.New(color.FgGreen),
			slog.LevelWarn:  color.New(color.FgYellow),
			slog.LevelError: color.New(color.FgRed, color.Bold),
		},
	}
	all := []*color.Color{p.time, p.key, p.path}
	for _, c := range p.levels {
		all = append(all, c)
	}
	for _, c := range all {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// levelLabel names a level in a fixed four columns.
func levelLabel(l slog.Level) (string, slog.Level) {
	switch {
	case l >= slog.LevelError:
		return "ERR ", slog.LevelError
	case l >= slog.LevelWarn:
		return "WARN", slog.LevelWarn
	case l >= slog.LevelInfo:
		return "INFO", slog.LevelInfo
	case l >= slog.LevelDebug:
		return "DBG ", slog.LevelDebug
	default:
		return "TRC ", LevelTrace
	}
}

// Handler writes one line per record for a terminal:
//
//	15:04:05 WARN missing field, using default value path=app.yaml field=debug
//
// Groups become dotted key prefixes, values with spaces are quoted and
// secrets are masked. Colors are used only when the writer supports them.
type Handler struct {
	level  slog.Leveler
	out    io.Writer
	mu     *sync.Mutex
	colors *palette

	// prefix is the rendered WithAttrs output; group is the dotted prefix
	// for keys added later.
	prefix string
	group  string
}

// NewHandler creates a text handler writing to out.
func NewHandler(out io.Writer, opts *slog.HandlerOptions) *Handler {
	h := &Handler{
		out:    out,
		mu:     &sync.Mutex{},
		level:  slog.LevelInfo,
		colors: newPalette(SupportsColor(out)),
	}
	if opts != nil && opts.Level != nil {
		h.level = opts.Level
	}
	return h
}

// Enabled reports whether the handler handles records at the given level.
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle formats r and writes it with a single Write call.
func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer

	if !r.Time.IsZero() {
		buf.WriteString(h.colors.time.Sprint(r.Time.Format(time.TimeOnly)))
		buf.WriteByte(' ')
	}

	label, bucket := levelLabel(r.Level)
	buf.WriteString(h.colors.levels[bucket].Sprint(label))
	buf.WriteByte(' ')
	buf.WriteString(r.Message)

	buf.WriteString(h.prefix)
	r.Attrs(func(a slog.Attr) bool {
		h.writeAttr(&buf, h.group, a)
		return true
	})
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.out.Write(buf.Bytes())
	return err
}

func (h *Handler) writeAttr(buf *bytes.Buffer, group string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() == slog.KindGroup {
		inner := group
		if a.Key != "" {
			inner = group + a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			h.writeAttr(buf, inner, ga)
		}
		return
	}

	a = redactAttr(nil, a)
	val := formatValue(a.Value)
	if a.Key == "path" || a.Key == "backup" {
		val = h.colors.path.Sprint(val)
	}

	buf.WriteByte(' ')
	buf.WriteString(h.colors.key.Sprint(group + a.Key))
	buf.WriteByte('=')
	buf.WriteString(val)
}

// formatValue quotes strings that would not read back as one token.
func formatValue(v slog.Value) string {
	var s string
	switch v.Kind() {
	case slog.KindString:
		s = v.String()
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time().Format(time.RFC3339)
	default:
		s = fmt.Sprint(v.Any())
	}
	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		return strconv.Quote(s)
	}
	return s
}

// WithAttrs returns a Handler that prints attrs on every line.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	var buf bytes.Buffer
	buf.WriteString(h.prefix)
	for _, a := range attrs {
		h.writeAttr(&buf, h.group, a)
	}
	next := *h
	next.prefix = buf.String()
	return &next
}

// WithGroup returns a Handler that prefixes later keys with name.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.group = h.group + name + "."
	return &next
}
