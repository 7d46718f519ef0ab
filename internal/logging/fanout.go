package logging

import (
	"context"
	"log/slog"

	"github.com/thoreinstein/confkeep/internal/errors"
)

// Fanout sends each record to every handler that is enabled for its level,
// e.g. the terminal and a --log-file.
type Fanout struct {
	handlers []slog.Handler
}

// NewFanout returns a handler writing to all of handlers. With a single
// handler it returns that handler unchanged.
func NewFanout(handlers ...slog.Handler) slog.Handler {
	if len(handlers) == 1 {
		return handlers[0]
	}
	return &Fanout{handlers: handlers}
}

// Enabled reports whether any handler takes level.
func (f *Fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle passes a copy of r to each enabled handler. Every handler is tried;
// the failures are combined.
func (f *Fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs error
	for _, h := range f.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = errors.CombineErrors(errs, err)
		}
	}
	return errs
}

// WithAttrs applies attrs to every handler.
func (f *Fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	return f.each(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

// WithGroup applies name to every handler.
func (f *Fanout) WithGroup(name string) slog.Handler {
	return f.each(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (f *Fanout) each(fn func(slog.Handler) slog.Handler) *Fanout {
	next := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		next[i] = fn(h)
	}
	return &Fanout{handlers: next}
}
