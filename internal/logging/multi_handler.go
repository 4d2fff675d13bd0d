package logging

import (
	"context"
	"errors"
	"log/slog"
)

// multiHandler sends records to the console sink and the rotated file sink.
type multiHandler []slog.Handler

// newMultiHandler drops nil sinks and only wraps when more than one remains.
func newMultiHandler(sinks ...slog.Handler) slog.Handler {
	var live multiHandler
	for _, sink := range sinks {
		if sink != nil {
			live = append(live, sink)
		}
	}
	switch len(live) {
	case 0:
		return NoopHandler{}
	case 1:
		return live[0]
	default:
		return live
	}
}

func (m multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, sink := range m {
		if sink.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle gives each sink its own clone of the record and reports every sink
// failure.
func (m multiHandler) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	for _, sink := range m {
		if !sink.Enabled(ctx, record.Level) {
			continue
		}
		if err := sink.Handle(ctx, record.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return m.derive(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (m multiHandler) WithGroup(name string) slog.Handler {
	return m.derive(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (m multiHandler) derive(fn func(slog.Handler) slog.Handler) multiHandler {
	next := make(multiHandler, len(m))
	for i, sink := range m {
		next[i] = fn(sink)
	}
	return next
}
