// Package logx provides the slog plumbing shared by the CLI: a handler that
// fans records out to several sinks.
package logx

import (
	"context"
	"errors"
	"log/slog"
)

// TeeHandler forwards every record to each sink enabled for its level,
// typically the colored console handler plus a plain-text log file. Sink
// failures are joined, so one broken sink cannot silence the others.
type TeeHandler struct {
	sinks []slog.Handler
}

func NewTeeHandler(sinks ...slog.Handler) *TeeHandler {
	return &TeeHandler{sinks: sinks}
}

// Enabled implements slog.Handler: enabled if any sink is.
func (h *TeeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, sink := range h.sinks {
		if sink.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle implements slog.Handler. Each sink gets its own clone of the
// record, since handlers are allowed to retain what they receive.
func (h *TeeHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, sink := range h.sinks {
		if !sink.Enabled(ctx, r.Level) {
			continue
		}
		if err := sink.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WithAttrs implements slog.Handler
func (h *TeeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	sinks := make([]slog.Handler, len(h.sinks))
	for i, sink := range h.sinks {
		sinks[i] = sink.WithAttrs(attrs)
	}
	return NewTeeHandler(sinks...)
}

// WithGroup implements slog.Handler
func (h *TeeHandler) WithGroup(name string) slog.Handler {
	sinks := make([]slog.Handler, len(h.sinks))
	for i, sink := range h.sinks {
		sinks[i] = sink.WithGroup(name)
	}
	return NewTeeHandler(sinks...)
}
