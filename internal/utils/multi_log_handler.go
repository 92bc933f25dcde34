package utils

import (
	"context"
	"log/slog"
)

// MultiLogHandler fans a single slog.Logger out to several handlers at
// once (the CLI uses this to write every record to both stdout and the
// rotating log file). It satisfies slog.Handler itself, so it composes
// with the rest of the slog pipeline instead of needing its own logger
// type.
type MultiLogHandler struct {
	targets []slog.Handler
}

// NewMultiLogHandler builds a handler that dispatches every record to
// each of targets in order.
func NewMultiLogHandler(targets ...slog.Handler) *MultiLogHandler {
	return &MultiLogHandler{targets: targets}
}

// Enabled reports true if any target handler wants records at level.
func (h *MultiLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, t := range h.targets {
		if t.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle dispatches r to every target that has it enabled, continuing
// past a failing target so one broken sink (a full disk on the log file,
// say) doesn't silence the others; the last error seen is returned.
func (h *MultiLogHandler) Handle(ctx context.Context, r slog.Record) error {
	var lastErr error
	for _, t := range h.targets {
		if !t.Enabled(ctx, r.Level) {
			continue
		}
		if err := t.Handle(ctx, r); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// WithAttrs returns a MultiLogHandler whose targets each carry attrs.
func (h *MultiLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	targets := make([]slog.Handler, len(h.targets))
	for i, t := range h.targets {
		targets[i] = t.WithAttrs(attrs)
	}
	return NewMultiLogHandler(targets...)
}

// WithGroup returns a MultiLogHandler whose targets are each scoped to
// group name.
func (h *MultiLogHandler) WithGroup(name string) slog.Handler {
	targets := make([]slog.Handler, len(h.targets))
	for i, t := range h.targets {
		targets[i] = t.WithGroup(name)
	}
	return NewMultiLogHandler(targets...)
}
