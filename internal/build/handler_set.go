package build

import (
	"context"
	"log/slog"

	"github.com/btcsuite/btclog"
	btclogv2 "github.com/btcsuite/btclog/v2"
)

// HandlerSet fans every log record out to a set of btclog handlers, so the
// daemon can write to the console and a rotating file through one
// slog.Logger.
type HandlerSet struct {
	level btclog.Level
	set   []btclogv2.Handler
}

// Compile-time interface checks.
var (
	_ btclogv2.Handler = (*HandlerSet)(nil)
	_ slog.Handler     = (*slogSet)(nil)
)

// NewHandlerSet groups the given handlers behind one handler, starting at
// the Info level.
func NewHandlerSet(handlers ...btclogv2.Handler) *HandlerSet {
	h := &HandlerSet{
		set:   handlers,
		level: btclog.LevelInfo,
	}
	h.SetLevel(h.level)

	return h
}

// Enabled implements slog.Handler. A record is enabled only when every
// member handler accepts it.
func (h *HandlerSet) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.set {
		if !handler.Enabled(ctx, level) {
			return false
		}
	}

	return true
}

// Handle implements slog.Handler by dispatching the record to each member.
// The first handler error stops the dispatch.
func (h *HandlerSet) Handle(ctx context.Context, record slog.Record) error {
	for _, handler := range h.set {
		if err := handler.Handle(ctx, record); err != nil {
			return err
		}
	}

	return nil
}

// WithAttrs implements slog.Handler.
func (h *HandlerSet) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := &slogSet{set: make([]slog.Handler, len(h.set))}
	for i, handler := range h.set {
		next.set[i] = handler.WithAttrs(attrs)
	}

	return next
}

// WithGroup implements slog.Handler.
func (h *HandlerSet) WithGroup(name string) slog.Handler {
	next := &slogSet{set: make([]slog.Handler, len(h.set))}
	for i, handler := range h.set {
		next.set[i] = handler.WithGroup(name)
	}

	return next
}

// SubSystem implements btclog.Handler by tagging every member with the
// given sub-system name.
func (h *HandlerSet) SubSystem(tag string) btclogv2.Handler {
	next := &HandlerSet{
		set:   make([]btclogv2.Handler, len(h.set)),
		level: h.level,
	}
	for i, handler := range h.set {
		next.set[i] = handler.SubSystem(tag)
	}

	return next
}

// SetLevel implements btclog.Handler, applying the level to every member.
func (h *HandlerSet) SetLevel(level btclog.Level) {
	for _, handler := range h.set {
		handler.SetLevel(level)
	}
	h.level = level
}

// Level implements btclog.Handler.
func (h *HandlerSet) Level() btclog.Level {
	return h.level
}

// WithPrefix implements btclog.Handler, prefixing every message written
// through any member.
func (h *HandlerSet) WithPrefix(prefix string) btclogv2.Handler {
	next := &HandlerSet{
		set:   make([]btclogv2.Handler, len(h.set)),
		level: h.level,
	}
	for i, handler := range h.set {
		next.set[i] = handler.WithPrefix(prefix)
	}

	return next
}

// slogSet carries the fan-out through WithAttrs and WithGroup, which return
// plain slog.Handlers rather than btclog ones.
type slogSet struct {
	set []slog.Handler
}

// Enabled implements slog.Handler.
func (s *slogSet) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range s.set {
		if !handler.Enabled(ctx, level) {
			return false
		}
	}

	return true
}

// Handle implements slog.Handler.
func (s *slogSet) Handle(ctx context.Context, record slog.Record) error {
	for _, handler := range s.set {
		if err := handler.Handle(ctx, record); err != nil {
			return err
		}
	}

	return nil
}

// WithAttrs implements slog.Handler.
func (s *slogSet) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := &slogSet{set: make([]slog.Handler, len(s.set))}
	for i, handler := range s.set {
		next.set[i] = handler.WithAttrs(attrs)
	}

	return next
}

// WithGroup implements slog.Handler.
func (s *slogSet) WithGroup(name string) slog.Handler {
	next := &slogSet{set: make([]slog.Handler, len(s.set))}
	for i, handler := range s.set {
		next.set[i] = handler.WithGroup(name)
	}

	return next
}
