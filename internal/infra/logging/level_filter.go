package logging

import (
	"context"
	"log/slog"
	"strings"
)

// levelFilter resolves the minimum level for a named logger. The most specific
// dotted prefix in byName wins: for "svc.authsvc.auth_service" the keys
// "svc.authsvc.auth_service", "svc.authsvc" and "svc" are tried in that order.
type levelFilter struct {
	fallback Level
	byName   map[string]Level
}

func (f *levelFilter) levelFor(name string) Level {
	for name != "" {
		if level, ok := f.byName[name]; ok {
			return level
		}

		idx := strings.LastIndexByte(name, '.')
		if idx < 0 {
			break
		}

		name = name[:idx]
	}

	return f.fallback
}

func (f *levelFilter) wrap(name string, h slog.Handler) slog.Handler {
	return &filteredHandler{h: h, level: f.levelFor(name)}
}

type filteredHandler struct {
	h     slog.Handler
	level Level
}

func (h *filteredHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.level && h.h.Enabled(ctx, level)
}

//nolint:wrapcheck
func (h *filteredHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.h.Handle(ctx, r)
}

func (h *filteredHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &filteredHandler{h: h.h.WithAttrs(attrs), level: h.level}
}

func (h *filteredHandler) WithGroup(name string) slog.Handler {
	return &filteredHandler{h: h.h.WithGroup(name), level: h.level}
}
