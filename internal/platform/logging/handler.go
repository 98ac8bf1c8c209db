package logging

import (
	"context"
	"errors"
	"log/slog"
	"slices"
)

// FanoutHandler sends each record to every sink that accepts its level.
// The service uses it to write the console and the rolling file at once.
type FanoutHandler struct {
	sinks []slog.Handler
}

// NewFanoutHandler creates a handler over sinks.
func NewFanoutHandler(sinks ...slog.Handler) *FanoutHandler {
	return &FanoutHandler{sinks: sinks}
}

func (h *FanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return slices.ContainsFunc(h.sinks, func(s slog.Handler) bool {
		return s.Enabled(ctx, level)
	})
}

// Handle writes to every enabled sink and joins their errors.
func (h *FanoutHandler) Handle(ctx context.Context, r slog.Record) error { //nolint:gocritic // slog.Handler interface requires value
	var errs []error

	for _, s := range h.sinks {
		if !s.Enabled(ctx, r.Level) {
			continue
		}

		if err := s.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (h *FanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h.each(func(s slog.Handler) slog.Handler { return s.WithAttrs(attrs) })
}

func (h *FanoutHandler) WithGroup(name string) slog.Handler {
	return h.each(func(s slog.Handler) slog.Handler { return s.WithGroup(name) })
}

func (h *FanoutHandler) each(fn func(slog.Handler) slog.Handler) *FanoutHandler {
	sinks := make([]slog.Handler, len(h.sinks))
	for i, s := range h.sinks {
		sinks[i] = fn(s)
	}

	return NewFanoutHandler(sinks...)
}

// replaceHandler applies a ReplaceAttr func in front of a handler that has
// no HandlerOptions of its own, such as the console handler.
type replaceHandler struct {
	next    slog.Handler
	replace func(groups []string, a slog.Attr) slog.Attr
	groups  []string
}

func newReplaceHandler(next slog.Handler, replace func([]string, slog.Attr) slog.Attr) *replaceHandler {
	return &replaceHandler{next: next, replace: replace}
}

func (h *replaceHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *replaceHandler) Handle(ctx context.Context, r slog.Record) error { //nolint:gocritic // slog.Handler interface requires value
	out := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)

	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(h.apply(h.groups, a))
		return true
	})

	return h.next.Handle(ctx, out)
}

func (h *replaceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	replaced := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		replaced[i] = h.apply(h.groups, a)
	}

	return &replaceHandler{next: h.next.WithAttrs(replaced), replace: h.replace, groups: h.groups}
}

func (h *replaceHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	return &replaceHandler{
		next:    h.next.WithGroup(name),
		replace: h.replace,
		groups:  append(slices.Clone(h.groups), name),
	}
}

// apply replaces leaf attributes only, descending into groups.
func (h *replaceHandler) apply(groups []string, a slog.Attr) slog.Attr {
	if a.Value.Kind() != slog.KindGroup {
		return h.replace(groups, a)
	}

	members := a.Value.Group()
	replaced := make([]any, len(members))
	inner := append(slices.Clone(groups), a.Key)

	for i, m := range members {
		replaced[i] = h.apply(inner, m)
	}

	return slog.Group(a.Key, replaced...)
}
