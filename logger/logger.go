package logger

import (
	"context"
	"log/slog"
)

type contextKey string

const attrsKey contextKey = "logattrs"

// ContextHandler wraps a [slog.Handler] and folds any attributes stored
// on the context via [Ctx] into each record it handles.
type ContextHandler struct {
	slog.Handler
}

// NewContextHandler wraps `base` in a ContextHandler.
func NewContextHandler(base slog.Handler) ContextHandler {
	return ContextHandler{Handler: base}
}

// Handle implements [slog.Handler].
func (h ContextHandler) Handle(ctx context.Context, record slog.Record) error {
	if attrs, ok := ctx.Value(attrsKey).([]slog.Attr); ok {
		record.AddAttrs(attrs...)
	}

	return h.Handler.Handle(ctx, record)
}

// Ctx returns a context carrying the given attributes, appended to any
// already present.
//
// The [ContextHandler] logs them for every record made with the
// resulting context.
func Ctx(ctx context.Context, toAppend ...slog.Attr) context.Context {
	attrs, _ := ctx.Value(attrsKey).([]slog.Attr)
	attrs = append(attrs, toAppend...)

	return context.WithValue(ctx, attrsKey, attrs)
}
