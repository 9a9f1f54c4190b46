package logctx

import (
	"context"
	"log/slog"
	"maps"
	"slices"

	"go.opentelemetry.io/otel/trace"
)

// Log attribute names for trace correlation.
const (
	AttrTraceID = "trace_id"
	AttrSpanID  = "span_id"
)

// Handler decorates another slog.Handler with the context's logging fields
// and the active span's identifiers.
type Handler struct {
	next slog.Handler
}

// NewHandler wraps next.
func NewHandler(next slog.Handler) *Handler {
	return &Handler{next: next}
}

// Enabled reports whether the wrapped handler handles level.
func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle adds context fields to r and forwards it.
func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	store := FromContext(ctx)
	sc := trace.SpanContextFromContext(ctx)
	if store.Len() == 0 && !sc.IsValid() {
		return h.next.Handle(ctx, r)
	}

	r = r.Clone()
	snapshot := store.Snapshot()
	for _, key := range slices.Sorted(maps.Keys(snapshot)) {
		if key == KeyTraceID || key == KeySpanID {
			continue
		}
		r.AddAttrs(slog.String(key, snapshot[key]))
	}

	traceID, spanID := snapshot[KeyTraceID], snapshot[KeySpanID]
	if sc.IsValid() {
		traceID, spanID = sc.TraceID().String(), sc.SpanID().String()
	}
	if traceID != "" {
		r.AddAttrs(slog.String(AttrTraceID, traceID))
	}
	if spanID != "" {
		r.AddAttrs(slog.String(AttrSpanID, spanID))
	}

	return h.next.Handle(ctx, r)
}

// WithAttrs returns a Handler whose wrapped handler carries attrs.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{next: h.next.WithAttrs(attrs)}
}

// WithGroup returns a Handler whose wrapped handler opens group name.
func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{next: h.next.WithGroup(name)}
}
