package middleware

import (
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"libcommon/pkg/logctx"
	"libcommon/pkg/reqctx"
)

// inboundHeaders maps request headers to the logging-context keys they feed.
var inboundHeaders = []struct {
	header string
	key    string
}{
	{reqctx.HeaderRealIP, logctx.KeyClientIP},
	{reqctx.HeaderUserID, logctx.KeyUserID},
}

// TraceConfig configures the Trace middleware.
type TraceConfig struct {
	// Tracer starts a server span per request. When nil, only inbound trace
	// context and ids already present in the logging context are used.
	Tracer trace.Tracer
	// Propagator extracts inbound trace context. Defaults to the global one.
	Propagator propagation.TextMapPropagator
}

// Trace must be the outermost middleware. It populates the request's logging
// context from inbound headers and the active span, writes X-Trace-Id and
// X-Span-Id on the response when its status is committed, and removes the
// keys it added once the request is done, even if a handler panics.
func Trace(cfg TraceConfig) func(http.Handler) http.Handler {
	propagator := cfg.Propagator
	if propagator == nil {
		propagator = otel.GetTextMapPropagator()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			if cfg.Tracer != nil {
				var span trace.Span
				ctx, span = cfg.Tracer.Start(ctx, r.Method+" "+r.URL.Path,
					trace.WithSpanKind(trace.SpanKindServer))
				defer span.End()
			}

			ctx, store := logctx.NewContext(ctx)
			var created []string
			put := func(key, value string) {
				if value == "" || store.Has(key) {
					return
				}
				store.Put(key, value)
				created = append(created, key)
			}
			defer func() { store.Remove(created...) }()

			for _, h := range inboundHeaders {
				put(h.key, r.Header.Get(h.header))
			}
			if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
				put(logctx.KeyTraceID, sc.TraceID().String())
				put(logctx.KeySpanID, sc.SpanID().String())
			}

			wrapped := newResponseWriter(w)
			wrapped.onCommit = func(h http.Header) { writeTraceHeaders(h, store) }

			next.ServeHTTP(wrapped, r.WithContext(ctx))

			if !wrapped.wroteHeader {
				writeTraceHeaders(w.Header(), store)
			}
		})
	}
}

func writeTraceHeaders(h http.Header, store *logctx.Store) {
	if traceID, ok := store.Get(logctx.KeyTraceID); ok {
		h.Set(reqctx.HeaderTraceID, traceID)
	}
	if spanID, ok := store.Get(logctx.KeySpanID); ok {
		h.Set(reqctx.HeaderSpanID, spanID)
	}
}
