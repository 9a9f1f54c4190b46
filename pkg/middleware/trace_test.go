package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"libcommon/pkg/errhandler"
	"libcommon/pkg/logctx"
	"libcommon/pkg/reqctx"
)

func newTracer(t *testing.T) (trace.Tracer, *tracetest.SpanRecorder) {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return tp.Tracer("test"), rec
}

func traceConfig(tracer trace.Tracer) TraceConfig {
	return TraceConfig{Tracer: tracer, Propagator: propagation.TraceContext{}}
}

func TestTrace_CopiesHeadersAndCleansUp(t *testing.T) {
	t.Parallel()
	var store *logctx.Store
	var seen map[string]string
	handler := Trace(traceConfig(nil))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		store = logctx.FromContext(r.Context())
		seen = store.Snapshot()
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/items", nil)
	req.Header.Set("X-Real-IP", "203.0.113.9")
	req.Header.Set(reqctx.HeaderUserID, "u-1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if seen[logctx.KeyClientIP] != "203.0.113.9" || seen[logctx.KeyUserID] != "u-1" {
		t.Errorf("handler saw %v", seen)
	}
	if store.Len() != 0 {
		t.Errorf("keys left after request: %v", store.Keys())
	}
	if rec.Header().Get(reqctx.HeaderTraceID) != "" || rec.Header().Get(reqctx.HeaderSpanID) != "" {
		t.Error("no trace headers expected without an active trace")
	}
}

func TestTrace_KeepsKeysItDidNotCreate(t *testing.T) {
	t.Parallel()
	handler := Trace(traceConfig(nil))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	ctx, store := logctx.NewContext(context.Background())
	store.Put(logctx.KeyUserID, "outer-user")
	store.Put(logctx.KeyTraceID, "outer-trace")
	store.Put(logctx.KeySpanID, "outer-span")

	req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx)
	req.Header.Set(reqctx.HeaderUserID, "inner-user")
	req.Header.Set(reqctx.HeaderRealIP, "10.0.0.1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if v, _ := store.Get(logctx.KeyUserID); v != "outer-user" {
		t.Errorf("userId = %q, want pre-existing value", v)
	}
	if store.Has(logctx.KeyClientIP) {
		t.Error("clientIp created by the filter must be removed")
	}
	// Filter-only variant: pre-existing ids are echoed.
	if rec.Header().Get(reqctx.HeaderTraceID) != "outer-trace" || rec.Header().Get(reqctx.HeaderSpanID) != "outer-span" {
		t.Errorf("headers = %v", rec.Header())
	}
	if !store.Has(logctx.KeyTraceID) {
		t.Error("trace keys the filter did not create must stay")
	}
}

func TestTrace_WritesHeadersWithTracer(t *testing.T) {
	t.Parallel()
	tracer, spans := newTracer(t)

	var inside trace.SpanContext
	var store *logctx.Store
	handler := Trace(traceConfig(tracer))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inside = trace.SpanContextFromContext(r.Context())
		store = logctx.FromContext(r.Context())
		_, _ = w.Write([]byte("ok"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/items", nil))

	if !inside.IsValid() {
		t.Fatal("expected a server span")
	}
	if got := rec.Header().Get(reqctx.HeaderTraceID); got != inside.TraceID().String() {
		t.Errorf("X-Trace-Id = %q, want %q", got, inside.TraceID())
	}
	if got := rec.Header().Get(reqctx.HeaderSpanID); got != inside.SpanID().String() {
		t.Errorf("X-Span-Id = %q, want %q", got, inside.SpanID())
	}
	if store.Len() != 0 {
		t.Errorf("keys left after request: %v", store.Keys())
	}
	if ended := spans.Ended(); len(ended) != 1 || ended[0].SpanKind() != trace.SpanKindServer {
		t.Errorf("expected one ended server span, got %d", len(ended))
	}
}

func TestTrace_ContinuesInboundTrace(t *testing.T) {
	t.Parallel()
	tracer, _ := newTracer(t)
	handler := Trace(traceConfig(tracer))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get(reqctx.HeaderTraceID); got != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("X-Trace-Id = %q", got)
	}
	if got := rec.Header().Get(reqctx.HeaderSpanID); got == "" || got == "00f067aa0ba902b7" {
		t.Errorf("X-Span-Id = %q, want the new server span", got)
	}
}

func TestTrace_HeadersOnErrorResponse(t *testing.T) {
	t.Parallel()
	tracer, _ := newTracer(t)
	h := errhandler.New(nil, nil)
	app := h.Wrap(func(w http.ResponseWriter, r *http.Request) error {
		return errors.New("boom")
	})
	handler := Chain(app, Trace(traceConfig(tracer)), RequestContext())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", rec.Code)
	}
	if rec.Header().Get(reqctx.HeaderTraceID) == "" || rec.Header().Get(reqctx.HeaderSpanID) == "" {
		t.Errorf("trace headers missing on error response: %v", rec.Header())
	}
}

func TestTrace_HeadersAndCleanupOnPanic(t *testing.T) {
	t.Parallel()
	tracer, _ := newTracer(t)
	var store *logctx.Store
	app := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		store = logctx.FromContext(r.Context())
		panic("handler exploded")
	})
	handler := Chain(app, Trace(traceConfig(tracer)), RequestContext(), Recovery(errhandler.New(nil, nil)))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(reqctx.HeaderUserID, "u-9")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", rec.Code)
	}
	if rec.Header().Get(reqctx.HeaderTraceID) == "" {
		t.Error("trace header missing on recovered panic")
	}
	if store.Len() != 0 {
		t.Errorf("keys left after panic: %v", store.Keys())
	}
}

func TestTrace_CleansUpWhenPanicEscapes(t *testing.T) {
	t.Parallel()
	var store *logctx.Store
	handler := Trace(traceConfig(nil))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		store = logctx.FromContext(r.Context())
		panic("unrecovered")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(reqctx.HeaderRealIP, "10.1.1.1")

	func() {
		defer func() { _ = recover() }()
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}()

	if store == nil || store.Len() != 0 {
		t.Errorf("keys left after panic: %v", store.Keys())
	}
}

func TestTrace_HeadersWhenHandlerNeverWrites(t *testing.T) {
	t.Parallel()
	tracer, _ := newTracer(t)
	handler := Trace(traceConfig(tracer))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Header().Get(reqctx.HeaderTraceID) == "" {
		t.Error("trace header missing when handler never wrote")
	}
}
