// Package reqctx exposes the inbound request's metadata to code that only
// holds a context.
package reqctx

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/language"
)

// Header names shared by services in the platform.
const (
	HeaderRealIP  = "X-Real-Ip"
	HeaderUserID  = "X-User-Id"
	HeaderTraceID = "X-Trace-Id"
	HeaderSpanID  = "X-Span-Id"
)

const (
	defaultPath   = "/"
	defaultMethod = http.MethodGet
)

type ctxKey struct{}

// Info is the request metadata carried on the context.
type Info struct {
	Path       string
	Method     string
	RemoteAddr string
	Header     http.Header
	Received   time.Time
}

// WithRequest stores r's metadata on ctx.
func WithRequest(ctx context.Context, r *http.Request) context.Context {
	if r == nil {
		return ctx
	}
	info := &Info{
		Method:     r.Method,
		RemoteAddr: r.RemoteAddr,
		Header:     r.Header,
		Received:   time.Now().UTC(),
	}
	if r.URL != nil {
		info.Path = r.URL.Path
	}
	return context.WithValue(ctx, ctxKey{}, info)
}

// FromContext returns the stored request metadata, if any.
func FromContext(ctx context.Context) (*Info, bool) {
	if ctx == nil {
		return nil, false
	}
	info, ok := ctx.Value(ctxKey{}).(*Info)
	return info, ok && info != nil
}

// Path returns the request path, or "/" outside a request.
func Path(ctx context.Context) string {
	if info, ok := FromContext(ctx); ok && info.Path != "" {
		return info.Path
	}
	return defaultPath
}

// Method returns the request method, or GET outside a request.
func Method(ctx context.Context) string {
	if info, ok := FromContext(ctx); ok && info.Method != "" {
		return info.Method
	}
	return defaultMethod
}

// Received returns when the request entered the service.
func Received(ctx context.Context) (time.Time, bool) {
	if info, ok := FromContext(ctx); ok && !info.Received.IsZero() {
		return info.Received, true
	}
	return time.Time{}, false
}

// Header returns a request header value, or "" outside a request.
func Header(ctx context.Context, name string) string {
	if info, ok := FromContext(ctx); ok && info.Header != nil {
		return info.Header.Get(name)
	}
	return ""
}

// ClientIP prefers the X-Real-Ip header set by the ingress and falls back to
// the connection's remote host.
func ClientIP(ctx context.Context) string {
	if ip := strings.TrimSpace(Header(ctx, HeaderRealIP)); ip != "" {
		return ip
	}
	info, ok := FromContext(ctx)
	if !ok || info.RemoteAddr == "" {
		return ""
	}
	host, _, err := net.SplitHostPort(info.RemoteAddr)
	if err != nil {
		return info.RemoteAddr
	}
	return host
}

// Locale returns the best tag from Accept-Language, or fallback.
func Locale(ctx context.Context, fallback language.Tag) language.Tag {
	raw := Header(ctx, "Accept-Language")
	if raw == "" {
		return fallback
	}
	tags, _, err := language.ParseAcceptLanguage(raw)
	if err != nil || len(tags) == 0 {
		return fallback
	}
	return tags[0]
}
