// Package middleware provides the request pipeline shared by services:
// trace and logging-context propagation, request metadata, access logging,
// metrics, panic recovery, CORS and bearer authentication.
package middleware

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"libcommon/pkg/apperrors"
	"libcommon/pkg/errhandler"
	"libcommon/pkg/observability"
	"libcommon/pkg/reqctx"
)

// Middleware decorates an http.Handler.
type Middleware func(http.Handler) http.Handler

// Chain applies mws to h; the first middleware is the outermost.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// RequestContext stores the request's path, method and headers on its
// context for code that only receives a context.
func RequestContext() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(reqctx.WithRequest(r.Context(), r)))
		})
	}
}

// Logging logs HTTP requests
func Logging() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapped := newResponseWriter(w)

			next.ServeHTTP(wrapped, r)

			// Context-aware so the logging context and trace ids are attached
			slog.InfoContext(r.Context(), "HTTP request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", wrapped.statusCode,
				"duration", time.Since(start),
			)
		})
	}
}

// Metrics records HTTP request metrics (latency, traffic, errors, in-flight).
func Metrics(metrics *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			metrics.RecordInFlight(r.Context(), 1)
			defer metrics.RecordInFlight(r.Context(), -1)

			wrapped := newResponseWriter(w)

			next.ServeHTTP(wrapped, r)

			duration := time.Since(start).Seconds()
			metrics.RecordHTTPRequest(r.Context(), r.Method, routePath(r), wrapped.statusCode, duration)
		})
	}
}

// Recovery turns panics into 500 responses through h. If the response has
// already been committed only the panic is logged.
func Recovery(h *errhandler.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped := newResponseWriter(w)
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				err, ok := rec.(error)
				if !ok {
					err = fmt.Errorf("panic: %v", rec)
				}
				slog.ErrorContext(r.Context(), "Panic recovered", "error", err)
				if wrapped.wroteHeader {
					return
				}
				h.Write(wrapped, r, err)
			}()

			next.ServeHTTP(wrapped, r)
		})
	}
}

// CORSConfig lists the values advertised in CORS responses.
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// DefaultCORSConfig allows any origin.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", "Accept-Language", reqctx.HeaderUserID},
	}
}

// CORS adds CORS headers and exposes the trace headers to browsers.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	methods := strings.Join(cfg.AllowedMethods, ", ")
	headers := strings.Join(cfg.AllowedHeaders, ", ")
	exposed := reqctx.HeaderTraceID + ", " + reqctx.HeaderSpanID

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if origin := allowedOrigin(cfg.AllowedOrigins, r.Header.Get("Origin")); origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", methods)
				w.Header().Set("Access-Control-Allow-Headers", headers)
				w.Header().Set("Access-Control-Expose-Headers", exposed)
				if origin != "*" {
					w.Header().Add("Vary", "Origin")
				}
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ContentType rejects POST and PUT bodies that are not JSON with 415.
func ContentType(h *errhandler.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost || r.Method == http.MethodPut {
				if ct := r.Header.Get("Content-Type"); ct != "" {
					mediaType, _, err := mime.ParseMediaType(ct)
					if err != nil || mediaType != "application/json" {
						h.Write(w, r, apperrors.FromStatus(r.Context(), http.StatusUnsupportedMediaType,
							"Content-Type must be application/json"))
						return
					}
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Auth validates Bearer token authentication and reports failures through h
// as 401 service errors. If apiKey is empty, authentication is disabled.
func Auth(apiKey string, h *errhandler.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			if err := checkBearer(r, apiKey); err != nil {
				h.Write(w, r, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

var errInvalidAPIKey = errors.New("invalid api key")

func checkBearer(r *http.Request, apiKey string) error {
	ctx := r.Context()
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return apperrors.Unauthorized(ctx)
	}

	// Expect "Bearer <token>"
	scheme, token, ok := strings.Cut(authHeader, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return apperrors.Unauthorizedf(ctx, "Invalid authorization header format")
	}

	if subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
		e := apperrors.Unauthorizedf(ctx, "Invalid API key")
		e.Cause = errInvalidAPIKey
		return e
	}
	return nil
}

func allowedOrigin(allowed []string, origin string) string {
	for _, a := range allowed {
		if a == "*" {
			return "*"
		}
		if origin != "" && strings.EqualFold(a, origin) {
			return origin
		}
	}
	return ""
}

// routePath prefers the matched ServeMux pattern to keep metric cardinality
// low.
func routePath(r *http.Request) string {
	if r.Pattern == "" {
		return r.URL.Path
	}
	_, path, ok := strings.Cut(r.Pattern, " ")
	if !ok {
		return r.Pattern
	}
	return path
}
