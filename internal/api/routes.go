package api

import (
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"libcommon/internal/catalog"
	"libcommon/pkg/apperrors"
	"libcommon/internal/health"
	"libcommon/pkg/middleware"
	"libcommon/pkg/stack"
	"libcommon/pkg/swagger"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	Store         catalog.Store
	HealthChecker *health.Checker
	Stack         *stack.Stack
	Swagger       *swagger.Controller // Optional
	APIKey        string
	RateLimiter   *rate.Limiter // Optional
}

// NewRouter creates a new HTTP router with all routes configured.
func NewRouter(cfg RouterConfig) http.Handler {
	handler := NewHandler(cfg.Store, cfg.HealthChecker)
	errs := cfg.Stack.ErrorHandler()

	mux := http.NewServeMux()

	// Health check endpoints (liveness/readiness probes) - no auth required
	mux.HandleFunc("GET /livez", handler.Livez)
	mux.HandleFunc("GET /readyz", handler.Readyz)

	if cfg.Swagger != nil {
		cfg.Swagger.Register(mux)
	}

	// Item endpoints - auth required when an API key is configured
	limit := middleware.RateLimit(cfg.RateLimiter, errs)
	auth := middleware.Auth(cfg.APIKey, errs)
	contentType := middleware.ContentType(errs)
	mux.Handle("POST /v1/items", limit(auth(contentType(cfg.Stack.Handle(handler.CreateItem)))))
	mux.Handle("GET /v1/items", limit(auth(cfg.Stack.Handle(handler.ListItems))))
	mux.Handle("GET /v1/items/{id}", limit(auth(cfg.Stack.Handle(handler.GetItem))))

	// Unmatched requests get the error envelope instead of ServeMux's
	// plain-text 404 and 405.
	mux.Handle("/", cfg.Stack.Handle(noRoute(mux)))

	return cfg.Stack.Wrap(mux)
}

var routeMethods = []string{
	http.MethodGet,
	http.MethodHead,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
	http.MethodOptions,
}

// noRoute reports 405 with an Allow header when the path is routed for
// other methods, and 404 otherwise.
func noRoute(mux *http.ServeMux) func(http.ResponseWriter, *http.Request) error {
	return func(w http.ResponseWriter, r *http.Request) error {
		var allowed []string
		for _, method := range routeMethods {
			if method == r.Method {
				continue
			}
			alt := r.Clone(r.Context())
			alt.Method = method
			if _, pattern := mux.Handler(alt); pattern != "" && pattern != "/" {
				allowed = append(allowed, method)
			}
		}

		if len(allowed) > 0 {
			w.Header().Set("Allow", strings.Join(allowed, ", "))
			return apperrors.FromStatus(r.Context(), http.StatusMethodNotAllowed,
				"Request method '"+r.Method+"' is not supported")
		}
		return apperrors.NotFoundf(r.Context(), "No endpoint {} {}.", r.Method, r.URL.Path)
	}
}
