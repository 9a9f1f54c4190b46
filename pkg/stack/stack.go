// Package stack assembles the library's middleware and error handler into
// one request pipeline.
package stack

import (
	"net/http"

	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"libcommon/pkg/errhandler"
	"libcommon/pkg/message"
	"libcommon/pkg/middleware"
	"libcommon/pkg/observability"
)

// Options selects the optional collaborators. Every field may be left zero.
type Options struct {
	Tracer     trace.Tracer
	Propagator propagation.TextMapPropagator
	Messages   *message.Source
	Metrics    *observability.Metrics
	// CORS defaults to middleware.DefaultCORSConfig when nil.
	CORS *middleware.CORSConfig
	// ErrorOptions are passed to the error handler.
	ErrorOptions []errhandler.Option
}

// Stack is a configured request pipeline.
type Stack struct {
	errors      *errhandler.Handler
	middlewares []middleware.Middleware
}

// New builds the pipeline. Requests pass, outermost first, through Trace,
// RequestContext, Logging, Metrics, Recovery and CORS.
func New(opts Options) *Stack {
	cors := middleware.DefaultCORSConfig()
	if opts.CORS != nil {
		cors = *opts.CORS
	}

	errs := errhandler.New(opts.Messages, opts.Metrics, opts.ErrorOptions...)
	return &Stack{
		errors: errs,
		middlewares: []middleware.Middleware{
			middleware.Trace(middleware.TraceConfig{Tracer: opts.Tracer, Propagator: opts.Propagator}),
			middleware.RequestContext(),
			middleware.Logging(),
			middleware.Metrics(opts.Metrics),
			middleware.Recovery(errs),
			middleware.CORS(cors),
		},
	}
}

// ErrorHandler returns the handler used to map errors to responses.
func (s *Stack) ErrorHandler() *errhandler.Handler {
	return s.errors
}

// Wrap applies the pipeline to h.
func (s *Stack) Wrap(h http.Handler) http.Handler {
	return middleware.Chain(h, s.middlewares...)
}

// Handle adapts an error-returning handler; returned errors are written
// through the stack's error handler.
func (s *Stack) Handle(fn errhandler.Func) http.Handler {
	return s.errors.Wrap(fn)
}
