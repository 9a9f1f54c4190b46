package errhandler

import "net/http"

// Func is an HTTP handler that reports failures by returning them.
type Func func(w http.ResponseWriter, r *http.Request) error

// Wrap adapts fn to http.Handler, writing returned errors through h.
func (h *Handler) Wrap(fn Func) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			h.Write(w, r, err)
		}
	})
}
