package middleware

import "net/http"

// responseWriter wraps http.ResponseWriter to capture the status code and
// run a hook just before the status line is committed.
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
	onCommit    func(http.Header)
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader || code < 200 {
		rw.ResponseWriter.WriteHeader(code)
		return
	}
	rw.statusCode = code
	rw.wroteHeader = true
	if rw.onCommit != nil {
		rw.onCommit(rw.Header())
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

// Flush commits the status if needed and flushes when supported.
func (rw *responseWriter) Flush() {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
