package middleware

import (
	"math"
	"net/http"
	"strconv"

	"golang.org/x/time/rate"

	"libcommon/pkg/apperrors"
	"libcommon/pkg/errhandler"
)

// RateLimit rejects requests beyond limiter's budget with a 429 service error.
// A nil limiter disables limiting.
func RateLimit(limiter *rate.Limiter, h *errhandler.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil {
				next.ServeHTTP(w, r)
				return
			}

			res := limiter.Reserve()
			if delay := res.Delay(); !res.OK() || delay > 0 {
				res.Cancel()
				if res.OK() {
					w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(delay.Seconds()))))
				}
				h.Write(w, r, apperrors.FromStatus(r.Context(), http.StatusTooManyRequests, "Too many requests"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// NewLimiter returns a token bucket allowing rps requests per second with the
// given burst, or nil when rps is not positive.
func NewLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}
