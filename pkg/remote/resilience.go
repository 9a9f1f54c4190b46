package remote

import (
	"context"
	"errors"
	"math"
	"net/http"
	"sync"
	"time"
)

// ErrCircuitOpen is the cause of calls rejected while the breaker is open.
var ErrCircuitOpen = errors.New("circuit open")

// RetryPolicy retries idempotent requests that fail in transport or answer
// 502, 503 or 504. Zero durations use 100ms and 5s.
type RetryPolicy struct {
	Attempts int // Total attempts including the first
	Initial  time.Duration
	Max      time.Duration
}

// WithRetry enables retries for idempotent methods.
func WithRetry(p RetryPolicy) Option {
	return func(c *Client) {
		c.retry = p
	}
}

// WithBreaker stops calling the downstream for cooldown after threshold
// consecutive failures. Calls made while open fail with a 503 AppError.
func WithBreaker(threshold int, cooldown time.Duration) Option {
	return func(c *Client) {
		c.breaker = newBreaker(threshold, cooldown)
	}
}

// delay returns the wait before retry n (1-based): Initial doubled per
// retry, capped at Max.
func (p RetryPolicy) delay(n int) time.Duration {
	initial, ceiling := p.Initial, p.Max
	if initial <= 0 {
		initial = 100 * time.Millisecond
	}
	if ceiling <= 0 {
		ceiling = 5 * time.Second
	}
	if n < 1 {
		return initial
	}
	d := float64(initial) * math.Pow(2, float64(n-1))
	if d > float64(ceiling) {
		return ceiling
	}
	return time.Duration(d)
}

func wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func isIdempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

func retryableStatus(status int) bool {
	return status == http.StatusBadGateway ||
		status == http.StatusServiceUnavailable ||
		status == http.StatusGatewayTimeout
}

type breakerState int

const (
	closed breakerState = iota
	open
	halfOpen
)

// breaker is a consecutive-failure circuit breaker. A nil breaker always
// allows.
type breaker struct {
	mu        sync.Mutex
	state     breakerState
	failures  int
	threshold int
	cooldown  time.Duration
	openedAt  time.Time
	now       func() time.Time
}

func newBreaker(threshold int, cooldown time.Duration) *breaker {
	if threshold <= 0 {
		threshold = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &breaker{threshold: threshold, cooldown: cooldown, now: time.Now}
}

func (b *breaker) allow() bool {
	if b == nil {
		return true
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == open {
		if b.now().Sub(b.openedAt) < b.cooldown {
			return false
		}
		b.state = halfOpen
	}
	return true
}

func (b *breaker) success() {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
	b.state = closed
}

func (b *breaker) failure() {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	if b.state == halfOpen || b.failures >= b.threshold {
		b.state = open
		b.openedAt = b.now()
	}
}
