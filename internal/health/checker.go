// Package health provides health check functionality for liveness and readiness probes.
package health

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"
)

// ReadinessChecker is the interface for readiness checks.
// Implemented by stores and clients to verify their backend is reachable.
type ReadinessChecker interface {
	Ready(ctx context.Context) error
}

// ReadinessFunc adapts a function to ReadinessChecker.
type ReadinessFunc func(ctx context.Context) error

func (f ReadinessFunc) Ready(ctx context.Context) error {
	return f(ctx)
}

// Status represents the health status of a component.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
)

// CheckResult contains the result of a health check.
type CheckResult struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}

// Response is the health check response.
type Response struct {
	Status Status                 `json:"status"`
	Checks map[string]CheckResult `json:"checks,omitempty"`
}

// Checker performs health checks on named dependencies.
type Checker struct {
	deps    map[string]ReadinessChecker
	timeout time.Duration
	ttl     time.Duration

	mu           sync.RWMutex
	lastCheck    time.Time
	cachedReady  *Response
	shuttingDown bool
}

// NewChecker creates a health checker. A service with no dependencies is
// always ready.
func NewChecker(deps map[string]ReadinessChecker) *Checker {
	return &Checker{
		deps:    maps.Clone(deps),
		timeout: 5 * time.Second,
		ttl:     time.Second,
	}
}

// Liveness returns true if the service is alive.
// This should be a lightweight check that doesn't depend on external services.
func (c *Checker) Liveness(ctx context.Context) *Response {
	return &Response{
		Status: StatusHealthy,
	}
}

// Readiness checks every dependency concurrently. Results are cached briefly
// so frequent probes do not hammer the backends.
func (c *Checker) Readiness(ctx context.Context) *Response {
	c.mu.RLock()
	if c.shuttingDown {
		c.mu.RUnlock()
		return &Response{
			Status: StatusUnhealthy,
			Checks: map[string]CheckResult{
				"shutdown": {Status: StatusUnhealthy, Message: "service is shutting down"},
			},
		}
	}
	if c.cachedReady != nil && time.Since(c.lastCheck) < c.ttl {
		cached := c.cachedReady
		c.mu.RUnlock()
		return cached
	}
	c.mu.RUnlock()

	names := slices.Sorted(maps.Keys(c.deps))
	results := make([]CheckResult, len(names))

	var wg sync.WaitGroup
	for i, name := range names {
		wg.Go(func() {
			results[i] = c.check(ctx, c.deps[name])
		})
	}
	wg.Wait()

	response := &Response{Status: StatusHealthy, Checks: make(map[string]CheckResult, len(names))}
	for i, name := range names {
		response.Checks[name] = results[i]
		if results[i].Status != StatusHealthy {
			response.Status = StatusUnhealthy
		}
	}

	c.mu.Lock()
	c.cachedReady = response
	c.lastCheck = time.Now()
	c.mu.Unlock()

	return response
}

func (c *Checker) check(ctx context.Context, dep ReadinessChecker) CheckResult {
	if dep == nil {
		return CheckResult{
			Status:  StatusUnhealthy,
			Message: "not configured",
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := dep.Ready(ctx); err != nil {
		return CheckResult{
			Status:  StatusUnhealthy,
			Message: err.Error(),
		}
	}
	return CheckResult{Status: StatusHealthy}
}

// IsHealthy returns true if the overall status is healthy.
func (r *Response) IsHealthy() bool {
	return r.Status == StatusHealthy
}

// SetShuttingDown marks the service as shutting down.
// This causes readiness checks to return unhealthy, signaling
// load balancers to stop sending new traffic.
func (c *Checker) SetShuttingDown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shuttingDown = true
	c.cachedReady = nil
}
