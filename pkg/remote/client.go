// Package remote calls other platform services and turns their structured
// error bodies back into local errors.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"libcommon/pkg/apperrors"
	"libcommon/pkg/logctx"
	"libcommon/pkg/reqctx"
	"libcommon/pkg/response"
)

const maxBodySize = 4 << 20

// Client sends JSON requests to one downstream service.
type Client struct {
	baseURL    string
	client     *http.Client
	propagator propagation.TextMapPropagator
	retry      RetryPolicy
	breaker    *breaker
}

// Option configures a Client.
type Option func(*Client)

// WithPropagator sets the propagator used to inject trace context. The
// global propagator is used otherwise.
func WithPropagator(p propagation.TextMapPropagator) Option {
	return func(c *Client) {
		c.propagator = p
	}
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Result is the outcome of a downstream call: either a value or an error.
type Result[T any] struct {
	Value T
	Err   error
}

// OK reports whether the call succeeded.
func (r Result[T]) OK() bool {
	return r.Err == nil
}

// Get returns the value and error as a pair.
func (r Result[T]) Get() (T, error) {
	return r.Value, r.Err
}

// Do sends body as JSON to path and decodes the data of the response
// envelope into T. A non-2xx response becomes an error rebuilt from the
// downstream error body:
//
//	400 and unmapped codes -> *apperrors.ServiceError
//	401, 403, 500, 503     -> *apperrors.AppError
//	504                    -> apperrors.ErrGatewayTimeout
//
// Transport failures are returned wrapped, so timeouts still classify as
// such.
func Do[T any](ctx context.Context, c *Client, method, path string, body any) Result[T] {
	var res Result[T]

	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			res.Err = fmt.Errorf("failed to marshal request: %w", err)
			return res
		}
	}

	reply, err := c.send(ctx, method, path, payload)
	if err != nil {
		res.Err = err
		return res
	}

	if reply.status < 200 || reply.status >= 300 {
		res.Err = decodeError(reply.req, reply.status, reply.data)
		return res
	}

	if len(bytes.TrimSpace(reply.data)) == 0 {
		return res
	}
	var envelope response.Wrapper[T]
	if err := json.Unmarshal(reply.data, &envelope); err != nil {
		res.Err = fmt.Errorf("failed to decode response: %w", err)
		return res
	}
	if envelope.Data != nil {
		res.Value = *envelope.Data
	}
	return res
}

type reply struct {
	req    *http.Request
	status int
	data   []byte
}

// send performs one logical call, retrying idempotent requests per c.retry
// and consulting the breaker before each attempt.
func (c *Client) send(ctx context.Context, method, path string, payload []byte) (reply, error) {
	attempts := 1
	if isIdempotent(method) && c.retry.Attempts > 1 {
		attempts = c.retry.Attempts
	}

	var (
		last reply
		err  error
	)
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			if werr := wait(ctx, c.retry.delay(attempt-1)); werr != nil {
				return last, fmt.Errorf("request failed: %w", werr)
			}
		}
		if !c.breaker.allow() {
			return last, apperrors.Wrap(ctx, http.StatusServiceUnavailable, "Downstream service unavailable", ErrCircuitOpen)
		}

		last, err = c.attempt(ctx, method, path, payload)
		if err == nil && !retryableStatus(last.status) {
			c.breaker.success()
			return last, nil
		}
		c.breaker.failure()
		if err != nil && ctx.Err() != nil {
			break
		}
	}
	return last, err
}

func (c *Client) attempt(ctx context.Context, method, path string, payload []byte) (reply, error) {
	req, err := c.newRequest(ctx, method, path, payload)
	if err != nil {
		return reply{}, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return reply{req: req}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return reply{req: req}, fmt.Errorf("failed to read response: %w", err)
	}
	return reply{req: req, status: resp.StatusCode, data: data}, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, payload []byte) (*http.Request, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	propagator := c.propagator
	if propagator == nil {
		propagator = otel.GetTextMapPropagator()
	}
	propagator.Inject(ctx, propagation.HeaderCarrier(req.Header))

	store := logctx.FromContext(ctx)
	if v, ok := store.Get(logctx.KeyUserID); ok {
		req.Header.Set(reqctx.HeaderUserID, v)
	}
	if v, ok := store.Get(logctx.KeyClientIP); ok {
		req.Header.Set(reqctx.HeaderRealIP, v)
	}
	if v := reqctx.Header(ctx, "Accept-Language"); v != "" {
		req.Header.Set("Accept-Language", v)
	}
	return req, nil
}

func decodeError(req *http.Request, status int, data []byte) error {
	if status == http.StatusGatewayTimeout {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, apperrors.ErrGatewayTimeout)
	}

	payload := response.ErrorResponse{
		Code:      strings.ToLower(apperrors.StatusName(status)),
		Status:    status,
		Method:    req.Method,
		Path:      req.URL.Path,
		Message:   http.StatusText(status),
		Timestamp: time.Now().UTC(),
	}
	var envelope response.Wrapper[response.ErrorResponse]
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Error != nil {
		remote := *envelope.Error
		if remote.Status == 0 {
			remote.Status = status
		}
		if remote.Code == "" {
			remote.Code = payload.Code
		}
		payload = remote
	}

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden,
		http.StatusInternalServerError, http.StatusServiceUnavailable:
		payload.Status = status
		return payload.AppError()
	default:
		return payload.ServiceError()
	}
}
