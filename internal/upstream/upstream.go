// Package upstream executes outbound HTTP calls to third-party APIs behind a
// circuit breaker with optional exponential backoff.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// BackoffConfig controls exponential backoff behaviour.
// MaxRetries of zero means a single attempt.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// delay returns the wait before retry number attempt (0-based), capped at MaxInterval.
func (b BackoffConfig) delay(attempt int) time.Duration {
	d := b.InitialInterval
	for i := 0; i < attempt; i++ {
		d *= 2
		if b.MaxInterval > 0 && d >= b.MaxInterval {
			return b.MaxInterval
		}
	}
	if b.MaxInterval > 0 && d > b.MaxInterval {
		return b.MaxInterval
	}
	return d
}

// ClientConfig bundles the HTTP client and resilience settings.
type ClientConfig struct {
	Client  *http.Client
	Backoff BackoffConfig
}

// DefaultBackoff is one attempt with no retries.
var DefaultBackoff = BackoffConfig{
	MaxRetries:      0,
	InitialInterval: 500 * time.Millisecond,
	MaxInterval:     5 * time.Second,
}

var (
	ErrRateLimited   = errors.New("rate limited")
	ErrServerError   = errors.New("server error")
	ErrUnexpected    = errors.New("unexpected status code")
	ErrCircuitOpen   = errors.New("circuit breaker open")
	ErrNoHTTPClient  = errors.New("http client not configured")
	ErrInvalidConfig = errors.New("invalid backoff configuration")
)

// StatusError is a non-2xx answer from an upstream API. Cause is one of
// ErrRateLimited, ErrServerError or ErrUnexpected.
type StatusError struct {
	StatusCode int
	Cause      error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%v: %d", e.Cause, e.StatusCode)
}

func (e *StatusError) Unwrap() error { return e.Cause }

// statusError maps an HTTP status to its failure cause, or nil for 2xx.
func statusError(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusTooManyRequests:
		return &StatusError{StatusCode: code, Cause: ErrRateLimited}
	case code >= 500:
		return &StatusError{StatusCode: code, Cause: ErrServerError}
	default:
		return &StatusError{StatusCode: code, Cause: ErrUnexpected}
	}
}

// retryable reports whether another attempt may succeed. Client errors such
// as an unknown city or a bad key are final.
func retryable(err error) bool {
	switch {
	case errors.Is(err, ErrCircuitOpen), errors.Is(err, ErrUnexpected):
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	default:
		return true
	}
}

// NewBreaker returns the circuit breaker used for one upstream API.
func NewBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})
}

// Do executes the request built by buildRequest. A fresh request is built for
// every attempt so no request state is shared between attempts or callers.
// The caller owns the returned response body.
func Do(
	ctx context.Context,
	cfg ClientConfig,
	cb *gobreaker.CircuitBreaker,
	buildRequest func(ctx context.Context) (*http.Request, error),
) (*http.Response, error) {
	if cfg.Client == nil {
		return nil, ErrNoHTTPClient
	}
	if cfg.Backoff.MaxRetries < 0 || cfg.Backoff.InitialInterval <= 0 {
		return nil, ErrInvalidConfig
	}

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := once(ctx, cfg.Client, cb, buildRequest)
		if err == nil {
			return resp, nil
		}
		if attempt >= cfg.Backoff.MaxRetries || !retryable(err) {
			return nil, err
		}

		timer := time.NewTimer(cfg.Backoff.delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// once performs a single attempt. Only transport errors, 429 and 5xx count
// against the breaker; a 4xx is the caller's problem, not the upstream's.
func once(
	ctx context.Context,
	client *http.Client,
	cb *gobreaker.CircuitBreaker,
	buildRequest func(ctx context.Context) (*http.Request, error),
) (*http.Response, error) {
	req, err := buildRequest(ctx)
	if err != nil {
		return nil, err
	}

	var clientErr error
	result, err := cb.Execute(func() (interface{}, error) {
		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		if serr := statusError(resp.StatusCode); serr != nil {
			resp.Body.Close()
			if errors.Is(serr, ErrUnexpected) {
				clientErr = serr
				return nil, nil
			}
			return nil, serr
		}
		return resp, nil
	})
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return nil, fmt.Errorf("%w: %s: %v", ErrCircuitOpen, cb.Name(), err)
	case err != nil:
		return nil, err
	case clientErr != nil:
		return nil, clientErr
	}

	resp, ok := result.(*http.Response)
	if !ok {
		return nil, fmt.Errorf("%s: unexpected result type %T from circuit breaker", cb.Name(), result)
	}
	return resp, nil
}

// GetJSON builds a GET request for url with a JSON accept header.
func GetJSON(ctx context.Context, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}
