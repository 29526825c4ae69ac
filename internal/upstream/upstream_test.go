package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
)

func TestDo(t *testing.T) {
	t.Run("success returns body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("Accept"); got != "application/json" {
				t.Errorf("Accept = %q; want application/json", got)
			}
			w.Write([]byte(`{"ok":true}`))
		}))
		defer srv.Close()

		resp, err := Do(context.Background(), ClientConfig{Client: srv.Client(), Backoff: DefaultBackoff},
			NewBreaker("test"), func(ctx context.Context) (*http.Request, error) {
				return GetJSON(ctx, srv.URL)
			})
		if err != nil {
			t.Fatalf("Do() err = %v; want nil", err)
		}
		resp.Body.Close()
	})

	t.Run("default backoff makes a single attempt", func(t *testing.T) {
		var calls int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		_, err := Do(context.Background(), ClientConfig{Client: srv.Client(), Backoff: DefaultBackoff},
			NewBreaker("test"), func(ctx context.Context) (*http.Request, error) {
				return GetJSON(ctx, srv.URL)
			})
		if !errors.Is(err, ErrServerError) {
			t.Fatalf("Do() err = %v; want ErrServerError", err)
		}
		if n := atomic.LoadInt32(&calls); n != 1 {
			t.Errorf("calls = %d; want 1", n)
		}
	})

	t.Run("retries when configured", func(t *testing.T) {
		var calls int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&calls, 1) == 1 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			w.Write([]byte(`{}`))
		}))
		defer srv.Close()

		cfg := ClientConfig{
			Client:  srv.Client(),
			Backoff: BackoffConfig{MaxRetries: 2, InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond},
		}
		resp, err := Do(context.Background(), cfg, NewBreaker("test"), func(ctx context.Context) (*http.Request, error) {
			return GetJSON(ctx, srv.URL)
		})
		if err != nil {
			t.Fatalf("Do() err = %v; want nil", err)
		}
		resp.Body.Close()
		if n := atomic.LoadInt32(&calls); n != 2 {
			t.Errorf("calls = %d; want 2", n)
		}
	})

	t.Run("client errors are unexpected", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		_, err := Do(context.Background(), ClientConfig{Client: srv.Client(), Backoff: DefaultBackoff},
			NewBreaker("test"), func(ctx context.Context) (*http.Request, error) {
				return GetJSON(ctx, srv.URL)
			})
		if !errors.Is(err, ErrUnexpected) {
			t.Errorf("Do() err = %v; want ErrUnexpected", err)
		}
	})

	t.Run("client errors are not retried", func(t *testing.T) {
		var calls int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		cfg := ClientConfig{
			Client:  srv.Client(),
			Backoff: BackoffConfig{MaxRetries: 3, InitialInterval: time.Millisecond},
		}
		_, err := Do(context.Background(), cfg, NewBreaker("test"), func(ctx context.Context) (*http.Request, error) {
			return GetJSON(ctx, srv.URL)
		})
		var serr *StatusError
		if !errors.As(err, &serr) || serr.StatusCode != http.StatusUnauthorized {
			t.Fatalf("Do() err = %v; want StatusError 401", err)
		}
		if n := atomic.LoadInt32(&calls); n != 1 {
			t.Errorf("calls = %d; want 1", n)
		}
	})

	t.Run("missing client", func(t *testing.T) {
		_, err := Do(context.Background(), ClientConfig{Backoff: DefaultBackoff}, NewBreaker("test"), nil)
		if !errors.Is(err, ErrNoHTTPClient) {
			t.Errorf("Do() err = %v; want ErrNoHTTPClient", err)
		}
	})

	t.Run("invalid backoff", func(t *testing.T) {
		_, err := Do(context.Background(), ClientConfig{Client: http.DefaultClient}, NewBreaker("test"), nil)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("Do() err = %v; want ErrInvalidConfig", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := Do(ctx, ClientConfig{Client: http.DefaultClient, Backoff: DefaultBackoff}, NewBreaker("test"), nil)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Do() err = %v; want context.Canceled", err)
		}
	})
}

func TestBreaker(t *testing.T) {
	call := func(cb *gobreaker.CircuitBreaker, url string) error {
		_, err := Do(context.Background(), ClientConfig{Client: http.DefaultClient, Backoff: DefaultBackoff},
			cb, func(ctx context.Context) (*http.Request, error) {
				return GetJSON(ctx, url)
			})
		return err
	}

	t.Run("server errors open the circuit", func(t *testing.T) {
		var calls int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		cb := NewBreaker("server-errors")
		for i := 0; i < 6; i++ {
			if err := call(cb, srv.URL); !errors.Is(err, ErrServerError) {
				t.Fatalf("call %d err = %v; want ErrServerError", i, err)
			}
		}
		if err := call(cb, srv.URL); !errors.Is(err, ErrCircuitOpen) {
			t.Fatalf("err = %v; want ErrCircuitOpen", err)
		}
		if n := atomic.LoadInt32(&calls); n != 6 {
			t.Errorf("calls = %d; want 6", n)
		}
	})

	t.Run("client errors keep it closed", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		cb := NewBreaker("client-errors")
		for i := 0; i < 10; i++ {
			if err := call(cb, srv.URL); !errors.Is(err, ErrUnexpected) {
				t.Fatalf("call %d err = %v; want ErrUnexpected", i, err)
			}
		}
		if cb.State() != gobreaker.StateClosed {
			t.Errorf("state = %s; want closed", cb.State())
		}
	})
}

func TestBackoffDelay(t *testing.T) {
	b := BackoffConfig{InitialInterval: 100 * time.Millisecond, MaxInterval: time.Second}
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{3, 800 * time.Millisecond},
		{4, time.Second},
		{40, time.Second},
	}
	for _, tt := range tests {
		if got := b.delay(tt.attempt); got != tt.want {
			t.Errorf("delay(%d) = %s; want %s", tt.attempt, got, tt.want)
		}
	}
}
