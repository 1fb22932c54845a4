package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/giftwell/edgegate/internal/core"
)

// failNTransport fails the first n round trips at the network level, then
// delegates to the real transport.
type failNTransport struct {
	n     int32
	inner http.RoundTripper
}

func (t *failNTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if atomic.AddInt32(&t.n, -1) >= 0 {
		return nil, errors.New("connection refused")
	}
	return t.inner.RoundTrip(req)
}

func newVerifyServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != VerifyRoute {
			t.Errorf("path = %q, want %q", r.URL.Path, VerifyRoute)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
			t.Errorf("Authorization = %q", got)
		}
		var payload verifyPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.App != "gifting" {
			t.Errorf("payload = %+v (err %v), want app gifting", payload, err)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

func TestVerifyClassifies(t *testing.T) {
	srv := newVerifyServer(t, http.StatusOK, `{"allowed": true, "user": {"id": "u1"}}`)
	defer srv.Close()

	c := New(srv.URL, "gifting")
	d, err := c.Verify(context.Background(), "tok-123")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if d.Kind != core.KindAllowed || d.Identity.ID != "u1" {
		t.Errorf("decision = %+v, want allowed for u1", d)
	}
}

func TestVerifyDoesNotRetryHTTPStatuses(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, "gifting")
	c.sleep = func(time.Duration) { t.Error("slept, but an HTTP answer must not be retried") }

	d, err := c.Verify(context.Background(), "tok-123")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if d.Kind != core.KindUnavailable {
		t.Errorf("kind = %s, want unavailable", d.Kind)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("calls = %d, want exactly 1", got)
	}
}

func TestVerifyRetriesNetworkErrors(t *testing.T) {
	srv := newVerifyServer(t, http.StatusOK, `{"allowed": true, "user": {"id": "u1"}}`)
	defer srv.Close()

	var slept []time.Duration
	c := New(srv.URL, "gifting",
		WithRetry(3, 100*time.Millisecond),
		WithHTTPClient(&http.Client{Transport: &failNTransport{n: 2, inner: http.DefaultTransport}}))
	c.sleep = func(d time.Duration) { slept = append(slept, d) }

	d, err := c.Verify(context.Background(), "tok-123")
	if err != nil {
		t.Fatalf("verify after transient failures: %v", err)
	}
	if d.Kind != core.KindAllowed {
		t.Errorf("kind = %s, want allowed", d.Kind)
	}

	// attempt 1 waits 1x backoff, attempt 2 waits 2x
	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}
	if len(slept) != len(want) {
		t.Fatalf("slept %v, want %v", slept, want)
	}
	for i := range want {
		if slept[i] != want[i] {
			t.Errorf("sleep[%d] = %s, want %s", i, slept[i], want[i])
		}
	}
}

func TestVerifyGivesUpAfterMaxAttempts(t *testing.T) {
	var attempts int32
	transport := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		atomic.AddInt32(&attempts, 1)
		return nil, errors.New("connection refused")
	})

	c := New("http://upstream.invalid", "gifting",
		WithRetry(3, time.Millisecond),
		WithHTTPClient(&http.Client{Transport: transport}))
	c.sleep = func(time.Duration) {}

	_, err := c.Verify(context.Background(), "tok-123")
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if got := atomic.LoadInt32(&attempts); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
}

func TestVerifyStopsOnCanceledContext(t *testing.T) {
	transport := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})

	ctx, cancel := context.WithCancel(context.Background())
	c := New("http://upstream.invalid", "gifting",
		WithRetry(5, time.Millisecond),
		WithHTTPClient(&http.Client{Transport: transport}))
	c.sleep = func(time.Duration) { t.Error("slept after cancellation") }
	cancel()

	_, err := c.Verify(ctx, "tok-123")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

func TestExchange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != ExchangeRoute {
			t.Errorf("path = %q, want %q", r.URL.Path, ExchangeRoute)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer svc-secret" {
			t.Errorf("Authorization = %q, want service token", got)
		}
		var payload exchangePayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decoding payload: %v", err)
		}
		if payload.Code != "code-1" || payload.App != "gifting" {
			t.Errorf("payload = %+v", payload)
		}
		_ = json.NewEncoder(w).Encode(exchangeResponse{Token: "session-token"})
	}))
	defer srv.Close()

	c := New(srv.URL, "gifting", WithServiceToken("svc-secret"))
	token, err := c.Exchange(context.Background(), "code-1")
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if token != "session-token" {
		t.Errorf("token = %q", token)
	}
}

func TestExchangeRejected(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New(srv.URL, "gifting")
	_, err := c.Exchange(context.Background(), "used-code")
	if !errors.Is(err, ErrExchangeRejected) {
		t.Errorf("err = %v, want ErrExchangeRejected", err)
	}
	// codes are single-use upstream; a rejection must not be retried
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("calls = %d, want exactly 1", got)
	}
}

func TestExchangeEmptyToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "gifting")
	if _, err := c.Exchange(context.Background(), "code-1"); err == nil {
		t.Error("expected error for response without token")
	}
}
