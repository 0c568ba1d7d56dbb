package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type fakeRateStore struct {
	counts map[string]int64
	err    error
}

func newFakeRateStore() *fakeRateStore {
	return &fakeRateStore{counts: map[string]int64{}}
}

func (f *fakeRateStore) IncrWithTTL(_ context.Context, key string, _ time.Duration) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.counts[key]++
	return f.counts[key], nil
}

func rateLimitedHandler(policy AuthRateLimitPolicy, store rateLimiterStore) http.Handler {
	return AuthRateLimit(policy, store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func postLogin(handler http.Handler, ip, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
	req.RemoteAddr = ip + ":1234"
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	return resp
}

func TestAuthRateLimitBlocksIPAfterLimit(t *testing.T) {
	store := newFakeRateStore()
	policy := NewAuthRateLimitPolicy("login", time.Minute, 2, 0)
	handler := rateLimitedHandler(policy, store)

	for i := 0; i < 2; i++ {
		if resp := postLogin(handler, "10.0.0.1", `{}`); resp.Code != http.StatusOK {
			t.Fatalf("request %d expected 200 got %d", i, resp.Code)
		}
	}
	if resp := postLogin(handler, "10.0.0.1", `{}`); resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", resp.Code)
	}
	if resp := postLogin(handler, "10.0.0.2", `{}`); resp.Code != http.StatusOK {
		t.Fatalf("other ip should pass, got %d", resp.Code)
	}
}

func TestAuthRateLimitBlocksEmailAfterLimit(t *testing.T) {
	store := newFakeRateStore()
	policy := NewAuthRateLimitPolicy("login", time.Minute, 0, 1)
	handler := rateLimitedHandler(policy, store)

	body := `{"email":"User@Example.com","password":"x"}`
	if resp := postLogin(handler, "10.0.0.1", body); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	// Case differences hash to the same normalized key.
	if resp := postLogin(handler, "10.0.0.2", `{"email":"user@example.com","password":"x"}`); resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", resp.Code)
	}
	if resp := postLogin(handler, "10.0.0.3", `{"email":"other@example.com","password":"x"}`); resp.Code != http.StatusOK {
		t.Fatalf("other email should pass, got %d", resp.Code)
	}
}

func TestAuthRateLimitPreservesBodyForHandler(t *testing.T) {
	store := newFakeRateStore()
	policy := NewAuthRateLimitPolicy("login", time.Minute, 0, 5)

	var seen string
	handler := AuthRateLimit(policy, store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		seen = string(raw)
		w.WriteHeader(http.StatusOK)
	}))

	body := `{"email":"user@example.com","password":"x"}`
	if resp := postLogin(handler, "10.0.0.1", body); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if seen != body {
		t.Fatalf("handler saw %q want %q", seen, body)
	}
}

func TestAuthRateLimitDisabledPolicyPassesThrough(t *testing.T) {
	policy := NewAuthRateLimitPolicy("login", 0, 10, 10)
	handler := rateLimitedHandler(policy, newFakeRateStore())

	for i := 0; i < 25; i++ {
		if resp := postLogin(handler, "10.0.0.1", `{}`); resp.Code != http.StatusOK {
			t.Fatalf("expected 200 got %d", resp.Code)
		}
	}
}
