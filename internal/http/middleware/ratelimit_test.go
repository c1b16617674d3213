package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiterBurstThenRefill(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return clock }

	if !rl.Allow("10.0.0.1") || !rl.Allow("10.0.0.1") {
		t.Fatal("expected burst of 2 to be allowed")
	}
	if rl.Allow("10.0.0.1") {
		t.Fatal("expected third request to be limited")
	}
	if !rl.Allow("10.0.0.2") {
		t.Fatal("expected other IPs to have their own bucket")
	}

	clock = clock.Add(time.Second)
	if !rl.Allow("10.0.0.1") {
		t.Fatal("expected a token after one second")
	}
}

func TestRateLimiterEvictsIdle(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return clock }

	rl.Allow("10.0.0.1")
	clock = clock.Add(limiterIdleTTL + time.Minute)
	rl.Allow("10.0.0.2")

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if _, ok := rl.limiters["10.0.0.1"]; ok {
		t.Fatal("expected idle limiter to be evicted")
	}
	if _, ok := rl.limiters["10.0.0.2"]; !ok {
		t.Fatal("expected active limiter to remain")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	handler := RateLimit(NewRateLimiter(0.001, 1))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(remote, realIP string) int {
		req := httptest.NewRequest(http.MethodPost, "/inbound", nil)
		req.RemoteAddr = remote
		if realIP != "" {
			req.Header.Set("X-Real-Ip", realIP)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := send("192.0.2.1:1234", ""); code != http.StatusOK {
		t.Fatalf("expected first request ok, got %d", code)
	}
	if code := send("192.0.2.1:5678", ""); code != http.StatusTooManyRequests {
		t.Fatalf("expected same host on another port to be limited, got %d", code)
	}
	if code := send("192.0.2.1:5678", "198.51.100.7"); code != http.StatusOK {
		t.Fatalf("expected X-Real-Ip to select a fresh bucket, got %d", code)
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	rl := NewRateLimiter(0, 0)
	for i := 0; i < 100; i++ {
		if !rl.Allow("10.0.0.1") {
			t.Fatalf("expected unlimited limiter to allow request %d", i)
		}
	}
}
