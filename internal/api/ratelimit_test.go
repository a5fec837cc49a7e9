package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRateLimiterBurst(t *testing.T) {
	// One request a minute sustained, so the refill between the calls
	// below is negligible and only the burst allowance counts.
	rl := NewRateLimiter(RateLimiterConfig{RequestsPerMinute: 1, BurstSize: 3})

	for i := 0; i < 3; i++ {
		if !rl.Allow("10.0.0.1") {
			t.Fatalf("Expected request %d within burst to be allowed", i+1)
		}
	}
	if rl.Allow("10.0.0.1") {
		t.Error("Expected request beyond burst to be denied")
	}
}

func TestRateLimiterPerIP(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{RequestsPerMinute: 60, BurstSize: 2})

	if !rl.Allow("10.0.0.1") || !rl.Allow("10.0.0.1") {
		t.Fatal("Expected burst to be allowed")
	}
	if rl.Allow("10.0.0.1") {
		t.Error("Expected third immediate request to be denied")
	}
	// Another IP has its own bucket.
	if !rl.Allow("10.0.0.2") {
		t.Error("Expected a fresh IP to be allowed")
	}
}

func TestRateLimiterMiddleware(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{RequestsPerMinute: 60, BurstSize: 1})
	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/segments", nil)
	req.RemoteAddr = "192.168.1.1:12345"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected first request allowed, got %d", w.Code)
	}
	if w.Header().Get("X-RateLimit-Limit") == "" {
		t.Error("Expected rate limit headers")
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("Expected 429 beyond burst, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("Expected Retry-After header on 429")
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		forwarded  string
		realIP     string
		want       string
	}{
		{"remote addr", "203.0.113.7:4567", "", "", "203.0.113.7"},
		{"forwarded for", "10.0.0.1:80", "198.51.100.2, 10.0.0.1", "", "198.51.100.2"},
		{"real ip", "10.0.0.1:80", "", "198.51.100.3", "198.51.100.3"},
		{"invalid forwarded falls through", "203.0.113.7:4567", "not-an-ip", "", "203.0.113.7"},
		{"ipv6", "[2001:db8::1]:443", "", "", "2001:db8::1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			if got := clientIP(req); got != tt.want {
				t.Errorf("clientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
