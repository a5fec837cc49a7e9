package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestCORSMiddlewareAllowAll(t *testing.T) {
	handler := CORSMiddlewareWithConfig(CORSConfig{}, okHandler())

	req := httptest.NewRequest("GET", "/segments", nil)
	req.Header.Set("Origin", "http://example.com")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Expected wildcard origin, got %q", got)
	}
	if w.Header().Get("Access-Control-Allow-Credentials") != "" {
		t.Error("Credentials must not be allowed with wildcard origin")
	}
}

func TestCORSMiddlewareRestricted(t *testing.T) {
	cfg := CORSConfig{AllowedOrigins: []string{"http://allowed.test"}}
	handler := CORSMiddlewareWithConfig(cfg, okHandler())

	req := httptest.NewRequest("GET", "/segments", nil)
	req.Header.Set("Origin", "http://allowed.test")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://allowed.test" {
		t.Errorf("Expected allowed origin echoed, got %q", got)
	}
	if w.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Error("Expected credentials allowed for a specific origin")
	}

	req = httptest.NewRequest("GET", "/segments", nil)
	req.Header.Set("Origin", "http://evil.test")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("Expected no CORS headers for a disallowed origin")
	}
}

func TestCORSMiddlewarePreflight(t *testing.T) {
	cfg := CORSConfig{AllowedOrigins: []string{"http://allowed.test"}}
	handler := CORSMiddlewareWithConfig(cfg, okHandler())

	req := httptest.NewRequest("OPTIONS", "/segments", nil)
	req.Header.Set("Origin", "http://evil.test")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for disallowed preflight, got %d", w.Code)
	}
}

func TestBuildCSPHeader(t *testing.T) {
	header := APICSPConfig().BuildCSPHeader()
	for _, want := range []string{"default-src 'none'", "frame-ancestors 'none'", "base-uri 'none'", "form-action 'none'"} {
		if !strings.Contains(header, want) {
			t.Errorf("Expected CSP header to contain %q, got %q", want, header)
		}
	}
}

func TestSecurityHeadersWithCSP(t *testing.T) {
	handler := SecurityHeadersWithCSP(APICSPConfig(), okHandler())

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("Expected nosniff header")
	}
	if w.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("Expected frame deny header")
	}
	if w.Header().Get("Content-Security-Policy") == "" {
		t.Error("Expected CSP header")
	}
}

func TestValidateContentType(t *testing.T) {
	allowed := []string{"application/json"}

	tests := []struct {
		contentType string
		want        bool
	}{
		{"application/json", true},
		{"application/json; charset=utf-8", true},
		{"APPLICATION/JSON", true},
		{"text/html", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := ValidateContentType(tt.contentType, allowed); got != tt.want {
			t.Errorf("ValidateContentType(%q) = %v, want %v", tt.contentType, got, tt.want)
		}
	}
}
