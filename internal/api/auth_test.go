package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func protectedHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddlewareDisabled(t *testing.T) {
	handler := AuthMiddleware(AuthConfig{Enabled: false}, protectedHandler())

	req := httptest.NewRequest("GET", "/segments", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 with auth disabled, got %d", w.Code)
	}
}

func TestAuthMiddlewareMissingKey(t *testing.T) {
	cfg := AuthConfig{Enabled: true, APIKey: "test-key-0123456789abcdef"}
	handler := AuthMiddleware(cfg, protectedHandler())

	req := httptest.NewRequest("GET", "/segments", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without key, got %d", w.Code)
	}
}

func TestAuthMiddlewareWrongKey(t *testing.T) {
	cfg := AuthConfig{Enabled: true, APIKey: "test-key-0123456789abcdef"}
	handler := AuthMiddleware(cfg, protectedHandler())

	req := httptest.NewRequest("GET", "/segments", nil)
	req.Header.Set("X-API-Key", "wrong-key")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 with wrong key, got %d", w.Code)
	}
}

func TestAuthMiddlewareValidKey(t *testing.T) {
	cfg := AuthConfig{Enabled: true, APIKey: "test-key-0123456789abcdef"}
	handler := AuthMiddleware(cfg, protectedHandler())

	req := httptest.NewRequest("GET", "/segments", nil)
	req.Header.Set("X-API-Key", "test-key-0123456789abcdef")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 with valid key, got %d", w.Code)
	}
}

func TestAuthMiddlewarePublicEndpoints(t *testing.T) {
	cfg := AuthConfig{Enabled: true, APIKey: "test-key-0123456789abcdef"}
	handler := AuthMiddleware(cfg, protectedHandler())

	for _, path := range []string{"/", "/health"} {
		req := httptest.NewRequest("GET", path, nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Expected %s to bypass auth, got %d", path, w.Code)
		}
	}
}

func TestValidateAuthConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     AuthConfig
		wantErr bool
	}{
		{"disabled", AuthConfig{Enabled: false}, false},
		{"enabled without key", AuthConfig{Enabled: true}, true},
		{"enabled short key", AuthConfig{Enabled: true, APIKey: "short"}, true},
		{"enabled valid key", AuthConfig{Enabled: true, APIKey: "0123456789abcdef"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAuthConfig(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAuthConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConstantTimeCompare(t *testing.T) {
	if !constantTimeCompare("abc", "abc") {
		t.Error("Expected equal strings to match")
	}
	if constantTimeCompare("abc", "abd") {
		t.Error("Expected different strings to mismatch")
	}
	if constantTimeCompare("abc", "abcd") {
		t.Error("Expected different lengths to mismatch")
	}
}
