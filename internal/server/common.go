// Package server provides HTTP plumbing shared by the API server:
// CORS, security headers, and content-type checks.
package server

import (
	"net/http"
	"path/filepath"
	"slices"
)

// AbsPath resolves path for log output, falling back to the input when
// resolution fails.
func AbsPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

// CORSConfig restricts which browser origins may call the API. An
// empty list allows every origin with a wildcard header, which is the
// local-editor default.
type CORSConfig struct {
	AllowedOrigins []string
}

// allowOrigin returns the Access-Control-Allow-Origin value for a
// request origin, or ok=false when the origin is not permitted.
func (cfg CORSConfig) allowOrigin(origin string) (string, bool) {
	if len(cfg.AllowedOrigins) == 0 {
		return "*", true
	}
	if slices.Contains(cfg.AllowedOrigins, origin) {
		return origin, true
	}
	return "", false
}

// CORSMiddlewareWithConfig answers preflight requests and attaches
// CORS headers per cfg. Disallowed origins get no CORS headers at all,
// so the browser blocks the response; a disallowed preflight is
// answered 403 outright. Credentials are only permitted for a specific
// echoed origin, never for the wildcard.
func CORSMiddlewareWithConfig(cfg CORSConfig, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin, ok := cfg.allowOrigin(r.Header.Get("Origin"))
		if !ok {
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		h := w.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")
		if origin != "*" {
			h.Set("Access-Control-Allow-Credentials", "true")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
