package api

import (
	"crypto/subtle"
	"fmt"
	"net/http"

	"github.com/lingtools/xliffd/internal/logging"
)

// AuthConfig enables API-key authentication for the document endpoints.
// The key arrives in the X-API-Key header; the CLI sources it from the
// XLIFFD_API_KEY environment variable.
type AuthConfig struct {
	Enabled bool
	APIKey  string
}

// minAPIKeyLength rejects keys short enough to brute-force.
const minAPIKeyLength = 16

// publicPaths are reachable without a key so that load balancers and
// monitoring can reach the health check.
var publicPaths = map[string]bool{
	"/":       true,
	"/health": true,
}

// AuthMiddleware rejects requests to protected endpoints that do not
// present the configured key. With auth disabled it is a pass-through.
func AuthMiddleware(cfg AuthConfig, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !cfg.Enabled || publicPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		key := r.Header.Get("X-API-Key")
		switch {
		case key == "":
			logging.SecurityEvent("unauthorized_request", "auth",
				"path", r.URL.Path,
				"reason", "missing API key")
			respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing X-API-Key header")
		case !constantTimeCompare(key, cfg.APIKey):
			logging.SecurityEvent("unauthorized_request", "auth",
				"path", r.URL.Path,
				"reason", "invalid API key")
			respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid API key")
		default:
			next.ServeHTTP(w, r)
		}
	})
}

// ValidateAuthConfig rejects configurations that would silently run
// with no effective protection.
func ValidateAuthConfig(cfg AuthConfig) error {
	if !cfg.Enabled {
		return nil
	}
	if cfg.APIKey == "" {
		return fmt.Errorf("API key is required when authentication is enabled")
	}
	if len(cfg.APIKey) < minAPIKeyLength {
		return fmt.Errorf("API key must be at least %d characters (got %d)",
			minAPIKeyLength, len(cfg.APIKey))
	}
	return nil
}

// constantTimeCompare checks key equality in constant time so response
// timing does not leak how much of the key matched.
func constantTimeCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
