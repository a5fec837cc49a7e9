// Package api provides the REST API server for SDLXLIFF segment
// editing sessions.
package api

import (
	"fmt"
	"net/http"
	"os"

	"github.com/lingtools/xliffd/internal/history"
	"github.com/lingtools/xliffd/internal/logging"
	"github.com/lingtools/xliffd/internal/server"
	"github.com/lingtools/xliffd/internal/session"
)

var (
	// Sessions tracks the documents opened through the API.
	Sessions *session.Manager

	// Journal is the edit journal, nil when history is disabled.
	Journal *history.Journal
)

// checkConfig rejects configurations the server cannot run with
// before anything gets initialized.
func checkConfig(cfg Config) error {
	if err := ValidateAuthConfig(cfg.Auth); err != nil {
		return fmt.Errorf("invalid auth config: %w", err)
	}
	if cfg.TLS.Enabled {
		if cfg.TLS.CertFile == "" || cfg.TLS.KeyFile == "" {
			return fmt.Errorf("TLS enabled but cert or key file not specified")
		}
		if _, err := os.Stat(cfg.TLS.CertFile); err != nil {
			return fmt.Errorf("TLS cert file not found: %w", err)
		}
		if _, err := os.Stat(cfg.TLS.KeyFile); err != nil {
			return fmt.Errorf("TLS key file not found: %w", err)
		}
	}
	// The documents directory must already exist; refusing to create
	// it catches typos in --documents.
	if info, err := os.Stat(cfg.DocumentsDir); err != nil || !info.IsDir() {
		return fmt.Errorf("documents directory not found: %s", cfg.DocumentsDir)
	}
	return nil
}

// Start runs the API server until the listener fails.
func Start(cfg Config) error {
	if err := checkConfig(cfg); err != nil {
		return err
	}
	ServerConfig = cfg

	Sessions = session.NewManager()

	if cfg.HistoryPath != "" {
		journal, err := history.Open(cfg.HistoryPath)
		if err != nil {
			return fmt.Errorf("failed to open edit journal: %w", err)
		}
		Journal = journal
		logging.Info("edit journal enabled",
			"path", cfg.HistoryPath,
			"driver", history.DriverType())
	} else {
		Journal = nil
		logging.Info("edit journal disabled")
	}

	GlobalHub = NewHub()
	go GlobalHub.Run()

	protocol, wsProtocol := "http", "ws"
	if cfg.TLS.Enabled {
		protocol, wsProtocol = "https", "wss"
		logging.Info("TLS enabled", "cert_file", cfg.TLS.CertFile)
	} else {
		logging.Warn("TLS disabled - using plain HTTP",
			"recommendation", "consider using TLS or reverse proxy for production")
	}
	logging.ServerStartup("rest_api", protocol, cfg.Port,
		"websocket_protocol", wsProtocol,
		"documents_dir", server.AbsPath(cfg.DocumentsDir))

	addr := fmt.Sprintf(":%d", cfg.Port)
	handler := buildHandler(cfg)
	if cfg.TLS.Enabled {
		return http.ListenAndServeTLS(addr, cfg.TLS.CertFile, cfg.TLS.KeyFile, handler)
	}
	return http.ListenAndServe(addr, handler)
}

// buildHandler assembles the middleware chain around the routed mux.
// Request order is logging, CORS, rate limit, auth, security headers,
// then the handlers, so every request is logged and preflights are
// answered before auth can reject them.
func buildHandler(cfg Config) http.Handler {
	var handler http.Handler = server.SecurityHeadersWithCSP(server.APICSPConfig(), setupRoutes())

	if cfg.Auth.Enabled {
		handler = AuthMiddleware(cfg.Auth, handler)
		logging.SecurityEvent("authentication_configured", "api",
			"enabled", true,
			"note", "API key required")
	} else {
		logging.SecurityEvent("authentication_configured", "api",
			"enabled", false,
			"note", "all requests allowed")
	}

	if cfg.RateLimitRequests > 0 {
		rlCfg := RateLimiterConfig{
			RequestsPerMinute: cfg.RateLimitRequests,
			BurstSize:         cfg.RateLimitBurst,
		}
		if rlCfg.BurstSize == 0 {
			rlCfg.BurstSize = 10
		}
		handler = NewRateLimiter(rlCfg).Middleware(handler)
		logging.Info("rate limiting enabled",
			"requests_per_minute", rlCfg.RequestsPerMinute,
			"burst_size", rlCfg.BurstSize)
	}

	handler = server.CORSMiddlewareWithConfig(server.CORSConfig{AllowedOrigins: cfg.AllowedOrigins}, handler)
	if len(cfg.AllowedOrigins) > 0 {
		logging.SecurityEvent("cors_configured", "api",
			"mode", "restricted",
			"allowed_origins_count", len(cfg.AllowedOrigins))
	} else {
		logging.SecurityEvent("cors_configured", "api",
			"mode", "permissive",
			"note", "allowing all origins (*) - consider restricting for production")
	}

	return logging.CombinedMiddleware(handler)
}

// setupRoutes configures all HTTP routes.
func setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/", handleRoot)
	mux.HandleFunc("/health", handleHealth)
	mux.HandleFunc("/documents", handleDocuments)
	mux.HandleFunc("/documents/close", handleDocumentClose)
	mux.HandleFunc("/segments", handleSegments)
	mux.HandleFunc("/segments/", handleSegmentByID)
	mux.HandleFunc("/save", handleSave)
	mux.HandleFunc("/statistics", handleStatistics)
	mux.HandleFunc("/qa", handleQA)
	mux.HandleFunc("/history", handleHistory)
	mux.HandleFunc("/ws", handleWebSocket)

	return mux
}
