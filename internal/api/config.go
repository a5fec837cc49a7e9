package api

// Config holds server configuration.
type Config struct {
	Port              int
	DocumentsDir      string     // Base directory for document paths in requests
	HistoryPath       string     // SQLite edit journal path (empty = journal disabled)
	RateLimitRequests int        // Requests per minute (0 = disabled)
	RateLimitBurst    int        // Burst size
	Auth              AuthConfig // Authentication configuration
	TLS               TLSConfig  // TLS configuration
	AllowedOrigins    []string   // CORS allowed origins (empty = allow all)
}

// TLSConfig holds TLS/HTTPS configuration.
type TLSConfig struct {
	Enabled  bool   // Enable HTTPS
	CertFile string // Path to TLS certificate file
	KeyFile  string // Path to TLS private key file
}

// ServerConfig is the active server configuration.
var ServerConfig Config
