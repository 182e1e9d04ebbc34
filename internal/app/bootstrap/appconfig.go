// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig handles framework-level settings (ports, TLS,
// logging, CORS); AppConfig carries everything specific to this
// service: the local cache database, the device-session cookie, the
// upstream directory service, and the push gateway.
type AppConfig struct {
	// MongoDB connection configuration for the local cache
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max connection pool size
	MongoMinPoolSize uint64 // Min connection pool size

	// Device-session cookie configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionName   string // Cookie name for device sessions
	SessionDomain string // Cookie domain (blank means current host)

	// Remote directory service (the system of record)
	DirectoryBaseURL    string        // e.g., "https://directory.example.com"
	DirectoryToken      string        // Bearer token for directory requests
	DirectoryTimeout    time.Duration // Per-request timeout
	DirectoryMaxRetries int           // Bounded retries for directory GETs (never seat updates)
	DirectoryRetryDelay time.Duration // Initial retry delay, doubled per attempt

	// Push notification gateway; blank falls back to log-only delivery
	PushGatewayURL   string
	PushGatewayToken string

	// Grace delay after a sync-engine reattach before re-verifying
	SyncGraceDelay time.Duration
}
