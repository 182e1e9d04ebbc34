// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"net/url"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for the service.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, directory_base_url, etc.
//   - Environment variables: OPSAPP_MONGO_URI, OPSAPP_DIRECTORY_BASE_URL, etc.
//   - Command-line flags: --mongo_uri, --directory_base_url, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "opsapp", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size"},

	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "opsapp-session", Desc: "Device session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},

	{Name: "directory_base_url", Default: "http://localhost:8081", Desc: "Remote directory service base URL"},
	{Name: "directory_token", Default: "", Desc: "Bearer token for directory requests"},
	{Name: "directory_timeout", Default: "15s", Desc: "Directory request timeout (e.g., 15s, 1m)"},
	{Name: "directory_max_retries", Default: 2, Desc: "Bounded retries for directory GETs"},
	{Name: "directory_retry_delay", Default: "500ms", Desc: "Initial retry delay, doubled per attempt"},

	{Name: "push_gateway_url", Default: "", Desc: "Push notification gateway URL (blank logs notifications instead)"},
	{Name: "push_gateway_token", Default: "", Desc: "Bearer token for the push gateway"},

	{Name: "sync_grace_delay", Default: "2s", Desc: "Grace delay after a sync-engine reattach before re-verifying"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// CoreConfig comes from the shared WAFFLE layer; AppConfig is specific
// to this service. config.LoadWithAppConfig merges .env files, config
// files, OPSAPP_* environment variables, and command-line flags with
// the usual precedence: flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "OPSAPP", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),

		DirectoryBaseURL:    appValues.String("directory_base_url"),
		DirectoryToken:      appValues.String("directory_token"),
		DirectoryTimeout:    appValues.Duration("directory_timeout", 15*time.Second),
		DirectoryMaxRetries: appValues.Int("directory_max_retries"),
		DirectoryRetryDelay: appValues.Duration("directory_retry_delay", 500*time.Millisecond),

		PushGatewayURL:   appValues.String("push_gateway_url"),
		PushGatewayToken: appValues.String("push_gateway_token"),

		SyncGraceDelay: appValues.Duration("sync_grace_delay", 2*time.Second),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation before any
// backends are touched, so misconfiguration fails fast.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	u, err := url.Parse(appCfg.DirectoryBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("directory_base_url must be an absolute URL, got %q", appCfg.DirectoryBaseURL)
	}

	if appCfg.DirectoryMaxRetries < 0 {
		return fmt.Errorf("directory_max_retries must be >= 0, got %d", appCfg.DirectoryMaxRetries)
	}

	return nil
}
