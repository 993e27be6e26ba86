// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/studysync/internal/app/system/auditlog"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

const (
	backendMemory = "memory"
	backendRedis  = "redis"
)

// appConfigKeys defines the configuration keys for StudySync.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: STUDYSYNC_MONGO_URI, STUDYSYNC_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "studysync", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},

	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "studysync-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_ttl", Default: "168h", Desc: "Session cookie lifetime"},

	{Name: "identity_token_secret", Default: "", Desc: "HS256 secret for identity tokens (required outside dev)"},
	{Name: "identity_token_issuer", Default: "", Desc: "Expected iss claim (blank accepts any)"},

	{Name: "google_client_id", Default: "", Desc: "Google OAuth2 client ID"},
	{Name: "google_client_secret", Default: "", Desc: "Google OAuth2 client secret"},
	{Name: "base_url", Default: "http://localhost:8080", Desc: "Public origin for OAuth callbacks"},

	{Name: "changefeed_backend", Default: backendMemory, Desc: "Change feed broker: 'memory' or 'redis'"},
	{Name: "redis_addr", Default: "", Desc: "Redis address (host:port) for the redis change feed"},
	{Name: "redis_password", Default: "", Desc: "Redis password"},
	{Name: "redis_db", Default: 0, Desc: "Redis database number"},
	{Name: "redis_prefix", Default: "studysync:", Desc: "Redis pub/sub channel prefix"},

	{Name: "rate_limit_per_minute", Default: 60, Desc: "Mutations allowed per identity per minute (0 disables)"},
	{Name: "message_page_size", Default: 50, Desc: "Default number of messages returned per group"},
	{Name: "upcoming_sessions_limit", Default: 5, Desc: "Default number of upcoming sessions"},

	{Name: "calendar_timezone", Default: "UTC", Desc: "IANA time zone session times are recorded in"},
	{Name: "calendar_name", Default: "StudySync sessions", Desc: "Calendar name in iCalendar exports"},

	{Name: "audit_log_auth", Default: auditlog.ModeAll, Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_activity", Default: auditlog.ModeAll, Desc: "Activity event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_retention", Default: "2160h", Desc: "Delete audit events older than this (0 keeps forever)"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig merges .env files, config files,
// STUDYSYNC_* environment variables and flags with precedence
// flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "STUDYSYNC", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),
		SessionTTL:    appValues.Duration("session_ttl", 7*24*time.Hour),

		IdentityTokenSecret: appValues.String("identity_token_secret"),
		IdentityTokenIssuer: appValues.String("identity_token_issuer"),

		GoogleClientID:     appValues.String("google_client_id"),
		GoogleClientSecret: appValues.String("google_client_secret"),
		BaseURL:            appValues.String("base_url"),

		ChangefeedBackend: appValues.String("changefeed_backend"),
		RedisAddr:         appValues.String("redis_addr"),
		RedisPassword:     appValues.String("redis_password"),
		RedisDB:           appValues.Int("redis_db"),
		RedisPrefix:       appValues.String("redis_prefix"),

		RateLimitPerMinute:    appValues.Int("rate_limit_per_minute"),
		MessagePageSize:       appValues.Int("message_page_size"),
		UpcomingSessionsLimit: appValues.Int("upcoming_sessions_limit"),

		CalendarTimezone: appValues.String("calendar_timezone"),
		CalendarName:     appValues.String("calendar_name"),

		AuditLogAuth:     appValues.String("audit_log_auth"),
		AuditLogActivity: appValues.String("audit_log_activity"),
		AuditRetention:   appValues.Duration("audit_retention", 90*24*time.Hour),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig rejects configurations that would fail later at connect or
// request time.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.MongoDatabase == "" {
		return fmt.Errorf("mongo_database is required")
	}

	switch appCfg.ChangefeedBackend {
	case backendMemory:
	case backendRedis:
		if appCfg.RedisAddr == "" {
			return fmt.Errorf("changefeed_backend=redis requires redis_addr")
		}
	default:
		return fmt.Errorf("changefeed_backend must be %q or %q, got %q", backendMemory, backendRedis, appCfg.ChangefeedBackend)
	}

	if appCfg.IdentityTokenSecret == "" && coreCfg.Env != "dev" {
		return fmt.Errorf("identity_token_secret is required when env=%q", coreCfg.Env)
	}
	if (appCfg.GoogleClientID == "") != (appCfg.GoogleClientSecret == "") {
		return fmt.Errorf("google_client_id and google_client_secret must be set together")
	}

	for key, mode := range map[string]string{
		"audit_log_auth":     appCfg.AuditLogAuth,
		"audit_log_activity": appCfg.AuditLogActivity,
	} {
		if !auditlog.IsValidMode(mode) {
			return fmt.Errorf("%s: unknown mode %q", key, mode)
		}
	}

	if _, err := time.LoadLocation(appCfg.CalendarTimezone); err != nil {
		return fmt.Errorf("calendar_timezone: %w", err)
	}
	if appCfg.RateLimitPerMinute < 0 {
		return fmt.Errorf("rate_limit_per_minute must be >= 0")
	}

	return nil
}
