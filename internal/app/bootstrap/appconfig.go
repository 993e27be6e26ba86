// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables (STUDYSYNC_*), configuration
// files, or command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig
// covers ports, TLS, log level and CORS; everything StudySync needs beyond
// that lives here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64

	// Cookie sessions
	SessionKey    string // signs session cookies; must be strong in production
	SessionName   string
	SessionDomain string // blank means current host
	SessionTTL    time.Duration

	// Identity tokens (HS256) accepted as bearer tokens and by POST /auth/session
	IdentityTokenSecret string
	IdentityTokenIssuer string

	// Google OAuth
	GoogleClientID     string
	GoogleClientSecret string
	BaseURL            string // public origin, used for the OAuth callback

	// Change feed
	ChangefeedBackend string // "memory" or "redis"
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	RedisPrefix       string

	// Limits and list sizes
	RateLimitPerMinute    int // mutations per identity; 0 disables
	MessagePageSize       int
	UpcomingSessionsLimit int

	// Calendar export
	CalendarTimezone string // IANA zone session date/time strings are in
	CalendarName     string

	// Audit logging
	AuditLogAuth     string // all | db | log | off
	AuditLogActivity string
	AuditRetention   time.Duration // 0 keeps events forever
}
