// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"time"

	activityfeature "github.com/dalemusser/studysync/internal/app/features/activity"
	auditfeature "github.com/dalemusser/studysync/internal/app/features/auditlog"
	authgooglefeature "github.com/dalemusser/studysync/internal/app/features/authgoogle"
	authsessionfeature "github.com/dalemusser/studysync/internal/app/features/authsession"
	errorsfeature "github.com/dalemusser/studysync/internal/app/features/errors"
	eventsfeature "github.com/dalemusser/studysync/internal/app/features/events"
	groupsfeature "github.com/dalemusser/studysync/internal/app/features/groups"
	healthfeature "github.com/dalemusser/studysync/internal/app/features/health"
	messagesfeature "github.com/dalemusser/studysync/internal/app/features/messages"
	resourcesfeature "github.com/dalemusser/studysync/internal/app/features/resources"
	sessionsfeature "github.com/dalemusser/studysync/internal/app/features/sessions"
	usersfeature "github.com/dalemusser/studysync/internal/app/features/users"
	"github.com/dalemusser/studysync/internal/app/service"
	auditstore "github.com/dalemusser/studysync/internal/app/store/audit"
	"github.com/dalemusser/studysync/internal/app/store/oauthstate"
	"github.com/dalemusser/studysync/internal/app/system/auditlog"
	"github.com/dalemusser/studysync/internal/app/system/auth"
	"github.com/dalemusser/studysync/internal/app/system/changefeed"
	"github.com/dalemusser/studysync/internal/app/system/metrics"
	"github.com/dalemusser/studysync/internal/app/system/requestid"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler for StudySync.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// Startup have completed. It builds the identity layer and the service, then
// mounts one JSON feature router per resource under /api.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	rt := deps.Runtime
	if rt == nil {
		rt = &Runtime{}
	}
	if rt.Registry == nil {
		rt.Registry = prometheus.NewRegistry()
	}
	if rt.Broker == nil {
		rt.Broker = changefeed.NewMemoryBroker()
	}

	// Identity tokens are optional in dev; without a secret only cookie
	// sessions (from Google sign-in) are accepted.
	var verifier *auth.TokenVerifier
	if appCfg.IdentityTokenSecret != "" {
		v, err := auth.NewTokenVerifier(appCfg.IdentityTokenSecret, appCfg.IdentityTokenIssuer)
		if err != nil {
			return nil, err
		}
		verifier = v
	}

	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionTTL, secure, verifier, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	loc, err := time.LoadLocation(appCfg.CalendarTimezone)
	if err != nil {
		return nil, err
	}

	collector := metrics.NewCollector(rt.Registry)
	audits := auditlog.New(auditstore.New(deps.MongoDatabase), logger, auditlog.Config{
		Auth:     appCfg.AuditLogAuth,
		Activity: appCfg.AuditLogActivity,
	})

	svc := service.New(service.Deps{
		DB:      deps.MongoDatabase,
		Client:  deps.MongoClient,
		Log:     logger,
		Broker:  rt.Broker,
		Metrics: collector,
		Audit:   audits,
		Config: service.Config{
			MessagePageSize:  appCfg.MessagePageSize,
			UpcomingLimit:    appCfg.UpcomingSessionsLimit,
			CalendarName:     appCfg.CalendarName,
			CalendarLocation: loc,
		},
	})

	errLog := errorsfeature.NewErrorLogger(logger)
	rl := rt.Limiter

	r := chi.NewRouter()
	r.NotFound(errorsfeature.NotFound)
	r.MethodNotAllowed(errorsfeature.MethodNotAllowed)

	// Request id first so every later log line carries it; identity before
	// the access log so it can record the subject.
	r.Use(requestid.Middleware)
	r.Use(sessionMgr.LoadIdentity)
	r.Use(requestid.Logger(logger))
	r.Use(collector.Middleware)
	r.Use(middleware.Recoverer)

	// Health check endpoint for load balancers and orchestrators
	var cache healthfeature.Pinger
	if deps.Redis != nil {
		cache = redisPinger{rdb: deps.Redis}
	}
	r.Mount("/health", healthfeature.Routes(healthfeature.NewHandler(deps.MongoClient, cache, logger)))
	r.Handle("/metrics", metrics.Handler(rt.Registry))

	// Authentication
	sessionHandler := authsessionfeature.NewHandler(svc, sessionMgr, audits, errLog, logger)
	r.Mount("/auth", authsessionfeature.Routes(sessionHandler, rl))

	googleHandler := authgooglefeature.NewHandler(svc, sessionMgr, oauthstate.New(deps.MongoDatabase), audits, errLog,
		appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL, logger)
	r.Mount("/auth/google", authgooglefeature.Routes(googleHandler))

	// Users
	usersHandler := usersfeature.NewHandler(svc, errLog, logger)
	r.Mount("/api/users", usersfeature.Routes(usersHandler, sessionMgr, rl))

	// Groups and their sub-resources
	groupsHandler := groupsfeature.NewHandler(svc, errLog, logger)
	r.Mount("/api/groups", groupsfeature.Routes(groupsHandler, sessionMgr, rl))

	sessionsHandler := sessionsfeature.NewHandler(svc, errLog, logger)
	r.Mount("/api/groups/{id}/sessions", sessionsfeature.GroupRoutes(sessionsHandler, sessionMgr, rl))
	r.Mount("/api/sessions", sessionsfeature.Routes(sessionsHandler, sessionMgr, rl))

	messagesHandler := messagesfeature.NewHandler(svc, errLog, logger)
	r.Mount("/api/groups/{id}/messages", messagesfeature.Routes(messagesHandler, sessionMgr, rl))

	resourcesHandler := resourcesfeature.NewHandler(svc, errLog, logger)
	r.Mount("/api/groups/{id}/resources", resourcesfeature.Routes(resourcesHandler, sessionMgr, rl))

	// Feeds
	activityHandler := activityfeature.NewHandler(svc, errLog, logger)
	r.Mount("/api/activity", activityfeature.Routes(activityHandler, sessionMgr))

	auditHandler := auditfeature.NewHandler(svc, errLog, logger)
	r.Mount("/api/audit", auditfeature.Routes(auditHandler, sessionMgr))
	r.Mount("/api/groups/{id}/audit", auditfeature.GroupRoutes(auditHandler, sessionMgr))

	eventsHandler := eventsfeature.NewHandler(svc, collector, errLog, logger)
	r.Mount("/api/events", eventsfeature.Routes(eventsHandler, sessionMgr))

	return r, nil
}
