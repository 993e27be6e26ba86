// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/studysync/internal/app/store/audit"
	"github.com/dalemusser/studysync/internal/app/store/oauthstate"
	"github.com/dalemusser/studysync/internal/app/system/ratelimit"
	"github.com/dalemusser/studysync/internal/app/system/tasks"
	"github.com/dalemusser/studysync/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

// Startup runs after schema setup and before the handler is built: it applies
// timeout overrides, creates the metrics registry and rate limiter, and starts
// maintenance jobs.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if n := timeouts.ConfigureFromEnv(); n > 0 {
		cur := timeouts.Current()
		logger.Info("timeouts configured from environment",
			zap.Duration("ping", cur.Ping),
			zap.Duration("short", cur.Short),
			zap.Duration("medium", cur.Medium),
			zap.Duration("long", cur.Long))
	}

	rt := deps.Runtime
	rt.Registry = prometheus.NewRegistry()
	rt.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	if appCfg.RateLimitPerMinute > 0 {
		rt.Limiter = ratelimit.PerMinute(appCfg.RateLimitPerMinute)
	}

	jobs := []tasks.Job{
		tasks.OAuthStateCleanupJob(oauthstate.New(deps.MongoDatabase), logger),
	}
	if appCfg.AuditRetention > 0 {
		jobs = append(jobs, tasks.AuditRetentionJob(audit.New(deps.MongoDatabase), logger, appCfg.AuditRetention))
	}
	rt.Scheduler = tasks.NewScheduler(logger, timeouts.Long(), jobs...)
	rt.Scheduler.Start()

	return nil
}
