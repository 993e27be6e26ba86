// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/studysync/internal/app/system/changefeed"
	"github.com/dalemusser/studysync/internal/app/system/ratelimit"
	"github.com/dalemusser/studysync/internal/app/system/tasks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database
	Redis         *redis.Client // nil unless changefeed_backend=redis

	// Runtime is shared by Startup, BuildHandler and Shutdown. WAFFLE passes
	// DBDeps by value, so it is a pointer.
	Runtime *Runtime
}

// Runtime holds process-wide resources that outlive a single hook.
type Runtime struct {
	Broker    changefeed.Broker
	Limiter   *ratelimit.Limiter // nil when rate limiting is disabled
	Registry  *prometheus.Registry
	Scheduler *tasks.Scheduler
}
