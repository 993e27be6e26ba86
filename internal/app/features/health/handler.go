package health

import (
	"context"
	"net/http"

	"github.com/dalemusser/studysync/internal/app/system/jsonio"
	"github.com/dalemusser/studysync/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Pinger checks a backend dependency. *redis.Client satisfies it through
// RedisPinger in bootstrap.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds dependencies needed for health checks.
type Handler struct {
	Client *mongo.Client
	Cache  Pinger // optional change-feed backend
	Log    *zap.Logger
}

// NewHandler constructs a health Handler with the Mongo client and logger.
// cache may be nil when the in-memory change feed is used.
func NewHandler(client *mongo.Client, cache Pinger, logger *zap.Logger) *Handler {
	return &Handler{
		Client: client,
		Cache:  cache,
		Log:    logger,
	}
}

// healthResponse is the JSON structure for the health check response.
type healthResponse struct {
	Status     string `json:"status"`
	Database   string `json:"database"`
	ChangeFeed string `json:"changefeed,omitempty"`
	Message    string `json:"message,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "database":"connected" }
//
// On DB failure: 503 and
//
//	{ "status":"error", "database":"disconnected", "message":"Database unavailable", "error":"…"}
//
// A failing change-feed backend reports "degraded" with 200; the API still
// serves reads and writes without live updates.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	resp := healthResponse{
		Status:   "ok",
		Database: "connected",
	}

	if err := h.Client.Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Error("health-check: mongo ping failed", zap.Error(err))
		resp.Status = "error"
		resp.Database = "disconnected"
		resp.Message = "Database unavailable"
		resp.Error = err.Error()
		jsonio.Write(w, http.StatusServiceUnavailable, resp)
		return
	}

	if h.Cache != nil {
		resp.ChangeFeed = "connected"
		if err := h.Cache.Ping(ctx); err != nil {
			h.Log.Warn("health-check: change feed ping failed", zap.Error(err))
			resp.Status = "degraded"
			resp.ChangeFeed = "disconnected"
			resp.Error = err.Error()
		}
	}

	jsonio.Write(w, http.StatusOK, resp)
}
