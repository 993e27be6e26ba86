// internal/app/features/events/handler.go
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	uierrors "github.com/dalemusser/studysync/internal/app/features/errors"
	"github.com/dalemusser/studysync/internal/app/service"
	"github.com/dalemusser/studysync/internal/app/system/auth"
	"github.com/dalemusser/studysync/internal/app/system/changefeed"
	"github.com/dalemusser/studysync/internal/app/system/metrics"
	"github.com/dalemusser/studysync/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// DefaultKeepAlive is how often an idle stream sends a comment line so
// proxies do not close it.
const DefaultKeepAlive = 25 * time.Second

// Handler streams change notifications to signed-in clients as
// Server-Sent Events.
type Handler struct {
	Svc       *service.Service
	Metrics   metrics.Recorder
	ErrLog    *uierrors.ErrorLogger
	Log       *zap.Logger
	KeepAlive time.Duration
}

func NewHandler(svc *service.Service, rec metrics.Recorder, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &Handler{
		Svc:       svc,
		Metrics:   rec,
		ErrLog:    errLog,
		Log:       logger,
		KeepAlive: DefaultKeepAlive,
	}
}

// ServeStream handles GET /api/events.
//
// Each event is written as
//
//	event: <kind>
//	data: {"kind":…,"topic":…,"group_id":…,"entity_id":…,"at":…}
//
// Clients re-query the API for the affected data. When the caller joins or
// leaves a group the stream resubscribes so group topics stay current.
func (h *Handler) ServeStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		h.ErrLog.LogServerError(w, r, "response writer cannot stream", nil, "Streaming is not supported.")
		return
	}

	caller, _ := auth.CurrentIdentity(r)
	ctx := r.Context()

	sub, feed, err := h.watch(ctx, caller)
	if err != nil {
		h.ErrLog.HandleServiceError(w, r, "open event stream", err)
		return
	}
	defer func() { sub.Close() }()

	h.Metrics.SubscriberAdded()
	defer h.Metrics.SubscriberRemoved()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	keepAlive := h.KeepAlive
	if keepAlive <= 0 {
		keepAlive = DefaultKeepAlive
	}
	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	h.Log.Debug("event stream opened",
		zap.String("user_id", feed.UserID.Hex()),
		zap.Int("topics", len(feed.Topics)))

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()

		case ev, ok := <-sub.C:
			if !ok {
				return
			}
			if err := writeEvent(w, ev); err != nil {
				h.Log.Debug("event stream write failed", zap.Error(err))
				return
			}
			flusher.Flush()

			if ev.Kind == changefeed.KindMembership && ev.Topic == feed.UserTopic {
				next, nextFeed, err := h.watch(ctx, caller)
				if err != nil {
					h.Log.Warn("event stream resubscribe failed", zap.Error(err))
					return
				}
				sub.Close()
				sub, feed = next, nextFeed
			}
		}
	}
}

func (h *Handler) watch(ctx context.Context, caller auth.Identity) (*changefeed.Subscription, service.Feed, error) {
	// Only the topic lookup is bounded; the subscription lives as long as
	// the request.
	lookupCtx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	feed, err := h.Svc.CallerFeed(lookupCtx, caller)
	if err != nil {
		return nil, service.Feed{}, err
	}
	sub, err := h.Svc.Broker().Subscribe(ctx, feed.Topics...)
	if err != nil {
		return nil, service.Feed{}, fmt.Errorf("subscribe: %w", err)
	}
	return sub, feed, nil
}

func writeEvent(w http.ResponseWriter, ev changefeed.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Kind, data)
	return err
}
