// internal/app/features/activity/handler.go
package activity

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/studysync/internal/app/features/errors"
	"github.com/dalemusser/studysync/internal/app/features/shared/params"
	"github.com/dalemusser/studysync/internal/app/service"
	"github.com/dalemusser/studysync/internal/app/system/auth"
	"github.com/dalemusser/studysync/internal/app/system/jsonio"
	"github.com/dalemusser/studysync/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Handler serves the caller's recent-activity feed.
type Handler struct {
	Svc    *service.Service
	ErrLog *uierrors.ErrorLogger
	Log    *zap.Logger
}

func NewHandler(svc *service.Service, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Svc:    svc,
		ErrLog: errLog,
		Log:    logger,
	}
}

// ServeRecent handles GET /api/activity?limit=: messages, resources and
// sessions across the caller's groups, newest first.
func (h *Handler) ServeRecent(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	caller, _ := auth.CurrentIdentity(r)
	items, err := h.Svc.RecentActivity(ctx, caller, params.Int(r, "limit"))
	if err != nil {
		h.ErrLog.HandleServiceError(w, r, "recent activity", err)
		return
	}
	jsonio.Write(w, http.StatusOK, items)
}
