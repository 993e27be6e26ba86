// internal/app/features/sessions/list.go
package sessions

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/studysync/internal/app/features/errors"
	"github.com/dalemusser/studysync/internal/app/features/shared/params"
	"github.com/dalemusser/studysync/internal/app/system/auth"
	"github.com/dalemusser/studysync/internal/app/system/jsonio"
	"github.com/dalemusser/studysync/internal/app/system/timeouts"
)

// ServeGroupSessions handles GET /api/groups/{id}/sessions.
func (h *Handler) ServeGroupSessions(w http.ResponseWriter, r *http.Request) {
	groupID, err := params.ObjectID(r, "id")
	if err != nil {
		uierrors.RenderBadRequest(w, r, "Invalid group id.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Svc.SessionsForGroup(ctx, groupID)
	if err != nil {
		h.ErrLog.HandleServiceError(w, r, "list group sessions", err)
		return
	}
	jsonio.Write(w, http.StatusOK, list)
}

// ServeMine handles GET /api/sessions/mine: sessions of the caller's groups
// plus any others they attend.
func (h *Handler) ServeMine(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	caller, _ := auth.CurrentIdentity(r)
	list, err := h.Svc.MySessions(ctx, caller)
	if err != nil {
		h.ErrLog.HandleServiceError(w, r, "list my sessions", err)
		return
	}
	jsonio.Write(w, http.StatusOK, list)
}

// ServeUpcoming handles GET /api/sessions/upcoming?limit=.
func (h *Handler) ServeUpcoming(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	caller, _ := auth.CurrentIdentity(r)
	list, err := h.Svc.MyUpcomingSessions(ctx, caller, params.Int(r, "limit"))
	if err != nil {
		h.ErrLog.HandleServiceError(w, r, "list upcoming sessions", err)
		return
	}
	jsonio.Write(w, http.StatusOK, list)
}

// ServeCalendar handles GET /api/sessions/calendar.ics.
func (h *Handler) ServeCalendar(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	caller, _ := auth.CurrentIdentity(r)
	ics, err := h.Svc.ExportCalendar(ctx, caller)
	if err != nil {
		h.ErrLog.HandleServiceError(w, r, "export calendar", err)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="studysync.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(ics))
}
