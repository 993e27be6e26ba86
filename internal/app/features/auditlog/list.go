// internal/app/features/auditlog/list.go
package auditlog

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	uierrors "github.com/dalemusser/studysync/internal/app/features/errors"
	"github.com/dalemusser/studysync/internal/app/features/shared/params"
	"github.com/dalemusser/studysync/internal/app/service"
	"github.com/dalemusser/studysync/internal/app/system/auth"
	"github.com/dalemusser/studysync/internal/app/system/jsonio"
	"github.com/dalemusser/studysync/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
)

const dateLayout = "2006-01-02"

var errBadDate = errors.New("dates must be YYYY-MM-DD")

// ServeMine handles GET /api/audit.
// Filters: category, event_type, start_date, end_date (UTC days), page.
func (h *Handler) ServeMine(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		uierrors.RenderBadRequest(w, r, err.Error())
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "audit history")
	defer cancel()

	caller, _ := auth.CurrentIdentity(r)
	page, err := h.Svc.MyAuditHistory(ctx, caller, q)
	if err != nil {
		h.ErrLog.HandleServiceError(w, r, "audit history", err)
		return
	}
	jsonio.Write(w, http.StatusOK, page)
}

// ServeGroup handles GET /api/groups/{id}/audit.
func (h *Handler) ServeGroup(w http.ResponseWriter, r *http.Request) {
	groupID, err := params.ObjectID(r, "id")
	if err != nil {
		uierrors.RenderBadRequest(w, r, "Invalid group id.")
		return
	}
	q, err := parseQuery(r)
	if err != nil {
		uierrors.RenderBadRequest(w, r, err.Error())
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "group audit history")
	defer cancel()

	caller, _ := auth.CurrentIdentity(r)
	page, err := h.Svc.GroupAuditHistory(ctx, caller, groupID, q)
	if err != nil {
		h.ErrLog.HandleServiceError(w, r, "group audit history", err)
		return
	}
	jsonio.Write(w, http.StatusOK, page)
}

func parseQuery(r *http.Request) (service.AuditQuery, error) {
	q := service.AuditQuery{
		Category:  strings.TrimSpace(query.Get(r, "category")),
		EventType: strings.TrimSpace(query.Get(r, "event_type")),
		Page:      1,
	}
	if p, err := strconv.Atoi(query.Get(r, "page")); err == nil && p > 0 {
		q.Page = p
	}

	if s := strings.TrimSpace(query.Get(r, "start_date")); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			return q, errBadDate
		}
		q.Start = &t
	}
	if s := strings.TrimSpace(query.Get(r, "end_date")); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			return q, errBadDate
		}
		// inclusive: end of that day
		end := t.Add(24*time.Hour - time.Nanosecond)
		q.End = &end
	}
	return q, nil
}
