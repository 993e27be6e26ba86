// internal/app/features/groups/list.go
package groups

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/studysync/internal/app/features/errors"
	"github.com/dalemusser/studysync/internal/app/features/shared/params"
	"github.com/dalemusser/studysync/internal/app/store/queries/groupqueries"
	"github.com/dalemusser/studysync/internal/app/system/auth"
	"github.com/dalemusser/studysync/internal/app/system/jsonio"
	"github.com/dalemusser/studysync/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
)

// ServeList handles GET /api/groups. With ?course= it lists public groups
// for that course; otherwise every public group.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var (
		items []groupqueries.GroupListItem
		err   error
	)
	if course := query.Get(r, "course"); course != "" {
		items, err = h.Svc.ListGroupsByCourse(ctx, course)
	} else {
		items, err = h.Svc.ListPublicGroups(ctx)
	}
	if err != nil {
		h.ErrLog.HandleServiceError(w, r, "list groups", err)
		return
	}
	jsonio.Write(w, http.StatusOK, items)
}

// ServeMine handles GET /api/groups/mine.
func (h *Handler) ServeMine(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	caller, _ := auth.CurrentIdentity(r)
	items, err := h.Svc.ListMyGroups(ctx, caller)
	if err != nil {
		h.ErrLog.HandleServiceError(w, r, "list my groups", err)
		return
	}
	jsonio.Write(w, http.StatusOK, items)
}

// ServeRecommended handles GET /api/groups/recommended?limit=.
func (h *Handler) ServeRecommended(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	caller, _ := auth.CurrentIdentity(r)
	groups, err := h.Svc.RecommendForCaller(ctx, caller, params.Int(r, "limit"))
	if err != nil {
		h.ErrLog.HandleServiceError(w, r, "recommend groups", err)
		return
	}
	jsonio.Write(w, http.StatusOK, groups)
}

// ServeGroup handles GET /api/groups/{id}.
func (h *Handler) ServeGroup(w http.ResponseWriter, r *http.Request) {
	id, err := params.ObjectID(r, "id")
	if err != nil {
		uierrors.RenderBadRequest(w, r, "Invalid group id.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	g, err := h.Svc.GetGroup(ctx, id)
	if err != nil {
		h.ErrLog.HandleServiceError(w, r, "get group", err)
		return
	}
	jsonio.Write(w, http.StatusOK, g)
}

// ServeMembers handles GET /api/groups/{id}/members.
func (h *Handler) ServeMembers(w http.ResponseWriter, r *http.Request) {
	id, err := params.ObjectID(r, "id")
	if err != nil {
		uierrors.RenderBadRequest(w, r, "Invalid group id.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	members, err := h.Svc.ListGroupMembers(ctx, id)
	if err != nil {
		h.ErrLog.HandleServiceError(w, r, "list group members", err)
		return
	}
	jsonio.Write(w, http.StatusOK, members)
}
