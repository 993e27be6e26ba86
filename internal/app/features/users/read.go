// internal/app/features/users/read.go
package users

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/studysync/internal/app/features/errors"
	"github.com/dalemusser/studysync/internal/app/features/shared/params"
	"github.com/dalemusser/studysync/internal/app/system/auth"
	"github.com/dalemusser/studysync/internal/app/system/jsonio"
	"github.com/dalemusser/studysync/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
)

// ServeList handles GET /api/users.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	users, err := h.Svc.ListUsers(ctx)
	if err != nil {
		h.ErrLog.HandleServiceError(w, r, "list users", err)
		return
	}
	jsonio.Write(w, http.StatusOK, users)
}

// ServeMe handles GET /api/users/me. 401 means the caller has not onboarded.
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	caller, _ := auth.CurrentIdentity(r)
	u, err := h.Svc.CurrentUser(ctx, caller)
	if err != nil {
		h.ErrLog.HandleServiceError(w, r, "current user", err)
		return
	}
	jsonio.Write(w, http.StatusOK, u)
}

// ServeUser handles GET /api/users/{id}.
func (h *Handler) ServeUser(w http.ResponseWriter, r *http.Request) {
	id, err := params.ObjectID(r, "id")
	if err != nil {
		uierrors.RenderBadRequest(w, r, "Invalid user id.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Svc.GetUser(ctx, id)
	if err != nil {
		h.ErrLog.HandleServiceError(w, r, "get user", err)
		return
	}
	jsonio.Write(w, http.StatusOK, u)
}

// ServeLookup handles GET /api/users/lookup?email=.
func (h *Handler) ServeLookup(w http.ResponseWriter, r *http.Request) {
	email := query.Get(r, "email")
	if email == "" {
		uierrors.RenderBadRequest(w, r, "email is required.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Svc.GetUserByEmail(ctx, email)
	if err != nil {
		h.ErrLog.HandleServiceError(w, r, "lookup user", err)
		return
	}
	jsonio.Write(w, http.StatusOK, u)
}
