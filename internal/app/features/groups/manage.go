// internal/app/features/groups/manage.go
package groups

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/studysync/internal/app/features/errors"
	"github.com/dalemusser/studysync/internal/app/features/shared/params"
	"github.com/dalemusser/studysync/internal/app/service"
	"github.com/dalemusser/studysync/internal/app/system/auth"
	"github.com/dalemusser/studysync/internal/app/system/jsonio"
	"github.com/dalemusser/studysync/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// membershipResponse reports the caller's membership after join or leave.
type membershipResponse struct {
	GroupID primitive.ObjectID `json:"group_id"`
	Member  bool               `json:"member"`
}

// HandleCreate handles POST /api/groups. The creator becomes the first member.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in service.NewGroup
	if err := jsonio.Decode(w, r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode group body", err, "Invalid JSON body.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	caller, _ := auth.CurrentIdentity(r)
	id, err := h.Svc.CreateGroup(ctx, caller, in)
	if err != nil {
		h.ErrLog.HandleServiceError(w, r, "create group", err)
		return
	}
	h.Log.Info("group created", zap.String("group_id", id.Hex()), zap.String("subject", caller.Subject))

	g, err := h.Svc.GetGroup(ctx, id)
	if err != nil {
		// Created but not yet readable; the id is enough for the client.
		h.Log.Warn("reload created group failed", zap.Error(err), zap.String("group_id", id.Hex()))
		jsonio.Write(w, http.StatusCreated, map[string]primitive.ObjectID{"id": id})
		return
	}
	jsonio.Write(w, http.StatusCreated, g)
}

// HandleJoin handles POST /api/groups/{id}/join. Joining twice is a no-op.
func (h *Handler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	h.membership(w, r, "join group", true, h.Svc.JoinGroup)
}

// HandleLeave handles POST /api/groups/{id}/leave. Leaving a group the
// caller is not in is a no-op.
func (h *Handler) HandleLeave(w http.ResponseWriter, r *http.Request) {
	h.membership(w, r, "leave group", false, h.Svc.LeaveGroup)
}

func (h *Handler) membership(w http.ResponseWriter, r *http.Request, op string, member bool,
	fn func(context.Context, auth.Identity, primitive.ObjectID) (primitive.ObjectID, error)) {
	id, err := params.ObjectID(r, "id")
	if err != nil {
		uierrors.RenderBadRequest(w, r, "Invalid group id.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	caller, _ := auth.CurrentIdentity(r)
	groupID, err := fn(ctx, caller, id)
	if err != nil {
		h.ErrLog.HandleServiceError(w, r, op, err)
		return
	}
	jsonio.Write(w, http.StatusOK, membershipResponse{GroupID: groupID, Member: member})
}
