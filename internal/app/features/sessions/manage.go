// internal/app/features/sessions/manage.go
package sessions

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

// HandleCreate handles POST /api/groups/{id}/sessions. Only members may
// schedule; the creator is recorded as attending.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	groupID, err := params.ObjectID(r, "id")
	if err != nil {
		uierrors.RenderBadRequest(w, r, "Invalid group id.")
		return
	}

	var in service.NewSession
	if err := jsonio.Decode(w, r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode session body", err, "Invalid JSON body.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	caller, _ := auth.CurrentIdentity(r)
	ss, err := h.Svc.CreateSession(ctx, caller, groupID, in)
	if err != nil {
		h.ErrLog.HandleServiceError(w, r, "create session", err)
		return
	}
	h.Log.Info("session created",
		zap.String("session_id", ss.ID.Hex()),
		zap.String("group_id", groupID.Hex()))
	jsonio.Write(w, http.StatusCreated, ss)
}

type attendResponse struct {
	SessionID primitive.ObjectID `json:"session_id"`
	Attending bool               `json:"attending"`
}

// HandleAttend handles POST /api/sessions/{id}/attend. Attending twice is
// a no-op.
func (h *Handler) HandleAttend(w http.ResponseWriter, r *http.Request) {
	sessionID, err := params.ObjectID(r, "id")
	if err != nil {
		uierrors.RenderBadRequest(w, r, "Invalid session id.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	caller, _ := auth.CurrentIdentity(r)
	id, err := h.Svc.AttendSession(ctx, caller, sessionID)
	if err != nil {
		h.ErrLog.HandleServiceError(w, r, "attend session", err)
		return
	}
	jsonio.Write(w, http.StatusOK, attendResponse{SessionID: id, Attending: true})
}
