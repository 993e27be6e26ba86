// internal/app/features/messages/messages.go
package messages

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/studysync/internal/app/features/errors"
	"github.com/dalemusser/studysync/internal/app/features/shared/params"
	"github.com/dalemusser/studysync/internal/app/system/auth"
	"github.com/dalemusser/studysync/internal/app/system/jsonio"
	"github.com/dalemusser/studysync/internal/app/system/timeouts"
)

// ServeList handles GET /api/groups/{id}/messages?limit=. Newest first.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	groupID, err := params.ObjectID(r, "id")
	if err != nil {
		uierrors.RenderBadRequest(w, r, "Invalid group id.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	caller, _ := auth.CurrentIdentity(r)
	msgs, err := h.Svc.ListMessages(ctx, caller, groupID, params.Int(r, "limit"))
	if err != nil {
		h.ErrLog.HandleServiceError(w, r, "list messages", err)
		return
	}
	jsonio.Write(w, http.StatusOK, msgs)
}

type sendRequest struct {
	Content string `json:"content"`
}

// HandleSend handles POST /api/groups/{id}/messages. Members only.
func (h *Handler) HandleSend(w http.ResponseWriter, r *http.Request) {
	groupID, err := params.ObjectID(r, "id")
	if err != nil {
		uierrors.RenderBadRequest(w, r, "Invalid group id.")
		return
	}

	var in sendRequest
	if err := jsonio.Decode(w, r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode message body", err, "Invalid JSON body.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	caller, _ := auth.CurrentIdentity(r)
	m, err := h.Svc.SendMessage(ctx, caller, groupID, in.Content)
	if err != nil {
		h.ErrLog.HandleServiceError(w, r, "send message", err)
		return
	}
	jsonio.Write(w, http.StatusCreated, m)
}
