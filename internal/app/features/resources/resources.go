// internal/app/features/resources/resources.go
package resources

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

// ServeList handles GET /api/groups/{id}/resources in upload order.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	groupID, err := params.ObjectID(r, "id")
	if err != nil {
		uierrors.RenderBadRequest(w, r, "Invalid group id.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	caller, _ := auth.CurrentIdentity(r)
	list, err := h.Svc.ListResources(ctx, caller, groupID)
	if err != nil {
		h.ErrLog.HandleServiceError(w, r, "list resources", err)
		return
	}
	jsonio.Write(w, http.StatusOK, list)
}

// HandleUpload handles POST /api/groups/{id}/resources. The type is derived
// from the URL when omitted.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	groupID, err := params.ObjectID(r, "id")
	if err != nil {
		uierrors.RenderBadRequest(w, r, "Invalid group id.")
		return
	}

	var in service.NewResource
	if err := jsonio.Decode(w, r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode resource body", err, "Invalid JSON body.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	caller, _ := auth.CurrentIdentity(r)
	res, err := h.Svc.UploadResource(ctx, caller, groupID, in)
	if err != nil {
		h.ErrLog.HandleServiceError(w, r, "upload resource", err)
		return
	}
	h.Log.Info("resource shared",
		zap.String("resource_id", res.ID.Hex()),
		zap.String("group_id", groupID.Hex()),
		zap.String("type", res.Type))
	jsonio.Write(w, http.StatusCreated, res)
}
