// internal/app/features/users/write.go
package users

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/studysync/internal/app/features/errors"
	"github.com/dalemusser/studysync/internal/app/features/shared/params"
	"github.com/dalemusser/studysync/internal/app/service"
	userstore "github.com/dalemusser/studysync/internal/app/store/users"
	"github.com/dalemusser/studysync/internal/app/system/auth"
	"github.com/dalemusser/studysync/internal/app/system/jsonio"
	"github.com/dalemusser/studysync/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// HandleOnboard handles POST /api/users. Returns 201 when a profile was
// created and 200 with the existing profile otherwise.
func (h *Handler) HandleOnboard(w http.ResponseWriter, r *http.Request) {
	var in service.Profile
	if err := jsonio.Decode(w, r, &in); err != nil && err != jsonio.ErrEmptyBody {
		h.ErrLog.LogBadRequest(w, r, "decode onboard body", err, "Invalid JSON body.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	caller, _ := auth.CurrentIdentity(r)
	u, created, err := h.Svc.Onboard(ctx, caller, in)
	if err != nil {
		h.ErrLog.HandleServiceError(w, r, "onboard", err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
		h.Log.Info("user onboarded", zap.String("user_id", u.ID.Hex()))
	}
	jsonio.Write(w, status, u)
}

// profilePatch is the PATCH body. Absent fields are left unchanged; an
// empty courses array clears the list.
type profilePatch struct {
	Name       *string  `json:"name"`
	University *string  `json:"university"`
	Major      *string  `json:"major"`
	ImageURL   *string  `json:"image_url"`
	Courses    []string `json:"courses"`
}

// HandleUpdateProfile handles PATCH /api/users/{id}.
func (h *Handler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, err := params.ObjectID(r, "id")
	if err != nil {
		uierrors.RenderBadRequest(w, r, "Invalid user id.")
		return
	}

	var in profilePatch
	if err := jsonio.Decode(w, r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode profile body", err, "Invalid JSON body.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	caller, _ := auth.CurrentIdentity(r)
	u, err := h.Svc.UpdateProfile(ctx, caller, id, userstore.ProfileUpdate{
		Name:       in.Name,
		University: in.University,
		Major:      in.Major,
		ImageURL:   in.ImageURL,
		Courses:    in.Courses,
	})
	if err != nil {
		h.ErrLog.HandleServiceError(w, r, "update profile", err)
		return
	}
	jsonio.Write(w, http.StatusOK, u)
}
