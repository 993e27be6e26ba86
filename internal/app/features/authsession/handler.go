// internal/app/features/authsession/handler.go
package authsession

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/studysync/internal/app/features/errors"
	"github.com/dalemusser/studysync/internal/app/service"
	"github.com/dalemusser/studysync/internal/app/system/auditlog"
	"github.com/dalemusser/studysync/internal/app/system/auth"
	"github.com/dalemusser/studysync/internal/app/system/jsonio"
	"github.com/dalemusser/studysync/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const methodToken = "identity_token"

// Handler exchanges identity tokens for cookie sessions.
type Handler struct {
	Svc        *service.Service
	SessionMgr *auth.SessionManager
	Audit      *auditlog.Logger
	ErrLog     *uierrors.ErrorLogger
	Log        *zap.Logger
}

func NewHandler(svc *service.Service, sm *auth.SessionManager, audit *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Svc:        svc,
		SessionMgr: sm,
		Audit:      audit,
		ErrLog:     errLog,
		Log:        logger,
	}
}

type signInRequest struct {
	Token string `json:"token"`
}

type sessionResponse struct {
	Subject string `json:"subject"`
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
	UserID  string `json:"user_id,omitempty"`
}

// HandleSignIn handles POST /auth/session. The identity comes from a bearer
// token already resolved by LoadIdentity, or from {"token": "..."} in the body.
func (h *Handler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.CurrentIdentity(r)
	if !ok {
		var req signInRequest
		if err := jsonio.Decode(w, r, &req); err != nil {
			h.ErrLog.LogBadRequest(w, r, "decode sign-in body", err, "Invalid JSON body.")
			return
		}
		verifier := h.SessionMgr.Verifier()
		if req.Token == "" || verifier == nil {
			h.Audit.SignInFailed(r.Context(), r, methodToken, "missing token")
			uierrors.RenderUnauthorized(w, r, "An identity token is required.")
			return
		}
		var err error
		id, err = verifier.Verify(req.Token)
		if err != nil {
			h.Log.Debug("sign-in token rejected", zap.Error(err))
			h.Audit.SignInFailed(r.Context(), r, methodToken, "invalid token")
			uierrors.RenderUnauthorized(w, r, "Invalid identity token.")
			return
		}
	}

	if err := h.SessionMgr.SignIn(w, r, id); err != nil {
		h.ErrLog.LogServerError(w, r, "sign in", err, "Could not establish a session.")
		return
	}

	resp := sessionResponse{Subject: id.Subject, Email: id.Email, Name: id.Name}
	userID := h.lookupUser(r.Context(), id.Subject)
	if userID != nil {
		resp.UserID = userID.Hex()
	}
	h.Audit.SignedIn(r.Context(), r, userID, id.Subject, methodToken)
	jsonio.Write(w, http.StatusOK, resp)
}

// HandleSignOut handles POST /auth/logout.
func (h *Handler) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.CurrentIdentity(r)
	if err := h.SessionMgr.SignOut(w, r); err != nil {
		h.Log.Warn("sign out: save session", zap.Error(err))
	}
	if id.Subject != "" {
		h.Audit.SignedOut(r.Context(), r, id.Subject)
	}
	w.WriteHeader(http.StatusNoContent)
}

// lookupUser returns the onboarded user id for subject, or nil when the
// caller has not onboarded yet.
func (h *Handler) lookupUser(ctx context.Context, subject string) *primitive.ObjectID {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	u, err := h.Svc.GetUserByExternalID(ctx, subject)
	if err != nil {
		if !errors.Is(err, service.ErrNotFound) {
			h.Log.Warn("sign in: user lookup failed", zap.String("subject", subject), zap.Error(err))
		}
		return nil
	}
	return &u.ID
}
