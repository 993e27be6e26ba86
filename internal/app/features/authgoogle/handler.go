// internal/app/features/authgoogle/handler.go
package authgoogle

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	uierrors "github.com/dalemusser/studysync/internal/app/features/errors"
	"github.com/dalemusser/studysync/internal/app/service"
	"github.com/dalemusser/studysync/internal/app/store/oauthstate"
	"github.com/dalemusser/studysync/internal/app/system/auditlog"
	"github.com/dalemusser/studysync/internal/app/system/auth"
	"github.com/dalemusser/studysync/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"github.com/gorilla/securecookie"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	methodGoogle   = "google"
	stateTTL       = 10 * time.Minute
	subjectPrefix  = "google|"
	defaultUserURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// Handler handles Google OAuth sign-in. A successful callback establishes
// the same cookie session as POST /auth/session, with external id
// "google|<google user id>".
type Handler struct {
	Svc        *service.Service
	SessionMgr *auth.SessionManager
	StateStore *oauthstate.Store
	Audit      *auditlog.Logger
	ErrLog     *uierrors.ErrorLogger
	Log        *zap.Logger

	ClientID     string
	ClientSecret string
	RedirectURL  string // e.g. "https://studysync.example.edu/auth/google/callback"

	// Endpoint and UserInfoURL default to Google's; tests point them at a
	// local server.
	Endpoint    oauth2.Endpoint
	UserInfoURL string
}

// NewHandler creates a Google OAuth handler. baseURL is the public origin the
// callback is registered under.
func NewHandler(
	svc *service.Service,
	sm *auth.SessionManager,
	stateStore *oauthstate.Store,
	audit *auditlog.Logger,
	errLog *uierrors.ErrorLogger,
	clientID, clientSecret, baseURL string,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Svc:          svc,
		SessionMgr:   sm,
		StateStore:   stateStore,
		Audit:        audit,
		ErrLog:       errLog,
		Log:          logger,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  baseURL + "/auth/google/callback",
		Endpoint:     google.Endpoint,
		UserInfoURL:  defaultUserURL,
	}
}

func (h *Handler) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.ClientID,
		ClientSecret: h.ClientSecret,
		RedirectURL:  h.RedirectURL,
		Scopes: []string{
			"openid",
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: h.Endpoint,
	}
}

// IsConfigured reports whether client credentials are present.
func (h *Handler) IsConfigured() bool {
	return h.ClientID != "" && h.ClientSecret != ""
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/google?return=/path                                                |
| Starts the flow: stores state + PKCE verifier, redirects to consent screen.  |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if !h.IsConfigured() {
		h.Log.Warn("Google OAuth not configured")
		uierrors.RenderNotFound(w, r)
		return
	}

	state, err := generateState()
	if err != nil {
		h.ErrLog.LogServerError(w, r, "generate OAuth state", err, "Could not start sign-in.")
		return
	}
	verifier := oauth2.GenerateVerifier()
	returnURL := query.Get(r, "return")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	if err := h.StateStore.Save(ctx, state, verifier, returnURL, time.Now().Add(stateTTL)); err != nil {
		h.ErrLog.LogServerError(w, r, "save OAuth state", err, "Could not start sign-in.")
		return
	}

	url := h.oauth2Config().AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
	h.Log.Debug("initiating Google OAuth flow", zap.String("return_url", returnURL))
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/google/callback                                                    |
| Consumes state, exchanges the code, fetches the profile, signs in.           |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	if errParam := query.Get(r, "error"); errParam != "" {
		h.Log.Warn("Google OAuth error",
			zap.String("error", errParam),
			zap.String("description", query.Get(r, "error_description")))
		h.Audit.SignInFailed(r.Context(), r, methodGoogle, "consent denied")
		uierrors.RenderUnauthorized(w, r, "Google sign-in was cancelled.")
		return
	}

	state := query.Get(r, "state")
	code := query.Get(r, "code")
	if state == "" || code == "" {
		uierrors.RenderBadRequest(w, r, "Missing state or code.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	pending, ok, err := h.StateStore.Consume(ctx, state)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "consume OAuth state", err, "Could not complete sign-in.")
		return
	}
	if !ok {
		h.Audit.SignInFailed(r.Context(), r, methodGoogle, "invalid state")
		uierrors.RenderBadRequest(w, r, "Sign-in link expired. Please try again.")
		return
	}

	token, err := h.oauth2Config().Exchange(ctx, code, oauth2.VerifierOption(pending.Verifier))
	if err != nil {
		h.Log.Warn("OAuth code exchange failed", zap.Error(err))
		h.Audit.SignInFailed(r.Context(), r, methodGoogle, "token exchange")
		uierrors.RenderUnauthorized(w, r, "Google sign-in failed.")
		return
	}

	info, err := h.fetchUserInfo(ctx, token)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "fetch Google user info", err, "Google sign-in failed.")
		return
	}
	if info.ID == "" {
		h.Audit.SignInFailed(r.Context(), r, methodGoogle, "missing user id")
		uierrors.RenderUnauthorized(w, r, "Google sign-in failed.")
		return
	}

	id := auth.Identity{Subject: subjectPrefix + info.ID, Email: info.Email, Name: info.Name}
	if err := h.SessionMgr.SignIn(w, r, id); err != nil {
		h.ErrLog.LogServerError(w, r, "sign in", err, "Could not establish a session.")
		return
	}

	h.Audit.SignedIn(r.Context(), r, h.knownUser(ctx, id.Subject), id.Subject, methodGoogle)
	h.Log.Info("signed in via Google", zap.String("subject", id.Subject))
	http.Redirect(w, r, urlutil.SafeReturn(pending.ReturnURL, "", "/"), http.StatusSeeOther)
}

// googleUserInfo is the subset of the v2 userinfo response we use.
type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"verified_email"`
	Name          string `json:"name"`
}

func (h *Handler) fetchUserInfo(ctx context.Context, token *oauth2.Token) (*googleUserInfo, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
	resp, err := client.Get(h.UserInfoURL)
	if err != nil {
		return nil, fmt.Errorf("fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user info: unexpected status %d", resp.StatusCode)
	}
	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode user info: %w", err)
	}
	if !info.EmailVerified {
		info.Email = ""
	}
	return &info, nil
}

// knownUser returns the onboarded user's id for the audit record, or nil.
func (h *Handler) knownUser(ctx context.Context, subject string) *primitive.ObjectID {
	u, err := h.Svc.GetUserByExternalID(ctx, subject)
	if err != nil {
		if !errors.Is(err, service.ErrNotFound) {
			h.Log.Warn("google sign in: user lookup failed", zap.Error(err))
		}
		return nil
	}
	return &u.ID
}

// generateState returns a random URL-safe state token.
func generateState() (string, error) {
	b := securecookie.GenerateRandomKey(32)
	if b == nil {
		return "", errors.New("random source unavailable")
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
