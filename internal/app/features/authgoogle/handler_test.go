package authgoogle_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/studysync/internal/app/features/authgoogle"
	uierrors "github.com/dalemusser/studysync/internal/app/features/errors"
	"github.com/dalemusser/studysync/internal/app/service"
	"github.com/dalemusser/studysync/internal/app/store/oauthstate"
	"github.com/dalemusser/studysync/internal/app/system/auth"
	"github.com/dalemusser/studysync/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// fakeGoogle serves the token and userinfo endpoints.
type fakeGoogle struct {
	srv          *httptest.Server
	gotVerifier  string
	userID       string
	emailVerified bool
}

func newFakeGoogle(t *testing.T) *fakeGoogle {
	t.Helper()
	f := &fakeGoogle{userID: "1089", emailVerified: true}
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.PostForm.Get("code") != "good-code" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		f.gotVerifier = r.PostForm.Get("code_verifier")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "access-123",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":             f.userID,
			"email":          "ada@example.com",
			"verified_email": f.emailVerified,
			"name":           "Ada Lovelace",
		})
	})
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

type env struct {
	h      *authgoogle.Handler
	router http.Handler
	states *oauthstate.Store
	google *fakeGoogle
}

func newEnv(t *testing.T, clientID string) env {
	t.Helper()
	db := testutil.SetupIndexedDB(t)
	logger := zap.NewNop()
	sm := testutil.NewSessionManager(t)
	states := oauthstate.New(db)
	svc := service.New(service.Deps{DB: db, Log: logger})

	h := authgoogle.NewHandler(svc, sm, states, nil, uierrors.NewErrorLogger(logger),
		clientID, "test-client-secret", "http://localhost:8080", logger)

	g := newFakeGoogle(t)
	h.Endpoint = oauth2.Endpoint{AuthURL: g.srv.URL + "/auth", TokenURL: g.srv.URL + "/token", AuthStyle: oauth2.AuthStyleInParams}
	h.UserInfoURL = g.srv.URL + "/userinfo"

	root := chi.NewRouter()
	root.Use(sm.LoadIdentity)
	root.Mount("/auth/google", authgoogle.Routes(h))
	root.With(sm.RequireSignedIn).Get("/whoami", func(w http.ResponseWriter, r *http.Request) {
		id, _ := auth.CurrentIdentity(r)
		_ = json.NewEncoder(w).Encode(id)
	})
	return env{h: h, router: root, states: states, google: g}
}

func (e env) do(req *http.Request) *testutil.ResponseRecorder {
	rec := testutil.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestIsConfigured(t *testing.T) {
	if !(&authgoogle.Handler{ClientID: "id", ClientSecret: "secret"}).IsConfigured() {
		t.Error("IsConfigured() = false with credentials")
	}
	if (&authgoogle.Handler{ClientID: "id"}).IsConfigured() {
		t.Error("IsConfigured() = true without a secret")
	}
}

func TestServeLogin_NotConfigured(t *testing.T) {
	e := newEnv(t, "")
	rec := e.do(testutil.NewRequest(http.MethodGet, "/auth/google"))
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestServeLogin_RedirectsWithPKCE(t *testing.T) {
	e := newEnv(t, "test-client-id")
	rec := e.do(testutil.NewRequest(http.MethodGet, "/auth/google?return=/groups"))
	rec.AssertStatus(t, http.StatusTemporaryRedirect)

	loc, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parse Location: %v", err)
	}
	if !strings.HasPrefix(loc.String(), e.google.srv.URL+"/auth") {
		t.Errorf("Location = %q, want the provider auth URL", loc)
	}
	q := loc.Query()
	if q.Get("code_challenge_method") != "S256" || q.Get("code_challenge") == "" {
		t.Errorf("missing PKCE challenge: %v", q)
	}
	if q.Get("state") == "" {
		t.Fatal("missing state")
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	st, ok, err := e.states.Consume(ctx, q.Get("state"))
	if err != nil || !ok {
		t.Fatalf("Consume(state) = %v, %v", ok, err)
	}
	if st.ReturnURL != "/groups" || st.Verifier == "" {
		t.Errorf("stored state = %+v", st)
	}
}

func TestServeCallback_SignsInAndRedirects(t *testing.T) {
	e := newEnv(t, "test-client-id")
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := e.states.Save(ctx, "state-1", "verifier-1", "/groups/mine", time.Now().Add(time.Minute)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	rec := e.do(testutil.NewRequest(http.MethodGet, "/auth/google/callback?state=state-1&code=good-code"))
	rec.AssertStatus(t, http.StatusSeeOther)
	if loc := rec.Header().Get("Location"); loc != "/groups/mine" {
		t.Errorf("Location = %q, want /groups/mine", loc)
	}
	if e.google.gotVerifier != "verifier-1" {
		t.Errorf("code_verifier = %q, want verifier-1", e.google.gotVerifier)
	}

	req := testutil.NewRequest(http.MethodGet, "/whoami")
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	who := e.do(req)
	who.AssertStatus(t, http.StatusOK)
	var id auth.Identity
	who.DecodeJSON(t, &id)
	if id.Subject != "google|1089" || id.Email != "ada@example.com" {
		t.Errorf("identity = %+v", id)
	}

	// State is single use.
	again := e.do(testutil.NewRequest(http.MethodGet, "/auth/google/callback?state=state-1&code=good-code"))
	again.AssertStatus(t, http.StatusBadRequest)
}

func TestServeCallback_UnverifiedEmailDropped(t *testing.T) {
	e := newEnv(t, "test-client-id")
	e.google.emailVerified = false
	ctx, cancel := testutil.TestContext()
	defer cancel()
	_ = e.states.Save(ctx, "state-2", "v", "", time.Now().Add(time.Minute))

	rec := e.do(testutil.NewRequest(http.MethodGet, "/auth/google/callback?state=state-2&code=good-code"))
	rec.AssertStatus(t, http.StatusSeeOther)
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Errorf("Location = %q, want /", loc)
	}

	req := testutil.NewRequest(http.MethodGet, "/whoami")
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	var id auth.Identity
	e.do(req).DecodeJSON(t, &id)
	if id.Email != "" {
		t.Errorf("unverified email kept: %q", id.Email)
	}
}

func TestServeCallback_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		target string
		status int
	}{
		{"provider error", "/auth/google/callback?error=access_denied", http.StatusUnauthorized},
		{"missing state", "/auth/google/callback?code=good-code", http.StatusBadRequest},
		{"unknown state", "/auth/google/callback?state=nope&code=good-code", http.StatusBadRequest},
		{"bad code", "/auth/google/callback?state=state-3&code=bad-code", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t, "test-client-id")
			ctx, cancel := testutil.TestContext()
			defer cancel()
			_ = e.states.Save(ctx, "state-3", "v", "", time.Now().Add(time.Minute))

			rec := e.do(testutil.NewRequest(http.MethodGet, tt.target))
			rec.AssertStatus(t, tt.status)
			if len(rec.Result().Cookies()) != 0 {
				t.Error("failed callback set a cookie")
			}
		})
	}
}
