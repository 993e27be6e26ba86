package auth_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/studysync/internal/app/system/auth"
	"go.uber.org/zap"
)

const testSecret = "identity-secret-for-tests-0123456789"

func newTestVerifier(t *testing.T) *auth.TokenVerifier {
	t.Helper()
	v, err := auth.NewTokenVerifier(testSecret, "studysync-test")
	if err != nil {
		t.Fatalf("NewTokenVerifier: %v", err)
	}
	return v
}

func newTestSessionManager(t *testing.T) *auth.SessionManager {
	t.Helper()
	sm, err := auth.NewSessionManager(
		"test-session-key-must-be-32-chars-long",
		"test-session",
		"",
		24*time.Hour,
		false,
		newTestVerifier(t),
		zap.NewNop(),
	)
	if err != nil {
		t.Fatalf("failed to create session manager: %v", err)
	}
	return sm
}

// echoSubject writes the resolved subject, or "anonymous".
var echoSubject = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.CurrentIdentity(r)
	if !ok {
		w.Write([]byte("anonymous"))
		return
	}
	w.Write([]byte(id.Subject))
})

func TestNewSessionManager_RejectsEmptyKey(t *testing.T) {
	_, err := auth.NewSessionManager("", "s", "", time.Hour, false, nil, zap.NewNop())
	if err == nil {
		t.Error("expected error for empty session key")
	}
}

func TestNewTokenVerifier_RejectsEmptySecret(t *testing.T) {
	if _, err := auth.NewTokenVerifier("", ""); !errors.Is(err, auth.ErrMissingSecret) {
		t.Errorf("err = %v, want ErrMissingSecret", err)
	}
}

func TestTokenVerifier_RoundTrip(t *testing.T) {
	v := newTestVerifier(t)
	want := auth.Identity{Subject: "user_2abc", Email: "ada@example.com", Name: "Ada"}

	raw, err := v.Issue(want, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	got, err := v.Verify(raw)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got != want {
		t.Errorf("Verify = %+v, want %+v", got, want)
	}
}

func TestTokenVerifier_Rejects(t *testing.T) {
	v := newTestVerifier(t)
	other, _ := auth.NewTokenVerifier("a-different-secret-0123456789abcdef", "studysync-test")
	otherIssuer, _ := auth.NewTokenVerifier(testSecret, "someone-else")

	expired, _ := v.Issue(auth.Identity{Subject: "u1"}, -time.Hour)
	wrongKey, _ := other.Issue(auth.Identity{Subject: "u1"}, time.Hour)
	wrongIss, _ := otherIssuer.Issue(auth.Identity{Subject: "u1"}, time.Hour)
	noSubject, _ := v.Issue(auth.Identity{}, time.Hour)

	tests := []struct {
		name string
		raw  string
	}{
		{"garbage", "not-a-token"},
		{"expired", expired},
		{"wrong key", wrongKey},
		{"wrong issuer", wrongIss},
		{"no subject", noSubject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := v.Verify(tt.raw); !errors.Is(err, auth.ErrInvalidToken) {
				t.Errorf("Verify err = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestRequireSignedIn_NoIdentity_Returns401(t *testing.T) {
	sm := newTestSessionManager(t)
	handler := sm.LoadIdentity(sm.RequireSignedIn(echoSubject))

	req := httptest.NewRequest(http.MethodGet, "/api/groups", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
}

func TestLoadIdentity_BearerToken(t *testing.T) {
	sm := newTestSessionManager(t)
	raw, err := sm.Verifier().Issue(auth.Identity{Subject: "user_bearer"}, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	rec := httptest.NewRecorder()
	sm.LoadIdentity(sm.RequireSignedIn(echoSubject)).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "user_bearer" {
		t.Errorf("subject = %q, want user_bearer", rec.Body.String())
	}
}

func TestLoadIdentity_InvalidBearer_Returns401(t *testing.T) {
	sm := newTestSessionManager(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer nope")
	rec := httptest.NewRecorder()
	sm.LoadIdentity(echoSubject).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestSignIn_CookieRoundTrip(t *testing.T) {
	sm := newTestSessionManager(t)

	// Sign in and capture the cookie.
	signIn := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/session", nil)
	if err := sm.SignIn(signIn, req, auth.Identity{Subject: "user_cookie", Email: "c@example.com"}); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	cookies := signIn.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected a session cookie")
	}

	// Replay the cookie.
	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		req2.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	sm.LoadIdentity(echoSubject).ServeHTTP(rec, req2)

	if rec.Body.String() != "user_cookie" {
		t.Errorf("subject = %q, want user_cookie", rec.Body.String())
	}
}

func TestSignIn_RejectsEmptyIdentity(t *testing.T) {
	sm := newTestSessionManager(t)
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	if err := sm.SignIn(httptest.NewRecorder(), req, auth.Identity{}); err == nil {
		t.Error("expected error for empty identity")
	}
}

func TestSignOut_ExpiresCookie(t *testing.T) {
	sm := newTestSessionManager(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	if err := sm.SignOut(rec, req); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 || cookies[0].MaxAge >= 0 {
		t.Errorf("expected an expiring cookie, got %+v", cookies)
	}
}

func TestCurrentIdentity(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := auth.CurrentIdentity(req); ok {
		t.Error("expected no identity on a bare request")
	}

	req = auth.WithTestIdentity(req, auth.Identity{Subject: "u1", Name: "Ada"})
	id, ok := auth.CurrentIdentity(req)
	if !ok || id.Subject != "u1" || id.Name != "Ada" {
		t.Errorf("CurrentIdentity = %+v, %v", id, ok)
	}

	// A blank subject is treated as absent.
	req = auth.WithTestIdentity(httptest.NewRequest(http.MethodGet, "/", nil), auth.Identity{Subject: "  "})
	if _, ok := auth.CurrentIdentity(req); ok {
		t.Error("expected blank subject to be treated as anonymous")
	}
}
