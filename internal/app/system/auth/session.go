package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dalemusser/studysync/internal/app/system/jsonio"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const (
	subjectKey = "subject"
	emailKey   = "email"
	nameKey    = "name"
)

// SessionManager loads identities from bearer tokens or the session cookie
// and guards routes that need one.
type SessionManager struct {
	store    *sessions.CookieStore
	name     string
	verifier *TokenVerifier
	log      *zap.Logger
}

// NewSessionManager builds a cookie-backed manager. verifier may be nil, in
// which case bearer tokens are rejected and only cookies are honored.
//
// In production (secure=true) cookies are Secure + SameSite=None; in local
// dev over http://localhost use secure=false so browsers accept them.
func NewSessionManager(sessionKey, name, domain string, ttl time.Duration, secure bool, verifier *TokenVerifier, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, errors.New("session key is empty; provide 32+ random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended", zap.Int("length", len(sessionKey)))
	}
	if name == "" {
		return nil, errors.New("session name is empty")
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	store.Options = &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if secure {
		store.Options.SameSite = http.SameSiteNoneMode
	}

	logger.Info("session store initialized",
		zap.String("name", name),
		zap.Bool("secure", secure),
		zap.String("domain", domain),
		zap.Bool("bearer_tokens", verifier != nil))

	return &SessionManager{store: store, name: name, verifier: verifier, log: logger}, nil
}

// Verifier returns the identity token verifier, or nil.
func (m *SessionManager) Verifier() *TokenVerifier {
	return m.verifier
}

// LoadIdentity attaches the caller's identity to the request context. A
// bearer token takes precedence over the cookie; a present but invalid bearer
// token is answered with 401 rather than silently downgraded.
func (m *SessionManager) LoadIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if raw := bearerToken(r); raw != "" {
			if m.verifier == nil {
				jsonio.WriteError(w, http.StatusUnauthorized, "unauthorized", "bearer tokens are not accepted")
				return
			}
			id, err := m.verifier.Verify(raw)
			if err != nil {
				m.log.Debug("rejected identity token", zap.Error(err))
				jsonio.WriteError(w, http.StatusUnauthorized, "unauthorized", "invalid identity token")
				return
			}
			next.ServeHTTP(w, WithTestIdentity(r, id))
			return
		}

		sess, err := m.store.Get(r, m.name)
		if err == nil {
			if sub, _ := sess.Values[subjectKey].(string); sub != "" {
				id := Identity{
					Subject: sub,
					Email:   stringValue(sess, emailKey),
					Name:    stringValue(sess, nameKey),
				}
				r = WithTestIdentity(r, id)
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSignedIn answers 401 unless LoadIdentity found an identity.
func (m *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentIdentity(r); !ok {
			jsonio.WriteError(w, http.StatusUnauthorized, "unauthorized", "sign in required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SignIn stores id in the session cookie.
func (m *SessionManager) SignIn(w http.ResponseWriter, r *http.Request, id Identity) error {
	if id.IsZero() {
		return errors.New("cannot sign in an empty identity")
	}
	sess, _ := m.store.Get(r, m.name)
	sess.Values[subjectKey] = id.Subject
	sess.Values[emailKey] = id.Email
	sess.Values[nameKey] = id.Name
	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// SignOut expires the session cookie.
func (m *SessionManager) SignOut(w http.ResponseWriter, r *http.Request) error {
	sess, _ := m.store.Get(r, m.name)
	sess.Values = map[interface{}]interface{}{}
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

func stringValue(s *sessions.Session, key string) string {
	if v, ok := s.Values[key].(string); ok {
		return v
	}
	return ""
}
