// Package auth resolves the caller's external identity for each request.
//
// An identity arrives either as a bearer identity token (verified by
// TokenVerifier) or from the signed session cookie written by SignIn. The
// Identity's Subject is the external auth id that users.external_id is keyed on.
package auth

import (
	"context"
	"net/http"
	"strings"
)

// Identity is the authenticated caller as asserted by the identity provider.
type Identity struct {
	Subject string `json:"subject"`
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
}

// IsZero reports whether no subject is present.
func (i Identity) IsZero() bool {
	return strings.TrimSpace(i.Subject) == ""
}

type ctxKey string

const identityKey ctxKey = "identity"

// WithIdentity returns ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// FromContext returns the identity in ctx and whether one is present.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	if !ok || id.IsZero() {
		return Identity{}, false
	}
	return id, true
}

// CurrentIdentity returns the identity attached to r by LoadIdentity.
func CurrentIdentity(r *http.Request) (Identity, bool) {
	return FromContext(r.Context())
}

// WithTestIdentity attaches id to r, bypassing the session middleware.
func WithTestIdentity(r *http.Request, id Identity) *http.Request {
	return r.WithContext(WithIdentity(r.Context(), id))
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}
