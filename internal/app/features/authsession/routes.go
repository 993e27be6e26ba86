// internal/app/features/authsession/routes.go
package authsession

import (
	"github.com/dalemusser/studysync/internal/app/system/ratelimit"
	"github.com/go-chi/chi/v5"
)

// Routes mounts at /auth. Sign-in is rate limited per client address.
func Routes(h *Handler, rl *ratelimit.Limiter) chi.Router {
	r := chi.NewRouter()
	r.With(rl.Middleware(h.Log)).Post("/session", h.HandleSignIn)
	r.Post("/logout", h.HandleSignOut)
	return r
}
