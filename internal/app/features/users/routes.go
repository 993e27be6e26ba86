// internal/app/features/users/routes.go
package users

import (
	"github.com/dalemusser/studysync/internal/app/system/auth"
	"github.com/dalemusser/studysync/internal/app/system/ratelimit"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /api/users. Every route requires a signed-in caller;
// onboarding is the only one that works before a profile exists.
func Routes(h *Handler, sm *auth.SessionManager, rl *ratelimit.Limiter) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		pr.Get("/", h.ServeList)
		pr.Get("/me", h.ServeMe)
		pr.Get("/lookup", h.ServeLookup)
		pr.Get("/{id}", h.ServeUser)

		pr.With(rl.Middleware(h.Log)).Post("/", h.HandleOnboard)
		pr.With(rl.Middleware(h.Log)).Patch("/{id}", h.HandleUpdateProfile)
	})

	return r
}
