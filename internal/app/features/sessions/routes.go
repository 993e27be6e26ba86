// internal/app/features/sessions/routes.go
package sessions

import (
	"github.com/dalemusser/studysync/internal/app/system/auth"
	"github.com/dalemusser/studysync/internal/app/system/ratelimit"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /api/sessions.
func Routes(h *Handler, sm *auth.SessionManager, rl *ratelimit.Limiter) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		pr.Get("/mine", h.ServeMine)
		pr.Get("/upcoming", h.ServeUpcoming)
		pr.Get("/calendar.ics", h.ServeCalendar)

		pr.With(rl.Middleware(h.Log)).Post("/{id}/attend", h.HandleAttend)
	})

	return r
}

// GroupRoutes mounts under /api/groups/{id}/sessions.
func GroupRoutes(h *Handler, sm *auth.SessionManager, rl *ratelimit.Limiter) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		pr.Get("/", h.ServeGroupSessions)
		pr.With(rl.Middleware(h.Log)).Post("/", h.HandleCreate)
	})

	return r
}
