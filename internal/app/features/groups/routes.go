// internal/app/features/groups/routes.go
package groups

import (
	"github.com/dalemusser/studysync/internal/app/system/auth"
	"github.com/dalemusser/studysync/internal/app/system/ratelimit"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /api/groups. Per-group sessions, messages and
// resources are mounted by their own features under /api/groups/{id}/….
func Routes(h *Handler, sm *auth.SessionManager, rl *ratelimit.Limiter) chi.Router {
	r := chi.NewRouter()

	// Everything under /api/groups requires a signed-in caller
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		// LIST
		pr.Get("/", h.ServeList)
		pr.Get("/mine", h.ServeMine)
		pr.Get("/recommended", h.ServeRecommended)

		// VIEW
		pr.Get("/{id}", h.ServeGroup)
		pr.Get("/{id}/members", h.ServeMembers)

		// MUTATIONS
		pr.Group(func(mr chi.Router) {
			mr.Use(rl.Middleware(h.Log))
			mr.Post("/", h.HandleCreate)
			mr.Post("/{id}/join", h.HandleJoin)
			mr.Post("/{id}/leave", h.HandleLeave)
		})
	})

	return r
}
