// internal/app/features/activity/routes.go
package activity

import (
	"github.com/dalemusser/studysync/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /api/activity.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/", h.ServeRecent)
	})
	return r
}
