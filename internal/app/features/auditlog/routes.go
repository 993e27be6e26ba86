// internal/app/features/auditlog/routes.go
package auditlog

import (
	"github.com/dalemusser/studysync/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts at /api/audit.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/", h.ServeMine)
	})
	return r
}

// GroupRoutes mounts at /api/groups/{id}/audit.
func GroupRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/", h.ServeGroup)
	})
	return r
}
