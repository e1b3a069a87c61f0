// internal/app/features/teams/routes.go
package teams

import (
	"github.com/pulsehq/pulse/internal/app/system/auth"
	"github.com/pulsehq/pulse/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the team management routes (typically under /teams).
// Fine-grained ownership checks happen in the handlers via teampolicy.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		pr.Get("/", h.ServeList)
		pr.Get("/{slug}", h.ServeView)
		pr.Post("/{slug}/join", h.HandleJoin)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole(authz.RoleOwner, authz.RoleAdmin))

		pr.Post("/", h.HandleCreate)
		pr.Patch("/{slug}", h.HandleUpdate)
		pr.Delete("/{slug}", h.HandleDelete)
		pr.Post("/{slug}/reset", h.HandleReset)
	})

	return r
}
