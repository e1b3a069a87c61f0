// internal/app/features/backlog/routes.go
package backlog

import (
	"github.com/pulsehq/pulse/internal/app/system/auth"
	"github.com/pulsehq/pulse/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the admin-only backlog and release note management routes
// (typically under /backlog).
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Use(sm.RequireSignedIn)
	r.Use(sm.RequireRole(authz.RoleAdmin))

	r.Get("/", h.ServeItems)
	r.Post("/", h.HandleCreateItem)
	r.Patch("/{id}", h.HandleUpdateItem)
	r.Post("/{id}/move", h.HandleMoveItem)
	r.Delete("/{id}", h.HandleDeleteItem)

	r.Get("/notes", h.ServeNotes)
	r.Post("/notes", h.HandleCreateNote)
	r.Patch("/notes/{id}", h.HandleUpdateNote)
	r.Post("/notes/{id}/publish", h.HandlePublishNote)
	r.Delete("/notes/{id}", h.HandleDeleteNote)

	return r
}

// ChangelogRoutes mounts the public changelog (typically at /changelog).
func ChangelogRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeChangelog)
	return r
}
