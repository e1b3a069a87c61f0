// internal/app/features/surveys/routes.go
package surveys

import (
	"github.com/pulsehq/pulse/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the survey routes (under /teams/{slug}/surveys).
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/statements", h.ServeStatements)
	r.Get("/sessions", h.ServeSessions)
	r.Post("/sessions", h.HandleOpenSession)
	r.Post("/sessions/{id}/responses", h.HandleAnswer)
	r.Post("/sessions/{id}/close", h.HandleCloseSession)

	return r
}
