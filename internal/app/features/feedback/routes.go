// internal/app/features/feedback/routes.go
package feedback

import (
	"github.com/pulsehq/pulse/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the feedback routes (under /teams/{slug}/feedback).
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Post("/", h.HandleSend)
	r.Get("/", h.ServeInbox)

	return r
}
