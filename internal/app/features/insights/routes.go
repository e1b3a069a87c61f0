// internal/app/features/insights/routes.go
package insights

import (
	"github.com/pulsehq/pulse/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the insight routes (under /teams/{slug}/insights).
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Post("/", h.HandleGenerate)
	r.Get("/", h.ServeList)

	return r
}
