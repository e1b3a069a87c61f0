// internal/app/features/checkins/routes.go
package checkins

import (
	"github.com/pulsehq/pulse/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the check-in routes (under /teams/{slug}/checkins).
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Post("/", h.HandleCheckIn)
	r.Get("/", h.ServeList)
	r.Get("/today", h.ServeToday)

	return r
}
