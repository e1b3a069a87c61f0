// internal/app/features/export/routes.go
package export

import (
	"github.com/pulsehq/pulse/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the export downloads, nested under /teams/{slug}/export.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Use(sm.RequireSignedIn)

	r.Get("/checkins", h.ServeCheckins)
	r.Get("/surveys", h.ServeSurveys)

	return r
}
