// internal/app/features/metrics/routes.go
package metrics

import (
	"github.com/pulsehq/pulse/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// TeamRoutes mounts the per-team metrics endpoint
// (under /teams/{slug}/metrics).
func TeamRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/", h.ServeTeam)
	return r
}

// OverviewRoutes mounts the cross-team overview (under /metrics).
func OverviewRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/overview", h.ServeOverview)
	return r
}
