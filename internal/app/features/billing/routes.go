// internal/app/features/billing/routes.go
package billing

import (
	"github.com/pulsehq/pulse/internal/app/system/auth"
	"github.com/pulsehq/pulse/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the billing routes (typically under /billing). The tier
// table and the provider webhook are public; the webhook authenticates
// with a shared secret instead of a session.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Get("/tiers", h.ServeTiers)
	r.Post("/webhook", h.HandleWebhook)

	r.Group(func(sr chi.Router) {
		sr.Use(sm.RequireSignedIn)
		sr.Get("/subscription", h.ServeSubscription)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole(authz.RoleOwner, authz.RoleAdmin))

		pr.Post("/checkout", h.HandleCreateCheckout)
		pr.Get("/checkout/{id}", h.ServeCheckout)
		pr.Get("/history", h.ServeHistory)
	})

	return r
}
