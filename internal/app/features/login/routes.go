// internal/app/features/login/routes.go
package login

import (
	"github.com/pulsehq/pulse/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the account endpoints (typically under /auth).
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Post("/register", h.HandleRegister)
	r.Post("/login", h.HandleLogin)

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/me", h.ServeMe)
	})

	return r
}
