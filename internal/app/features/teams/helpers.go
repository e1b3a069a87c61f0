// internal/app/features/teams/helpers.go
package teams

import (
	"context"
	"net/http"

	uierrors "github.com/pulsehq/pulse/internal/app/features/errors"
	"github.com/pulsehq/pulse/internal/app/policy/teampolicy"
	"github.com/pulsehq/pulse/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
)

// teamBySlug resolves the {slug} URL parameter to a team, writing the error
// response itself. Returns ok=false when the response is already written.
func (h *Handler) teamBySlug(ctx context.Context, w http.ResponseWriter, r *http.Request) (models.Team, bool) {
	slug := chi.URLParam(r, "slug")
	if slug == "" {
		h.ErrLog.LogBadRequest(w, r, "missing team slug")
		return models.Team{}, false
	}
	team, err := h.Teams.GetBySlug(ctx, slug)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			uierrors.RenderNotFound(w, r, "team not found")
			return models.Team{}, false
		}
		h.ErrLog.LogServerError(w, r, "team lookup failed", err, "could not load team")
		return models.Team{}, false
	}
	return team, true
}

// manageableTeam resolves {slug} and verifies the requester can manage it.
func (h *Handler) manageableTeam(ctx context.Context, w http.ResponseWriter, r *http.Request) (models.Team, bool) {
	team, ok := h.teamBySlug(ctx, w, r)
	if !ok {
		return models.Team{}, false
	}
	allowed, err := teampolicy.CanManageTeam(ctx, r, team)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "manage check failed", err, "could not verify access")
		return models.Team{}, false
	}
	if !allowed {
		uierrors.RenderForbidden(w, r, "you do not manage this team")
		return models.Team{}, false
	}
	return team, true
}

// viewableTeam resolves {slug} and verifies the requester can read it.
func (h *Handler) viewableTeam(ctx context.Context, w http.ResponseWriter, r *http.Request) (models.Team, bool) {
	team, ok := h.teamBySlug(ctx, w, r)
	if !ok {
		return models.Team{}, false
	}
	allowed, err := teampolicy.CanViewTeam(ctx, h.DB, r, team)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "view check failed", err, "could not verify access")
		return models.Team{}, false
	}
	if !allowed {
		uierrors.RenderForbidden(w, r, "you do not have access to this team")
		return models.Team{}, false
	}
	return team, true
}
