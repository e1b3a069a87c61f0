// internal/app/features/surveys/handler.go
package surveys

import (
	"context"
	"net/http"

	uierrors "github.com/pulsehq/pulse/internal/app/features/errors"
	participantstore "github.com/pulsehq/pulse/internal/app/store/participants"
	surveystore "github.com/pulsehq/pulse/internal/app/store/surveys"
	teamstore "github.com/pulsehq/pulse/internal/app/store/teams"
	"github.com/pulsehq/pulse/internal/app/policy/teampolicy"
	"github.com/pulsehq/pulse/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the Way of Work survey rounds.
type Handler struct {
	DB           *mongo.Database
	Teams        *teamstore.Store
	Surveys      *surveystore.Store
	Participants *participantstore.Store
	Log          *zap.Logger
	ErrLog       *uierrors.ErrorLogger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		DB:           db,
		Teams:        teamstore.New(db),
		Surveys:      surveystore.New(db),
		Participants: participantstore.New(db),
		Log:          logger,
		ErrLog:       uierrors.NewErrorLogger(logger),
	}
}

// wowTeam resolves {slug} to a team with the WoW tool enabled.
func (h *Handler) wowTeam(ctx context.Context, w http.ResponseWriter, r *http.Request) (models.Team, bool) {
	slug := chi.URLParam(r, "slug")
	team, err := h.Teams.GetBySlug(ctx, slug)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			uierrors.RenderNotFound(w, r, "team not found")
			return models.Team{}, false
		}
		h.ErrLog.LogServerError(w, r, "team lookup failed", err, "could not load team")
		return models.Team{}, false
	}
	if !team.HasTool(models.ToolWoW) {
		h.ErrLog.LogBadRequest(w, r, "process surveys are not enabled for this team")
		return models.Team{}, false
	}
	return team, true
}

// manageableWowTeam additionally verifies the caller manages the team.
func (h *Handler) manageableWowTeam(ctx context.Context, w http.ResponseWriter, r *http.Request) (models.Team, bool) {
	team, ok := h.wowTeam(ctx, w, r)
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
