// internal/app/features/checkins/handler.go
package checkins

import (
	"context"
	"net/http"

	uierrors "github.com/pulsehq/pulse/internal/app/features/errors"
	checkinstore "github.com/pulsehq/pulse/internal/app/store/checkins"
	participantstore "github.com/pulsehq/pulse/internal/app/store/participants"
	teamstore "github.com/pulsehq/pulse/internal/app/store/teams"
	"github.com/pulsehq/pulse/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the daily Vibe mood check-ins.
type Handler struct {
	Teams        *teamstore.Store
	Participants *participantstore.Store
	Checkins     *checkinstore.Store
	Log          *zap.Logger
	ErrLog       *uierrors.ErrorLogger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		Teams:        teamstore.New(db),
		Participants: participantstore.New(db),
		Checkins:     checkinstore.New(db),
		Log:          logger,
		ErrLog:       uierrors.NewErrorLogger(logger),
	}
}

// vibeTeam resolves {slug} to a team with the Vibe tool enabled, writing
// the error response itself when it cannot.
func (h *Handler) vibeTeam(ctx context.Context, w http.ResponseWriter, r *http.Request) (models.Team, bool) {
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
	if !team.HasTool(models.ToolVibe) {
		h.ErrLog.LogBadRequest(w, r, "mood check-ins are not enabled for this team")
		return models.Team{}, false
	}
	return team, true
}
