// internal/app/features/export/handler.go
package export

import (
	"context"
	"net/http"
	"time"

	uierrors "github.com/pulsehq/pulse/internal/app/features/errors"
	"github.com/pulsehq/pulse/internal/app/policy/teampolicy"
	checkinstore "github.com/pulsehq/pulse/internal/app/store/checkins"
	surveystore "github.com/pulsehq/pulse/internal/app/store/surveys"
	teamstore "github.com/pulsehq/pulse/internal/app/store/teams"
	"github.com/pulsehq/pulse/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler streams a team's raw check-in and survey data as CSV or JSON
// downloads. Rows carry anonymous participant refs only; nothing in an
// export links a row back to a user account.
type Handler struct {
	DB       *mongo.Database
	Teams    *teamstore.Store
	Checkins *checkinstore.Store
	Surveys  *surveystore.Store
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Teams:    teamstore.New(db),
		Checkins: checkinstore.New(db),
		Surveys:  surveystore.New(db),
		Log:      logger,
		ErrLog:   uierrors.NewErrorLogger(logger),
	}
}

// parseDateRange reads start/end query params ("2006-01-02"), defaulting to
// the last 30 days. The end date is inclusive.
func parseDateRange(r *http.Request) (start, end time.Time) {
	end = time.Now().UTC()
	start = end.AddDate(0, 0, -30)

	if s := query.Get(r, "start"); s != "" {
		if t, err := time.Parse("2006-01-02", s); err == nil {
			start = t
		}
	}
	if e := query.Get(r, "end"); e != "" {
		if t, err := time.Parse("2006-01-02", e); err == nil {
			end = t
		}
	}
	return start, end
}

// manageableTeam resolves {slug} and verifies the requester manages the
// team. Exports expose raw entries, so member access is not enough.
func (h *Handler) manageableTeam(ctx context.Context, w http.ResponseWriter, r *http.Request) (models.Team, bool) {
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
