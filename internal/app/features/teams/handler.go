// internal/app/features/teams/handler.go
package teams

import (
	uierrors "github.com/pulsehq/pulse/internal/app/features/errors"
	checkinstore "github.com/pulsehq/pulse/internal/app/store/checkins"
	feedbackstore "github.com/pulsehq/pulse/internal/app/store/feedback"
	insightstore "github.com/pulsehq/pulse/internal/app/store/insights"
	participantstore "github.com/pulsehq/pulse/internal/app/store/participants"
	surveystore "github.com/pulsehq/pulse/internal/app/store/surveys"
	teamstore "github.com/pulsehq/pulse/internal/app/store/teams"
	"github.com/pulsehq/pulse/internal/app/system/auditlog"
	"github.com/pulsehq/pulse/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the feature-level entry point for team management.
type Handler struct {
	DB           *mongo.Database
	Teams        *teamstore.Store
	Participants *participantstore.Store
	Checkins     *checkinstore.Store
	Surveys      *surveystore.Store
	Feedback     *feedbackstore.Store
	Insights     *insightstore.Store
	AuditLog     *auditlog.Logger
	Log          *zap.Logger
	ErrLog       *uierrors.ErrorLogger
}

// NewHandler constructs a teams Handler with its stores bound to db.
func NewHandler(db *mongo.Database, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:           db,
		Teams:        teamstore.New(db),
		Participants: participantstore.New(db),
		Checkins:     checkinstore.New(db),
		Surveys:      surveystore.New(db),
		Feedback:     feedbackstore.New(db),
		Insights:     insightstore.New(db),
		AuditLog:     audit,
		Log:          logger,
		ErrLog:       uierrors.NewErrorLogger(logger),
	}
}

// teamResponse is the JSON shape for a team.
type teamResponse struct {
	ID               string   `json:"id"`
	Slug             string   `json:"slug"`
	Name             string   `json:"name"`
	OwnerID          string   `json:"owner_id,omitempty"`
	Tools            []string `json:"tools"`
	ExpectedTeamSize int      `json:"expected_team_size,omitempty"`
	Status           string   `json:"status"`
}

func toTeamResponse(t models.Team) teamResponse {
	resp := teamResponse{
		ID:               t.ID.Hex(),
		Slug:             t.Slug,
		Name:             t.Name,
		Tools:            t.Tools,
		ExpectedTeamSize: t.ExpectedTeamSize,
		Status:           t.Status,
	}
	if t.OwnerID != nil {
		resp.OwnerID = t.OwnerID.Hex()
	}
	return resp
}
