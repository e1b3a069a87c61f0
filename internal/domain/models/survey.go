// internal/domain/models/survey.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Survey session statuses.
const (
	SurveyOpen   = "open"
	SurveyClosed = "closed"
)

// SurveyStatements is the fixed set of Way of Work statements members score
// from 1 (strongly disagree) to 5 (strongly agree).
var SurveyStatements = []string{
	"goal_clarity",
	"planning",
	"collaboration",
	"feedback_culture",
	"continuous_improvement",
	"sustainable_pace",
}

// SurveySession is one Way of Work survey round for a team. Sessions are
// opened, collect responses, and are closed; closing freezes the session
// average. Session ordinals are 1-based and strictly increasing per team.
type SurveySession struct {
	ID      primitive.ObjectID `bson:"_id" json:"id"`
	TeamID  primitive.ObjectID `bson:"team_id" json:"team_id"`
	Ordinal int                `bson:"ordinal" json:"ordinal"`
	Status  string             `bson:"status" json:"status"`

	// AverageScore is set when the session is closed: the mean of all
	// statement scores received, rounded to one decimal. Nil when the
	// session closed with no responses.
	AverageScore *float64 `bson:"average_score,omitempty" json:"average_score,omitempty"`

	OpenedAt time.Time  `bson:"opened_at" json:"opened_at"`
	ClosedAt *time.Time `bson:"closed_at,omitempty" json:"closed_at,omitempty"`
}

// SurveyResponse is one participant's score for one statement in a session.
// Immutable once created.
type SurveyResponse struct {
	ID             primitive.ObjectID `bson:"_id" json:"id"`
	SessionID      primitive.ObjectID `bson:"session_id" json:"session_id"`
	TeamID         primitive.ObjectID `bson:"team_id" json:"team_id"`
	ParticipantRef string             `bson:"participant_ref" json:"participant_ref"`
	Statement      string             `bson:"statement" json:"statement"`
	Score          int                `bson:"score" json:"score"` // validated to [1,5] at the write endpoint
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
}
