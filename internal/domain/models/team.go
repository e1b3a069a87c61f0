// internal/domain/models/team.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Tool identifiers for the two tracking tools a team can enable.
const (
	ToolVibe = "vibe" // daily mood check-ins
	ToolWoW  = "wow"  // Way of Work process surveys
)

// CachedMetrics is the denormalized metrics block stored on a team document,
// one per enabled tool. It is refreshed by the background metrics job and is
// advisory: readers fall back to live recomputation when RefreshedAt is stale.
// The values mirror metrics.TeamMetrics exactly.
type CachedMetrics struct {
	AverageScore         *float64  `bson:"average_score,omitempty" json:"average_score,omitempty"`
	PreviousAverageScore *float64  `bson:"previous_average_score,omitempty" json:"previous_average_score,omitempty"`
	Trend                string    `bson:"trend,omitempty" json:"trend,omitempty"` // up | down | stable | "" (unknown)
	ParticipantCount     int       `bson:"participant_count" json:"participant_count"`
	TodayEntries         int       `bson:"today_entries" json:"today_entries"`
	ParticipationPercent int       `bson:"participation_percent" json:"participation_percent"`
	RefreshedAt          time.Time `bson:"refreshed_at" json:"refreshed_at"`
}

// Team is the unit of tracking. A team belongs to exactly one owner account;
// a team whose OwnerID is nil is orphaned and excluded from all listings.
//
// NOTE:
//   - Both tools are enabled by default at creation.
//   - ExpectedTeamSize is the admin-declared size; zero means "not declared",
//     in which case the detected distinct-participant count is used.
type Team struct {
	ID     primitive.ObjectID  `bson:"_id" json:"id"`
	Slug   string              `bson:"slug" json:"slug"`
	Name   string              `bson:"name" json:"name"`
	NameCI string              `bson:"name_ci" json:"-"`
	OwnerID *primitive.ObjectID `bson:"owner_id,omitempty" json:"owner_id,omitempty"`

	Tools            []string `bson:"tools" json:"tools"`
	ExpectedTeamSize int      `bson:"expected_team_size,omitempty" json:"expected_team_size,omitempty"`

	Status string `bson:"status" json:"status"`

	// Cached denormalized metrics, keyed by tool.
	Metrics map[string]CachedMetrics `bson:"metrics,omitempty" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// HasTool reports whether the given tool is enabled for the team.
func (t Team) HasTool(tool string) bool {
	for _, v := range t.Tools {
		if v == tool {
			return true
		}
	}
	return false
}

// Participant links a user to a team with a stable anonymous reference.
// Score entries and feedback carry only the ParticipantRef, never the user ID,
// so exported data cannot be traced back to an account.
type Participant struct {
	ID             primitive.ObjectID `bson:"_id" json:"id"`
	TeamID         primitive.ObjectID `bson:"team_id" json:"team_id"`
	UserID         primitive.ObjectID `bson:"user_id" json:"-"`
	ParticipantRef string             `bson:"participant_ref" json:"participant_ref"` // uuid
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
}
