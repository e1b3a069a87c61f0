// internal/domain/models/insight.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Insight is one generated coaching recommendation for a team. The metrics
// snapshot records the inputs the text was derived from so insights remain
// meaningful after the underlying entries change.
type Insight struct {
	ID     primitive.ObjectID `bson:"_id" json:"id"`
	TeamID primitive.ObjectID `bson:"team_id" json:"team_id"`
	Tool   string             `bson:"tool" json:"tool"` // vibe | wow
	Body   string             `bson:"body" json:"body"`

	Snapshot InsightSnapshot `bson:"snapshot" json:"snapshot"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// InsightSnapshot captures the metrics an insight was generated from.
type InsightSnapshot struct {
	AverageScore         *float64 `bson:"average_score,omitempty" json:"average_score,omitempty"`
	PreviousAverageScore *float64 `bson:"previous_average_score,omitempty" json:"previous_average_score,omitempty"`
	Trend                string   `bson:"trend,omitempty" json:"trend,omitempty"`
	ParticipationPercent int      `bson:"participation_percent" json:"participation_percent"`
	NeedsAttention       bool     `bson:"needs_attention" json:"needs_attention"`
}
