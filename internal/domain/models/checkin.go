// internal/domain/models/checkin.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CheckIn is one Vibe mood entry: one score per participant per team per day.
// Check-ins are immutable once created; they are never updated, only
// superseded by the next day's entry or bulk-deleted on team reset.
type CheckIn struct {
	ID             primitive.ObjectID `bson:"_id" json:"id"`
	TeamID         primitive.ObjectID `bson:"team_id" json:"team_id"`
	ParticipantRef string             `bson:"participant_ref" json:"participant_ref"`
	Score          int                `bson:"score" json:"score"`           // validated to [1,5] at the write endpoint
	EntryDate      string             `bson:"entry_date" json:"entry_date"` // UTC calendar date, "2006-01-02"
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
}
