// internal/domain/models/feedback.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Feedback is one anonymous peer feedback note for a team member. The author
// is attributed only by ParticipantRef. Body is stored already sanitized
// (htmlsanitize.Sanitize) so it can be rendered without re-checking.
type Feedback struct {
	ID             primitive.ObjectID `bson:"_id" json:"id"`
	TeamID         primitive.ObjectID `bson:"team_id" json:"team_id"`
	RecipientID    primitive.ObjectID `bson:"recipient_id" json:"recipient_id"`
	ParticipantRef string             `bson:"participant_ref" json:"participant_ref"`
	Body           string             `bson:"body" json:"body"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
}
