// internal/app/store/participants/participantstore.go
package participantstore

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pulsehq/pulse/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("participants")}
}

// EnsureRef returns the stable anonymous reference for a user on a team,
// creating one on first contact. Score entries and feedback store only this
// uuid, so a concurrent first check-in must still converge on a single ref:
// on a duplicate-key race the existing document is re-read.
func (s *Store) EnsureRef(ctx context.Context, teamID, userID primitive.ObjectID) (string, error) {
	var existing models.Participant
	err := s.c.FindOne(ctx, bson.M{"team_id": teamID, "user_id": userID}).Decode(&existing)
	if err == nil {
		return existing.ParticipantRef, nil
	}
	if err != mongo.ErrNoDocuments {
		return "", err
	}

	p := models.Participant{
		ID:             primitive.NewObjectID(),
		TeamID:         teamID,
		UserID:         userID,
		ParticipantRef: uuid.NewString(),
		CreatedAt:      time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		if wafflemongo.IsDup(err) {
			if err := s.c.FindOne(ctx, bson.M{"team_id": teamID, "user_id": userID}).Decode(&existing); err != nil {
				return "", err
			}
			return existing.ParticipantRef, nil
		}
		return "", err
	}
	return p.ParticipantRef, nil
}

// FindRef returns the user's participant ref for the team, or "" when the
// user never joined. Absence is not an error.
func (s *Store) FindRef(ctx context.Context, teamID, userID primitive.ObjectID) (string, error) {
	var p models.Participant
	err := s.c.FindOne(ctx, bson.M{"team_id": teamID, "user_id": userID}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return p.ParticipantRef, nil
}

// CountByTeam returns the detected team size: the number of distinct
// participants that have ever contributed to the team.
func (s *Store) CountByTeam(ctx context.Context, teamID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"team_id": teamID})
}

// DeleteByTeam removes all participant mappings for a team.
// Returns the number of documents deleted.
func (s *Store) DeleteByTeam(ctx context.Context, teamID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"team_id": teamID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
