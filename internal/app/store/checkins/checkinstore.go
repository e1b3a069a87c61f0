// internal/app/store/checkins/checkinstore.go
package checkinstore

import (
	"context"
	"errors"
	"time"

	"github.com/pulsehq/pulse/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var ErrAlreadyCheckedIn = errors.New("already checked in today")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("checkins")}
}

// DateKey formats a time as the UTC calendar date used for entry_date.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Create inserts one check-in. The unique index on
// (team_id, participant_ref, entry_date) enforces one entry per participant
// per day; a duplicate maps to ErrAlreadyCheckedIn. Score range validation
// happens at the handler; entries are immutable after this point.
func (s *Store) Create(ctx context.Context, c models.CheckIn) (models.CheckIn, error) {
	c.ID = primitive.NewObjectID()
	c.CreatedAt = time.Now().UTC()
	if c.EntryDate == "" {
		c.EntryDate = DateKey(c.CreatedAt)
	}

	if _, err := s.c.InsertOne(ctx, c); err != nil {
		if wafflemongo.IsDup(err) {
			return models.CheckIn{}, ErrAlreadyCheckedIn
		}
		return models.CheckIn{}, err
	}
	return c, nil
}

// ScoresInRange returns the scores for a team with entry dates in
// [from, to), both formatted as DateKey values. Lexicographic comparison
// works because the keys are zero-padded ISO dates.
func (s *Store) ScoresInRange(ctx context.Context, teamID primitive.ObjectID, from, to string) ([]int, error) {
	cur, err := s.c.Find(ctx, bson.M{
		"team_id":    teamID,
		"entry_date": bson.M{"$gte": from, "$lt": to},
	}, options.Find().SetProjection(bson.M{"score": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []int
	for cur.Next(ctx) {
		var doc struct {
			Score int `bson:"score"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.Score)
	}
	return out, cur.Err()
}

// CountOnDate returns the number of entries for a team on one date.
func (s *Store) CountOnDate(ctx context.Context, teamID primitive.ObjectID, date string) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"team_id": teamID, "entry_date": date})
}

// HasEntry reports whether the participant already has an entry for the
// date.
func (s *Store) HasEntry(ctx context.Context, teamID primitive.ObjectID, participantRef, date string) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{
		"team_id":         teamID,
		"participant_ref": participantRef,
		"entry_date":      date,
	})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListInRange returns full entries for a team in [from, to), newest first.
// Used by the export endpoints.
func (s *Store) ListInRange(ctx context.Context, teamID primitive.ObjectID, from, to string) ([]models.CheckIn, error) {
	cur, err := s.c.Find(ctx, bson.M{
		"team_id":    teamID,
		"entry_date": bson.M{"$gte": from, "$lt": to},
	}, options.Find().SetSort(bson.D{{Key: "entry_date", Value: -1}, {Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.CheckIn
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteByTeam removes every check-in for a team (team reset/delete).
// Returns the number of documents deleted.
func (s *Store) DeleteByTeam(ctx context.Context, teamID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"team_id": teamID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
