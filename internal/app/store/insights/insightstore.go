// internal/app/store/insights/insightstore.go
package insightstore

import (
	"context"
	"time"

	"github.com/pulsehq/pulse/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("insights")}
}

func (s *Store) Create(ctx context.Context, in models.Insight) (models.Insight, error) {
	in.ID = primitive.NewObjectID()
	in.CreatedAt = time.Now().UTC()
	if _, err := s.c.InsertOne(ctx, in); err != nil {
		return models.Insight{}, err
	}
	return in, nil
}

// ListByTeam returns a team's insights, newest first, capped by limit.
func (s *Store) ListByTeam(ctx context.Context, teamID primitive.ObjectID, limit int64) ([]models.Insight, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := s.c.Find(ctx, bson.M{"team_id": teamID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Insight
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteByTeam removes all insights for a team.
func (s *Store) DeleteByTeam(ctx context.Context, teamID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"team_id": teamID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
