// internal/app/store/releasenotes/releasenotestore.go
package releasenotestore

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
	return &Store{c: db.Collection("release_notes")}
}

// Create inserts a draft note. Notes start unpublished; Publish flips them
// onto the public changelog.
func (s *Store) Create(ctx context.Context, version, title, body string) (models.ReleaseNote, error) {
	now := time.Now().UTC()
	note := models.ReleaseNote{
		ID:        primitive.NewObjectID(),
		Version:   version,
		Title:     title,
		Body:      body,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.c.InsertOne(ctx, note); err != nil {
		return models.ReleaseNote{}, err
	}
	return note, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.ReleaseNote, error) {
	var note models.ReleaseNote
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&note); err != nil {
		return models.ReleaseNote{}, err
	}
	return note, nil
}

func (s *Store) Update(ctx context.Context, id primitive.ObjectID, version, title, body string) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"version":    version,
		"title":      title,
		"body":       body,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// SetPublished publishes or unpublishes a note. Publishing stamps
// published_at the first time only, so republishing keeps the original
// date on the changelog.
func (s *Store) SetPublished(ctx context.Context, id primitive.ObjectID, published bool) error {
	set := bson.M{
		"published":  published,
		"updated_at": time.Now().UTC(),
	}
	filter := bson.M{"_id": id}
	if published {
		res, err := s.c.UpdateOne(ctx,
			bson.M{"_id": id, "published_at": bson.M{"$exists": false}},
			bson.M{"$set": bson.M{
				"published":    true,
				"published_at": time.Now().UTC(),
				"updated_at":   time.Now().UTC(),
			}})
		if err != nil {
			return err
		}
		if res.MatchedCount == 1 {
			return nil
		}
		// Already has a published_at; just flip the flag.
	}
	res, err := s.c.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ListAll returns every note, drafts included, newest first.
func (s *Store) ListAll(ctx context.Context) ([]models.ReleaseNote, error) {
	return s.list(ctx, bson.M{})
}

// ListPublished returns only published notes, newest first. This feeds the
// public changelog and needs no session.
func (s *Store) ListPublished(ctx context.Context) ([]models.ReleaseNote, error) {
	return s.list(ctx, bson.M{"published": true})
}

func (s *Store) list(ctx context.Context, filter bson.M) ([]models.ReleaseNote, error) {
	cur, err := s.c.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.ReleaseNote
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
